package rexo

import (
	"context"
	"errors"
	"html"
	"net/http"
)

const notFoundBody = "<p>Uh, this ain't a page.</p>"

// PageRenderer renders the page for a request path. *Renderer is a
// PageRenderer.
type PageRenderer interface {
	RenderPage(ctx context.Context, route string) (string, error)
}

var _ PageRenderer = &Renderer{}

// Handler serves the pages a PageRenderer renders, using the request path as
// the route. Missing pages get a 404, and any other error gets a 500 whose
// body is the error message.
type Handler struct {
	pages PageRenderer
}

// NewHandler returns a Handler serving pages from pages.
func NewHandler(pages PageRenderer) *Handler {
	return &Handler{pages: pages}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	log := logger(ctx).With("path", r.URL.Path)

	page, err := h.pages.RenderPage(ctx, r.URL.Path)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch {
	case errors.Is(err, ErrPageNotFound):
		log.DebugContext(ctx, "page not found")
		w.WriteHeader(http.StatusNotFound)
		page = notFoundBody
	case err != nil:
		log.ErrorContext(ctx, "error rendering page", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		page = "<p>" + html.EscapeString(err.Error()) + "</p>"
	default:
		w.WriteHeader(http.StatusOK)
	}
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write([]byte(page)); err != nil {
		log.ErrorContext(ctx, "error writing response", "error", err)
	}
}
