package rexo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "impractical.co/rexo"

	// pageResourceType is the DataSource type page definitions are
	// stored under.
	pageResourceType = "page"
)

var (
	// ErrNoTemplateStore is returned by New when it's given a nil
	// TemplateStore.
	ErrNoTemplateStore = errors.New("a template store is required")

	// ErrNoDataSource is returned by New when it's given a nil
	// DataSource.
	ErrNoDataSource = errors.New("a data source is required")
)

// Renderer turns requested paths into HTML. A Renderer must be instantiated
// through New, its empty value is not usable. It can safely be used by
// multiple goroutines.
type Renderer struct {
	store        TemplateStore
	data         DataSource
	cache        TemplateCache
	engine       *Engine
	tracer       trace.Tracer
	fetchTimeout time.Duration
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithTemplateCache sets the cache fragment templates are kept in. Defaults
// to a new MemoryCache, so two Renderers don't share templates unless they're
// given the same cache.
func WithTemplateCache(cache TemplateCache) Option {
	return func(r *Renderer) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithEngine sets the Engine templates are compiled and rendered with.
// Defaults to an Engine with empty Globals.
func WithEngine(engine *Engine) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithTracerProvider sets where spans are sent. Defaults to the global
// TracerProvider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(r *Renderer) {
		if provider != nil {
			r.tracer = provider.Tracer(instrumentationName)
		}
	}
}

// WithFetchTimeout bounds every template and data fetch. A fetch that runs
// out of time fails the page like any other fetch error. Zero, the default,
// means fetches are only bound by the context passed to RenderPage.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Renderer) {
		r.fetchTimeout = timeout
	}
}

// New returns a Renderer that reads templates from store and page
// definitions and records from data.
func New(store TemplateStore, data DataSource, opts ...Option) (*Renderer, error) {
	if store == nil {
		return nil, ErrNoTemplateStore
	}
	if data == nil {
		return nil, ErrNoDataSource
	}
	renderer := &Renderer{
		store:  store,
		data:   data,
		cache:  NewMemoryCache(),
		engine: NewEngine(Globals{}),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(renderer)
		}
	}
	return renderer, nil
}

// RenderPage renders the page for route, a request path like "/blog/42".
//
// The first segment of route is the page's slug, looked up case-insensitively
// as a "page" record in the DataSource; an empty route renders DefaultSlug.
// If no page has that slug, ErrPageNotFound is returned. Otherwise the page is
// built with BuildPage, using the rest of the segments as parameters, then
// rendered and minified.
func (r *Renderer) RenderPage(ctx context.Context, route string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "rexo.RenderPage", trace.WithAttributes(
		attribute.String("rexo.route", route),
	))
	defer span.End()

	slug, params := parseRoute(route)
	ctx = withPageLogger(ctx, route, slug, params)
	logger(ctx).DebugContext(ctx, "rendering page")
	page, err := r.lookupPage(ctx, slug)
	if errors.Is(err, ErrPageNotFound) {
		span.SetAttributes(attribute.Bool("rexo.page.found", false))
		return "", err
	}
	if err != nil {
		recordError(span, err)
		return "", err
	}

	html, err := r.RenderDefinition(ctx, page, params)
	if err != nil {
		recordError(span, err)
		return "", err
	}
	return html, nil
}

// RenderDefinition builds page with BuildPage, renders its page template, and
// minifies the result. Nothing is rendered if any fetch fails.
func (r *Renderer) RenderDefinition(ctx context.Context, page PageDefinition, params []string) (string, error) {
	build, err := r.BuildPage(ctx, page, params)
	if err != nil {
		return "", err
	}
	out, err := r.engine.Render(build.PageTemplate, build.Context.Map())
	if err != nil {
		return "", fmt.Errorf("error rendering page %q: %w", page.Slug, err)
	}
	return Minify(out), nil
}

// lookupPage fetches the page definition for slug. Records that aren't JSON
// objects, and objects without a Slug, mean there is no such page.
func (r *Renderer) lookupPage(ctx context.Context, slug string) (PageDefinition, error) {
	raw, err := r.fetchData(ctx, pageResourceType, strings.ToLower(slug))
	if err != nil {
		return PageDefinition{}, err
	}
	if !bytes.HasPrefix(raw, []byte("{")) {
		return PageDefinition{}, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	var page PageDefinition
	if err := json.Unmarshal(raw, &page); err != nil {
		return PageDefinition{}, fmt.Errorf("error decoding page %q: %w", slug, err)
	}
	if page.Slug == "" {
		return PageDefinition{}, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	return page, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
