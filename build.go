package rexo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Context is what a page template is rendered against.
type Context struct {
	Title       string
	Description string
	Content     string

	// Templates holds every fragment template of the page, by the Name
	// of its TemplateReference. The page template itself is not in here.
	Templates map[string]Template

	// Data holds the literal Data of every TemplateReference, in
	// declaration order, and then the record fetched for the route, under
	// the page's slug.
	Data map[string]any
}

// Map returns c the way templates see it, as .title, .description, .content,
// .templates, and .data.
func (c Context) Map() map[string]any {
	return map[string]any{
		"title":       c.Title,
		"description": c.Description,
		"content":     c.Content,
		"templates":   c.Templates,
		"data":        c.Data,
	}
}

// Build is a page that is ready to be rendered: its page template, and the
// Context to render it against.
type Build struct {
	PageTemplate Template
	Context      Context
}

// BuildPage fetches every template page references, and, when params holds
// exactly one value, the record of the page's type with that value as its
// key. An empty value fetches the whole collection of that type. The fetches run concurrently; the first one to fail cancels the rest
// and its error is returned, with no partial Build.
func (r *Renderer) BuildPage(ctx context.Context, page PageDefinition, params []string) (*Build, error) {
	ctx, span := r.tracer.Start(ctx, "rexo.BuildPage", trace.WithAttributes(
		attribute.String("rexo.page.slug", page.Slug),
		attribute.Int("rexo.page.templates", len(page.Templates)),
		attribute.Int("rexo.page.params", len(params)),
	))
	defer span.End()

	pagePos, err := page.pageTemplateIndex()
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	pageCtx := Context{
		Title:       page.Title,
		Description: page.Description,
		Content:     page.Content,
		Templates:   map[string]Template{},
		Data:        map[string]any{},
	}
	for _, ref := range page.Templates {
		for key, val := range ref.Data {
			pageCtx.Data[key] = val
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	templates := r.fetchPageTemplates(groupCtx, group, page.Templates, pagePos)
	var routeData *routeResult
	if len(params) == 1 {
		routeData = r.fetchRouteData(groupCtx, group, page.Slug, params[0])
	}
	logger(ctx).DebugContext(ctx, "waiting on page fetches", "slug", page.Slug, "templates", len(page.Templates), "data", routeData != nil)
	if err := group.Wait(); err != nil {
		err = fmt.Errorf("error building page %q: %w", page.Slug, err)
		recordError(span, err)
		return nil, err
	}

	for pos, ref := range page.Templates {
		if pos == pagePos {
			continue
		}
		pageCtx.Templates[ref.Name] = templates[pos]
	}
	if routeData != nil {
		pageCtx.Data[page.Slug] = routeData.value
	}
	return &Build{
		PageTemplate: templates[pagePos],
		Context:      pageCtx,
	}, nil
}

// fetchPageTemplates starts a fetch for every template reference and returns
// the slice the results will be written to, by position. The page template at
// pagePos is fetched without a name so it's never cached.
func (r *Renderer) fetchPageTemplates(ctx context.Context, group *errgroup.Group, refs []TemplateReference, pagePos int) []Template {
	results := make([]Template, len(refs))
	for pos, ref := range refs {
		group.Go(func() error {
			var tmpl Template
			var err error
			if pos == pagePos {
				tmpl, err = r.fetchTemplate(ctx, "", ref.Path, false)
			} else {
				tmpl, err = r.fetchTemplate(ctx, ref.Name, ref.Path, true)
			}
			if err != nil {
				return err
			}
			results[pos] = tmpl
			return nil
		})
	}
	return results
}

type routeResult struct {
	value any
}

// fetchRouteData starts the fetch of the record a route parameter points to,
// or of the collection when key is empty.
// The result is only safe to read once the group is done.
func (r *Renderer) fetchRouteData(ctx context.Context, group *errgroup.Group, slug, key string) *routeResult {
	result := &routeResult{}
	group.Go(func() error {
		raw, err := r.fetchData(ctx, strings.ToLower(slug), key)
		if err != nil {
			return err
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("error decoding %s %q: %w", slug, key, err)
		}
		result.value = value
		return nil
	})
	return result
}
