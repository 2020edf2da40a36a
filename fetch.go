package rexo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TemplateStore is where templates are read from. Paths are the Path of a
// TemplateReference; resolving them against a base directory or bucket is up
// to the store.
type TemplateStore interface {
	ReadTemplate(ctx context.Context, path string) ([]byte, error)
}

// DataSource is where page definitions and the records pages display come
// from. An empty key asks for every record of resourceType. A missing record
// is not an error; implementations should return an empty JSON object for
// it.
type DataSource interface {
	FetchData(ctx context.Context, resourceType, key string) (json.RawMessage, error)
}

// fetchTemplate loads the template at path.
//
// When cache is true and name is set, the template is compiled and stored in
// the cache under name, and the cached template is returned; a name that is
// already cached never reaches the store. Otherwise the raw text is returned
// as is.
func (r *Renderer) fetchTemplate(ctx context.Context, name, path string, cache bool) (Template, error) {
	ctx, span := r.tracer.Start(ctx, "rexo.fetchTemplate", trace.WithAttributes(
		attribute.String("rexo.template.name", name),
		attribute.String("rexo.template.path", path),
		attribute.Bool("rexo.template.cache", cache),
	))
	defer span.End()

	log := logger(ctx).With("template", name, "path", path)

	if name != "" {
		if cached := r.cache.GetCachedTemplate(ctx, name); cached != nil {
			log.DebugContext(ctx, "template cache hit")
			span.SetAttributes(attribute.Bool("rexo.template.cache_hit", true))
			return cached, nil
		}
	}

	fetchCtx, cancel := r.fetchContext(ctx)
	defer cancel()

	raw, err := r.store.ReadTemplate(fetchCtx, path)
	if err != nil {
		err = fmt.Errorf("error reading template %q: %w", path, err)
		recordError(span, err)
		return nil, err
	}
	if !cache || name == "" {
		return RawTemplate(raw), nil
	}

	compiled, err := r.engine.Compile(name, string(raw))
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	log.DebugContext(ctx, "caching compiled template")
	r.cache.SetCachedTemplate(ctx, name, compiled)

	// another request may have cached the same name in the meantime;
	// hand back whatever the cache settled on
	if cached := r.cache.GetCachedTemplate(ctx, name); cached != nil {
		return cached, nil
	}
	return compiled, nil
}

// fetchData requests a record from the DataSource. An empty response is
// treated as an empty JSON object.
func (r *Renderer) fetchData(ctx context.Context, resourceType, key string) (json.RawMessage, error) {
	ctx, span := r.tracer.Start(ctx, "rexo.fetchData", trace.WithAttributes(
		attribute.String("rexo.data.type", resourceType),
		attribute.String("rexo.data.key", key),
	))
	defer span.End()

	fetchCtx, cancel := r.fetchContext(ctx)
	defer cancel()

	logger(ctx).DebugContext(ctx, "fetching data", "type", resourceType, "key", key)
	raw, err := r.data.FetchData(fetchCtx, resourceType, key)
	if err != nil {
		err = fmt.Errorf("error fetching %s %q: %w", resourceType, key, err)
		recordError(span, err)
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return raw, nil
}

// fetchContext applies the per-fetch timeout, if one is set.
func (r *Renderer) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.fetchTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.fetchTimeout)
}
