package rexo

import (
	"context"
	"sync"
)

// TemplateCache holds compiled fragment templates by name. Entries are never
// evicted or invalidated: a name is assumed to refer to the same template for
// as long as the cache lives.
type TemplateCache interface {
	// GetCachedTemplate returns the template cached under name. It
	// should return nil if the template hasn't been cached yet.
	GetCachedTemplate(ctx context.Context, name string) *CompiledTemplate

	// SetCachedTemplate stores tmpl under name. Storing a name twice is
	// allowed; since the template behind a name doesn't change, either
	// value is correct.
	SetCachedTemplate(ctx context.Context, name string, tmpl *CompiledTemplate)
}

var _ TemplateCache = &MemoryCache{}

// MemoryCache is an in-memory TemplateCache. A MemoryCache must be
// instantiated through NewMemoryCache, its empty value is not usable.
type MemoryCache struct {
	templates   map[string]*CompiledTemplate
	templatesMu sync.RWMutex
}

// NewMemoryCache returns an empty MemoryCache that is ready to be used.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		templates: map[string]*CompiledTemplate{},
	}
}

// GetCachedTemplate returns the cached template associated with the passed
// name, if one exists. If no template is cached for that name, it returns nil.
//
// It can safely be used by multiple goroutines.
func (c *MemoryCache) GetCachedTemplate(_ context.Context, name string) *CompiledTemplate {
	c.templatesMu.RLock()
	defer c.templatesMu.RUnlock()
	return c.templates[name]
}

// SetCachedTemplate caches a template for the given name.
//
// It can safely be used by multiple goroutines.
func (c *MemoryCache) SetCachedTemplate(_ context.Context, name string, tmpl *CompiledTemplate) {
	c.templatesMu.Lock()
	defer c.templatesMu.Unlock()
	c.templates[name] = tmpl
}
