package rexo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultSlug is the page rendered when the requested path has no segments.
const DefaultSlug = "home"

var (
	// ErrPageNotFound is returned when the data API has no page definition
	// for the requested path. It is never returned when the lookup itself
	// fails; that error is returned instead.
	ErrPageNotFound = errors.New("page not found")

	// ErrPageTemplate is returned when a page definition doesn't have
	// exactly one template reference whose TemplateID matches its
	// PageTemplate. Without one, there is nothing to render.
	ErrPageTemplate = errors.New("page must reference exactly one page template")
)

// ID identifies a template. The data API may send it as a JSON string or a
// JSON number; either way it is compared as text.
type ID string

// UnmarshalJSON accepts strings, numbers, and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("template id must be a string or a number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}

// PageDefinition describes a single page and everything it needs to be
// rendered.
type PageDefinition struct {
	Slug         string              `json:"Slug"`
	Title        string              `json:"Title"`
	Description  string              `json:"Description"`
	Content      string              `json:"Content"`
	PageTemplate ID                  `json:"PageTemplate"`
	Templates    []TemplateReference `json:"Templates"`
}

// TemplateReference points a page at a template in the TemplateStore.
type TemplateReference struct {
	// Name is how the page template refers to this template, as
	// .templates.Name. It should be unique within a page; if it isn't,
	// the last reference with the name wins.
	Name string `json:"Name"`

	// Path is the location of the template within the TemplateStore.
	Path string `json:"Path"`

	// TemplateID identifies the template. The reference whose
	// TemplateID matches the page's PageTemplate is the page template.
	TemplateID ID `json:"TemplateId"`

	// Data holds literal values that are copied into the page's .data
	// before rendering. Later references overwrite earlier ones.
	Data map[string]any `json:"Data,omitempty"`
}

// pageTemplateIndex returns the position of the page template among the
// page's template references.
func (p PageDefinition) pageTemplateIndex() (int, error) {
	if p.PageTemplate == "" {
		return -1, fmt.Errorf("page %q has no page template set: %w", p.Slug, ErrPageTemplate)
	}
	found := -1
	for pos, ref := range p.Templates {
		if ref.TemplateID != p.PageTemplate {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("page %q references page template %q more than once: %w", p.Slug, p.PageTemplate, ErrPageTemplate)
		}
		found = pos
	}
	if found < 0 {
		return -1, fmt.Errorf("page %q doesn't reference its page template %q: %w", p.Slug, p.PageTemplate, ErrPageTemplate)
	}
	return found, nil
}

// parseRoute splits a requested path into the page slug and the parameters
// that follow it. Only leading slashes are dropped: a trailing slash leaves an
// empty last parameter, so "/blog/" has the parameters [""] and "/blog/42/"
// has ["42" ""].
func parseRoute(route string) (string, []string) {
	trimmed := strings.TrimLeft(route, "/")
	if trimmed == "" {
		return DefaultSlug, nil
	}
	parts := strings.Split(trimmed, "/")
	return parts[0], parts[1:]
}
