package rexo

import (
	"errors"
	"fmt"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// ErrNoTemplate is returned when rendering a nil Template, usually because a
// page template asked for a fragment the page doesn't reference.
var ErrNoTemplate = errors.New("no template to render")

// rawTemplateName is the name RawTemplates are compiled under when they're
// rendered.
const rawTemplateName = "page"

// Globals are free-form values available to every template, through the cdn
// and project functions.
type Globals struct {
	CDN     string
	Project string
}

// Engine compiles and renders templates. RawTemplates and CompiledTemplates
// get the same functions, and nothing is HTML escaped, so pre-rendered HTML in
// the context comes through untouched either way.
//
// Besides the text/template builtins, templates can use:
//
//	render     renders a Template, such as .templates.nav, against some data
//	markdown   converts markdown to HTML, highlighting fenced code blocks
//	sanitize   strips unsafe markup from user-generated HTML
//	cdn        returns Globals.CDN
//	project    returns Globals.Project
//	default    returns its first argument when the second is missing or empty
//
// Missing map keys follow text/template's default policy and print as
// "<no value>". A record the data API doesn't have comes back as an empty
// object, so fields of route data can be missing; pipe them through default,
// as in {{ .data.blog.title | default "" }}, to print something else.
type Engine struct {
	globals   Globals
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	funcMap   template.FuncMap
}

// NewEngine returns an Engine whose templates can see the passed Globals.
func NewEngine(globals Globals) *Engine {
	engine := &Engine{
		globals:   globals,
		markdown:  newMarkdown(),
		sanitizer: bluemonday.UGCPolicy(),
	}
	engine.funcMap = engine.makeFuncMap()
	return engine
}

func (e *Engine) makeFuncMap() template.FuncMap {
	return template.FuncMap{
		"render":   e.Render,
		"markdown": e.renderMarkdown,
		"sanitize": e.sanitizer.Sanitize,
		"cdn": func() string {
			return e.globals.CDN
		},
		"project": func() string {
			return e.globals.Project
		},
		"default": defaultValue,
	}
}

func defaultValue(fallback, value any) any {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && s == "" {
		return fallback
	}
	return value
}

// Compile parses text as a template named name.
func (e *Engine) Compile(name, text string) (*CompiledTemplate, error) {
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing template %q: %w", name, err)
	}
	return &CompiledTemplate{tmpl: tmpl}, nil
}

// Render renders tmpl against data. A *CompiledTemplate is executed as is; a
// RawTemplate is compiled for this one render and then discarded.
func (e *Engine) Render(tmpl Template, data any) (string, error) {
	switch t := tmpl.(type) {
	case *CompiledTemplate:
		if t == nil {
			return "", ErrNoTemplate
		}
		return t.Render(data)
	case RawTemplate:
		compiled, err := e.Compile(rawTemplateName, string(t))
		if err != nil {
			return "", err
		}
		return compiled.Render(data)
	case nil:
		return "", ErrNoTemplate
	}
	return "", fmt.Errorf("unsupported template type %T", tmpl)
}
