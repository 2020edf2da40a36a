package rexo

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is either a RawTemplate or a *CompiledTemplate. Engine.Render
// accepts both.
type Template interface {
	isTemplate()
}

var (
	_ Template = RawTemplate("")
	_ Template = &CompiledTemplate{}
)

// RawTemplate is template text that hasn't been compiled. Page templates stay
// raw, because they're never cached.
type RawTemplate string

func (RawTemplate) isTemplate() {}

// CompiledTemplate is a parsed template, ready to be rendered any number of
// times. It can safely be rendered by multiple goroutines.
type CompiledTemplate struct {
	tmpl *template.Template
}

func (*CompiledTemplate) isTemplate() {}

// Name returns the name the template was compiled under.
func (c *CompiledTemplate) Name() string {
	return c.tmpl.Name()
}

// Render executes the template against data.
func (c *CompiledTemplate) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", c.tmpl.Name(), err)
	}
	return buf.String(), nil
}
