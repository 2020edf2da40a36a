// Package rexo renders HTML pages on demand from page definitions kept in a
// data API and templates kept in a template store.
//
// A page definition names the templates it needs. Exactly one of them is the
// page template, the one that actually gets rendered; the others are fragment
// templates that the page template can render by name through
// .templates.name. Each template reference can also carry literal data that
// is merged into .data before rendering.
//
// To render a page, create a Renderer with New, passing it a TemplateStore
// and a DataSource, and call RenderPage with the requested path. The first
// path segment picks the page definition; when exactly one more segment
// follows it, a record of the page's type is fetched with that segment as its
// key and made available to the page as .data.<slug>. A trailing slash, as in
// "/blog/", makes that segment empty, which fetches every record of the type.
// All template and data fetches for a page run concurrently, and the first one
// to fail fails the whole render.
//
// Fragment templates are compiled once and kept in a TemplateCache for the
// lifetime of the Renderer; page templates are read from the store every time
// so edits to them show up without a restart.
//
// Templates are text/template templates with nothing escaped. Missing values
// print as "<no value>" unless they go through the default function; see
// Engine for the functions templates can call.
//
// Rendered output is passed through Minify before it is returned. Handler
// adapts a Renderer to net/http.
package rexo
