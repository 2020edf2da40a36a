package rexo

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// blockElements are the elements whitespace next to is never significant, so
// it's dropped instead of collapsed.
var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "base": {}, "blockquote": {},
	"body": {}, "caption": {}, "col": {}, "colgroup": {}, "dd": {},
	"details": {}, "dialog": {}, "div": {}, "dl": {}, "dt": {},
	"fieldset": {}, "figcaption": {}, "figure": {}, "footer": {}, "form": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"head": {}, "header": {}, "hgroup": {}, "hr": {}, "html": {},
	"li": {}, "link": {}, "main": {}, "meta": {}, "nav": {},
	"noscript": {}, "ol": {}, "optgroup": {}, "option": {}, "p": {},
	"pre": {}, "script": {}, "section": {}, "style": {}, "summary": {},
	"table": {}, "tbody": {}, "td": {}, "tfoot": {}, "th": {},
	"thead": {}, "title": {}, "tr": {}, "ul": {},
}

// preservedElements keep their contents exactly as written.
var preservedElements = map[string]struct{}{
	"pre": {}, "textarea": {}, "script": {}, "style": {},
}

// Minify collapses insignificant whitespace in an HTML document. Runs of
// whitespace in text become a single space, and are removed entirely at the
// edges of the document and next to block-level elements. Tags, comments,
// and doctypes are written exactly as they appear, attributes included, and
// so is everything inside pre, textarea, script, and style elements.
func Minify(in string) string {
	var out strings.Builder
	out.Grow(len(in))

	z := html.NewTokenizer(strings.NewReader(in))
	var (
		pending     []byte
		hasPending  bool
		trimPending bool
		afterBlock  = true
		preserved   int
	)
	flush := func(beforeBlock bool) {
		if !hasPending {
			return
		}
		text := collapseWhitespace(pending)
		if trimPending {
			text = bytes.TrimLeft(text, " ")
		}
		if beforeBlock {
			text = bytes.TrimRight(text, " ")
		}
		out.Write(text)
		pending, hasPending = pending[:0], false
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// the only error a strings.Reader can produce is io.EOF
			flush(true)
			return out.String()
		}
		raw := z.Raw()
		if tt == html.TextToken {
			if preserved > 0 {
				out.Write(raw)
				continue
			}
			if !hasPending {
				trimPending = afterBlock
				hasPending = true
			}
			pending = append(pending, raw...)
			continue
		}

		// copy the token before TagName can overwrite it
		token := append([]byte(nil), raw...)
		block := tt == html.DoctypeToken
		var name string
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			tagName, _ := z.TagName()
			name = string(tagName)
			_, block = blockElements[name]
		}

		if preserved == 0 {
			flush(block)
		}
		out.Write(token)

		if _, ok := preservedElements[name]; ok {
			switch tt {
			case html.StartTagToken:
				preserved++
			case html.EndTagToken:
				if preserved > 0 {
					preserved--
				}
			}
		}
		if tt != html.CommentToken {
			afterBlock = block
		}
	}
}

// collapseWhitespace replaces every run of HTML whitespace with one space.
func collapseWhitespace(text []byte) []byte {
	result := make([]byte, 0, len(text))
	inSpace := false
	for _, b := range text {
		switch b {
		case ' ', '\t', '\n', '\r', '\f':
			if !inSpace {
				result = append(result, ' ')
			}
			inSpace = true
		default:
			result = append(result, b)
			inSpace = false
		}
	}
	return result
}
