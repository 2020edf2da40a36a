package rexo_test

import (
	"strings"
	"testing"
	"unicode"

	"impractical.co/rexo"
)

func TestMinify(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in       string
		expected string
	}{
		"empty": {},
		"whitespace only": {
			in: " \n\t ",
		},
		"between blocks": {
			in:       "<div>\n  <p>\n    Hello\n  </p>\n</div>\n",
			expected: "<div><p>Hello</p></div>",
		},
		"inline runs collapse": {
			in:       "<p>Hello   <b>big</b>\n\n  world</p>",
			expected: "<p>Hello <b>big</b> world</p>",
		},
		"doctype": {
			in:       "<!doctype html>\n<html>\n<body>hi</body>\n</html>",
			expected: "<!doctype html><html><body>hi</body></html>",
		},
		"attributes untouched": {
			in:       "<div  class=\"a  b\"   data-x='1'>\n  x\n</div>",
			expected: "<div  class=\"a  b\"   data-x='1'>x</div>",
		},
		"pre preserved": {
			in:       "<div>\n<pre>\n  line one\n    line two\n</pre>\n</div>",
			expected: "<div><pre>\n  line one\n    line two\n</pre></div>",
		},
		"textarea preserved": {
			in:       "<p>a  <textarea>  keep\n me </textarea>  b</p>",
			expected: "<p>a <textarea>  keep\n me </textarea> b</p>",
		},
		"script preserved": {
			in:       "<head>\n<script>\n  var a  =  1;\n</script>\n</head>",
			expected: "<head><script>\n  var a  =  1;\n</script></head>",
		},
		"comments kept": {
			in:       "<div>\n<!--  note  -->\n</div>",
			expected: "<div><!--  note  --></div>",
		},
		"text at the edges": {
			in:       "  hello  world  ",
			expected: "hello world",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := rexo.Minify(test.in); got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestMinifyOnlyRemovesWhitespace(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<!doctype html>\n<html>\n  <head>\n    <title> Home </title>\n  </head>\n  <body>\n    <nav> <a href=\"/\">Home</a> </nav>\n    <main><p>Some   <em>text</em> here.</p></main>\n  </body>\n</html>\n",
		"<ul>\n  <li>one</li>\n  <li>two</li>\n</ul>",
		"<p>a <span> b </span> c</p>",
	}
	for _, in := range inputs {
		out := rexo.Minify(in)
		if stripSpace(out) != stripSpace(in) {
			t.Errorf("minifying %q changed more than whitespace: %q", in, out)
		}
		if len(out) > len(in) {
			t.Errorf("minifying %q grew it to %q", in, out)
		}
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
