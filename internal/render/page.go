package render

import (
	"bytes"
	_ "embed"
	"strings"

	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/styles"
)

//go:embed page.html
var pageTemplate string

// Default chroma styles for the two themes.
const (
	DefaultLightStyle = "github"
	DefaultDarkStyle  = "monokai"
)

const lightCSS = `
:root { color-scheme: light; }
body { font-family: system-ui, sans-serif; margin: 1.25rem; line-height: 1.45; }
pre, code { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; }
pre { padding: .75rem; overflow:auto; border: 1px solid #e5e5e5; border-radius: 6px; background:#fafafa; }
code { background:#f4f4f4; padding: .1rem .25rem; border-radius: 4px; }
h1,h2,h3 { margin-top:1.2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ddd; padding: .4rem .6rem; }
a { text-decoration: none; }
a:hover { text-decoration: underline; }
`

const darkCSS = `
:root { color-scheme: dark; }
body { font-family: system-ui, sans-serif; margin: 1.25rem; line-height: 1.45; color: #e6e6e6; background:#121212; }
pre, code { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; }
pre { padding: .75rem; overflow:auto; border: 1px solid #333; border-radius: 6px; background:#1e1e1e; }
code { background:#222; padding: .1rem .25rem; border-radius: 4px; }
h1,h2,h3 { margin-top:1.2em; color:#fff; }
table { border-collapse: collapse; }
td, th { border: 1px solid #333; padding: .4rem .6rem; }
a { color:#9bcaff; text-decoration: none; }
a:hover { text-decoration: underline; }
`

// Stylesheets holds the CSS embedded in light and dark pages.
type Stylesheets struct {
	Light string
	Dark  string
}

// NewStylesheets returns the base theme CSS extended with chroma's class
// CSS for the named highlight styles. Unknown style names fall back to
// chroma's default style.
func NewStylesheets(lightStyle, darkStyle string) Stylesheets {
	return Stylesheets{
		Light: lightCSS + highlightCSS(lightStyle),
		Dark:  darkCSS + highlightCSS(darkStyle),
	}
}

// DefaultStylesheets uses DefaultLightStyle and DefaultDarkStyle.
func DefaultStylesheets() Stylesheets {
	return NewStylesheets(DefaultLightStyle, DefaultDarkStyle)
}

// For returns the stylesheet for the given preference.
func (s Stylesheets) For(dark bool) string {
	if dark {
		return s.Dark
	}
	return s.Light
}

func highlightCSS(name string) string {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(name)); err != nil {
		return ""
	}
	return buf.String()
}

// Page wraps fragment in the fixed HTML document shell with css inlined.
func Page(fragment string, css string) string {
	page := strings.Replace(pageTemplate, "{{STYLE}}", css, 1)
	return strings.Replace(page, "{{CONTENT}}", fragment, 1)
}
