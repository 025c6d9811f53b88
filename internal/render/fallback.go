package render

import (
	"html"
	"regexp"
	"strings"
)

var (
	fallbackCode   = regexp.MustCompile("`([^`]+)`")
	fallbackStrong = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	fallbackEm     = regexp.MustCompile(`\*([^*]+)\*`)
	fallbackH1     = regexp.MustCompile(`(?m)^# (.+)$`)
	fallbackH2     = regexp.MustCompile(`(?m)^## (.+)$`)
	fallbackH3     = regexp.MustCompile(`(?m)^### (.+)$`)
	fallbackLink   = regexp.MustCompile(`(https?://[^\s<]+)`)
)

// Fallback is a minimal escape-and-format transform. It handles inline
// code, bold, italics, three heading levels and bare URLs, and cannot fail.
type Fallback struct{}

func (Fallback) Name() string { return EngineFallback }

func (Fallback) Convert(source string) (string, error) {
	return FallbackHTML(source), nil
}

// FallbackHTML escapes source and applies basic formatting.
func FallbackHTML(source string) string {
	t := html.EscapeString(strings.ReplaceAll(source, "\r\n", "\n"))
	t = fallbackCode.ReplaceAllString(t, "<code>$1</code>")
	t = fallbackStrong.ReplaceAllString(t, "<strong>$1</strong>")
	t = fallbackEm.ReplaceAllString(t, "<em>$1</em>")
	t = fallbackH1.ReplaceAllString(t, "<h1>$1</h1>")
	t = fallbackH2.ReplaceAllString(t, "<h2>$1</h2>")
	t = fallbackH3.ReplaceAllString(t, "<h3>$1</h3>")
	t = fallbackLink.ReplaceAllString(t, `<a href="$1">$1</a>`)
	return strings.ReplaceAll(t, "\n", "<br/>")
}
