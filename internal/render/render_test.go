package render

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFallbackHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# Hi", "<h1>Hi</h1>"},
		{"subheadings", "## A\n### B", "<h2>A</h2><br/><h3>B</h3>"},
		{"inline", "Some **bold** and `code`.", "Some <strong>bold</strong> and <code>code</code>."},
		{"italic", "an *aside*", "an <em>aside</em>"},
		{"escape", "<script>&", "&lt;script&gt;&amp;"},
		{"link", "see https://example.com now", `see <a href="https://example.com">https://example.com</a> now`},
		{"crlf", "a\r\nb", "a<br/>b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, FallbackHTML(tc.in)); diff != "" {
				t.Errorf("FallbackHTML(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestGoldmarkConvert(t *testing.T) {
	out, err := NewGoldmark().Convert("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n![x](/tmp/pic.png)\n")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	encoded := strings.TrimPrefix(AssetPath("/tmp/pic.png"), AssetPrefix)
	for _, want := range []string{`<h1 id="title">Title</h1>`, "<table>", encoded, `loading="lazy"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGoldmarkLeavesRelativeImages(t *testing.T) {
	out, err := NewGoldmark().Convert("![x](img/pic.png)")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(out, `src="img/pic.png"`) {
		t.Errorf("relative image rewritten:\n%s", out)
	}
}

func TestBlackfridayConvert(t *testing.T) {
	out, err := Blackfriday{}.Convert("# Hi\n\n**b**\n")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(out, "<strong>b</strong>") || !strings.Contains(out, "Hi</h1>") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

const notesWithExtras = "Text[^1]\n\n[^1]: note\n\nTerm\n: Definition\n"

func TestGoldmarkFootnotesAndDefinitionLists(t *testing.T) {
	out, err := NewGoldmark().Convert(notesWithExtras)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, want := range []string{
		`class="footnote-ref"`,
		`<div class="footnotes"`,
		"<dl>",
		"<dt>Term</dt>",
		"<dd>Definition</dd>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBlackfridayFootnotesAndDefinitionLists(t *testing.T) {
	out, err := Blackfriday{}.Convert(notesWithExtras)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, want := range []string{`class="footnotes"`, "<dl>", "Term", "Definition"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSanitizeStripsScripts(t *testing.T) {
	c := Sanitize(NewGoldmark())
	out, err := c.Convert("hello <script>alert(1)</script>\n\n```go\nx := 1\n```\n")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script survived sanitization:\n%s", out)
	}
	if !strings.Contains(out, "class=") {
		t.Errorf("highlight classes stripped:\n%s", out)
	}
	if c.Name() != "goldmark+sanitize" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestNewEngine(t *testing.T) {
	for _, name := range []string{"", EngineGoldmark, EngineBlackfriday, EngineFallback} {
		if _, err := NewEngine(EngineOptions{Engine: name}); err != nil {
			t.Errorf("NewEngine(%q): %v", name, err)
		}
	}
	if _, err := NewEngine(EngineOptions{Engine: "pandoc"}); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("NewEngine(pandoc) err = %v, want ErrUnknownEngine", err)
	}
}

type brokenEngine struct {
	panics bool
}

func (brokenEngine) Name() string { return "broken" }

func (b brokenEngine) Convert(string) (string, error) {
	if b.panics {
		panic("boom")
	}
	return "", errors.New("cannot convert")
}

func TestChainFallsBack(t *testing.T) {
	var logs bytes.Buffer
	chain := NewChain(log.New(&logs, "", 0), brokenEngine{}, brokenEngine{panics: true})

	got := chain.Fragment("# Hi")
	if got != "<h1>Hi</h1>" {
		t.Errorf("Fragment = %q, want fallback output", got)
	}
	if n := strings.Count(logs.String(), "broken failed"); n != 2 {
		t.Errorf("logged %d failures, want 2:\n%s", n, logs.String())
	}
}

func TestChainUsesFirstWorkingEngine(t *testing.T) {
	chain := NewChain(nil, brokenEngine{}, Blackfriday{})
	if got := chain.Fragment("**b**"); !strings.Contains(got, "<p><strong>b</strong></p>") {
		t.Errorf("Fragment = %q", got)
	}
}

func TestPage(t *testing.T) {
	sheets := DefaultStylesheets()
	page := Page("<p>x</p>", sheets.For(false))

	if !strings.HasPrefix(page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>") {
		t.Errorf("unexpected shell head:\n%s", page)
	}
	if !strings.Contains(page, "<body>\n<p>x</p>\n</body>") {
		t.Errorf("fragment not in body:\n%s", page)
	}
	if !strings.Contains(page, "color-scheme: light") || strings.Contains(page, "color-scheme: dark") {
		t.Errorf("light page has wrong stylesheet")
	}
	if !strings.Contains(sheets.For(true), "color-scheme: dark") {
		t.Errorf("dark stylesheet missing dark scheme")
	}
	if !strings.Contains(sheets.Light, ".chroma") {
		t.Errorf("light stylesheet missing highlight classes")
	}
}
