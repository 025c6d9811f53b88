package render

import (
	"bytes"
	"encoding/base64"
	"path/filepath"
	"strings"

	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	alertcallouts "github.com/zmtcreative/gm-alert-callouts"
	"go.abhg.dev/goldmark/mermaid"
)

// AssetPrefix is the URL path under which the preview server exposes local files.
const AssetPrefix = "/@mdfs/"

// Goldmark is a wrapper around the Goldmark markdown parser with pre-configured extensions.
type Goldmark struct {
	md goldmark.Markdown
}

// GoldmarkOption configures a Goldmark engine.
type GoldmarkOption func(*goldmarkConfig)

type goldmarkConfig struct {
	mermaid bool
}

// WithMermaid renders ```mermaid fences as diagrams in the browser. The
// extender emits <script> tags; the preview's live client re-runs them
// after each update.
func WithMermaid(enabled bool) GoldmarkOption {
	return func(c *goldmarkConfig) {
		c.mermaid = enabled
	}
}

func NewGoldmark(opts ...GoldmarkOption) *Goldmark {
	var cfg goldmarkConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	extenders := []goldmark.Extender{
		alertcallouts.AlertCallouts,
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
		extension.Footnote,
		extension.DefinitionList,
		highlighting.NewHighlighting(
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true),
			),
		),
	}
	if cfg.mermaid {
		extenders = append(extenders, &mermaid.Extender{})
	}

	md := goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Goldmark{md: md}
}

func (r *Goldmark) Name() string { return EngineGoldmark }

// Convert parses markdown source and returns the HTML fragment.
// Absolute local image destinations are rewritten to the preview asset path.
func (r *Goldmark) Convert(source string) (string, error) {
	src := []byte(source)
	doc := r.md.Parser().Parse(text.NewReader(src))
	rewriteAbsoluteImages(doc)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// rewriteAbsoluteImages points images with absolute filesystem destinations
// at the asset handler. Relative destinations are left for the page's base
// href to resolve.
func rewriteAbsoluteImages(doc ast.Node) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		rawDest := strings.TrimSpace(string(img.Destination))
		if rawDest == "" || strings.HasPrefix(rawDest, "//") || !filepath.IsAbs(rawDest) {
			return ast.WalkContinue, nil
		}

		img.Destination = []byte(AssetPath(rawDest))
		img.SetAttributeString("loading", "lazy")
		img.SetAttributeString("decoding", "async")
		return ast.WalkContinue, nil
	})
}

// AssetPath returns the asset URL path for an absolute file path.
func AssetPath(absPath string) string {
	return AssetPrefix + base64.RawURLEncoding.EncodeToString([]byte(filepath.Clean(absPath)))
}
