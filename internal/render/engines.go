package render

import (
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Engine names accepted by NewEngine.
const (
	EngineGoldmark    = "goldmark"
	EngineBlackfriday = "blackfriday"
	EngineFallback    = "fallback"
)

// ErrUnknownEngine is returned by NewEngine for an unrecognised engine name.
var ErrUnknownEngine = errors.New("unknown markdown engine")

// Converter turns markdown source into an HTML fragment.
type Converter interface {
	Name() string
	Convert(source string) (string, error)
}

// EngineOptions selects and configures the primary engine.
type EngineOptions struct {
	Engine   string
	Sanitize bool
	Mermaid  bool
}

// NewEngine builds the converter named by opts.Engine.
func NewEngine(opts EngineOptions) (Converter, error) {
	var c Converter
	switch opts.Engine {
	case "", EngineGoldmark:
		c = NewGoldmark(WithMermaid(opts.Mermaid))
	case EngineBlackfriday:
		c = Blackfriday{}
	case EngineFallback:
		c = Fallback{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
	}

	if opts.Sanitize {
		c = Sanitize(c)
	}
	return c, nil
}

// Blackfriday converts markdown with blackfriday's common extensions.
type Blackfriday struct{}

func (Blackfriday) Name() string { return EngineBlackfriday }

func (Blackfriday) Convert(source string) (string, error) {
	out := blackfriday.Run([]byte(source),
		blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs|blackfriday.Footnotes),
	)
	return string(out), nil
}

// Sanitized strips unsafe markup from another converter's output.
type Sanitized struct {
	next   Converter
	policy *bluemonday.Policy
}

// Sanitize wraps c with bluemonday's user-generated-content policy.
func Sanitize(c Converter) *Sanitized {
	pol := bluemonday.UGCPolicy()
	pol.AllowAttrs("class").Globally()
	return &Sanitized{next: c, policy: pol}
}

func (s *Sanitized) Name() string { return s.next.Name() + "+sanitize" }

func (s *Sanitized) Convert(source string) (string, error) {
	out, err := s.next.Convert(source)
	if err != nil {
		return "", err
	}
	return s.policy.Sanitize(out), nil
}
