package render

import (
	"fmt"
	"log"
)

// Chain converts with each engine in turn and falls back to the regex
// transform when every engine fails. Fragment never fails.
type Chain struct {
	engines []Converter
	logger  *log.Logger
}

// NewChain builds a chain over engines. A nil logger uses log.Default.
func NewChain(logger *log.Logger, engines ...Converter) *Chain {
	if logger == nil {
		logger = log.Default()
	}
	return &Chain{engines: engines, logger: logger}
}

// Fragment returns the HTML fragment for source.
func (c *Chain) Fragment(source string) string {
	for _, e := range c.engines {
		out, err := convertSafely(e, source)
		if err == nil {
			return out
		}
		c.logger.Printf("render: %s failed, trying next engine: %v", e.Name(), err)
	}
	return FallbackHTML(source)
}

func convertSafely(e Converter, source string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.Convert(source)
}
