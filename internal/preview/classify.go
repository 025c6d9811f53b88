package preview

import (
	"strings"

	"go-markdown-preview/internal/contracts"
)

// DefaultExtensions are the file name suffixes treated as Markdown.
var DefaultExtensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mkdown"}

// Classifier decides which documents are preview candidates.
type Classifier struct {
	extensions []string
}

// NewClassifier normalises exts to lower case with a leading dot. An empty
// list uses DefaultExtensions.
func NewClassifier(exts []string) Classifier {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	norm := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		norm = append(norm, ext)
	}
	return Classifier{extensions: norm}
}

// IsMarkdownName reports whether name ends with one of the extensions.
func (c Classifier) IsMarkdownName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range c.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsCandidate reports whether doc should be previewed. A named document is
// judged by its extension; an unnamed one by its declared content type.
// Host errors make a document a non-candidate.
func (c Classifier) IsCandidate(doc contracts.Document) bool {
	if doc == nil {
		return false
	}

	name, err := doc.Name()
	if err != nil {
		return false
	}
	if name != "" {
		return c.IsMarkdownName(name)
	}

	ctype, err := doc.DeclaredContentType()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(ctype), "markdown")
}
