package replacer

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Stripper converts markdown formatted text into plain text.
type Stripper interface {
	Strip(text string) (string, error)
}

// StripperFunc adapts a plain function to the Stripper interface.
type StripperFunc func(text string) (string, error)

// Strip calls f(text).
func (f StripperFunc) Strip(text string) (string, error) {
	return f(text)
}

var (
	blockTagsRegex  = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>|</?li>`)
	blankLinesRegex = regexp.MustCompile(`\n\s*\n+`)
)

// MarkdownStripper renders markdown to HTML with goldmark and then removes every tag
// with a strict bluemonday policy.
type MarkdownStripper struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewMarkdownStripper creates a MarkdownStripper with goldmark defaults (CommonMark,
// raw HTML omitted) and bluemonday's StrictPolicy.
func NewMarkdownStripper() *MarkdownStripper {
	return &MarkdownStripper{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// Strip removes emphasis, headers, list markers, code fences and any HTML from text.
func (m *MarkdownStripper) Strip(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := m.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	rendered := blockTagsRegex.ReplaceAllString(buf.String(), "\n")
	sanitized := m.policy.Sanitize(rendered)
	sanitized = html.UnescapeString(sanitized)
	sanitized = blankLinesRegex.ReplaceAllString(sanitized, "\n\n")

	return strings.TrimSpace(sanitized), nil
}
