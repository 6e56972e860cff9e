package valueobjects

import (
	"strings"
	"unicode/utf8"
)

// NodeContent is the payload of a node. The text variant is the only shape
// today; kinds decide how it is defaulted and when it counts as empty.
type NodeContent struct {
	text string
}

// ContentPatch is a partial update merged into NodeContent.
// Nil fields are left untouched.
type ContentPatch struct {
	Text *string
}

// NewTextContent creates text content
func NewTextContent(text string) NodeContent {
	return NodeContent{text: text}
}

// TextPatch builds a patch that replaces the text
func TextPatch(text string) ContentPatch {
	return ContentPatch{Text: &text}
}

// Text returns the raw text, untrimmed
func (c NodeContent) Text() string {
	return c.text
}

// IsBlank reports whether the text is empty after trimming whitespace
func (c NodeContent) IsBlank() bool {
	return strings.TrimSpace(c.text) == ""
}

// Merge returns a copy of the content with the patch applied
func (c NodeContent) Merge(patch ContentPatch) NodeContent {
	merged := c
	if patch.Text != nil {
		merged.text = *patch.Text
	}
	return merged
}

// IsZero reports whether the patch changes nothing
func (p ContentPatch) IsZero() bool {
	return p.Text == nil
}

// Equals checks if two contents are equal
func (c NodeContent) Equals(other NodeContent) bool {
	return c.text == other.text
}

// Summary returns a truncated single-line preview of the text
func (c NodeContent) Summary(maxLength int) string {
	if maxLength <= 0 {
		return ""
	}

	line := strings.Join(strings.Fields(c.text), " ")
	if utf8.RuneCountInString(line) <= maxLength {
		return line
	}
	if maxLength <= 3 {
		return string([]rune(line)[:maxLength])
	}

	runes := []rune(line)
	return string(runes[:maxLength-3]) + "..."
}
