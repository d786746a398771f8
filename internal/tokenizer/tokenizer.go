// Package tokenizer defines the Tokenizer contract and its default
// implementation, a line-oriented word splitter grounded on the original
// engine's SimpleWordTokenizer.
package tokenizer

import (
	"strings"
	"unicode"

	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/token"
)

// Tokenizer converts raw text into a sequence of Tokens carrying 1-based
// line numbers. Implementations must reject a nil/invalid input as an
// InvalidInput error and treat blank text as a valid, empty result.
type Tokenizer interface {
	Tokenize(text string) ([]token.Token, error)
}

// WordTokenizer is the default Tokenizer: it splits text into lines, splits
// each line on whitespace, strips leading/trailing punctuation from each
// candidate word, and discards anything shorter than MinWordLength.
type WordTokenizer struct {
	// Lowercase controls case-folding of emitted token values.
	Lowercase bool
	// MinWordLength is the minimum token length to keep, clamped to >= 1.
	MinWordLength int
}

// NewWordTokenizer returns the default word tokenizer: lowercasing enabled,
// minimum word length 2.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{Lowercase: true, MinWordLength: 2}
}

// Tokenize implements Tokenizer.
func (w *WordTokenizer) Tokenize(text string) ([]token.Token, error) {
	minLen := w.MinWordLength
	if minLen < 1 {
		minLen = 1
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var tokens []token.Token
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lineNum := i + 1
		for _, field := range strings.Fields(line) {
			clean := cleanToken(field)
			if len(clean) < minLen {
				continue
			}
			value := clean
			if w.Lowercase {
				value = strings.ToLower(value)
			}
			tokens = append(tokens, token.Token{
				Value: value,
				Line:  lineNum,
				Kind:  token.Word,
			})
		}
	}

	return tokens, nil
}

// TokenizeOrError is a convenience wrapper matching the original tokenizer's
// contract of rejecting a nil input explicitly, for callers that pass a
// *string sentinel instead of Go's native empty-string-means-blank idiom.
func TokenizeOrError(t Tokenizer, text *string) ([]token.Token, error) {
	if text == nil {
		return nil, engerrors.ValidationError("text cannot be nil", nil)
	}
	return t.Tokenize(*text)
}

// cleanToken strips leading and trailing Unicode punctuation and whitespace
// from a candidate word, mirroring the original tokenizer's
// ^[punct|space]+ / [punct|space]+$ trim.
func cleanToken(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
