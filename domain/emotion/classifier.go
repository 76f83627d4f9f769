// Package emotion scores free text against a fixed set of emotion categories
// by literal keyword membership.
package emotion

import (
	"strings"
	"unicode"
)

// Scorer turns note text into an emotion vector.
type Scorer interface {
	Classify(text string) Vector
}

// Classifier counts lexicon keywords in text. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	lexicon Lexicon
}

// NewClassifier creates a classifier over lex.
func NewClassifier(lex Lexicon) *Classifier {
	return &Classifier{lexicon: lex}
}

// Lexicon returns the keyword table the classifier was built with.
func (c *Classifier) Lexicon() Lexicon {
	return c.lexicon
}

// Classify lower-cases text, splits it into word tokens and counts each token
// toward the category owning it. Text without keywords yields the zero vector.
func (c *Classifier) Classify(text string) Vector {
	var v Vector
	for _, token := range Tokenize(text) {
		if cat, ok := c.lexicon.Lookup(token); ok {
			v.increment(cat)
		}
	}
	return v
}

// Tokenize returns the lower-cased runs of word characters (letters, digits,
// combining marks and underscore) in text. Everything else separates tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.M, r)
}
