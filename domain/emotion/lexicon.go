package emotion

import (
	"fmt"
	"strings"
)

// Lexicon maps each category to its keyword set. A Lexicon is immutable after
// construction; build a new one to change the keywords.
type Lexicon struct {
	// owner resolves a token to the category that claims it
	owner    map[string]Category
	keywords map[Category][]string
}

// NewLexicon builds a lexicon from a category-to-keywords table. Keywords are
// lower-cased. A keyword listed under more than one category belongs to the
// earliest category in enumeration order.
func NewLexicon(table map[Category][]string) (Lexicon, error) {
	for c := range table {
		if !c.Valid() {
			return Lexicon{}, fmt.Errorf("lexicon: unknown category %q", c)
		}
	}

	lex := Lexicon{
		owner:    make(map[string]Category),
		keywords: make(map[Category][]string, len(categories)),
	}
	for _, c := range categories {
		words := make([]string, 0, len(table[c]))
		for _, raw := range table[c] {
			kw := strings.ToLower(strings.TrimSpace(raw))
			if kw == "" {
				continue
			}
			if tokens := Tokenize(kw); len(tokens) != 1 || tokens[0] != kw {
				return Lexicon{}, fmt.Errorf("lexicon: keyword %q for %s is not a single word", raw, c)
			}
			words = append(words, kw)
			if _, claimed := lex.owner[kw]; !claimed {
				lex.owner[kw] = c
			}
		}
		lex.keywords[c] = words
	}
	return lex, nil
}

// MustLexicon is NewLexicon for tables known to be valid.
func MustLexicon(table map[Category][]string) Lexicon {
	lex, err := NewLexicon(table)
	if err != nil {
		panic(err)
	}
	return lex
}

// DefaultLexicon returns the built-in keyword table.
func DefaultLexicon() Lexicon {
	return MustLexicon(map[Category][]string{
		Happy: {"happy", "joyful", "elated", "refreshing", "shining"},
		Calm:  {"calm", "relaxed", "peaceful", "serene"},
		Sad:   {"sad", "down", "unhappy", "depressed"},
		Upset: {"upset", "angry", "frustrated", "irritated"},
	})
}

// Keywords returns a copy of the keywords listed for c.
func (l Lexicon) Keywords(c Category) []string {
	words := l.keywords[c]
	out := make([]string, len(words))
	copy(out, words)
	return out
}

// Lookup returns the category owning token, if any.
func (l Lexicon) Lookup(token string) (Category, bool) {
	c, ok := l.owner[token]
	return c, ok
}

// Size is the number of distinct keywords.
func (l Lexicon) Size() int {
	return len(l.owner)
}
