package emotion

import (
	"fmt"
	"strings"
)

// Category is one of the fixed emotion labels a note is scored against.
type Category string

const (
	Happy Category = "happy"
	Calm  Category = "calm"
	Sad   Category = "sad"
	Upset Category = "upset"
)

// enumeration order: decides keyword ownership and prevalent-emotion ties
var categories = [...]Category{Happy, Calm, Sad, Upset}

// Categories returns every category in enumeration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// ParseCategory resolves a category name, ignoring case and surrounding space.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown emotion category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
