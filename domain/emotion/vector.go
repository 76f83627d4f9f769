package emotion

// Vector holds one non-negative count per category. The zero value is the
// all-zero vector. Field order matches the enumeration order so the JSON
// encoding is stable.
type Vector struct {
	Happy int64 `json:"happy"`
	Calm  int64 `json:"calm"`
	Sad   int64 `json:"sad"`
	Upset int64 `json:"upset"`
}

// Get returns the count for c, or 0 for an unknown category.
func (v Vector) Get(c Category) int64 {
	switch c {
	case Happy:
		return v.Happy
	case Calm:
		return v.Calm
	case Sad:
		return v.Sad
	case Upset:
		return v.Upset
	}
	return 0
}

func (v *Vector) increment(c Category) {
	switch c {
	case Happy:
		v.Happy++
	case Calm:
		v.Calm++
	case Sad:
		v.Sad++
	case Upset:
		v.Upset++
	}
}

// Add returns the component-wise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Happy: v.Happy + o.Happy,
		Calm:  v.Calm + o.Calm,
		Sad:   v.Sad + o.Sad,
		Upset: v.Upset + o.Upset,
	}
}

// Total is the sum of all four counts.
func (v Vector) Total() int64 {
	return v.Happy + v.Calm + v.Sad + v.Upset
}

// IsZero reports whether every count is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// Prevalent returns the category with the highest count. Ties resolve to the
// earliest category in enumeration order, so the zero vector yields Happy.
func (v Vector) Prevalent() Category {
	best := categories[0]
	for _, c := range categories[1:] {
		if v.Get(c) > v.Get(best) {
			best = c
		}
	}
	return best
}

// Map returns the counts keyed by category name.
func (v Vector) Map() map[string]int64 {
	out := make(map[string]int64, len(categories))
	for _, c := range categories {
		out[string(c)] = v.Get(c)
	}
	return out
}
