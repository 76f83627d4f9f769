package analytics

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day, held as midnight in the location that defines the
// day boundary.
type Date struct {
	t time.Time
}

// DateOf returns the calendar day containing t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	t = t.In(loc)
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, loc)}
}

// ParseDate parses a YYYY-MM-DD string as a day in loc.
func ParseDate(s string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// Start is the first instant of the day.
func (d Date) Start() time.Time { return d.t }

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// weekStart returns the Monday of the week containing d.
func weekStart(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
