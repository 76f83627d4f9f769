// Package analytics reduces stored note emotion vectors into per-day and
// per-week summaries. All results are computed on demand from the note store.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
)

const daysPerWeek = 7

// NoteReader is the part of the note store the aggregator reads from.
type NoteReader interface {
	// FindByUserAndDateRange returns the user's notes created in [start, end),
	// oldest first. A nil bound is open.
	FindByUserAndDateRange(ctx context.Context, userID string, start, end *time.Time) ([]*entities.Note, error)
	// FindByUserOnDate returns the user's notes created on day, oldest first.
	FindByUserOnDate(ctx context.Context, userID string, day Date) ([]*entities.Note, error)
	// CountByUser returns how many notes the user owns.
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// DailyEmotions is the summed vector of every note created on Date.
type DailyEmotions struct {
	Date     Date
	Emotions emotion.Vector
}

// WeeklyAggregate covers the Monday to Sunday week around a reference day.
type WeeklyAggregate struct {
	WeekStart Date
	Totals    emotion.Vector
	// Days always holds seven entries, Monday first.
	Days []DailyEmotions
	// PrevalentToday is nil when the reference day has no keyword hits.
	PrevalentToday *emotion.Category
}

// DayAnalysis is the breakdown of a single day.
type DayAnalysis struct {
	Date   Date
	Totals emotion.Vector
	Notes  []*entities.Note
}

// DaySummary is one day of a range summary.
type DaySummary struct {
	Date             Date
	Emotions         emotion.Vector
	PrevalentEmotion emotion.Category
}

// ChatContext condenses the current week for the chat prompt.
type ChatContext struct {
	Totals           emotion.Vector
	PrevalentEmotion emotion.Category
	HasData          bool
}

// Aggregator computes emotion summaries over a user's notes. It keeps no state
// between calls and never reads the clock; callers pass "now" in.
type Aggregator struct {
	notes NoteReader
	loc   *time.Location
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLocation sets where calendar days begin. The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// NewAggregator creates an aggregator reading from notes.
func NewAggregator(notes NoteReader, opts ...Option) *Aggregator {
	a := &Aggregator{notes: notes, loc: time.UTC}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Location is the day-boundary location.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// DateOf returns the calendar day of t under the aggregator's day boundary.
func (a *Aggregator) DateOf(t time.Time) Date {
	return DateOf(t, a.loc)
}

// AggregateWeek sums the notes of the week containing reference, per day and
// in total. The query window runs to the start of the following Monday so
// notes written late on Sunday are counted.
func (a *Aggregator) AggregateWeek(ctx context.Context, userID string, reference time.Time) (*WeeklyAggregate, error) {
	today := a.DateOf(reference)
	start := weekStart(today)
	from, to := start.Start(), start.AddDays(daysPerWeek).Start()

	notes, err := a.notes.FindByUserAndDateRange(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}

	agg := &WeeklyAggregate{
		WeekStart: start,
		Days:      make([]DailyEmotions, daysPerWeek),
	}
	index := make(map[string]int, daysPerWeek)
	for i := range agg.Days {
		day := start.AddDays(i)
		agg.Days[i].Date = day
		index[day.String()] = i
	}

	for _, n := range notes {
		i, ok := index[a.DateOf(n.CreatedAt()).String()]
		if !ok {
			continue
		}
		agg.Days[i].Emotions = agg.Days[i].Emotions.Add(n.Emotions())
		agg.Totals = agg.Totals.Add(n.Emotions())
	}

	if bucket := agg.Days[index[today.String()]].Emotions; !bucket.IsZero() {
		prevalent := bucket.Prevalent()
		agg.PrevalentToday = &prevalent
	}
	return agg, nil
}

// AnalyzeDay returns the notes created on day and their summed vector.
func (a *Aggregator) AnalyzeDay(ctx context.Context, userID string, day Date) (*DayAnalysis, error) {
	notes, err := a.notes.FindByUserOnDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	result := &DayAnalysis{Date: day, Notes: make([]*entities.Note, 0, len(notes))}
	for _, n := range notes {
		result.Totals = result.Totals.Add(n.Emotions())
		result.Notes = append(result.Notes, n)
	}
	return result, nil
}

// SummarizeRange returns one entry per day in [start, end] that has notes,
// oldest first. Days without notes are left out. An end before start yields
// an empty result.
func (a *Aggregator) SummarizeRange(ctx context.Context, userID string, start, end Date) ([]DaySummary, error) {
	if end.Before(start) {
		return []DaySummary{}, nil
	}
	limit := end.AddDays(1)
	from, to := start.Start(), limit.Start()

	notes, err := a.notes.FindByUserAndDateRange(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*DaySummary)
	for _, n := range notes {
		day := a.DateOf(n.CreatedAt())
		if day.Before(start) || !day.Before(limit) {
			continue
		}
		b, ok := buckets[day.String()]
		if !ok {
			b = &DaySummary{Date: day}
			buckets[day.String()] = b
		}
		b.Emotions = b.Emotions.Add(n.Emotions())
	}

	summaries := make([]DaySummary, 0, len(buckets))
	for _, b := range buckets {
		b.PrevalentEmotion = b.Emotions.Prevalent()
		summaries = append(summaries, *b)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date.Before(summaries[j].Date)
	})
	return summaries, nil
}

// ChatContext reduces the week containing now to a single prevalent emotion.
func (a *Aggregator) ChatContext(ctx context.Context, userID string, now time.Time) (*ChatContext, error) {
	week, err := a.AggregateWeek(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return &ChatContext{
		Totals:           week.Totals,
		PrevalentEmotion: week.Totals.Prevalent(),
		HasData:          !week.Totals.IsZero(),
	}, nil
}
