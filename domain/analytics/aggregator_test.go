package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-123"

// stubReader filters an in-memory slice the way the note store does: [start, end)
type stubReader struct {
	notes []*entities.Note
	err   error
	calls int
}

func (s *stubReader) FindByUserAndDateRange(ctx context.Context, userID string, start, end *time.Time) ([]*entities.Note, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []*entities.Note
	for _, n := range s.notes {
		if n.UserID() != userID {
			continue
		}
		if start != nil && n.CreatedAt().Before(*start) {
			continue
		}
		if end != nil && !n.CreatedAt().Before(*end) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *stubReader) FindByUserOnDate(ctx context.Context, userID string, day Date) ([]*entities.Note, error) {
	from, to := day.Start(), day.AddDays(1).Start()
	return s.FindByUserAndDateRange(ctx, userID, &from, &to)
}

func (s *stubReader) CountByUser(ctx context.Context, userID string) (int64, error) {
	notes, err := s.FindByUserAndDateRange(ctx, userID, nil, nil)
	return int64(len(notes)), err
}

func note(userID string, at time.Time, v emotion.Vector) *entities.Note {
	return entities.ReconstructNote(valueobjects.NewNoteID(), userID, "entry", v, at, at, 1)
}

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAggregator_AggregateWeek_AlwaysSevenAscendingDays(t *testing.T) {
	agg := NewAggregator(&stubReader{})
	references := []string{
		"2024-06-10T00:00:00Z", // Monday
		"2024-06-12T13:45:00Z", // Wednesday
		"2024-06-16T23:59:59Z", // Sunday
		"2024-12-31T08:00:00Z", // week spans a year boundary
		"2024-02-29T12:00:00Z",
	}

	for _, ref := range references {
		t.Run(ref, func(t *testing.T) {
			week, err := agg.AggregateWeek(context.Background(), testUser, utc(ref))

			require.NoError(t, err)
			require.Len(t, week.Days, 7)
			assert.Equal(t, time.Monday, week.Days[0].Date.Weekday())
			assert.Equal(t, time.Sunday, week.Days[6].Date.Weekday())
			for i := 1; i < len(week.Days); i++ {
				assert.True(t, week.Days[i-1].Date.Before(week.Days[i].Date))
				assert.Equal(t, week.Days[i-1].Date.AddDays(1), week.Days[i].Date)
			}
			assert.True(t, week.Totals.IsZero())
			assert.Nil(t, week.PrevalentToday)
		})
	}
}

func TestAggregator_AggregateWeek_IncludesLateSunday(t *testing.T) {
	// Arrange
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-09T23:59:59Z"), emotion.Vector{Sad: 5}),   // previous Sunday
		note(testUser, utc("2024-06-10T00:00:00Z"), emotion.Vector{Happy: 1}), // Monday midnight
		note(testUser, utc("2024-06-16T23:59:59Z"), emotion.Vector{Calm: 2}),  // Sunday, last second
		note(testUser, utc("2024-06-17T00:00:00Z"), emotion.Vector{Upset: 7}), // next Monday
		note("someone-else", utc("2024-06-12T10:00:00Z"), emotion.Vector{Upset: 3}),
	}}
	agg := NewAggregator(reader)

	// Act
	week, err := agg.AggregateWeek(context.Background(), testUser, utc("2024-06-12T09:00:00Z"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", week.WeekStart.String())
	assert.Equal(t, emotion.Vector{Happy: 1, Calm: 2}, week.Totals)
	assert.Equal(t, emotion.Vector{Happy: 1}, week.Days[0].Emotions)
	assert.Equal(t, emotion.Vector{Calm: 2}, week.Days[6].Emotions)
	assert.Nil(t, week.PrevalentToday)
}

func TestAggregator_AggregateWeek_PrevalentTodayTieBreak(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-12T08:00:00Z"), emotion.Vector{Happy: 1, Calm: 2}),
		note(testUser, utc("2024-06-12T20:00:00Z"), emotion.Vector{Happy: 1}),
		note(testUser, utc("2024-06-11T20:00:00Z"), emotion.Vector{Upset: 9}),
	}}
	agg := NewAggregator(reader)

	for i := 0; i < 3; i++ {
		week, err := agg.AggregateWeek(context.Background(), testUser, utc("2024-06-12T21:00:00Z"))

		require.NoError(t, err)
		require.NotNil(t, week.PrevalentToday)
		assert.Equal(t, emotion.Happy, *week.PrevalentToday)
		assert.Equal(t, emotion.Vector{Happy: 2, Calm: 2}, week.Days[2].Emotions)
		assert.Equal(t, emotion.Vector{Happy: 2, Calm: 2, Upset: 9}, week.Totals)
	}
}

func TestAggregator_AggregateWeek_Idempotent(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-10T08:00:00Z"), emotion.Vector{Happy: 1}),
		note(testUser, utc("2024-06-14T08:00:00Z"), emotion.Vector{Sad: 2, Calm: 1}),
	}}
	agg := NewAggregator(reader)
	ref := utc("2024-06-14T12:00:00Z")

	first, err := agg.AggregateWeek(context.Background(), testUser, ref)
	require.NoError(t, err)
	second, err := agg.AggregateWeek(context.Background(), testUser, ref)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAggregator_AggregateWeek_DayBoundaryLocation(t *testing.T) {
	// Arrange
	loc := time.FixedZone("UTC-6", -6*60*60)
	reader := &stubReader{notes: []*entities.Note{
		// 21:00 local on Sunday the 16th
		note(testUser, utc("2024-06-17T03:00:00Z"), emotion.Vector{Calm: 1}),
		// 18:30 local on Sunday the 9th, outside the week
		note(testUser, utc("2024-06-10T00:30:00Z"), emotion.Vector{Sad: 1}),
	}}
	agg := NewAggregator(reader, WithLocation(loc))

	// Act
	week, err := agg.AggregateWeek(context.Background(), testUser, time.Date(2024, 6, 16, 22, 0, 0, 0, loc))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", week.Days[0].Date.String())
	assert.Equal(t, emotion.Vector{Calm: 1}, week.Totals)
	assert.Equal(t, emotion.Vector{Calm: 1}, week.Days[6].Emotions)
	require.NotNil(t, week.PrevalentToday)
	assert.Equal(t, emotion.Calm, *week.PrevalentToday)
}

func TestAggregator_AnalyzeDay(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-12T00:00:00Z"), emotion.Vector{Happy: 1}),
		note(testUser, utc("2024-06-12T23:59:59Z"), emotion.Vector{Happy: 1, Upset: 1}),
		note(testUser, utc("2024-06-13T00:00:00Z"), emotion.Vector{Sad: 4}),
	}}
	agg := NewAggregator(reader)
	day, err := ParseDate("2024-06-12", time.UTC)
	require.NoError(t, err)

	result, err := agg.AnalyzeDay(context.Background(), testUser, day)

	require.NoError(t, err)
	assert.Equal(t, "2024-06-12", result.Date.String())
	assert.Equal(t, emotion.Vector{Happy: 2, Upset: 1}, result.Totals)
	assert.Len(t, result.Notes, 2)
}

func TestAggregator_AnalyzeDay_NoNotes(t *testing.T) {
	agg := NewAggregator(&stubReader{})
	day, _ := ParseDate("2024-06-12", time.UTC)

	result, err := agg.AnalyzeDay(context.Background(), testUser, day)

	require.NoError(t, err)
	assert.True(t, result.Totals.IsZero())
	assert.NotNil(t, result.Notes)
	assert.Empty(t, result.Notes)
}

func TestAggregator_SummarizeRange(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-13T10:00:00Z"), emotion.Vector{Sad: 1}),
		note(testUser, utc("2024-06-10T10:00:00Z"), emotion.Vector{Calm: 2, Sad: 2}),
		note(testUser, utc("2024-06-10T18:00:00Z"), emotion.Vector{Upset: 1}),
		note(testUser, utc("2024-06-15T23:59:59Z"), emotion.Vector{}),
		note(testUser, utc("2024-06-16T00:00:00Z"), emotion.Vector{Happy: 3}),
	}}
	agg := NewAggregator(reader)
	start, _ := ParseDate("2024-06-10", time.UTC)
	end, _ := ParseDate("2024-06-15", time.UTC)

	summaries, err := agg.SummarizeRange(context.Background(), testUser, start, end)

	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "2024-06-10", summaries[0].Date.String())
	assert.Equal(t, emotion.Calm, summaries[0].PrevalentEmotion)
	assert.Equal(t, "2024-06-13", summaries[1].Date.String())
	assert.Equal(t, emotion.Sad, summaries[1].PrevalentEmotion)
	// a day with notes but no keyword hits still appears
	assert.Equal(t, "2024-06-15", summaries[2].Date.String())
	assert.Equal(t, emotion.Happy, summaries[2].PrevalentEmotion)
}

func TestAggregator_SummarizeRange_SingleDayMatchesAnalyzeDay(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-12T01:00:00Z"), emotion.Vector{Happy: 2}),
		note(testUser, utc("2024-06-12T22:00:00Z"), emotion.Vector{Calm: 2}),
	}}
	agg := NewAggregator(reader)
	day, _ := ParseDate("2024-06-12", time.UTC)
	empty, _ := ParseDate("2024-06-11", time.UTC)

	summaries, err := agg.SummarizeRange(context.Background(), testUser, day, day)
	require.NoError(t, err)
	analysis, err := agg.AnalyzeDay(context.Background(), testUser, day)
	require.NoError(t, err)

	require.Len(t, summaries, 1)
	assert.Equal(t, analysis.Totals, summaries[0].Emotions)
	assert.Equal(t, emotion.Happy, summaries[0].PrevalentEmotion)

	none, err := agg.SummarizeRange(context.Background(), testUser, empty, empty)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAggregator_SummarizeRange_EndBeforeStart(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-12T01:00:00Z"), emotion.Vector{Happy: 2}),
	}}
	agg := NewAggregator(reader)
	start, _ := ParseDate("2024-06-13", time.UTC)
	end, _ := ParseDate("2024-06-10", time.UTC)

	summaries, err := agg.SummarizeRange(context.Background(), testUser, start, end)

	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
	assert.Zero(t, reader.calls)
}

func TestAggregator_ChatContext(t *testing.T) {
	reader := &stubReader{notes: []*entities.Note{
		note(testUser, utc("2024-06-10T01:00:00Z"), emotion.Vector{Sad: 2}),
		note(testUser, utc("2024-06-11T01:00:00Z"), emotion.Vector{Upset: 2}),
	}}
	agg := NewAggregator(reader)

	got, err := agg.ChatContext(context.Background(), testUser, utc("2024-06-11T12:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, emotion.Sad, got.PrevalentEmotion)
	assert.True(t, got.HasData)

	quiet, err := agg.ChatContext(context.Background(), testUser, utc("2024-07-01T12:00:00Z"))
	require.NoError(t, err)
	assert.False(t, quiet.HasData)
	assert.Equal(t, emotion.Happy, quiet.PrevalentEmotion)
}

func TestAggregator_RepositoryErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	agg := NewAggregator(&stubReader{err: boom})
	day, _ := ParseDate("2024-06-12", time.UTC)

	_, err := agg.AggregateWeek(context.Background(), testUser, utc("2024-06-12T00:00:00Z"))
	assert.Same(t, boom, err)

	_, err = agg.AnalyzeDay(context.Background(), testUser, day)
	assert.Same(t, boom, err)

	_, err = agg.SummarizeRange(context.Background(), testUser, day, day)
	assert.Same(t, boom, err)

	_, err = agg.ChatContext(context.Background(), testUser, utc("2024-06-12T00:00:00Z"))
	assert.Same(t, boom, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", d.AddDays(1).String())

	_, err = ParseDate("29/02/2024", time.UTC)
	assert.Error(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(data))
}
