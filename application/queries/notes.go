package queries

import (
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// ListNotesQuery lists a user's notes, optionally within [StartDate, EndDate].
// Both bounds are inclusive.
type ListNotesQuery struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
}

func (q ListNotesQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

// GetNoteQuery fetches one note owned by UserID
type GetNoteQuery struct {
	UserID string
	NoteID string
}

func (q GetNoteQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if q.NoteID == "" {
		return pkgerrors.NewValidationError("note ID is required")
	}
	return nil
}

// GetDailyAnalysisQuery analyzes one calendar day, formatted YYYY-MM-DD
type GetDailyAnalysisQuery struct {
	UserID string
	Date   string
}

func (q GetDailyAnalysisQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if q.Date == "" {
		return pkgerrors.NewValidationError("analysis_date is required")
	}
	return nil
}

// GetEmotionsSummaryQuery summarizes each day in [StartDate, EndDate]
type GetEmotionsSummaryQuery struct {
	UserID    string
	StartDate string
	EndDate   string
}

func (q GetEmotionsSummaryQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if q.StartDate == "" || q.EndDate == "" {
		return pkgerrors.NewValidationError("start_date and end_date are required")
	}
	return nil
}

// ExportNotesQuery returns every note of the user, oldest first
type ExportNotesQuery struct {
	UserID string
}

func (q ExportNotesQuery) Validate() error {
	if q.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

// NoteView is the API representation of a note
type NoteView struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	HappyCount int64     `json:"happy_count"`
	CalmCount  int64     `json:"calm_count"`
	SadCount   int64     `json:"sad_count"`
	UpsetCount int64     `json:"upset_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewNoteView converts a note entity
func NewNoteView(n *entities.Note) NoteView {
	v := n.Emotions()
	return NoteView{
		ID:         n.ID().String(),
		UserID:     n.UserID(),
		Text:       n.Text(),
		HappyCount: v.Happy,
		CalmCount:  v.Calm,
		SadCount:   v.Sad,
		UpsetCount: v.Upset,
		CreatedAt:  n.CreatedAt(),
		UpdatedAt:  n.UpdatedAt(),
	}
}

// NewNoteViews converts a slice, never returning nil
func NewNoteViews(notes []*entities.Note) []NoteView {
	views := make([]NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, NewNoteView(n))
	}
	return views
}

type DailyAnalysisView struct {
	Date        string           `json:"date"`
	TotalCounts map[string]int64 `json:"total_counts"`
	Notes       []NoteView       `json:"notes"`
}

type DailyEmotionSummaryView struct {
	Date             string           `json:"date"`
	PrevalentEmotion string           `json:"prevalent_emotion"`
	Emotions         map[string]int64 `json:"emotions"`
}
