package handlers

import (
	"context"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("neurotype/queries")

func startSpan(ctx context.Context, name, userID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", userID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ListNotesHandler handles list notes queries
type ListNotesHandler struct {
	noteRepo ports.NoteRepository
	logger   *zap.Logger
}

// NewListNotesHandler creates a new list notes handler
func NewListNotesHandler(noteRepo ports.NoteRepository, logger *zap.Logger) *ListNotesHandler {
	return &ListNotesHandler{
		noteRepo: noteRepo,
		logger:   logger,
	}
}

// Handle executes the list notes query
func (h *ListNotesHandler) Handle(ctx context.Context, query queries.ListNotesQuery) (result []queries.NoteView, err error) {
	ctx, span := startSpan(ctx, "query.ListNotes", query.UserID)
	defer func() { endSpan(span, err) }()

	if query.StartDate != nil && query.EndDate != nil && query.EndDate.Before(*query.StartDate) {
		return []queries.NoteView{}, nil
	}

	// the store treats end as exclusive
	var end *time.Time
	if query.EndDate != nil {
		e := query.EndDate.Add(time.Nanosecond)
		end = &e
	}

	notes, err := h.noteRepo.FindByUserAndDateRange(ctx, query.UserID, query.StartDate, end)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Notes listed",
		zap.String("userID", query.UserID),
		zap.Int("count", len(notes)))
	return queries.NewNoteViews(notes), nil
}

// GetNoteHandler handles get note queries
type GetNoteHandler struct {
	noteRepo ports.NoteRepository
}

func NewGetNoteHandler(noteRepo ports.NoteRepository) *GetNoteHandler {
	return &GetNoteHandler{noteRepo: noteRepo}
}

// Handle returns the note, or not found when it belongs to someone else
func (h *GetNoteHandler) Handle(ctx context.Context, query queries.GetNoteQuery) (result *queries.NoteView, err error) {
	ctx, span := startSpan(ctx, "query.GetNote", query.UserID)
	defer func() { endSpan(span, err) }()

	note, err := findOwnedNote(ctx, h.noteRepo, query.NoteID, query.UserID)
	if err != nil {
		return nil, err
	}
	view := queries.NewNoteView(note)
	return &view, nil
}

func findOwnedNote(ctx context.Context, repo ports.NoteRepository, rawID, userID string) (*entities.Note, error) {
	noteID, err := valueobjects.NewNoteIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError("note")
	}
	note, err := repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !note.IsOwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("note")
	}
	return note, nil
}

// DailyAnalysisHandler handles daily analysis queries
type DailyAnalysisHandler struct {
	aggregator *analytics.Aggregator
}

func NewDailyAnalysisHandler(aggregator *analytics.Aggregator) *DailyAnalysisHandler {
	return &DailyAnalysisHandler{aggregator: aggregator}
}

// Handle executes the daily analysis query
func (h *DailyAnalysisHandler) Handle(ctx context.Context, query queries.GetDailyAnalysisQuery) (result *queries.DailyAnalysisView, err error) {
	ctx, span := startSpan(ctx, "query.GetDailyAnalysis", query.UserID)
	defer func() { endSpan(span, err) }()

	day, err := analytics.ParseDate(query.Date, h.aggregator.Location())
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	analysis, err := h.aggregator.AnalyzeDay(ctx, query.UserID, day)
	if err != nil {
		return nil, err
	}

	return &queries.DailyAnalysisView{
		Date:        analysis.Date.String(),
		TotalCounts: analysis.Totals.Map(),
		Notes:       queries.NewNoteViews(analysis.Notes),
	}, nil
}

// EmotionsSummaryHandler handles emotion summary queries
type EmotionsSummaryHandler struct {
	aggregator *analytics.Aggregator
}

func NewEmotionsSummaryHandler(aggregator *analytics.Aggregator) *EmotionsSummaryHandler {
	return &EmotionsSummaryHandler{aggregator: aggregator}
}

// Handle executes the emotion summary query
func (h *EmotionsSummaryHandler) Handle(ctx context.Context, query queries.GetEmotionsSummaryQuery) (result []queries.DailyEmotionSummaryView, err error) {
	ctx, span := startSpan(ctx, "query.GetEmotionsSummary", query.UserID)
	defer func() { endSpan(span, err) }()

	loc := h.aggregator.Location()
	start, err := analytics.ParseDate(query.StartDate, loc)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	end, err := analytics.ParseDate(query.EndDate, loc)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	summaries, err := h.aggregator.SummarizeRange(ctx, query.UserID, start, end)
	if err != nil {
		return nil, err
	}

	views := make([]queries.DailyEmotionSummaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, queries.DailyEmotionSummaryView{
			Date:             s.Date.String(),
			PrevalentEmotion: s.PrevalentEmotion.String(),
			Emotions:         s.Emotions.Map(),
		})
	}
	return views, nil
}

// ExportNotesHandler returns all notes of a user for download
type ExportNotesHandler struct {
	noteRepo ports.NoteRepository
	logger   *zap.Logger
}

func NewExportNotesHandler(noteRepo ports.NoteRepository, logger *zap.Logger) *ExportNotesHandler {
	return &ExportNotesHandler{noteRepo: noteRepo, logger: logger}
}

func (h *ExportNotesHandler) Handle(ctx context.Context, query queries.ExportNotesQuery) (result []queries.NoteView, err error) {
	ctx, span := startSpan(ctx, "query.ExportNotes", query.UserID)
	defer func() { endSpan(span, err) }()

	notes, err := h.noteRepo.FindByUserAndDateRange(ctx, query.UserID, nil, nil)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("notes.count", len(notes)))
	h.logger.Info("Notes exported", zap.String("userID", query.UserID), zap.Int("count", len(notes)))
	return queries.NewNoteViews(notes), nil
}
