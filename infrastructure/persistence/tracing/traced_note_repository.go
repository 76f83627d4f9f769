// Package tracing wraps repositories in OpenTelemetry spans.
package tracing

import (
	"context"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceNoteRepository wraps a repository with tracing
func TraceNoteRepository(repo ports.NoteRepository, tracer trace.Tracer) ports.NoteRepository {
	return &tracedNoteRepository{inner: repo, tracer: tracer}
}

type tracedNoteRepository struct {
	inner  ports.NoteRepository
	tracer trace.Tracer
}

func (r *tracedNoteRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "repository."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *tracedNoteRepository) Save(ctx context.Context, note *entities.Note) error {
	ctx, span := r.start(ctx, "SaveNote",
		attribute.String("note.id", note.ID().String()),
		attribute.String("user.id", note.UserID()),
		attribute.Int("note.version", note.Version()),
	)
	err := r.inner.Save(ctx, note)
	finish(span, err)
	return err
}

func (r *tracedNoteRepository) GetByID(ctx context.Context, id valueobjects.NoteID) (*entities.Note, error) {
	ctx, span := r.start(ctx, "GetNote", attribute.String("note.id", id.String()))
	note, err := r.inner.GetByID(ctx, id)
	finish(span, err)
	return note, err
}

func (r *tracedNoteRepository) Delete(ctx context.Context, note *entities.Note) error {
	ctx, span := r.start(ctx, "DeleteNote",
		attribute.String("note.id", note.ID().String()),
		attribute.String("user.id", note.UserID()),
	)
	err := r.inner.Delete(ctx, note)
	finish(span, err)
	return err
}

func (r *tracedNoteRepository) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	ctx, span := r.start(ctx, "DeleteAllNotes", attribute.String("user.id", userID))
	n, err := r.inner.DeleteAllByUser(ctx, userID)
	span.SetAttributes(attribute.Int("notes.deleted", n))
	finish(span, err)
	return n, err
}

func (r *tracedNoteRepository) FindByUserAndDateRange(ctx context.Context, userID string, start, end *time.Time) ([]*entities.Note, error) {
	attrs := []attribute.KeyValue{attribute.String("user.id", userID)}
	if start != nil {
		attrs = append(attrs, attribute.String("range.start", start.UTC().Format(time.RFC3339)))
	}
	if end != nil {
		attrs = append(attrs, attribute.String("range.end", end.UTC().Format(time.RFC3339)))
	}
	ctx, span := r.start(ctx, "FindNotesInRange", attrs...)
	notes, err := r.inner.FindByUserAndDateRange(ctx, userID, start, end)
	span.SetAttributes(attribute.Int("notes.count", len(notes)))
	finish(span, err)
	return notes, err
}

func (r *tracedNoteRepository) FindByUserOnDate(ctx context.Context, userID string, day analytics.Date) ([]*entities.Note, error) {
	ctx, span := r.start(ctx, "FindNotesOnDate",
		attribute.String("user.id", userID),
		attribute.String("date", day.String()),
	)
	notes, err := r.inner.FindByUserOnDate(ctx, userID, day)
	span.SetAttributes(attribute.Int("notes.count", len(notes)))
	finish(span, err)
	return notes, err
}

func (r *tracedNoteRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, span := r.start(ctx, "CountNotes", attribute.String("user.id", userID))
	n, err := r.inner.CountByUser(ctx, userID)
	finish(span, err)
	return n, err
}
