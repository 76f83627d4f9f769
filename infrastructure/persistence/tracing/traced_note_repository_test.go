package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports/mocks"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func TestTracedNoteRepository_SaveRecordsSpan(t *testing.T) {
	// Arrange
	sr, tp := newRecorder()
	inner := new(mocks.MockNoteRepository)
	note := fixtures.NewNoteBuilder().MustBuild()
	inner.On("Save", mock.Anything, note).Return(nil)
	repo := TraceNoteRepository(inner, tp.Tracer("test"))

	// Act
	err := repo.Save(context.Background(), note)

	// Assert
	require.NoError(t, err)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "repository.SaveNote", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestTracedNoteRepository_ErrorMarksSpan(t *testing.T) {
	sr, tp := newRecorder()
	inner := new(mocks.MockNoteRepository)
	inner.On("CountByUser", mock.Anything, "u1").Return(int64(0), errors.New("down"))

	_, err := TraceNoteRepository(inner, tp.Tracer("test")).CountByUser(context.Background(), "u1")

	assert.Error(t, err)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "down", spans[0].Status().Description)
}
