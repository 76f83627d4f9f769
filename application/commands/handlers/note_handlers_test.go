package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports/mocks"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/fixtures"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)

func TestCreateNoteHandler_Handle_ClassifiesBeforeSaving(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	classifier := emotion.NewClassifier(emotion.DefaultLexicon())
	noteID := valueobjects.NewNoteID()

	var saved *entities.Note
	mockNoteRepo.On("Save", ctx, mock.AnythingOfType("*entities.Note")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*entities.Note) }).
		Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)

	handler := NewCreateNoteHandler(mockNoteRepo, classifier, mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.CreateNoteCommand{
		NoteID: noteID.String(),
		UserID: "user123",
		Text:   "I felt happy, then calm, then happy again",
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, noteID, saved.ID())
	assert.Equal(t, "user123", saved.UserID())
	assert.Equal(t, emotion.Vector{Happy: 2, Calm: 1}, saved.Emotions())
	assert.Equal(t, testNow, saved.CreatedAt())
	assert.Empty(t, saved.GetUncommittedEvents())
	mockNoteRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestCreateNoteHandler_Handle_SaveFails(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	dbErr := errors.New("throughput exceeded")
	mockNoteRepo.On("Save", ctx, mock.Anything).Return(dbErr)

	handler := NewCreateNoteHandler(mockNoteRepo, emotion.NewClassifier(emotion.DefaultLexicon()), mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.CreateNoteCommand{NoteID: valueobjects.NewNoteID().String(), UserID: "user123", Text: "sad"})

	// Assert
	assert.ErrorIs(t, err, dbErr)
	mockPublisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestCreateNoteHandler_Handle_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	mockNoteRepo.On("Save", ctx, mock.Anything).Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.Anything).Return(errors.New("eventbridge down"))

	handler := NewCreateNoteHandler(mockNoteRepo, emotion.NewClassifier(emotion.DefaultLexicon()), mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	err := handler.Handle(ctx, commands.CreateNoteCommand{NoteID: valueobjects.NewNoteID().String(), UserID: "user123", Text: "calm"})

	assert.NoError(t, err)
}

func TestUpdateNoteHandler_Handle_KeepsCreationVectorByDefault(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	note := fixtures.NewNoteBuilder().
		WithUserID("user123").
		WithText("happy happy").
		MustBuild()

	mockNoteRepo.On("GetByID", ctx, note.ID()).Return(note, nil)
	mockNoteRepo.On("Save", ctx, note).Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.Anything).Return(nil)

	handler := NewUpdateNoteHandler(mockNoteRepo, emotion.NewClassifier(emotion.DefaultLexicon()), mockPublisher, mocks.FixedClock{At: testNow}, false, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.UpdateNoteCommand{NoteID: note.ID().String(), UserID: "user123", Text: "angry and upset"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "angry and upset", note.Text())
	assert.Equal(t, emotion.Vector{Happy: 2}, note.Emotions())
	assert.Equal(t, 2, note.Version())
	assert.Equal(t, testNow, note.UpdatedAt())
	mockNoteRepo.AssertExpectations(t)
}

func TestUpdateNoteHandler_Handle_ReclassifiesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	note := fixtures.NewNoteBuilder().WithUserID("user123").WithText("happy").MustBuild()

	mockNoteRepo.On("GetByID", ctx, note.ID()).Return(note, nil)
	mockNoteRepo.On("Save", ctx, note).Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.Anything).Return(nil)

	handler := NewUpdateNoteHandler(mockNoteRepo, emotion.NewClassifier(emotion.DefaultLexicon()), mockPublisher, mocks.FixedClock{At: testNow}, true, zap.NewNop())

	err := handler.Handle(ctx, commands.UpdateNoteCommand{NoteID: note.ID().String(), UserID: "user123", Text: "angry and upset"})

	require.NoError(t, err)
	assert.Equal(t, emotion.Vector{Upset: 2}, note.Emotions())
}

func TestUpdateNoteHandler_Handle_OtherUsersNoteIsNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	note := fixtures.NewNoteBuilder().WithUserID("owner").MustBuild()
	mockNoteRepo.On("GetByID", ctx, note.ID()).Return(note, nil)

	handler := NewUpdateNoteHandler(mockNoteRepo, emotion.NewClassifier(emotion.DefaultLexicon()), nil, mocks.FixedClock{At: testNow}, false, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.UpdateNoteCommand{NoteID: note.ID().String(), UserID: "intruder", Text: "hi"})

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	mockNoteRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDeleteNoteHandler_Handle_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	mockPublisher := new(mocks.MockEventPublisher)
	note := fixtures.NewNoteBuilder().WithUserID("user123").MustBuild()

	mockNoteRepo.On("GetByID", ctx, note.ID()).Return(note, nil)
	mockNoteRepo.On("Delete", ctx, note).Return(nil)
	mockPublisher.On("PublishBatch", ctx, mock.MatchedBy(func(evts []events.DomainEvent) bool {
		return len(evts) == 1 && evts[0].GetEventType() == "note.deleted"
	})).Return(nil)

	handler := NewDeleteNoteHandler(mockNoteRepo, mockPublisher, mocks.FixedClock{At: testNow}, zap.NewNop())

	// Act
	err := handler.Handle(ctx, commands.DeleteNoteCommand{NoteID: note.ID().String(), UserID: "user123"})

	// Assert
	assert.NoError(t, err)
	mockNoteRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestDeleteNoteHandler_Handle_NotFound(t *testing.T) {
	ctx := context.Background()
	mockNoteRepo := new(mocks.MockNoteRepository)
	noteID := valueobjects.NewNoteID()
	mockNoteRepo.On("GetByID", ctx, noteID).Return(nil, pkgerrors.NewNotFoundError("note"))

	handler := NewDeleteNoteHandler(mockNoteRepo, nil, mocks.FixedClock{At: testNow}, zap.NewNop())

	err := handler.Handle(ctx, commands.DeleteNoteCommand{NoteID: noteID.String(), UserID: "user123"})

	assert.True(t, pkgerrors.IsNotFound(err))
	mockNoteRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteNoteHandler_Handle_MalformedIDIsNotFound(t *testing.T) {
	handler := NewDeleteNoteHandler(new(mocks.MockNoteRepository), nil, mocks.FixedClock{At: testNow}, zap.NewNop())

	err := handler.Handle(context.Background(), commands.DeleteNoteCommand{NoteID: "42", UserID: "user123"})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNoteCommands_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     interface{ Validate() error }
		wantErr bool
	}{
		{"create ok", commands.CreateNoteCommand{NoteID: "n", UserID: "u", Text: "hello"}, false},
		{"create blank text", commands.CreateNoteCommand{NoteID: "n", UserID: "u", Text: "   "}, true},
		{"create missing user", commands.CreateNoteCommand{NoteID: "n", Text: "hello"}, true},
		{"update missing note", commands.UpdateNoteCommand{UserID: "u", Text: "hello"}, true},
		{"delete ok", commands.DeleteNoteCommand{NoteID: "n", UserID: "u"}, false},
		{"delete missing user", commands.DeleteNoteCommand{NoteID: "n"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
