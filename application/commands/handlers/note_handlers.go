package handlers

import (
	"context"

	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// CreateNoteHandler classifies the note text and stores the note
type CreateNoteHandler struct {
	noteRepo   ports.NoteRepository
	classifier emotion.Scorer
	publisher  ports.EventPublisher
	clock      ports.Clock
	logger     *zap.Logger
}

// NewCreateNoteHandler creates a new create note handler
func NewCreateNoteHandler(
	noteRepo ports.NoteRepository,
	classifier emotion.Scorer,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *CreateNoteHandler {
	return &CreateNoteHandler{
		noteRepo:   noteRepo,
		classifier: classifier,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}
}

// Handle executes the create note command
func (h *CreateNoteHandler) Handle(ctx context.Context, cmd commands.CreateNoteCommand) error {
	noteID, err := valueobjects.NewNoteIDFromString(cmd.NoteID)
	if err != nil {
		return err
	}

	emotions := h.classifier.Classify(cmd.Text)
	note, err := entities.NewNote(noteID, cmd.UserID, cmd.Text, emotions, h.clock.Now())
	if err != nil {
		return err
	}

	if err := h.noteRepo.Save(ctx, note); err != nil {
		return err
	}

	h.logger.Debug("Note created",
		zap.String("noteID", noteID.String()),
		zap.String("userID", cmd.UserID),
		zap.Int64("keywordHits", emotions.Total()))

	publishEvents(ctx, h.publisher, h.logger, note.GetUncommittedEvents())
	note.MarkEventsAsCommitted()
	return nil
}

// UpdateNoteHandler revises note text. Emotions are recomputed only when
// reclassify is set; otherwise the creation-time vector is kept.
type UpdateNoteHandler struct {
	noteRepo   ports.NoteRepository
	classifier emotion.Scorer
	publisher  ports.EventPublisher
	clock      ports.Clock
	reclassify bool
	logger     *zap.Logger
}

// NewUpdateNoteHandler creates a new update note handler
func NewUpdateNoteHandler(
	noteRepo ports.NoteRepository,
	classifier emotion.Scorer,
	publisher ports.EventPublisher,
	clock ports.Clock,
	reclassify bool,
	logger *zap.Logger,
) *UpdateNoteHandler {
	return &UpdateNoteHandler{
		noteRepo:   noteRepo,
		classifier: classifier,
		publisher:  publisher,
		clock:      clock,
		reclassify: reclassify,
		logger:     logger,
	}
}

// Handle executes the update note command
func (h *UpdateNoteHandler) Handle(ctx context.Context, cmd commands.UpdateNoteCommand) error {
	note, err := loadOwnedNote(ctx, h.noteRepo, cmd.NoteID, cmd.UserID)
	if err != nil {
		return err
	}

	var reclassified *emotion.Vector
	if h.reclassify {
		v := h.classifier.Classify(cmd.Text)
		reclassified = &v
	}

	if err := note.ReviseText(cmd.Text, reclassified, h.clock.Now()); err != nil {
		return err
	}

	if err := h.noteRepo.Save(ctx, note); err != nil {
		return err
	}

	publishEvents(ctx, h.publisher, h.logger, note.GetUncommittedEvents())
	note.MarkEventsAsCommitted()
	return nil
}

// DeleteNoteHandler removes a note after checking ownership
type DeleteNoteHandler struct {
	noteRepo  ports.NoteRepository
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *zap.Logger
}

// NewDeleteNoteHandler creates a new delete note handler
func NewDeleteNoteHandler(
	noteRepo ports.NoteRepository,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger *zap.Logger,
) *DeleteNoteHandler {
	return &DeleteNoteHandler{
		noteRepo:  noteRepo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Handle executes the delete note command
func (h *DeleteNoteHandler) Handle(ctx context.Context, cmd commands.DeleteNoteCommand) error {
	note, err := loadOwnedNote(ctx, h.noteRepo, cmd.NoteID, cmd.UserID)
	if err != nil {
		return err
	}

	if err := h.noteRepo.Delete(ctx, note); err != nil {
		return err
	}

	note.MarkDeleted(h.clock.Now())
	publishEvents(ctx, h.publisher, h.logger, note.GetUncommittedEvents())
	note.MarkEventsAsCommitted()
	return nil
}

// loadOwnedNote hides notes of other users behind the same not-found error as
// missing ones.
func loadOwnedNote(ctx context.Context, repo ports.NoteRepository, rawID, userID string) (*entities.Note, error) {
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

// publishEvents forwards domain events. Delivery failures are logged, not
// returned.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts []events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Warn("Failed to publish events", zap.Int("count", len(evts)), zap.Error(err))
	}
}
