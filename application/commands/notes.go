package commands

import (
	"strings"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// CreateNoteCommand records a journal entry. NoteID is generated by the caller
// so the created note can be read back.
type CreateNoteCommand struct {
	NoteID string
	UserID string
	Text   string
}

func (c CreateNoteCommand) Validate() error {
	if c.NoteID == "" {
		return pkgerrors.NewValidationError("note ID is required")
	}
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return validateNoteText(c.Text)
}

// UpdateNoteCommand replaces the text of an existing note
type UpdateNoteCommand struct {
	NoteID string
	UserID string
	Text   string
}

func (c UpdateNoteCommand) Validate() error {
	if c.NoteID == "" {
		return pkgerrors.NewValidationError("note ID is required")
	}
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return validateNoteText(c.Text)
}

// DeleteNoteCommand removes a note owned by UserID
type DeleteNoteCommand struct {
	NoteID string
	UserID string
}

func (c DeleteNoteCommand) Validate() error {
	if c.NoteID == "" {
		return pkgerrors.NewValidationError("note ID is required")
	}
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

func validateNoteText(text string) error {
	if strings.TrimSpace(text) == "" {
		return pkgerrors.NewValidationError("text is required")
	}
	if len([]rune(text)) > entities.MaxNoteLength {
		return pkgerrors.NewValidationError("text is too long")
	}
	return nil
}
