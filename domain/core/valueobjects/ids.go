package valueobjects

import (
	"strconv"

	"github.com/google/uuid"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// NoteID identifies a journal note
type NoteID struct {
	value string
}

// NewNoteID creates a new random NoteID
func NewNoteID() NoteID {
	return NoteID{value: uuid.New().String()}
}

// NewNoteIDFromString validates and wraps an existing identifier
func NewNoteIDFromString(id string) (NoteID, error) {
	if id == "" {
		return NoteID{}, pkgerrors.NewValidationError("note ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return NoteID{}, pkgerrors.NewValidationError("note ID must be a valid UUID")
	}
	return NoteID{value: id}, nil
}

func (id NoteID) String() string           { return id.value }
func (id NoteID) Equals(other NoteID) bool { return id.value == other.value }
func (id NoteID) IsZero() bool             { return id.value == "" }

// MarshalJSON implements json.Marshaler
func (id NoteID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.value)), nil
}

// UserID identifies an account
type UserID struct {
	value string
}

// NewUserID creates a new random UserID
func NewUserID() UserID {
	return UserID{value: uuid.New().String()}
}

// NewUserIDFromString validates and wraps an existing identifier
func NewUserIDFromString(id string) (UserID, error) {
	if id == "" {
		return UserID{}, pkgerrors.NewValidationError("user ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return UserID{}, pkgerrors.NewValidationError("user ID must be a valid UUID")
	}
	return UserID{value: id}, nil
}

func (id UserID) String() string           { return id.value }
func (id UserID) Equals(other UserID) bool { return id.value == other.value }
func (id UserID) IsZero() bool             { return id.value == "" }

// MarshalJSON implements json.Marshaler
func (id UserID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.value)), nil
}
