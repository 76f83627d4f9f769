package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// MaxNoteLength bounds the text of a single note, in characters
const MaxNoteLength = 20000

// Note is one journal entry. Its emotion vector is captured when the note is
// created and only changes through an explicit reclassification.
type Note struct {
	id        valueobjects.NoteID
	userID    string
	text      string
	emotions  emotion.Vector
	createdAt time.Time
	updatedAt time.Time
	version   int

	events []events.DomainEvent
}

// NewNote creates a note from already-classified text
func NewNote(id valueobjects.NoteID, userID, text string, emotions emotion.Vector, createdAt time.Time) (*Note, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("note ID cannot be empty")
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	createdAt = createdAt.UTC()
	note := &Note{
		id:        id,
		userID:    userID,
		text:      text,
		emotions:  emotions,
		createdAt: createdAt,
		updatedAt: createdAt,
		version:   1,
	}
	note.addEvent(events.NewNoteCreated(id.String(), userID, emotions, createdAt))
	return note, nil
}

// ReconstructNote rebuilds a note from storage without raising events
func ReconstructNote(
	id valueobjects.NoteID,
	userID string,
	text string,
	emotions emotion.Vector,
	createdAt time.Time,
	updatedAt time.Time,
	version int,
) *Note {
	return &Note{
		id:        id,
		userID:    userID,
		text:      text,
		emotions:  emotions,
		createdAt: createdAt.UTC(),
		updatedAt: updatedAt.UTC(),
		version:   version,
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return pkgerrors.NewValidationError("note text cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxNoteLength {
		return pkgerrors.NewValidationError("note text is too long")
	}
	return nil
}

// ReviseText replaces the note text. A nil reclassified vector keeps the
// creation-time emotions.
func (n *Note) ReviseText(text string, reclassified *emotion.Vector, at time.Time) error {
	if err := validateText(text); err != nil {
		return err
	}

	n.text = text
	if reclassified != nil {
		n.emotions = *reclassified
	}
	n.updatedAt = at.UTC()
	n.version++
	n.addEvent(events.NewNoteTextRevised(n.id.String(), n.userID, reclassified != nil, n.updatedAt))
	return nil
}

// MarkDeleted records the deletion event
func (n *Note) MarkDeleted(at time.Time) {
	n.addEvent(events.NewNoteDeleted(n.id.String(), n.userID, at.UTC()))
}

// IsOwnedBy reports whether userID owns the note
func (n *Note) IsOwnedBy(userID string) bool {
	return n.userID == userID
}

func (n *Note) ID() valueobjects.NoteID  { return n.id }
func (n *Note) UserID() string           { return n.userID }
func (n *Note) Text() string             { return n.text }
func (n *Note) Emotions() emotion.Vector { return n.emotions }
func (n *Note) CreatedAt() time.Time     { return n.createdAt }
func (n *Note) UpdatedAt() time.Time     { return n.updatedAt }
func (n *Note) Version() int             { return n.version }

func (n *Note) addEvent(e events.DomainEvent) {
	n.events = append(n.events, e)
}

// GetUncommittedEvents returns events raised since the last commit
func (n *Note) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the pending events
func (n *Note) MarkEventsAsCommitted() {
	n.events = nil
}
