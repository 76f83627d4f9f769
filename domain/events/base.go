package events

import (
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
)

// SourceBackend is the event source reported to subscribers
const SourceBackend = "neurotype.backend"

// DomainEvent is something that has already happened to an aggregate
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{AggregateID: aggregateID, EventType: eventType, Timestamp: at, Version: 1}
}

// NoteCreated is raised once a note has been classified and stored
type NoteCreated struct {
	BaseEvent
	NoteID   string         `json:"note_id"`
	UserID   string         `json:"user_id"`
	Emotions emotion.Vector `json:"emotions"`
}

func NewNoteCreated(noteID, userID string, emotions emotion.Vector, at time.Time) NoteCreated {
	return NoteCreated{
		BaseEvent: newBase(noteID, "note.created", at),
		NoteID:    noteID,
		UserID:    userID,
		Emotions:  emotions,
	}
}

// NoteTextRevised is raised when a note's text changes
type NoteTextRevised struct {
	BaseEvent
	NoteID       string `json:"note_id"`
	UserID       string `json:"user_id"`
	Reclassified bool   `json:"reclassified"`
}

func NewNoteTextRevised(noteID, userID string, reclassified bool, at time.Time) NoteTextRevised {
	return NoteTextRevised{
		BaseEvent:    newBase(noteID, "note.text_revised", at),
		NoteID:       noteID,
		UserID:       userID,
		Reclassified: reclassified,
	}
}

// NoteDeleted is raised when an owner removes a note
type NoteDeleted struct {
	BaseEvent
	NoteID string `json:"note_id"`
	UserID string `json:"user_id"`
}

func NewNoteDeleted(noteID, userID string, at time.Time) NoteDeleted {
	return NoteDeleted{
		BaseEvent: newBase(noteID, "note.deleted", at),
		NoteID:    noteID,
		UserID:    userID,
	}
}

// UserRegistered is raised when an account is created
type UserRegistered struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserRegistered(userID, email string, at time.Time) UserRegistered {
	return UserRegistered{
		BaseEvent: newBase(userID, "user.registered", at),
		UserID:    userID,
		Email:     email,
	}
}

// PlanSelected is raised when a user switches subscription tier
type PlanSelected struct {
	BaseEvent
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
}

func NewPlanSelected(userID, plan string, at time.Time) PlanSelected {
	return PlanSelected{
		BaseEvent: newBase(userID, "user.plan_selected", at),
		UserID:    userID,
		Plan:      plan,
	}
}

// UserDeleted is raised after an account and all of its notes are removed
type UserDeleted struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewUserDeleted(userID string, at time.Time) UserDeleted {
	return UserDeleted{
		BaseEvent: newBase(userID, "user.deleted", at),
		UserID:    userID,
	}
}
