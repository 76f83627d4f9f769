package entities

import (
	"strings"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// User is an account owning notes
type User struct {
	id              valueobjects.UserID
	email           valueobjects.Email
	passwordHash    string
	name            string
	plan            valueobjects.Plan
	profilePhotoURL string
	createdAt       time.Time
	updatedAt       time.Time
	version         int

	events []events.DomainEvent
}

// NewUser registers a user on the lite plan
func NewUser(id valueobjects.UserID, email valueobjects.Email, passwordHash string, at time.Time) (*User, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("user ID cannot be empty")
	}
	if email.IsZero() {
		return nil, pkgerrors.NewValidationError("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, pkgerrors.NewValidationError("password hash cannot be empty")
	}

	at = at.UTC()
	u := &User{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		plan:         valueobjects.PlanLite,
		createdAt:    at,
		updatedAt:    at,
		version:      1,
	}
	u.addEvent(events.NewUserRegistered(id.String(), email.String(), at))
	return u, nil
}

// ReconstructUser rebuilds a user from storage
func ReconstructUser(
	id valueobjects.UserID,
	email valueobjects.Email,
	passwordHash string,
	name string,
	plan valueobjects.Plan,
	profilePhotoURL string,
	createdAt time.Time,
	updatedAt time.Time,
	version int,
) *User {
	return &User{
		id:              id,
		email:           email,
		passwordHash:    passwordHash,
		name:            name,
		plan:            plan,
		profilePhotoURL: profilePhotoURL,
		createdAt:       createdAt.UTC(),
		updatedAt:       updatedAt.UTC(),
		version:         version,
	}
}

// SelectPlan switches the subscription tier
func (u *User) SelectPlan(plan valueobjects.Plan, at time.Time) {
	if u.plan == plan {
		return
	}
	u.plan = plan
	u.touch(at)
	u.addEvent(events.NewPlanSelected(u.id.String(), string(plan), u.updatedAt))
}

// UpdateProfile changes the display name and/or photo URL. Nil leaves a field as is.
func (u *User) UpdateProfile(name, photoURL *string, at time.Time) error {
	if name == nil && photoURL == nil {
		return pkgerrors.NewValidationError("no profile data provided")
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if len(trimmed) > 100 {
			return pkgerrors.NewValidationError("name must be at most 100 characters")
		}
		u.name = trimmed
	}
	if photoURL != nil {
		u.profilePhotoURL = *photoURL
	}
	u.touch(at)
	return nil
}

// MarkDeleted records the deletion event
func (u *User) MarkDeleted(at time.Time) {
	u.addEvent(events.NewUserDeleted(u.id.String(), at.UTC()))
}

func (u *User) touch(at time.Time) {
	u.updatedAt = at.UTC()
	u.version++
}

func (u *User) ID() valueobjects.UserID   { return u.id }
func (u *User) Email() valueobjects.Email { return u.email }
func (u *User) PasswordHash() string      { return u.passwordHash }
func (u *User) Name() string              { return u.name }
func (u *User) Plan() valueobjects.Plan   { return u.plan }
func (u *User) ProfilePhotoURL() string   { return u.profilePhotoURL }
func (u *User) CreatedAt() time.Time      { return u.createdAt }
func (u *User) UpdatedAt() time.Time      { return u.updatedAt }
func (u *User) Version() int              { return u.version }

func (u *User) addEvent(e events.DomainEvent) {
	u.events = append(u.events, e)
}

// GetUncommittedEvents returns events raised since the last commit
func (u *User) GetUncommittedEvents() []events.DomainEvent {
	return u.events
}

// MarkEventsAsCommitted clears the pending events
func (u *User) MarkEventsAsCommitted() {
	u.events = nil
}
