package fixtures

import (
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
)

// NoteBuilder helps create test notes with default values
type NoteBuilder struct {
	id        valueobjects.NoteID
	userID    string
	text      string
	emotions  *emotion.Vector
	createdAt time.Time
}

func NewNoteBuilder() *NoteBuilder {
	return &NoteBuilder{
		id:        valueobjects.NewNoteID(),
		userID:    "test-user-123",
		text:      "Today was calm",
		createdAt: time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
	}
}

func (b *NoteBuilder) WithID(id string) *NoteBuilder {
	b.id, _ = valueobjects.NewNoteIDFromString(id)
	return b
}

func (b *NoteBuilder) WithUserID(userID string) *NoteBuilder {
	b.userID = userID
	return b
}

func (b *NoteBuilder) WithText(text string) *NoteBuilder {
	b.text = text
	return b
}

// WithEmotions overrides the vector; by default the text is classified with
// the default lexicon
func (b *NoteBuilder) WithEmotions(v emotion.Vector) *NoteBuilder {
	b.emotions = &v
	return b
}

func (b *NoteBuilder) WithCreatedAt(at time.Time) *NoteBuilder {
	b.createdAt = at
	return b
}

func (b *NoteBuilder) Build() (*entities.Note, error) {
	emotions := emotion.NewClassifier(emotion.DefaultLexicon()).Classify(b.text)
	if b.emotions != nil {
		emotions = *b.emotions
	}
	return entities.NewNote(b.id, b.userID, b.text, emotions, b.createdAt)
}

func (b *NoteBuilder) MustBuild() *entities.Note {
	note, err := b.Build()
	if err != nil {
		panic(err)
	}
	// Mark creation events as committed so tests don't see them
	note.MarkEventsAsCommitted()
	return note
}

// UserBuilder helps create test users
type UserBuilder struct {
	id           valueobjects.UserID
	email        string
	passwordHash string
	name         string
	plan         valueobjects.Plan
	photoURL     string
	createdAt    time.Time
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		id:           valueobjects.NewUserID(),
		email:        "test@example.com",
		passwordHash: "$2a$10$abcdefghijklmnopqrstuuN1yb8wQ4x9sZr7eU3.9bGf8tC1oG5xa",
		plan:         valueobjects.PlanLite,
		createdAt:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.id, _ = valueobjects.NewUserIDFromString(id)
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.passwordHash = hash
	return b
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) WithPlan(plan valueobjects.Plan) *UserBuilder {
	b.plan = plan
	return b
}

func (b *UserBuilder) WithProfilePhoto(url string) *UserBuilder {
	b.photoURL = url
	return b
}

func (b *UserBuilder) Build() (*entities.User, error) {
	email, err := valueobjects.NewEmail(b.email)
	if err != nil {
		return nil, err
	}
	return entities.ReconstructUser(b.id, email, b.passwordHash, b.name, b.plan, b.photoURL, b.createdAt, b.createdAt, 1), nil
}

func (b *UserBuilder) MustBuild() *entities.User {
	user, err := b.Build()
	if err != nil {
		panic(err)
	}
	return user
}
