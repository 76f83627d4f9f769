package ports

import (
	"context"
	"io"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
)

// NoteRepository defines the interface for note persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type NoteRepository interface {
	analytics.NoteReader

	// Save persists a note (create or update)
	Save(ctx context.Context, note *entities.Note) error

	// GetByID retrieves a note by its ID
	GetByID(ctx context.Context, id valueobjects.NoteID) (*entities.Note, error)

	// Delete removes a note
	Delete(ctx context.Context, note *entities.Note) error

	// DeleteAllByUser removes every note the user owns and reports how many
	DeleteAllByUser(ctx context.Context, userID string) (int, error)
}

// UserRepository defines the interface for account persistence
type UserRepository interface {
	// Create stores a new user; a taken email is a conflict
	Create(ctx context.Context, user *entities.User) error

	// Update persists changes to an existing user
	Update(ctx context.Context, user *entities.User) error

	GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error)
	GetByEmail(ctx context.Context, email valueobjects.Email) (*entities.User, error)

	// Delete removes the user and the email reservation
	Delete(ctx context.Context, user *entities.User) error
}

// Connection is a live chat socket registered for a user
type Connection struct {
	ID          string
	UserID      string
	ConnectedAt time.Time
	ExpiresAt   time.Time
}

// ConnectionRepository tracks API Gateway WebSocket connections
type ConnectionRepository interface {
	Save(ctx context.Context, conn Connection) error
	GetByID(ctx context.Context, connectionID string) (*Connection, error)
	ListByUser(ctx context.Context, userID string) ([]Connection, error)
	Delete(ctx context.Context, connectionID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// BlobStore keeps uploaded files such as profile photos
type BlobStore interface {
	// Put uploads the object and returns its public URL
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)

	Delete(ctx context.Context, key string) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}

// Clock abstracts time so handlers can be tested at fixed instants
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash
	Compare(hash, password string) error
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}
