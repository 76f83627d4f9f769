package memory

import (
	"context"
	"sync"

	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// UserRepository keeps accounts in a map with a unique email index
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entities.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*entities.User),
		byEmail: make(map[string]string),
	}
}

func cloneUser(u *entities.User) *entities.User {
	return entities.ReconstructUser(u.ID(), u.Email(), u.PasswordHash(), u.Name(), u.Plan(),
		u.ProfilePhotoURL(), u.CreatedAt(), u.UpdatedAt(), u.Version())
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email().String()]; taken {
		return pkgerrors.NewConflictError("Email already registered")
	}
	if _, exists := r.byID[user.ID().String()]; exists {
		return pkgerrors.NewConflictError("user already exists")
	}
	r.byID[user.ID().String()] = cloneUser(user)
	r.byEmail[user.Email().String()] = user.ID().String()
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID().String()]; !exists {
		return pkgerrors.NewNotFoundError("user")
	}
	r.byID[user.ID().String()] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return cloneUser(user), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email valueobjects.Email) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) Delete(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID().String()]
	if !ok {
		return pkgerrors.NewNotFoundError("user")
	}
	delete(r.byEmail, stored.Email().String())
	delete(r.byID, user.ID().String())
	return nil
}
