// Package cache decorates repositories with read caching.
package cache

import (
	"context"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"go.uber.org/zap"
)

// CachingUserRepository caches users by ID. Every authenticated request
// loads the caller, so this read dominates.
//
// Cached values are copies; callers mutate what they get back.
type CachingUserRepository struct {
	inner  ports.UserRepository
	cache  ports.Cache
	ttl    int
	logger *zap.Logger
}

var _ ports.UserRepository = (*CachingUserRepository)(nil)

func NewCachingUserRepository(inner ports.UserRepository, cache ports.Cache, ttlSeconds int, logger *zap.Logger) *CachingUserRepository {
	return &CachingUserRepository{inner: inner, cache: cache, ttl: ttlSeconds, logger: logger}
}

func userKey(id string) string { return "user:" + id }

func copyUser(u *entities.User) *entities.User {
	return entities.ReconstructUser(u.ID(), u.Email(), u.PasswordHash(), u.Name(), u.Plan(),
		u.ProfilePhotoURL(), u.CreatedAt(), u.UpdatedAt(), u.Version())
}

func (r *CachingUserRepository) Create(ctx context.Context, user *entities.User) error {
	return r.inner.Create(ctx, user)
}

func (r *CachingUserRepository) Update(ctx context.Context, user *entities.User) error {
	key := userKey(user.ID().String())
	if err := r.inner.Update(ctx, user); err != nil {
		// the write may have raced another one; drop what we have
		r.evict(ctx, key)
		return err
	}
	r.store(ctx, key, user)
	return nil
}

func (r *CachingUserRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	key := userKey(id.String())
	if v, ok := r.cache.Get(ctx, key); ok {
		if u, ok := v.(*entities.User); ok {
			return copyUser(u), nil
		}
	}

	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, user)
	return user, nil
}

// GetByEmail is only used at login and is not cached
func (r *CachingUserRepository) GetByEmail(ctx context.Context, email valueobjects.Email) (*entities.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachingUserRepository) Delete(ctx context.Context, user *entities.User) error {
	err := r.inner.Delete(ctx, user)
	r.evict(ctx, userKey(user.ID().String()))
	return err
}

func (r *CachingUserRepository) store(ctx context.Context, key string, user *entities.User) {
	if err := r.cache.Set(ctx, key, copyUser(user), r.ttl); err != nil {
		r.logger.Debug("Failed to cache user", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachingUserRepository) evict(ctx context.Context, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Failed to evict cached user", zap.String("key", key), zap.Error(err))
	}
}
