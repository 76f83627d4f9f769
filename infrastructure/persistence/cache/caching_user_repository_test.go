package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports/mocks"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/fixtures"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapCache is a ports.Cache without expiry
type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newMapCache() *mapCache { return &mapCache{items: map[string]interface{}{}} }

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func TestCachingUserRepository_GetByID_ReadsThrough(t *testing.T) {
	// Arrange
	ctx := context.Background()
	inner := new(mocks.MockUserRepository)
	user := fixtures.NewUserBuilder().MustBuild()
	inner.On("GetByID", ctx, user.ID()).Return(user, nil).Once()
	repo := NewCachingUserRepository(inner, newMapCache(), 60, zap.NewNop())

	// Act
	first, err1 := repo.GetByID(ctx, user.ID())
	second, err2 := repo.GetByID(ctx, user.ID())

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, user.ID(), second.ID())
	assert.NotSame(t, first, second)
	inner.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCachingUserRepository_CallerMutationDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	inner := new(mocks.MockUserRepository)
	user := fixtures.NewUserBuilder().MustBuild()
	inner.On("GetByID", ctx, user.ID()).Return(user, nil).Once()
	repo := NewCachingUserRepository(inner, newMapCache(), 60, zap.NewNop())

	got, err := repo.GetByID(ctx, user.ID())
	require.NoError(t, err)
	got.SelectPlan(valueobjects.PlanPlus, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC))

	again, err := repo.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PlanLite, again.Plan())
}

func TestCachingUserRepository_UpdateRefreshesEntry(t *testing.T) {
	ctx := context.Background()
	inner := new(mocks.MockUserRepository)
	user := fixtures.NewUserBuilder().MustBuild()
	inner.On("Update", ctx, mock.Anything).Return(nil)
	repo := NewCachingUserRepository(inner, newMapCache(), 60, zap.NewNop())

	user.SelectPlan(valueobjects.PlanPlus, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PlanPlus, got.Plan())
	inner.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCachingUserRepository_FailedUpdateEvicts(t *testing.T) {
	ctx := context.Background()
	inner := new(mocks.MockUserRepository)
	user := fixtures.NewUserBuilder().MustBuild()
	cache := newMapCache()
	require.NoError(t, cache.Set(ctx, userKey(user.ID().String()), user, 60))
	inner.On("Update", ctx, user).Return(errors.New("conflict"))

	err := NewCachingUserRepository(inner, cache, 60, zap.NewNop()).Update(ctx, user)

	assert.Error(t, err)
	_, ok := cache.Get(ctx, userKey(user.ID().String()))
	assert.False(t, ok)
}

func TestCachingUserRepository_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	inner := new(mocks.MockUserRepository)
	user := fixtures.NewUserBuilder().MustBuild()
	cache := newMapCache()
	require.NoError(t, cache.Set(ctx, userKey(user.ID().String()), user, 60))
	inner.On("Delete", ctx, user).Return(nil)

	require.NoError(t, NewCachingUserRepository(inner, cache, 60, zap.NewNop()).Delete(ctx, user))

	_, ok := cache.Get(ctx, userKey(user.ID().String()))
	assert.False(t, ok)
}
