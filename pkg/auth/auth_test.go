package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	// Arrange
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	svc, err := NewTokenService("s3cret", "neurotype", 30*time.Minute, WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	// Act
	token, err := svc.Issue("user-1", "a@example.com")
	require.NoError(t, err)
	claims, err := svc.Validate("Bearer " + token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "neurotype", claims.Issuer)
}

func TestTokenService_Validate_Failures(t *testing.T) {
	issuedAt := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	clock := issuedAt
	svc, err := NewTokenService("s3cret", "neurotype", 30*time.Minute, WithTimeFunc(func() time.Time { return clock }))
	require.NoError(t, err)
	token, err := svc.Issue("user-1", "")
	require.NoError(t, err)

	other, err := NewTokenService("different", "neurotype", 30*time.Minute, WithTimeFunc(func() time.Time { return clock }))
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Validate("Bearer ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		clock = issuedAt.Add(31 * time.Minute)
		defer func() { clock = issuedAt }()
		_, err := svc.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", "neurotype", time.Minute)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "battery staple"), ErrPasswordMismatch)
}

func TestUserContext(t *testing.T) {
	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1"})

	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}

func TestTokenBucketLimiter(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	l := newTokenBucketLimiter(2, time.Minute, func() time.Time { return now })

	// Act + Assert
	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "ip:1.2.3.4")
	assert.False(t, ok, "bucket should be empty")

	ok, _ = l.Allow(ctx, "ip:5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(90 * time.Second)
	ok, _ = l.Allow(ctx, "ip:1.2.3.4")
	assert.True(t, ok, "one token refilled")
	ok, _ = l.Allow(ctx, "ip:1.2.3.4")
	assert.False(t, ok)

	// the remaining 30s carry over to the next refill
	now = now.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, "ip:1.2.3.4")
	assert.True(t, ok)

	require.NoError(t, l.Reset(ctx, "ip:1.2.3.4"))
	ok, _ = l.Allow(ctx, "ip:1.2.3.4")
	assert.True(t, ok)
}

func TestTokenBucketLimiter_EvictIdle(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	l := newTokenBucketLimiter(1, time.Minute, func() time.Time { return now })
	_, _ = l.Allow(context.Background(), "a")

	now = now.Add(2 * time.Hour)
	l.evictIdle()

	assert.Empty(t, l.buckets)
}
