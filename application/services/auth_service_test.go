package services

import (
	"context"
	"errors"
	"testing"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports/mocks"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/fixtures"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubIssuer struct{}

func (stubIssuer) Issue(userID, email string) (string, error) { return "token-for-" + userID, nil }

func TestAuthService_Login(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mocks.MockUserRepository)
	user := fixtures.NewUserBuilder().WithEmail("me@example.com").WithPasswordHash("hashed:pa55word").MustBuild()
	email, _ := valueobjects.NewEmail("me@example.com")
	repo.On("GetByEmail", mock.Anything, email).Return(user, nil)

	svc := NewAuthService(repo, mocks.PlainHasher{}, stubIssuer{}, zap.NewNop())

	// Act
	token, err := svc.Login(ctx, "me@example.com", "pa55word")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "token-for-"+user.ID().String(), token.AccessToken)
}

func TestAuthService_Login_Rejections(t *testing.T) {
	user := fixtures.NewUserBuilder().WithEmail("me@example.com").WithPasswordHash("hashed:pa55word").MustBuild()
	known, _ := valueobjects.NewEmail("me@example.com")
	unknown, _ := valueobjects.NewEmail("nobody@example.com")

	repo := new(mocks.MockUserRepository)
	repo.On("GetByEmail", mock.Anything, known).Return(user, nil)
	repo.On("GetByEmail", mock.Anything, unknown).Return(nil, pkgerrors.NewNotFoundError("user"))
	svc := NewAuthService(repo, mocks.PlainHasher{}, stubIssuer{}, zap.NewNop())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "me@example.com", "guess"},
		{"unknown email", "nobody@example.com", "pa55word"},
		{"malformed email", "not-an-email", "pa55word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsUnauthorized(err))
		})
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	dbErr := errors.New("throttled")
	email, _ := valueobjects.NewEmail("me@example.com")
	repo := new(mocks.MockUserRepository)
	repo.On("GetByEmail", mock.Anything, email).Return(nil, dbErr)

	_, err := NewAuthService(repo, mocks.PlainHasher{}, stubIssuer{}, zap.NewNop()).Login(context.Background(), "me@example.com", "x")

	assert.ErrorIs(t, err, dbErr)
}
