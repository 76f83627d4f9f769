package services

import (
	"context"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

const loginFailedMessage = "Incorrect email or password"

// Token is the body returned by a successful login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService checks credentials and issues access tokens
type AuthService struct {
	userRepo ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	logger   *zap.Logger
}

func NewAuthService(userRepo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login returns a bearer token when email and password match an account.
// Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (*Token, error) {
	email, err := valueobjects.NewEmail(rawEmail)
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError(loginFailedMessage)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewUnauthorizedError(loginFailedMessage)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash(), password); err != nil {
		s.logger.Info("Login rejected", zap.String("userID", user.ID().String()))
		return nil, pkgerrors.NewUnauthorizedError(loginFailedMessage)
	}

	token, err := s.tokens.Issue(user.ID().String(), user.Email().String())
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue token").WithCause(err)
	}
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}
