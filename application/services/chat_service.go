package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

const (
	chatSystemPrompt   = "You are a mental health assistant."
	chatNoEntriesNote  = "The user has not written any journal entries this week."
	chatMaxTokens      = 150
	chatTemperature    = 0.7
	MaxChatMessageSize = 2000
)

// ChatService answers chat messages with the week's prevalent emotion as
// context for the language model.
type ChatService struct {
	aggregator *analytics.Aggregator
	model      ports.LanguageModel
	clock      ports.Clock
	logger     *zap.Logger
}

func NewChatService(
	aggregator *analytics.Aggregator,
	model ports.LanguageModel,
	clock ports.Clock,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		aggregator: aggregator,
		model:      model,
		clock:      clock,
		logger:     logger,
	}
}

// BuildPrompt returns the system instruction, the weekly emotion context and
// the user's message, in that order.
func (s *ChatService) BuildPrompt(ctx context.Context, userID, message string) ([]ports.Message, error) {
	chatCtx, err := s.aggregator.ChatContext(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	weekly := chatNoEntriesNote
	if chatCtx.HasData {
		weekly = fmt.Sprintf("The user's prevalent emotion this week has been %s.", chatCtx.PrevalentEmotion)
	}

	return []ports.Message{
		{Role: ports.RoleSystem, Content: chatSystemPrompt},
		{Role: ports.RoleAssistant, Content: weekly},
		{Role: ports.RoleUser, Content: message},
	}, nil
}

// Reply generates the assistant's answer to message
func (s *ChatService) Reply(ctx context.Context, userID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", pkgerrors.NewValidationError("message cannot be empty")
	}
	if utf8.RuneCountInString(message) > MaxChatMessageSize {
		return "", pkgerrors.NewValidationError("message is too long")
	}

	prompt, err := s.BuildPrompt(ctx, userID, message)
	if err != nil {
		return "", err
	}

	reply, err := s.model.Complete(ctx, ports.CompletionRequest{
		Messages:    prompt,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		s.logger.Warn("Chat completion failed",
			zap.String("provider", s.model.Name()),
			zap.String("userID", userID),
			zap.Error(err))
		if errors.Is(err, ports.ErrModelUnavailable) {
			return "", pkgerrors.NewUnavailableError("chat assistant").WithCause(err)
		}
		return "", pkgerrors.NewExternalError("chat assistant", err)
	}
	return strings.TrimSpace(reply), nil
}
