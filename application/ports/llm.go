package ports

import (
	"context"
	"errors"
)

// Role identifies the author of a prompt message
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is one turn of a chat prompt
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a provider-neutral text generation call
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// Schema, when set, asks the provider for JSON matching this JSON Schema.
	Schema     map[string]interface{}
	SchemaName string
}

// ErrModelUnavailable is returned when the provider is disabled or its circuit is open
var ErrModelUnavailable = errors.New("language model unavailable")

// LanguageModel generates replies for chat and recommendations
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name identifies the provider in logs and metrics
	Name() string
}
