package llm

import (
	"context"
	"strings"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
)

// CannedModel answers without any network call, for local development.
// It cannot produce structured output.
type CannedModel struct{}

var _ ports.LanguageModel = CannedModel{}

func (CannedModel) Name() string { return "canned" }

func (CannedModel) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	if req.Schema != nil {
		return "", ports.ErrModelUnavailable
	}

	var mood string
	for _, msg := range req.Messages {
		if msg.Role == ports.RoleAssistant {
			mood = msg.Content
		}
	}

	reply := "Thank you for sharing that with me. Would you like to tell me more about how your day went?"
	if mood != "" {
		reply = strings.TrimSpace(mood) + " " + reply
	}
	return reply, nil
}
