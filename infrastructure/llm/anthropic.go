package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicModel calls the Messages API
type AnthropicModel struct {
	client *anthropic.Client
	model  string
}

var _ ports.LanguageModel = (*AnthropicModel)(nil)

func NewAnthropicModel(apiKey, model string, opts ...option.RequestOption) *AnthropicModel {
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicModel{client: &client, model: model}
}

func (m *AnthropicModel) Name() string { return "anthropic" }

// Complete sends system turns as the system prompt. The conversation must
// open with a user turn, so assistant turns before the first user turn are
// folded into the system prompt too.
func (m *AnthropicModel) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	var system []string
	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		switch {
		case msg.Role == ports.RoleSystem:
			system = append(system, msg.Content)
		case msg.Role == ports.RoleAssistant && len(messages) == 0:
			system = append(system, msg.Content)
		case msg.Role == ports.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return "", fmt.Errorf("failed to encode schema: %w", err)
		}
		system = append(system, "Respond with a single JSON document and nothing else. It must match this JSON Schema:\n"+string(schema))
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages call failed: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("anthropic returned no text output")
	}
	return text, nil
}
