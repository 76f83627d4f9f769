// Package llm adapts hosted language models to ports.LanguageModel.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIModel calls the Responses API
type OpenAIModel struct {
	client *openai.Client
	model  string
}

var _ ports.LanguageModel = (*OpenAIModel)(nil)

func NewOpenAIModel(apiKey, model string, opts ...option.RequestOption) *OpenAIModel {
	if model == "" {
		model = defaultOpenAIModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIModel{client: &client, model: model}
}

func (m *OpenAIModel) Name() string { return "openai" }

func (m *OpenAIModel) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	var instructions []string
	items := make([]responses.ResponseInputItemUnionParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case ports.RoleSystem:
			instructions = append(instructions, msg.Content)
		case ports.RoleAssistant:
			items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
		default:
			items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
		}
	}

	params := responses.ResponseNewParams{
		Model: m.model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
	}
	if len(instructions) > 0 {
		params.Instructions = openai.String(strings.Join(instructions, "\n\n"))
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		}
	}

	resp, err := m.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses call failed: %w", err)
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", fmt.Errorf("openai returned no text output")
	}
	return text, nil
}
