package llm

import (
	"fmt"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"go.uber.org/zap"
)

// Config selects and authenticates a provider
type Config struct {
	Provider        string
	Model           string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// NewLanguageModel builds the configured provider. Hosted providers are
// wrapped in a circuit breaker; the canned provider is returned as is.
func NewLanguageModel(cfg Config, recorder FailureRecorder, logger *zap.Logger) (ports.LanguageModel, error) {
	var model ports.LanguageModel
	switch cfg.Provider {
	case "openai":
		model = NewOpenAIModel(cfg.OpenAIAPIKey, cfg.Model)
	case "anthropic":
		model = NewAnthropicModel(cfg.AnthropicAPIKey, cfg.Model)
	case "canned", "":
		return CannedModel{}, nil
	default:
		return nil, fmt.Errorf("unknown language model provider %q", cfg.Provider)
	}

	logger.Info("Language model configured", zap.String("provider", model.Name()), zap.String("model", cfg.Model))
	return NewBreakerModel(model, DefaultBreakerConfig(), recorder, logger), nil
}

// SupportsStructuredOutput is false for providers that can only chat
func SupportsStructuredOutput(m ports.LanguageModel) bool {
	_, canned := m.(CannedModel)
	return m != nil && !canned
}
