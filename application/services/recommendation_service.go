package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"go.uber.org/zap"
)

const (
	SourceModel  = "model"
	SourceStatic = "static"

	maxRecommendations        = 5
	recommendationMaxTokens   = 600
	recommendationTemperature = 0.4
)

var staticRecommendations = map[emotion.Category][]queries.Recommendation{
	emotion.Happy: {
		{Title: "Write down what went well", Description: "List three things that made today good so you can revisit them on harder days."},
		{Title: "Share the moment", Description: "Reach out to someone you care about and tell them about something that made you smile."},
		{Title: "Plan something to look forward to", Description: "Put a small enjoyable activity in your calendar for later this week."},
	},
	emotion.Calm: {
		{Title: "Keep your routine", Description: "Notice which habits helped you feel settled and protect time for them."},
		{Title: "Take a mindful walk", Description: "Spend ten minutes walking without your phone and pay attention to your surroundings."},
		{Title: "Try a short breathing exercise", Description: "Breathe in for four counts, hold for four and breathe out for six, five times."},
	},
	emotion.Sad: {
		{Title: "Reach out to someone", Description: "Send a message to a friend or family member, even if it is just to say hello."},
		{Title: "Get some daylight", Description: "Step outside for a few minutes; light and movement can lift your mood."},
		{Title: "Be gentle with yourself", Description: "Pick one small, achievable task for today and let the rest wait."},
		{Title: "Talk to a professional", Description: "If sadness persists for weeks, consider speaking with a counselor or therapist."},
	},
	emotion.Upset: {
		{Title: "Pause before reacting", Description: "Take a few slow breaths or step away for a moment before responding to what upset you."},
		{Title: "Move your body", Description: "A brisk walk or a short workout can help release built-up tension."},
		{Title: "Name the feeling", Description: "Write down what triggered the feeling and what you need right now."},
	},
}

// recommendationPayload is the JSON object the model is asked to produce
type recommendationPayload struct {
	Recommendations []queries.Recommendation `json:"recommendations" jsonschema:"required,description=Between one and five personalised suggestions"`
}

// RecommendationService suggests activities for the week's prevalent
// emotion. Plus users get model-generated suggestions when a model is
// configured; everyone else, and any failed generation, falls back to the
// static list.
type RecommendationService struct {
	aggregator *analytics.Aggregator
	model      ports.LanguageModel
	clock      ports.Clock
	logger     *zap.Logger
	schema     map[string]interface{}
}

func NewRecommendationService(
	aggregator *analytics.Aggregator,
	model ports.LanguageModel,
	clock ports.Clock,
	logger *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		aggregator: aggregator,
		model:      model,
		clock:      clock,
		logger:     logger,
		schema:     GenerateSchema[recommendationPayload](),
	}
}

// Recommend returns suggestions for user
func (s *RecommendationService) Recommend(ctx context.Context, user *entities.User) (*queries.RecommendationsView, error) {
	chatCtx, err := s.aggregator.ChatContext(ctx, user.ID().String(), s.clock.Now())
	if err != nil {
		return nil, err
	}
	prevalent := chatCtx.PrevalentEmotion

	if user.Plan() == valueobjects.PlanPlus && s.model != nil && chatCtx.HasData {
		recs, err := s.generate(ctx, chatCtx)
		if err == nil {
			return &queries.RecommendationsView{
				PrevalentEmotion: prevalent.String(),
				Source:           SourceModel,
				Recommendations:  recs,
			}, nil
		}
		s.logger.Warn("Falling back to static recommendations",
			zap.String("userID", user.ID().String()),
			zap.Error(err))
	}

	return &queries.RecommendationsView{
		PrevalentEmotion: prevalent.String(),
		Source:           SourceStatic,
		Recommendations:  StaticRecommendations(prevalent),
	}, nil
}

func (s *RecommendationService) generate(ctx context.Context, chatCtx *analytics.ChatContext) ([]queries.Recommendation, error) {
	counts := chatCtx.Totals
	prompt := fmt.Sprintf(
		"This week the user's journal shows these emotion keyword counts: happy %d, calm %d, sad %d, upset %d. "+
			"The prevalent emotion is %s. Suggest up to %d short, practical self-care activities suited to this week.",
		counts.Happy, counts.Calm, counts.Sad, counts.Upset, chatCtx.PrevalentEmotion, maxRecommendations)

	raw, err := s.model.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: chatSystemPrompt + " Reply only with JSON."},
			{Role: ports.RoleUser, Content: prompt},
		},
		MaxTokens:   recommendationMaxTokens,
		Temperature: recommendationTemperature,
		Schema:      s.schema,
		SchemaName:  "recommendations",
	})
	if err != nil {
		return nil, err
	}

	var payload recommendationPayload
	if err := decodeModelJSON(raw, &payload); err != nil {
		return nil, err
	}

	recs := make([]queries.Recommendation, 0, len(payload.Recommendations))
	for _, r := range payload.Recommendations {
		r.Title = strings.TrimSpace(r.Title)
		r.Description = strings.TrimSpace(r.Description)
		if r.Title == "" {
			continue
		}
		recs = append(recs, r)
		if len(recs) == maxRecommendations {
			break
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("model returned no recommendations")
	}
	return recs, nil
}

// StaticRecommendations returns a copy of the built-in suggestions for c
func StaticRecommendations(c emotion.Category) []queries.Recommendation {
	recs := staticRecommendations[c]
	out := make([]queries.Recommendation, len(recs))
	copy(out, recs)
	return out
}

// decodeModelJSON tolerates replies wrapped in a markdown code fence
func decodeModelJSON(raw string, v interface{}) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// GenerateSchema reflects T into a strict JSON Schema object suitable for
// structured model output.
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	strictObjects(m)
	return m
}

// strictObjects marks every object closed and all of its properties required
func strictObjects(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]interface{}); ok && len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			schema["required"] = required
		}
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				strictObjects(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		strictObjects(items)
	}
}
