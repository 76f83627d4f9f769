package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/config"
	memstore "github.com/isaac-evs/neurotype-prod-backend/infrastructure/storage/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:         "test",
		AWSRegion:           "us-east-1",
		StorageBackend:      "memory",
		LogLevel:            "error",
		JWTSecret:           "test-secret",
		JWTIssuer:           "neurotype-test",
		AccessTokenTTL:      time.Minute,
		BcryptCost:          4,
		DayBoundaryTZ:       "UTC",
		UserCacheTTLSeconds: 60,
		AuthRateLimitPerMin: 10,
		LLMProvider:         "canned",
	}
}

func TestInitializeContainer_Memory(t *testing.T) {
	// Act
	c, cleanup, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer cleanup()

	// Assert
	assert.NotNil(t, c.Router)
	assert.NotNil(t, c.CommandBus)
	assert.NotNil(t, c.QueryBus)
	assert.IsType(t, &memstore.BlobStore{}, c.BlobStore)
	assert.Equal(t, emotion.Vector{Happy: 1}, c.Classifier.Classify("happy"))
}

func TestInitializeContainer_NoteCreatedIsCounted(t *testing.T) {
	// Arrange
	c, cleanup, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer cleanup()
	ctx := context.Background()

	userID := "0b0c2d4e-5f60-4718-8a9b-0c1d2e3f4a5b"
	require.NoError(t, c.CommandBus.Send(ctx, commands.RegisterUserCommand{
		UserID:   userID,
		Email:    "counted@example.com",
		Password: "long-enough",
	}))

	// Act
	require.NoError(t, c.CommandBus.Send(ctx, commands.CreateNoteCommand{
		NoteID: "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d",
		UserID: userID,
		Text:   "happy happy upset",
	}))

	// Assert
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Metrics.NotesCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Metrics.KeywordHits.WithLabelValues("happy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Metrics.KeywordHits.WithLabelValues("upset")))
}

func TestInitializeContainer_RejectsUnknownProvider(t *testing.T) {
	cfg := memoryConfig()
	cfg.LLMProvider = "oracle"

	_, _, err := InitializeContainer(context.Background(), cfg)

	assert.Error(t, err)
}

func TestProvideClassifier_LoadsLexiconFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	lexicon := "version: \"7\"\nemotions:\n  happy: [sunny]\n  calm: [still]\n  sad: [grey]\n  upset: [mad]\n"
	require.NoError(t, os.WriteFile(path, []byte(lexicon), 0o644))
	cfg := memoryConfig()
	cfg.LexiconFile = path

	// Act
	holder, cleanup, err := ProvideClassifier(cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	// Assert
	assert.Equal(t, emotion.Vector{Happy: 1, Sad: 1}, holder.Classify("sunny grey happy"))
}

func TestProvideClassifier_MissingFile(t *testing.T) {
	cfg := memoryConfig()
	cfg.LexiconFile = filepath.Join(t.TempDir(), "absent.yaml")

	_, _, err := ProvideClassifier(cfg, zap.NewNop())

	assert.Error(t, err)
}

func TestProvideTokenService_DevelopmentSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.JWTSecret = ""

	tokens, err := ProvideTokenService(cfg, zap.NewNop())
	require.NoError(t, err)

	token, err := tokens.Issue("user-1", "a@example.com")
	require.NoError(t, err)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
}

func TestProvideEventPublisher_LocalOnlyWithoutBus(t *testing.T) {
	cfg := memoryConfig()
	metrics := ProvideMetrics()
	publisher := ProvideEventPublisher(cfg, nil, metrics, zap.NewNop())

	err := publisher.Publish(context.Background(), events.NewNoteCreated("n1", "u1", emotion.Vector{Calm: 3}, time.Now()))

	require.NoError(t, err)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.KeywordHits.WithLabelValues("calm")))
}
