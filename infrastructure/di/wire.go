//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideS3Client,
	ProvideCloudWatchClient,
	ProvideClock,
	ProvideTracing,
	ProvideMetrics,
	ProvideCommandRecorder,
	ProvideCache,
	ProvideNoteRepository,
	ProvideUserRepository,
	ProvideConnectionRepository,
	ProvideEventPublisher,
	ProvideBlobStore,
	ProvideClassifier,
	ProvideAggregator,
	ProvideLanguageModel,
	ProvideTokenService,
	ProvidePasswordHasher,
	ProvideAuthRateLimiter,
	ProvideAuthService,
	ProvideChatService,
	ProvideRecommendationService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideHub,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// stops background workers and flushes traces.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
