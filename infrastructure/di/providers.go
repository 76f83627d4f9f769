package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands/handlers"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/application/queries"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	queryhandlers "github.com/isaac-evs/neurotype-prod-backend/application/queries/handlers"
	"github.com/isaac-evs/neurotype-prod-backend/application/services"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/cache"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/config"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/llm"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/messaging/eventbridge"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/messaging/local"
	persistcache "github.com/isaac-evs/neurotype-prod-backend/infrastructure/persistence/cache"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/persistence/dynamodb"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/persistence/memory"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/persistence/tracing"
	memstore "github.com/isaac-evs/neurotype-prod-backend/infrastructure/storage/memory"
	s3store "github.com/isaac-evs/neurotype-prod-backend/infrastructure/storage/s3"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/http/rest"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/websocket"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/observability"
	"go.uber.org/zap"
)

const (
	serviceName      = "neurotype-backend"
	metricsNamespace = "neurotype"
	devJWTSecret     = "development-secret-change-in-production"
	uploadsPrefix    = "/uploads"

	slowQueryThreshold = 500 * time.Millisecond
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Environment, cfg.LogLevel)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

func ProvideClock() ports.Clock {
	return ports.SystemClock{}
}

// ProvideTracing exports spans over OTLP when enabled and is a no-op otherwise
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp := observability.NoopTracing()
	if cfg.EnableTracing {
		var err error
		tp, err = observability.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTelEndpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		logger.Info("Tracing enabled", zap.String("endpoint", cfg.OTelEndpoint))
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideCommandRecorder reports command outcomes to Prometheus, and to
// CloudWatch on Lambda where nothing scrapes /metrics
func ProvideCommandRecorder(cfg *config.Config, metrics *observability.Collector, cw *awscloudwatch.Client, logger *zap.Logger) bus.Recorder {
	if cfg.IsLambda() {
		return observability.Recorders{metrics, observability.NewCloudWatchRecorder(metricsNamespace, cw, logger)}
	}
	return metrics
}

// ProvideCache creates the in-process cache used for user lookups
func ProvideCache(metrics *observability.Collector) (*cache.RistrettoCache, func(), error) {
	c, err := cache.NewRistrettoCache(cache.DefaultConfig(), cache.WithMetrics(metrics))
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

func tableConfig(cfg *config.Config) dynamodb.TableConfig {
	return dynamodb.TableConfig{
		TableName:     cfg.TableName,
		GSI1IndexName: cfg.GSI1IndexName,
	}
}

// ProvideNoteRepository creates the note store, traced
func ProvideNoteRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	tp *observability.TracerProvider,
	logger *zap.Logger,
) ports.NoteRepository {
	var repo ports.NoteRepository
	if cfg.StorageBackend == "memory" {
		repo = memory.NewNoteRepository()
	} else {
		repo = dynamodb.NewNoteRepository(client, tableConfig(cfg), logger)
	}
	return tracing.TraceNoteRepository(repo, tp.Tracer())
}

// ProvideUserRepository creates the user store behind a read-through cache
func ProvideUserRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	c *cache.RistrettoCache,
	logger *zap.Logger,
) ports.UserRepository {
	var repo ports.UserRepository
	if cfg.StorageBackend == "memory" {
		repo = memory.NewUserRepository()
	} else {
		repo = dynamodb.NewUserRepository(client, tableConfig(cfg), logger)
	}
	if cfg.UserCacheTTLSeconds <= 0 {
		return repo
	}
	return persistcache.NewCachingUserRepository(repo, c, cfg.UserCacheTTLSeconds, logger)
}

// ProvideConnectionRepository stores API Gateway WebSocket connections
func ProvideConnectionRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	clock ports.Clock,
	logger *zap.Logger,
) ports.ConnectionRepository {
	if cfg.StorageBackend == "memory" {
		return memory.NewConnectionRepository(clock)
	}
	return dynamodb.NewConnectionRepository(client, tableConfig(cfg), clock, logger)
}

// ProvideEventPublisher delivers events in process and forwards them to
// EventBridge when a bus is configured
func ProvideEventPublisher(
	cfg *config.Config,
	client *awseventbridge.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) *local.Publisher {
	publisher := local.NewPublisher(logger)
	publisher.Subscribe("note.created", func(_ context.Context, event events.DomainEvent) {
		if created, ok := event.(events.NoteCreated); ok {
			metrics.RecordNoteCreated(created.Emotions.Map())
		}
	})

	if cfg.EventBusName != "" {
		publisher.Forward(eventbridge.NewPublisher(client, cfg.EventBusName, logger))
	}
	return publisher
}

// ProvideBlobStore stores profile photos in S3, or in memory when no bucket
// is configured
func ProvideBlobStore(cfg *config.Config, client *awss3.Client, logger *zap.Logger) ports.BlobStore {
	if cfg.PhotoBucket == "" {
		logger.Warn("PHOTO_BUCKET not set, keeping profile photos in memory")
		return memstore.NewBlobStore(uploadsPrefix)
	}
	return s3store.NewBlobStore(client, cfg.PhotoBucket, cfg.AWSRegion, logger)
}

// ProvideClassifier starts from the built-in lexicon. A lexicon file, when
// configured, replaces it and is watched for changes in development.
func ProvideClassifier(cfg *config.Config, logger *zap.Logger) (*config.ClassifierHolder, func(), error) {
	holder := config.NewClassifierHolder(emotion.DefaultLexicon())
	if cfg.LexiconFile == "" {
		return holder, func() {}, nil
	}

	watcher, err := config.NewLexiconWatcher(cfg.LexiconFile, holder, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Lexicon loaded", zap.String("path", cfg.LexiconFile), zap.String("version", watcher.Version()))
	if cfg.IsDevelopment() {
		watcher.Start()
	}
	return holder, watcher.Stop, nil
}

func ProvideAggregator(cfg *config.Config, notes ports.NoteRepository) *analytics.Aggregator {
	return analytics.NewAggregator(notes, analytics.WithLocation(cfg.Location()))
}

// ProvideLanguageModel creates the chat model, wrapped in a circuit breaker
func ProvideLanguageModel(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (ports.LanguageModel, error) {
	return llm.NewLanguageModel(llm.Config{
		Provider:        cfg.LLMProvider,
		Model:           cfg.LLMModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	}, metrics, logger)
}

// ProvideTokenService issues and validates access tokens
func ProvideTokenService(cfg *config.Config, logger *zap.Logger) (*auth.TokenService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return auth.NewTokenService(secret, cfg.JWTIssuer, cfg.AccessTokenTTL)
}

func ProvidePasswordHasher(cfg *config.Config) ports.PasswordHasher {
	return auth.NewBcryptHasher(cfg.BcryptCost)
}

// ProvideAuthRateLimiter throttles login and registration per client IP
func ProvideAuthRateLimiter(cfg *config.Config) (*auth.TokenBucketLimiter, func()) {
	perMinute := cfg.AuthRateLimitPerMin
	if perMinute <= 0 {
		perMinute = 10
	}
	limiter := auth.NewTokenBucketLimiter(perMinute, time.Minute/time.Duration(perMinute))
	return limiter, limiter.Stop
}

func ProvideAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens *auth.TokenService, logger *zap.Logger) *services.AuthService {
	return services.NewAuthService(users, hasher, tokens, logger)
}

func ProvideChatService(aggregator *analytics.Aggregator, model ports.LanguageModel, clock ports.Clock, logger *zap.Logger) *services.ChatService {
	return services.NewChatService(aggregator, model, clock, logger)
}

// ProvideRecommendationService only hands the model over when it can
// produce structured output
func ProvideRecommendationService(aggregator *analytics.Aggregator, model ports.LanguageModel, clock ports.Clock, logger *zap.Logger) *services.RecommendationService {
	if !llm.SupportsStructuredOutput(model) {
		model = nil
	}
	return services.NewRecommendationService(aggregator, model, clock, logger)
}

// ProvideCommandBus creates and configures the command bus
func ProvideCommandBus(
	cfg *config.Config,
	notes ports.NoteRepository,
	users ports.UserRepository,
	classifier *config.ClassifierHolder,
	publisher *local.Publisher,
	blobs ports.BlobStore,
	hasher ports.PasswordHasher,
	clock ports.Clock,
	recorder bus.Recorder,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(recorder),
	)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateNoteCommand{}, bus.Typed(handlers.NewCreateNoteHandler(notes, classifier, publisher, clock, logger).Handle)},
		{commands.UpdateNoteCommand{}, bus.Typed(handlers.NewUpdateNoteHandler(notes, classifier, publisher, clock, cfg.ReclassifyOnEdit, logger).Handle)},
		{commands.DeleteNoteCommand{}, bus.Typed(handlers.NewDeleteNoteHandler(notes, publisher, clock, logger).Handle)},
		{commands.RegisterUserCommand{}, bus.Typed(handlers.NewRegisterUserHandler(users, hasher, publisher, clock, logger).Handle)},
		{commands.SelectPlanCommand{}, bus.Typed(handlers.NewSelectPlanHandler(users, publisher, clock, logger).Handle)},
		{commands.UpdateProfileCommand{}, bus.Typed(handlers.NewUpdateProfileHandler(users, blobs, clock, logger).Handle)},
		{commands.DeleteUserCommand{}, bus.Typed(handlers.NewDeleteUserHandler(users, notes, publisher, clock, logger).Handle)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, fmt.Errorf("failed to register command handler: %w", err)
		}
	}

	return commandBus, nil
}

// ProvideQueryBus creates and configures the query bus
func ProvideQueryBus(
	notes ports.NoteRepository,
	users ports.UserRepository,
	aggregator *analytics.Aggregator,
	recommendations *services.RecommendationService,
	clock ports.Clock,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.SlowQueryMiddleware(logger, slowQueryThreshold))

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.ListNotesQuery{}, querybus.Typed(queryhandlers.NewListNotesHandler(notes, logger).Handle)},
		{queries.GetNoteQuery{}, querybus.Typed(queryhandlers.NewGetNoteHandler(notes).Handle)},
		{queries.GetDailyAnalysisQuery{}, querybus.Typed(queryhandlers.NewDailyAnalysisHandler(aggregator).Handle)},
		{queries.GetEmotionsSummaryQuery{}, querybus.Typed(queryhandlers.NewEmotionsSummaryHandler(aggregator).Handle)},
		{queries.ExportNotesQuery{}, querybus.Typed(queryhandlers.NewExportNotesHandler(notes, logger).Handle)},
		{queries.GetCurrentUserQuery{}, querybus.Typed(queryhandlers.NewGetCurrentUserHandler(users).Handle)},
		{queries.GetDashboardQuery{}, querybus.Typed(queryhandlers.NewDashboardHandler(users, notes, aggregator, clock).Handle)},
		{queries.GetRecommendationsQuery{}, querybus.Typed(queryhandlers.NewRecommendationsHandler(users, recommendations).Handle)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, fmt.Errorf("failed to register query handler: %w", err)
		}
	}

	return queryBus, nil
}

// ProvideHub runs the WebSocket hub and feeds it note events
func ProvideHub(publisher *local.Publisher, logger *zap.Logger) (*websocket.Hub, func()) {
	hub := websocket.NewHub(logger)
	go hub.Run()
	publisher.Subscribe("*", hub.NoteEventHandler())
	return hub, hub.Stop
}

// ProvideRouter assembles the HTTP API
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	authService *services.AuthService,
	chat *services.ChatService,
	tokens *auth.TokenService,
	limiter *auth.TokenBucketLimiter,
	metrics *observability.Collector,
	blobs ports.BlobStore,
	hub *websocket.Hub,
	logger *zap.Logger,
) http.Handler {
	routerCfg := rest.Config{
		CommandBus:  commandBus,
		QueryBus:    queryBus,
		Auth:        authService,
		Chat:        chat,
		Tokens:      tokens,
		AuthLimiter: limiter,
		Location:    cfg.Location(),
		CORSOrigins: cfg.CORSOrigins,
		Debug:       cfg.IsDevelopment(),
		Logger:      logger,
	}

	wsCfg := websocket.DefaultServerConfig()
	wsCfg.AllowedOrigins = cfg.CORSOrigins
	if cfg.EnableMetrics {
		routerCfg.Metrics = metrics
		wsCfg.OnReply = metrics.RecordChat
	}
	routerCfg.ChatSocket = websocket.NewServer(hub, tokens, chat, wsCfg, logger)

	if uploads, ok := blobs.(http.Handler); ok {
		routerCfg.Uploads = uploads
	}

	return rest.NewRouter(routerCfg).Setup()
}
