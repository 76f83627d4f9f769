package di

import (
	"net/http"

	"github.com/isaac-evs/neurotype-prod-backend/application/commands/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/services"
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/config"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/messaging/local"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/websocket"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/observability"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	NoteRepo   ports.NoteRepository
	UserRepo   ports.UserRepository
	ConnRepo   ports.ConnectionRepository
	Publisher  *local.Publisher
	BlobStore  ports.BlobStore
	Classifier *config.ClassifierHolder
	Aggregator *analytics.Aggregator
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Auth       *services.AuthService
	Chat       *services.ChatService
	Tokens     *auth.TokenService
	Metrics    *observability.Collector
	Tracing    *observability.TracerProvider
	Hub        *websocket.Hub
	Router     http.Handler
}
