package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isaac-evs/neurotype-prod-backend/application/commands/bus"
	querybus "github.com/isaac-evs/neurotype-prod-backend/application/queries/bus"
	"github.com/isaac-evs/neurotype-prod-backend/application/services"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/http/rest/handlers"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/http/rest/middleware"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// Metrics is what the router reports to and serves at /metrics
type Metrics interface {
	middleware.HTTPRecorder
	handlers.ChatRecorder
	Handler() http.Handler
}

// Config carries everything the router needs. Metrics, Uploads and
// ChatSocket are optional.
type Config struct {
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	Auth        *services.AuthService
	Chat        *services.ChatService
	Tokens      middleware.TokenValidator
	AuthLimiter auth.RateLimiter
	Location    *time.Location
	CORSOrigins []string
	Debug       bool

	Metrics Metrics
	// Uploads serves locally stored profile photos under /uploads/
	Uploads http.Handler
	// ChatSocket upgrades /api/v1/ws/chat to a WebSocket
	ChatSocket http.Handler

	Logger *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	cfg  Config
	errs *pkgerrors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(cfg Config) *Router {
	return &Router{
		cfg:  cfg,
		errs: pkgerrors.NewErrorHandler(cfg.Logger, cfg.Debug),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	logger := rt.cfg.Logger

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(logger))
	router.Use(rt.errs.Middleware)
	if rt.cfg.Metrics != nil {
		router.Use(middleware.Metrics(rt.cfg.Metrics))
	}

	origins := rt.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.healthCheck)
	if rt.cfg.Metrics != nil {
		router.Handle("/metrics", rt.cfg.Metrics.Handler())
	}
	if rt.cfg.Uploads != nil {
		router.Handle("/uploads/*", rt.cfg.Uploads)
	}

	userHandler := handlers.NewUserHandler(rt.cfg.CommandBus, rt.cfg.QueryBus, rt.cfg.Auth, rt.errs, logger)
	noteHandler := handlers.NewNoteHandler(rt.cfg.CommandBus, rt.cfg.QueryBus, rt.cfg.Location, rt.errs, logger)
	dashboardHandler := handlers.NewDashboardHandler(rt.cfg.QueryBus, rt.errs, logger)
	exportHandler := handlers.NewExportHandler(rt.cfg.QueryBus, rt.errs, logger)
	chatHandler := handlers.NewChatHandler(rt.cfg.Chat, rt.chatRecorder(), rt.errs, logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			if rt.cfg.AuthLimiter != nil {
				r.Use(middleware.RateLimit(rt.cfg.AuthLimiter, rt.errs, logger))
			}
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
		})

		// the socket authenticates with ?token= because browsers cannot set headers on upgrade
		if rt.cfg.ChatSocket != nil {
			r.Handle("/ws/chat", rt.cfg.ChatSocket)
		}

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.cfg.Tokens, rt.errs))

			r.Put("/select-plan", userHandler.SelectPlan)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Get("/users/me", userHandler.Me)
			r.Delete("/users/me", userHandler.DeleteAccount)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", noteHandler.ListNotes)
				r.Post("/", noteHandler.CreateNote)
				r.Get("/daily-analysis", noteHandler.DailyAnalysis)
				r.Get("/emotions-summary", noteHandler.EmotionsSummary)
				r.Get("/{noteID}", noteHandler.GetNote)
				r.Put("/{noteID}", noteHandler.UpdateNote)
				r.Delete("/{noteID}", noteHandler.DeleteNote)
			})

			r.Get("/dashboard", dashboardHandler.GetDashboard)
			r.Get("/recommendations", dashboardHandler.GetRecommendations)
			r.Get("/data/export", exportHandler.Export)
			r.Post("/chat", chatHandler.Chat)
		})
	})

	return router
}

func (rt *Router) chatRecorder() handlers.ChatRecorder {
	if rt.cfg.Metrics == nil {
		return nil
	}
	return rt.cfg.Metrics
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
