package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	"go.uber.org/zap"
)

// TokenValidator checks access tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
	MaxConnsPerUser int
	// OnReply observes every chat answer, e.g. for metrics
	OnReply func(err error)
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		AllowedOrigins:  []string{"*"},
		MaxConnsPerUser: 10,
	}
}

// Server upgrades chat requests and hands each connection to the hub
type Server struct {
	hub      *Hub
	tokens   TokenValidator
	replier  Replier
	upgrader websocket.Upgrader
	cfg      ServerConfig
	logger   *zap.Logger
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, tokens TokenValidator, replier Replier, cfg ServerConfig, logger *zap.Logger) *Server {
	if cfg.MaxConnsPerUser <= 0 {
		cfg.MaxConnsPerUser = 10
	}
	return &Server{
		hub:     hub,
		tokens:  tokens,
		replier: replier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		cfg:    cfg,
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP authenticates and upgrades a chat request
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticateRequest(r)
	if err != nil {
		s.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.hub.GetConnectionCount(userID) >= s.cfg.MaxConnsPerUser {
		s.logger.Warn("Connection limit exceeded for user", zap.String("userID", userID))
		http.Error(w, "Connection limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(userID, s.hub, conn, s.replier, s.logger)
	client.onReply = s.cfg.OnReply
	client.Start()

	s.logger.Info("New WebSocket connection established",
		zap.String("userID", userID),
		zap.String("connectionID", client.GetID()),
	)
}

// authenticateRequest reads the token from ?token=, then the Authorization header
func (s *Server) authenticateRequest(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return "", errors.New("no authentication token provided")
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.UserID() == "" {
		return "", errors.New("token has no subject")
	}
	return claims.UserID(), nil
}

// GetHub returns the WebSocket hub
func (s *Server) GetHub() *Hub {
	return s.hub
}
