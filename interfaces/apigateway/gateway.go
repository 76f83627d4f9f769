// Package apigateway serves the chat socket when it is terminated by API
// Gateway instead of by this process. Each frame arrives as a Lambda
// invocation and replies go back through the management API.
package apigateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/websocket"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	"go.uber.org/zap"
)

// API Gateway closes connections after two hours
const connectionTTL = 2 * time.Hour

const replyTimeout = 25 * time.Second

// Poster delivers a payload to one API Gateway connection
type Poster interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Gateway handles $connect, $disconnect and message routes, and fans note
// events out to open connections
type Gateway struct {
	conns   ports.ConnectionRepository
	tokens  TokenValidator
	replier websocket.Replier
	poster  Poster
	clock   ports.Clock
	onReply func(err error)
	logger  *zap.Logger
}

// NewGateway creates a gateway. onReply may be nil.
func NewGateway(
	conns ports.ConnectionRepository,
	tokens TokenValidator,
	replier websocket.Replier,
	poster Poster,
	clock ports.Clock,
	onReply func(err error),
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		conns:   conns,
		tokens:  tokens,
		replier: replier,
		poster:  poster,
		clock:   clock,
		onReply: onReply,
		logger:  logger,
	}
}

// HandleRequest is the Lambda entry point for the WebSocket API
func (g *Gateway) HandleRequest(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	switch req.RequestContext.RouteKey {
	case "$connect":
		return g.connect(ctx, connectionID, req)
	case "$disconnect":
		if err := g.conns.Delete(ctx, connectionID); err != nil {
			g.logger.Warn("Failed to forget connection", zap.String("connectionID", connectionID), zap.Error(err))
		}
		return respond(http.StatusOK), nil
	default:
		return g.message(ctx, connectionID, req.Body)
	}
}

func (g *Gateway) connect(ctx context.Context, connectionID string, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	token := req.QueryStringParameters["token"]
	if token == "" {
		token = bearer(req.Headers)
	}
	if token == "" {
		return respond(http.StatusUnauthorized), nil
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		g.logger.Info("Rejected socket connection", zap.Error(err))
		return respond(http.StatusUnauthorized), nil
	}

	now := g.clock.Now()
	conn := ports.Connection{
		ID:          connectionID,
		UserID:      claims.UserID(),
		ConnectedAt: now,
		ExpiresAt:   now.Add(connectionTTL),
	}
	if err := g.conns.Save(ctx, conn); err != nil {
		g.logger.Error("Failed to store connection", zap.String("connectionID", connectionID), zap.Error(err))
		return respond(http.StatusInternalServerError), nil
	}

	g.logger.Info("Socket connected", zap.String("connectionID", connectionID), zap.String("userID", conn.UserID))
	return respond(http.StatusOK), nil
}

func (g *Gateway) message(ctx context.Context, connectionID, body string) (events.APIGatewayProxyResponse, error) {
	conn, err := g.conns.GetByID(ctx, connectionID)
	if err != nil {
		g.logger.Warn("Message from unknown connection", zap.String("connectionID", connectionID), zap.Error(err))
		return respond(http.StatusGone), nil
	}

	var in websocket.Frame
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return respond(http.StatusOK), g.post(ctx, connectionID, websocket.Frame{Type: websocket.FrameError, Content: "invalid JSON frame"})
	}

	var out websocket.Frame
	switch in.Type {
	case websocket.FramePing:
		out = websocket.Frame{Type: websocket.FramePong}
	case websocket.FrameMessage:
		replyCtx, cancel := context.WithTimeout(ctx, replyTimeout)
		answer, err := g.replier.Reply(replyCtx, conn.UserID, in.Content)
		cancel()
		if g.onReply != nil {
			g.onReply(err)
		}
		if err != nil {
			out = websocket.Frame{Type: websocket.FrameError, Content: websocket.ClientMessage(err)}
		} else {
			out = websocket.Frame{Type: websocket.FrameResponse, Content: answer}
		}
	default:
		out = websocket.Frame{Type: websocket.FrameError, Content: "unknown frame type " + in.Type}
	}

	return respond(http.StatusOK), g.post(ctx, connectionID, out)
}

// HandleNoteEvent pushes a note event received from EventBridge to every
// open connection of its author
func (g *Gateway) HandleNoteEvent(ctx context.Context, event events.EventBridgeEvent) error {
	if !strings.HasPrefix(event.DetailType, "note.") {
		return nil
	}

	var detail struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		g.logger.Error("Could not decode event detail", zap.String("detailType", event.DetailType), zap.Error(err))
		return err
	}
	if detail.UserID == "" {
		return nil
	}

	conns, err := g.conns.ListByUser(ctx, detail.UserID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(websocket.Notification{
		Type:      event.DetailType,
		Data:      event.Detail,
		Timestamp: event.Time.Unix(),
	})
	if err != nil {
		return err
	}

	for _, c := range conns {
		if err := g.send(ctx, c.ID, payload); err != nil {
			g.logger.Warn("Failed to notify connection", zap.String("connectionID", c.ID), zap.Error(err))
		}
	}
	return nil
}

func (g *Gateway) post(ctx context.Context, connectionID string, f websocket.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return g.send(ctx, connectionID, data)
}

// send posts data and forgets connections API Gateway reports as gone
func (g *Gateway) send(ctx context.Context, connectionID string, data []byte) error {
	_, err := g.poster.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	if err == nil {
		return nil
	}

	var gone *apigwtypes.GoneException
	if errors.As(err, &gone) {
		g.logger.Info("Removing stale connection", zap.String("connectionID", connectionID))
		if delErr := g.conns.Delete(ctx, connectionID); delErr != nil {
			g.logger.Warn("Failed to remove stale connection", zap.String("connectionID", connectionID), zap.Error(delErr))
		}
		return nil
	}
	return err
}

func bearer(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "authorization") {
			if parts := strings.SplitN(v, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return ""
}

func respond(status int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status}
}
