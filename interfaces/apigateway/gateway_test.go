package apigateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports/mocks"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/persistence/memory"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/websocket"
	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPoster struct {
	mock.Mock
}

func (m *mockPoster) PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	args := m.Called(aws.ToString(params.ConnectionId), string(params.Data))
	return &apigatewaymanagementapi.PostToConnectionOutput{}, args.Error(0)
}

type replierFunc func(ctx context.Context, userID, message string) (string, error)

func (f replierFunc) Reply(ctx context.Context, userID, message string) (string, error) {
	return f(ctx, userID, message)
}

type fixture struct {
	gateway *Gateway
	conns   *memory.ConnectionRepository
	poster  *mockPoster
	tokens  *auth.TokenService
}

func newFixture(t *testing.T, replier websocket.Replier) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenService("secret", "test", time.Hour)
	require.NoError(t, err)
	conns := memory.NewConnectionRepository(mocks.FixedClock{At: time.Now()})
	poster := new(mockPoster)
	return &fixture{
		gateway: NewGateway(conns, tokens, replier, poster, mocks.FixedClock{At: time.Now()}, nil, zap.NewNop()),
		conns:   conns,
		poster:  poster,
		tokens:  tokens,
	}
}

func routeRequest(route, connectionID, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			RouteKey:     route,
			ConnectionID: connectionID,
		},
	}
}

func frame(t *testing.T, f websocket.Frame) string {
	t.Helper()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) connect(t *testing.T, connectionID, userID string) {
	t.Helper()
	token, err := f.tokens.Issue(userID, userID+"@example.com")
	require.NoError(t, err)
	req := routeRequest("$connect", connectionID, "")
	req.QueryStringParameters = map[string]string{"token": token}

	resp, err := f.gateway.HandleRequest(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConnect_StoresConnection(t *testing.T) {
	f := newFixture(t, nil)

	f.connect(t, "conn-1", "user-1")

	conn, err := f.conns.GetByID(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", conn.UserID)
	assert.True(t, conn.ExpiresAt.After(conn.ConnectedAt))
}

func TestConnect_AcceptsAuthorizationHeader(t *testing.T) {
	f := newFixture(t, nil)
	token, err := f.tokens.Issue("user-2", "b@example.com")
	require.NoError(t, err)
	req := routeRequest("$connect", "conn-2", "")
	req.Headers = map[string]string{"authorization": "Bearer " + token}

	resp, err := f.gateway.HandleRequest(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConnect_RejectsBadToken(t *testing.T) {
	f := newFixture(t, nil)

	for _, token := range []string{"", "garbage"} {
		req := routeRequest("$connect", "conn-x", "")
		req.QueryStringParameters = map[string]string{"token": token}

		resp, err := f.gateway.HandleRequest(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	_, err := f.conns.GetByID(context.Background(), "conn-x")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDisconnect_ForgetsConnection(t *testing.T) {
	f := newFixture(t, nil)
	f.connect(t, "conn-1", "user-1")

	resp, err := f.gateway.HandleRequest(context.Background(), routeRequest("$disconnect", "conn-1", ""))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = f.conns.GetByID(context.Background(), "conn-1")
	assert.Error(t, err)
}

func TestMessage_RepliesThroughManagementAPI(t *testing.T) {
	// Arrange
	var gotUser, gotMessage string
	f := newFixture(t, replierFunc(func(_ context.Context, userID, message string) (string, error) {
		gotUser, gotMessage = userID, message
		return "I hear you.", nil
	}))
	f.connect(t, "conn-1", "user-1")
	f.poster.On("PostToConnection", "conn-1", frame(t, websocket.Frame{Type: websocket.FrameResponse, Content: "I hear you."})).Return(nil)

	// Act
	resp, err := f.gateway.HandleRequest(context.Background(),
		routeRequest("sendMessage", "conn-1", frame(t, websocket.Frame{Type: websocket.FrameMessage, Content: "rough day"})))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "rough day", gotMessage)
	f.poster.AssertExpectations(t)
}

func TestMessage_ErrorFrames(t *testing.T) {
	f := newFixture(t, replierFunc(func(context.Context, string, string) (string, error) {
		return "", pkgerrors.NewUnavailableError("language model")
	}))
	f.connect(t, "conn-1", "user-1")

	tests := []struct {
		name string
		body string
		want websocket.Frame
	}{
		{"bad json", "{", websocket.Frame{Type: websocket.FrameError, Content: "invalid JSON frame"}},
		{"ping", `{"type":"ping"}`, websocket.Frame{Type: websocket.FramePong}},
		{"unknown", `{"type":"shout"}`, websocket.Frame{Type: websocket.FrameError, Content: "unknown frame type shout"}},
		{"model down", `{"type":"message","content":"hi"}`, websocket.Frame{
			Type:    websocket.FrameError,
			Content: websocket.ClientMessage(pkgerrors.NewUnavailableError("language model")),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.poster.On("PostToConnection", "conn-1", frame(t, tt.want)).Return(nil).Once()

			_, err := f.gateway.HandleRequest(context.Background(), routeRequest("$default", "conn-1", tt.body))

			require.NoError(t, err)
		})
	}
	f.poster.AssertExpectations(t)
}

func TestMessage_UnknownConnection(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.gateway.HandleRequest(context.Background(), routeRequest("$default", "nobody", `{"type":"ping"}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	f.poster.AssertNotCalled(t, "PostToConnection", mock.Anything, mock.Anything)
}

func TestHandleNoteEvent_NotifiesAuthorAndDropsGoneConnections(t *testing.T) {
	// Arrange
	f := newFixture(t, nil)
	f.connect(t, "live", "user-1")
	f.connect(t, "stale", "user-1")
	f.connect(t, "other", "user-2")

	detail := json.RawMessage(`{"note_id":"n1","user_id":"user-1"}`)
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(websocket.Notification{Type: "note.created", Data: detail, Timestamp: at.Unix()})
	require.NoError(t, err)

	f.poster.On("PostToConnection", "live", string(payload)).Return(nil)
	f.poster.On("PostToConnection", "stale", string(payload)).Return(&apigwtypes.GoneException{})

	// Act
	err = f.gateway.HandleNoteEvent(context.Background(), events.EventBridgeEvent{
		DetailType: "note.created",
		Detail:     detail,
		Time:       at,
	})

	// Assert
	require.NoError(t, err)
	f.poster.AssertExpectations(t)
	f.poster.AssertNotCalled(t, "PostToConnection", "other", mock.Anything)

	remaining, err := f.conns.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, connectionIDs(remaining))
}

func TestHandleNoteEvent_IgnoresOtherEvents(t *testing.T) {
	f := newFixture(t, nil)

	err := f.gateway.HandleNoteEvent(context.Background(), events.EventBridgeEvent{
		DetailType: "user.registered",
		Detail:     json.RawMessage(`{"user_id":"user-1"}`),
	})

	require.NoError(t, err)
	f.poster.AssertNotCalled(t, "PostToConnection", mock.Anything, mock.Anything)
}

func TestHandleNoteEvent_PostFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.connect(t, "conn-1", "user-1")
	f.poster.On("PostToConnection", "conn-1", mock.Anything).Return(errors.New("throttled"))

	err := f.gateway.HandleNoteEvent(context.Background(), events.EventBridgeEvent{
		DetailType: "note.deleted",
		Detail:     json.RawMessage(`{"user_id":"user-1"}`),
	})

	require.NoError(t, err)
	_, err = f.conns.GetByID(context.Background(), "conn-1")
	assert.NoError(t, err)
}

func connectionIDs(conns []ports.Connection) []string {
	ids := make([]string, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.ID)
	}
	return ids
}
