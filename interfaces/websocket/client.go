package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 16 * 1024
	sendBufferSize = 64

	replyTimeout = 30 * time.Second
)

// Frame types
const (
	FrameMessage  = "message"
	FrameResponse = "response"
	FrameError    = "error"
	FramePing     = "ping"
	FramePong     = "pong"
)

// Frame is the JSON envelope exchanged with the browser
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Replier answers a user's chat message
type Replier interface {
	Reply(ctx context.Context, userID, message string) (string, error)
}

// Client is one browser connection
type Client struct {
	id      string
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	replier Replier
	onReply func(err error)
	logger  *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a new WebSocket client
func NewClient(userID string, hub *Hub, conn *websocket.Conn, replier Replier, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:      id,
		userID:  userID,
		hub:     hub,
		conn:    conn,
		replier: replier,
		send:    make(chan []byte, sendBufferSize),
		logger: logger.With(
			zap.String("userID", userID),
			zap.String("connectionID", id),
		),
	}
}

// Start registers with the hub and begins the read and write pumps
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// enqueue hands data to the write pump without blocking
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) close() {
	c.conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.Done():
		}
		c.conn.Close()
		c.logger.Debug("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.reply(Frame{Type: FrameError, Content: "only text frames are supported"})
			continue
		}
		c.handleFrame(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame answers one inbound frame. Chat messages are answered in
// order, one at a time.
func (c *Client) handleFrame(raw []byte) {
	var in Frame
	if err := json.Unmarshal(raw, &in); err != nil {
		c.reply(Frame{Type: FrameError, Content: "invalid JSON frame"})
		return
	}

	switch in.Type {
	case FramePing:
		c.reply(Frame{Type: FramePong})
	case FrameMessage:
		ctx, cancel := context.WithTimeout(c.hub.ctx, replyTimeout)
		answer, err := c.replier.Reply(ctx, c.userID, in.Content)
		cancel()
		if c.onReply != nil {
			c.onReply(err)
		}
		if err != nil {
			c.reply(Frame{Type: FrameError, Content: ClientMessage(err)})
			return
		}
		c.reply(Frame{Type: FrameResponse, Content: answer})
	default:
		c.reply(Frame{Type: FrameError, Content: "unknown frame type " + in.Type})
	}
}

func (c *Client) reply(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		c.logger.Warn("Dropped frame", zap.String("type", f.Type))
	}
}

// ClientMessage hides internal failures from the browser
func ClientMessage(err error) string {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
		return appErr.Message
	}
	if pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable) {
		return "The assistant is unavailable right now, please try again later."
	}
	return "Something went wrong, please try again."
}

// GetID returns the client's connection ID
func (c *Client) GetID() string {
	return c.id
}
