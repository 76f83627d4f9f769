package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hub owns the set of open chat sockets, keyed by user. All membership
// changes and pushes go through Run.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Notification

	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	active  atomic.Int64
	pushed  atomic.Int64
	dropped atomic.Int64
}

// HubStats is a snapshot of the hub counters
type HubStats struct {
	Active  int64
	Pushed  int64
	Dropped int64
}

// Notification is a server-initiated frame for every connection of a user
type Notification struct {
	UserID    string          `json:"-"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func NewHub(logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		users:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan *Notification, 1000),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Run processes registrations and pushes until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case n := <-h.broadcast:
			h.push(n)
		}
	}
}

func (h *Hub) Stop() {
	h.logger.Info("Stopping WebSocket hub")
	h.cancel()
}

// Done is closed once Stop was called
func (h *Hub) Done() <-chan struct{} {
	return h.ctx.Done()
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	set, ok := h.users[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	h.active.Add(1)
	h.logger.Info("Chat socket opened",
		zap.String("userID", c.userID),
		zap.String("connectionID", c.id),
		zap.Int("userConnections", n))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	set := h.users[c.userID]
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	h.mu.Unlock()

	c.closeSend()
	h.active.Add(-1)
	h.logger.Info("Chat socket closed",
		zap.String("userID", c.userID),
		zap.String("connectionID", c.id))
}

// push delivers n to every socket of its user. A socket whose buffer is
// full is disconnected rather than allowed to stall the hub.
func (h *Hub) push(n *Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("Failed to marshal notification", zap.String("type", n.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[n.UserID] {
		if c.enqueue(data) {
			h.pushed.Add(1)
			continue
		}
		h.dropped.Add(1)
		h.logger.Warn("Closing slow client", zap.String("userID", c.userID), zap.String("connectionID", c.id))
		go c.close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.users {
		for c := range set {
			c.closeSend()
			c.close()
		}
		delete(h.users, userID)
	}
	h.active.Store(0)
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		Active:  h.active.Load(),
		Pushed:  h.pushed.Load(),
		Dropped: h.dropped.Load(),
	}
}

// GetConnectionCount returns the number of open sockets of a user
func (h *Hub) GetConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
