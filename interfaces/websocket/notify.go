package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/events"
	"go.uber.org/zap"
)

// NoteEventHandler pushes note changes to the author's open chat
// connections, so other tabs can refresh. It never blocks the publisher.
func (h *Hub) NoteEventHandler() func(ctx context.Context, event events.DomainEvent) {
	return func(_ context.Context, event events.DomainEvent) {
		var userID string
		switch e := event.(type) {
		case events.NoteCreated:
			userID = e.UserID
		case events.NoteTextRevised:
			userID = e.UserID
		case events.NoteDeleted:
			userID = e.UserID
		default:
			return
		}
		if h.GetConnectionCount(userID) == 0 {
			return
		}

		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		msg := &Notification{
			UserID:    userID,
			Type:      event.GetEventType(),
			Data:      data,
			Timestamp: time.Now().Unix(),
		}
		select {
		case h.broadcast <- msg:
		default:
			h.logger.Warn("Notification dropped", zap.String("userID", userID), zap.String("type", msg.Type))
		}
	}
}
