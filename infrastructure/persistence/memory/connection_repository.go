package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// ConnectionRepository tracks chat connections. Expired entries are invisible
// to reads and dropped by Sweep.
type ConnectionRepository struct {
	mu    sync.RWMutex
	conns map[string]ports.Connection
	now   func() time.Time
}

func NewConnectionRepository(clock ports.Clock) *ConnectionRepository {
	return &ConnectionRepository{
		conns: make(map[string]ports.Connection),
		now:   clock.Now,
	}
}

func (r *ConnectionRepository) expired(c ports.Connection) bool {
	return !c.ExpiresAt.IsZero() && !r.now().Before(c.ExpiresAt)
}

func (r *ConnectionRepository) Save(ctx context.Context, conn ports.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, connectionID string) (*ports.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connectionID]
	if !ok || r.expired(conn) {
		return nil, pkgerrors.NewNotFoundError("connection")
	}
	return &conn, nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]ports.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Connection, 0)
	for _, conn := range r.conns {
		if conn.UserID == userID && !r.expired(conn) {
			out = append(out, conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out, nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
	return nil
}

// Sweep removes expired connections and reports how many were dropped
func (r *ConnectionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, conn := range r.conns {
		if r.expired(conn) {
			delete(r.conns, id)
			dropped++
		}
	}
	return dropped
}
