// Package memory holds map-backed repositories for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// NoteRepository keeps notes in a map. Stored and returned notes are copies.
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]*entities.Note
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[string]*entities.Note)}
}

func cloneNote(n *entities.Note) *entities.Note {
	return entities.ReconstructNote(n.ID(), n.UserID(), n.Text(), n.Emotions(), n.CreatedAt(), n.UpdatedAt(), n.Version())
}

func (r *NoteRepository) Save(ctx context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID().String()] = cloneNote(note)
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id valueobjects.NoteID) (*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("note")
	}
	return cloneNote(note), nil
}

func (r *NoteRepository) Delete(ctx context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[note.ID().String()]; !ok {
		return pkgerrors.NewNotFoundError("note")
	}
	delete(r.notes, note.ID().String())
	return nil
}

func (r *NoteRepository) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, note := range r.notes {
		if note.UserID() == userID {
			delete(r.notes, id)
			deleted++
		}
	}
	return deleted, nil
}

// FindByUserAndDateRange returns the user's notes created in [start, end), oldest first
func (r *NoteRepository) FindByUserAndDateRange(ctx context.Context, userID string, start, end *time.Time) ([]*entities.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Note, 0)
	for _, note := range r.notes {
		if note.UserID() != userID {
			continue
		}
		created := note.CreatedAt()
		if start != nil && created.Before(*start) {
			continue
		}
		if end != nil && !created.Before(*end) {
			continue
		}
		out = append(out, cloneNote(note))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID().String() < out[j].ID().String()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

func (r *NoteRepository) FindByUserOnDate(ctx context.Context, userID string, day analytics.Date) ([]*entities.Note, error) {
	start := day.Start()
	end := day.AddDays(1).Start()
	return r.FindByUserAndDateRange(ctx, userID, &start, &end)
}

func (r *NoteRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, note := range r.notes {
		if note.UserID() == userID {
			n++
		}
	}
	return n, nil
}
