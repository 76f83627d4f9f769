// Package memory keeps uploads in process memory for local runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

type object struct {
	contentType string
	data        []byte
}

// BlobStore implements ports.BlobStore and serves what it holds under
// its URL prefix
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string]object
	prefix  string
}

var _ ports.BlobStore = (*BlobStore)(nil)

// NewBlobStore returns URLs of the form <prefix>/<key>, e.g. /uploads/k
func NewBlobStore(prefix string) *BlobStore {
	return &BlobStore{objects: make(map[string]object), prefix: strings.TrimRight(prefix, "/")}
}

func (s *BlobStore) Put(_ context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, size+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) != size {
		return "", pkgerrors.NewValidationError("upload size does not match content length")
	}

	s.mu.Lock()
	s.objects[key] = object{contentType: contentType, data: data}
	s.mu.Unlock()
	return s.prefix + "/" + key, nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// ServeHTTP serves objects by the path that follows the prefix
func (s *BlobStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, s.prefix), "/")

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.contentType)
	http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(obj.data))
}
