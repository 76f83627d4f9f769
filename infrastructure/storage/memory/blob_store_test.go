package memory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore_PutServeDelete(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore("/uploads/")

	url, err := store.Put(ctx, "profile-photos/u1/p.png", "image/png", strings.NewReader("png!"), 4)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/profile-photos/u1/p.png", url)

	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png!", rec.Body.String())

	require.NoError(t, store.Delete(ctx, "profile-photos/u1/p.png"))
	rec = httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlobStore_SizeMismatch(t *testing.T) {
	_, err := NewBlobStore("/uploads").Put(context.Background(), "k", "image/png", strings.NewReader("longer than said"), 3)
	assert.True(t, pkgerrors.IsValidation(err))
}
