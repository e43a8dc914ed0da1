package asset

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"autek/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBucket is a minimal path-style S3 endpoint keeping object keys in memory
type fakeBucket struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/" + b.bucket + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, prefix)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[key] = string(body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := b.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T, publicURL string) (*S3Store, *fakeBucket) {
	t.Helper()

	bucket := &fakeBucket{bucket: "catalog", objects: map[string]string{}}
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	store, err := NewS3Store(context.Background(), config.S3Config{
		Bucket:          "catalog",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		PublicURL:       publicURL,
	}, zap.NewNop())
	require.NoError(t, err)
	return store, bucket
}

func TestS3Store_SaveAndRemove(t *testing.T) {
	ctx := context.Background()
	store, bucket := newTestS3Store(t, "")

	path, err := store.Save(ctx, "phone.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Regexp(t, uploadPath, path)

	key := "uploads/" + strings.TrimPrefix(path, URLPrefix)
	bucket.mu.Lock()
	_, stored := bucket.objects[key]
	bucket.mu.Unlock()
	assert.True(t, stored, "object %s not uploaded", key)

	require.NoError(t, store.Remove(ctx, path))
	assert.ErrorIs(t, store.Remove(ctx, path), ErrNotExist)
}

func TestS3Store_PublicURLPrefix(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestS3Store(t, "https://cdn.example.com/")

	path, err := store.Save(ctx, "phone.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "https://cdn.example.com/uploads/"), path)

	require.NoError(t, store.Remove(ctx, path))
	assert.ErrorIs(t, store.Remove(ctx, "https://other.example.com/uploads/x.png"), ErrInvalidPath)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.S3Config{Region: "auto"}, zap.NewNop())
	assert.Error(t, err)
}
