package ghac

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/objectfs/pkg/access"
	apperrors "github.com/objectfs/objectfs/pkg/errors"
)

// fakeActionsCache is a minimal stand-in for the real Actions Cache REST
// API, enough to drive a Backend through reserve/upload/commit/lookup
// the way a live runner would.
type fakeActionsCache struct {
	mu      sync.Mutex
	nextID  int64
	entries map[string][]byte // cacheKey -> committed body
	pending map[int64]string  // cacheId -> cacheKey
	blobs   map[int64][]byte
}

func newFakeActionsCache() *fakeActionsCache {
	return &fakeActionsCache{
		entries: make(map[string][]byte),
		pending: make(map[int64]string),
		blobs:   make(map[int64][]byte),
	}
}

func (f *fakeActionsCache) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/artifactcache/cache", f.handleLookup)
	mux.HandleFunc("/_apis/artifactcache/caches", f.handleReserve)
	mux.HandleFunc("/_apis/artifactcache/caches/", f.handleUploadOrCommit)
	return httptest.NewServer(mux)
}

func (f *fakeActionsCache) handleLookup(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("keys")
	key, _ = url.QueryUnescape(key)

	f.mu.Lock()
	body, ok := f.entries[key]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp, _ := json.Marshal(map[string]string{
		"cacheKey":        key,
		"archiveLocation": f.archiveURL(r, key),
	})
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
	_ = body
}

func (f *fakeActionsCache) archiveURL(r *http.Request, key string) string {
	return "http://" + r.Host + "/blobs/" + url.QueryEscape(key)
}

func (f *fakeActionsCache) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.pending[id] = req.Key
	f.mu.Unlock()

	resp, _ := json.Marshal(map[string]int64{"cacheId": id})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(resp)
}

func (f *fakeActionsCache) handleUploadOrCommit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		body, _ := io.ReadAll(r.Body)
		id := parseTrailingID(r.URL.Path)
		f.mu.Lock()
		f.blobs[id] = append(f.blobs[id], body...)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		id := parseTrailingID(r.URL.Path)
		f.mu.Lock()
		key := f.pending[id]
		f.entries[key] = f.blobs[id]
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseTrailingID(p string) int64 {
	i := len(p) - 1
	for i >= 0 && p[i] >= '0' && p[i] <= '9' {
		i--
	}
	var id int64
	for _, c := range p[i+1:] {
		id = id*10 + int64(c-'0')
	}
	return id
}

func newTestBackend(t *testing.T, endpoint string) *Backend {
	t.Helper()
	b, err := NewBackend(Config{Endpoint: endpoint, Token: "test-token"}, "/")
	require.NoError(t, err)
	return b
}

func TestRoundTrip(t *testing.T) {
	fake := newFakeActionsCache()
	srv := fake.server()
	defer srv.Close()

	b := newTestBackend(t, srv.URL)
	ctx := context.Background()
	body := []byte("cached build output")

	_, err := b.Write(ctx, "artifact.bin", access.OpWrite{Size: int64(len(body))}, access.NewBytesReader(body))
	require.NoError(t, err)

	_, r, err := b.Read(ctx, "artifact.bin", access.OpRead{})
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	stat, err := b.Stat(ctx, "artifact.bin", access.OpStat{})
	require.NoError(t, err)
	assert.Equal(t, access.ModeFile, stat.Metadata.Mode)
}

func TestReadMissingKeyReturnsNotFound(t *testing.T) {
	fake := newFakeActionsCache()
	srv := fake.server()
	defer srv.Close()

	b := newTestBackend(t, srv.URL)
	_, _, err := b.Read(context.Background(), "never-cached.bin", access.OpRead{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ObjectNotFound))
}

func TestDeleteIsUnsupported(t *testing.T) {
	fake := newFakeActionsCache()
	srv := fake.server()
	defer srv.Close()

	b := newTestBackend(t, srv.URL)
	_, err := b.Delete(context.Background(), "artifact.bin", access.OpDelete{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unsupported))
}

func TestWriteMapsServerErrorToTemporary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_apis/artifactcache/caches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := newTestBackend(t, srv.URL)
	_, err := b.Write(context.Background(), "artifact.bin", access.OpWrite{}, access.NewBytesReader([]byte("x")))
	require.Error(t, err)
	e, ok := apperrors.As(err)
	require.True(t, ok)
	assert.True(t, e.IsTemporary())
}
