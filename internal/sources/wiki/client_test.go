package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
)

const debutBody = `{"batchcomplete":true,"query":{"pages":[{"pageid":1,"ns":0,"title":"Debut",
 "revisions":[{"user":"Editor1","timestamp":"2025-12-01T10:30:00Z","comment":"fix count",
  "slots":{"main":{"contentmodel":"wikitext","content":"==Objectives==\n* Eliminate 5 [[Scavs]]\n"}}}]}]}}`

const missingBody = `{"batchcomplete":true,"query":{"pages":[{"ns":0,"title":"Nope","missing":true}]}}`

type memCache struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]cache.Entry)} }

func (m *memCache) Get(_ context.Context, ns, key string) (cache.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ns+"/"+key]
	return e, ok, nil
}

func (m *memCache) Put(_ context.Context, ns, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ns+"/"+key] = cache.Entry{Namespace: ns, Key: key, Payload: payload, Fresh: true}
	return nil
}

func server(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "content|timestamp|user|comment", q.Get("rvprop"))
		assert.Equal(t, "2", q.Get("formatversion"))
		switch q.Get("titles") {
		case "Debut":
			_, _ = w.Write([]byte(debutBody))
		default:
			_, _ = w.Write([]byte(missingBody))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPage(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, &hits)

	page, err := New(WithURL(srv.URL), WithDelay(0)).Page(context.Background(), "Debut")
	require.NoError(t, err)
	assert.Equal(t, "Debut", page.Title)
	assert.Contains(t, page.Markup, "Eliminate 5 [[Scavs]]")
	assert.False(t, page.Cached)
	require.NotNil(t, page.Revision)
	assert.Equal(t, "Editor1", page.Revision.Editor)
	assert.Equal(t, "fix count", page.Revision.Comment)
	assert.True(t, page.Revision.Timestamp.Time.Equal(time.Date(2025, 12, 1, 10, 30, 0, 0, time.UTC)))
}

func TestPageMissing(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, &hits)

	_, err := New(WithURL(srv.URL), WithDelay(0)).Page(context.Background(), "Nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	var fetchErr *errors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "Nope", fetchErr.Key)
}

func TestPageEmptyTitle(t *testing.T) {
	_, err := New().Page(context.Background(), "  ")
	assert.True(t, errors.IsValidationError(err))
}

func TestPageCacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, &hits)
	store := newMemCache()
	client := New(WithURL(srv.URL), WithDelay(time.Hour), WithCache(store))

	first, err := client.Page(context.Background(), "Debut")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// A second network request would block on the hour-long delay.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	second, err := client.Page(ctx, "Debut")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Markup, second.Markup)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPagePacesNetworkRequests(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, &hits)
	client := New(WithURL(srv.URL), WithDelay(time.Hour))

	_, err := client.Page(context.Background(), "Debut")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Page(ctx, "Debut")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPageOffline(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, &hits)
	store := newMemCache()
	store.entries[cache.NamespaceWiki+"/Debut"] = cache.Entry{Payload: []byte(debutBody)}
	client := New(WithURL(srv.URL), WithCache(store), WithOffline(true))

	page, err := client.Page(context.Background(), "Debut")
	require.NoError(t, err)
	assert.True(t, page.Cached)

	_, err = client.Page(context.Background(), "Checking")
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, hits.Load())
}

func TestPageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"badvalue","info":"Unrecognized value"}}`))
	}))
	defer srv.Close()

	_, err := New(WithURL(srv.URL), WithDelay(0)).Page(context.Background(), "Debut")
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "badvalue: Unrecognized value", apiErr.Message)
}

func TestPageDoesNotCacheAPIErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"error":{"code":"maxlag","info":"Waiting for a database server"}}`))
			return
		}
		_, _ = w.Write([]byte(debutBody))
	}))
	defer srv.Close()

	store := newMemCache()
	client := New(WithURL(srv.URL), WithDelay(0), WithCache(store))

	_, err := client.Page(context.Background(), "Debut")
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, store.entries, "an error response must not be cached")

	page, err := client.Page(context.Background(), "Debut")
	require.NoError(t, err)
	assert.False(t, page.Cached)
	assert.Equal(t, int32(2), hits.Load())
	assert.Len(t, store.entries, 1)
}

func TestPageCachesMissingPages(t *testing.T) {
	var hits atomic.Int32
	srv := server(t, &hits)
	store := newMemCache()
	client := New(WithURL(srv.URL), WithDelay(0), WithCache(store))

	for i := 0; i < 2; i++ {
		_, err := client.Page(context.Background(), "Nope")
		assert.True(t, errors.IsNotFound(err))
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestPageAPIErrorFallsBackToStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"ratelimited","info":"slow down"}}`))
	}))
	defer srv.Close()

	store := newMemCache()
	store.entries[cache.NamespaceWiki+"/Debut"] = cache.Entry{Payload: []byte(debutBody)}

	page, err := New(WithURL(srv.URL), WithDelay(0), WithCache(store)).Page(context.Background(), "Debut")
	require.NoError(t, err)
	assert.True(t, page.Cached)
	assert.Contains(t, page.Markup, "Eliminate 5 [[Scavs]]")
}
