package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/moviedeck/internal/storage"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T) (*Store, *storage.Memory, *fakeClock) {
	t.Helper()
	kv := storage.NewMemory()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(kv, testLogger(), WithClock(clock.Now)), kv, clock
}

type page struct {
	Page       int   `json:"page"`
	Results    []int `json:"results"`
	TotalPages int   `json:"total_pages"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "movie_cache_list_3", Key("list", 3))
	assert.Equal(t, "movie_cache_details_550", Key("details", int64(550)))
}

func TestCache_GetSet(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	var got page
	assert.False(t, c.Get(ctx, "movie_cache_list_1", &got), "empty cache should miss")

	want := page{Page: 1, Results: []int{1, 2, 3}, TotalPages: 40}
	require.NoError(t, c.Set(ctx, "movie_cache_list_1", want))

	require.True(t, c.Get(ctx, "movie_cache_list_1", &got))
	assert.Equal(t, want, got)
}

func TestCache_Expiry(t *testing.T) {
	c, kv, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "movie_cache_list_1", page{Page: 1}))

	clock.Advance(TTL)
	var got page
	require.True(t, c.Get(ctx, "movie_cache_list_1", &got), "entry exactly TTL old is still valid")

	clock.Advance(time.Millisecond)
	assert.False(t, c.Get(ctx, "movie_cache_list_1", &got), "should miss after TTL")

	_, ok, err := kv.Get(ctx, "movie_cache_list_1")
	require.NoError(t, err)
	assert.False(t, ok, "expired read should delete the key")
}

func TestCache_SetOverwriteRefreshesTimestamp(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", page{Page: 1}))
	clock.Advance(20 * time.Minute)
	require.NoError(t, c.Set(ctx, "k", page{Page: 2}))
	clock.Advance(20 * time.Minute)

	var got page
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 2, got.Page)
}

func TestCache_CorruptEntryFailsClosed(t *testing.T) {
	c, kv, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "movie_cache_list_9", []byte("{garbage")))

	var got page
	assert.False(t, c.Get(ctx, "movie_cache_list_9", &got))

	_, ok, err := kv.Get(ctx, "movie_cache_list_9")
	require.NoError(t, err)
	assert.False(t, ok, "corrupt entry should be removed")
}

func TestCache_ClearNamespace(t *testing.T) {
	c, kv, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, Key("list", 1), page{Page: 1}))
	require.NoError(t, c.Set(ctx, Key("details", 550), page{}))
	require.NoError(t, kv.Set(ctx, "wishlist_anonymous", []byte("[]")))
	require.NoError(t, kv.Set(ctx, "user_email", []byte("a@b.co")))

	cached, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"movie_cache_details_550", "movie_cache_list_1"}, cached)

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"user_email", "wishlist_anonymous"}, keys, "other keys must survive")
}
