package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/moviedeck/internal/migrations"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)
	return db
}

func TestEventLog_Append(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	ctx := context.Background()

	id, err := log.Append(ctx, &testEvent{
		BaseEvent: NewBaseEvent("test.created", "test", 1),
		Message:   "hello",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	events, err := log.Recent(ctx, "test.created", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Payload, `"message":"hello"`)
	assert.Equal(t, "test", events[0].EntityType)
	assert.Equal(t, int64(1), events[0].EntityID)
}

func TestEventLog_Recent(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := log.Append(ctx, &testEvent{BaseEvent: NewBaseEvent(EventWishlistChanged, "wishlist", int64(i))})
		require.NoError(t, err)
	}
	_, err := log.Append(ctx, &testEvent{BaseEvent: NewBaseEvent(EventSessionChanged, "session", 0)})
	require.NoError(t, err)

	all, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, EventSessionChanged, all[0].EventType, "newest first")

	wishlist, err := log.Recent(ctx, EventWishlistChanged, 2)
	require.NoError(t, err)
	require.Len(t, wishlist, 2)
	assert.Equal(t, int64(3), wishlist[0].EntityID)
}

func TestEventLog_Prune(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	ctx := context.Background()

	old := &testEvent{BaseEvent: NewBaseEvent("test.old", "test", 1)}
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	_, err := log.Append(ctx, old)
	require.NoError(t, err)
	_, err = log.Append(ctx, &testEvent{BaseEvent: NewBaseEvent("test.new", "test", 2)})
	require.NoError(t, err)

	pruned, err := log.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	remaining, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "test.new", remaining[0].EventType)
}
