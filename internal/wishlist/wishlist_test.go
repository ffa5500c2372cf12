package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/moviedeck/internal/events"
	"github.com/vmunix/moviedeck/internal/identity"
	"github.com/vmunix/moviedeck/internal/storage"
	"github.com/vmunix/moviedeck/internal/tmdb"
)

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.got = append(r.got, n)
}

func setup(t *testing.T) (*Store, *identity.Store, storage.Store, *recorder) {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemory()
	t.Cleanup(func() { _ = kv.Close() })

	id := identity.New(ctx, kv)
	rec := &recorder{}
	s := New(ctx, kv, id, WithNotifier(rec))
	t.Cleanup(func() { _ = s.Close() })
	return s, id, kv, rec
}

func persisted(t *testing.T, kv storage.Store, partition string) []tmdb.MovieSummary {
	t.Helper()
	var items []tmdb.MovieSummary
	_, err := storage.GetJSON(context.Background(), kv, Key(partition), &items)
	require.NoError(t, err)
	return items
}

func TestStore_ToggleAddsThenRemoves(t *testing.T) {
	ctx := context.Background()
	s, _, kv, rec := setup(t)
	movie := tmdb.MovieSummary{ID: 5, Title: "X"}

	added, err := s.Toggle(ctx, movie)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []tmdb.MovieSummary{movie}, s.Items())
	assert.Equal(t, []tmdb.MovieSummary{movie}, persisted(t, kv, "anonymous"))
	assert.True(t, s.Contains(5))

	added, err = s.Toggle(ctx, movie)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, s.Items())
	assert.Empty(t, persisted(t, kv, "anonymous"))
	assert.False(t, s.Contains(5))

	require.Len(t, rec.got, 2)
	assert.Equal(t, KindAdded, rec.got[0].Kind)
	assert.Equal(t, "X", rec.got[0].Title)
	assert.Contains(t, rec.got[0].Message, "'X'")
	assert.Equal(t, KindRemoved, rec.got[1].Kind)
}

func TestStore_ToggleSequenceMatchesReplay(t *testing.T) {
	ctx := context.Background()
	s, id, _, _ := setup(t)

	ids := []int64{1, 2, 3, 2, 4, 1, 1, 5, 3, 2}
	want := map[int64]bool{}
	var order []int64
	for _, n := range ids {
		_, err := s.Toggle(ctx, tmdb.MovieSummary{ID: n, Title: "m"})
		require.NoError(t, err)
		if want[n] {
			delete(want, n)
			for i, o := range order {
				if o == n {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
		} else {
			want[n] = true
			order = append(order, n)
		}
	}

	got := func(items []tmdb.MovieSummary) []int64 {
		out := make([]int64, 0, len(items))
		for _, m := range items {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, order, got(s.Items()))

	// A reload of the same partition yields the same list.
	fresh := New(ctx, s.kv, id)
	defer fresh.Close()
	assert.Equal(t, order, got(fresh.Items()))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, order, got(s.Items()))
}

func TestStore_ReloadsOnIdentityChange(t *testing.T) {
	ctx := context.Background()
	s, id, kv, _ := setup(t)

	_, err := s.Toggle(ctx, tmdb.MovieSummary{ID: 1, Title: "Anon Pick"})
	require.NoError(t, err)

	require.NoError(t, storage.SetJSON(ctx, kv, Key("email_neo@matrix.io"),
		[]tmdb.MovieSummary{{ID: 2, Title: "Neo Pick"}}))

	require.NoError(t, id.Login(ctx, "neo@matrix.io"))
	assert.Equal(t, "email_neo@matrix.io", s.Partition())
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(2))

	require.NoError(t, id.SocialLogin(ctx, "tok", identity.Profile{ID: 42}))
	assert.Equal(t, "kakao_42", s.Partition())
	assert.Empty(t, s.Items(), "new partition without data loads empty")

	require.NoError(t, id.Logout(ctx))
	assert.Equal(t, "anonymous", s.Partition())
	assert.True(t, s.Contains(1))
}

func TestStore_ReloadsExactlyOncePerTransition(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	defer kv.Close()
	bus := events.NewBus(nil, nil)
	defer bus.Close()

	loaded := bus.Subscribe(events.EventWishlistLoaded, 10)
	id := identity.New(ctx, kv)
	s := New(ctx, kv, id, WithBus(bus))
	defer s.Close()

	drain := func() int {
		n := 0
		for {
			select {
			case <-loaded:
				n++
			case <-time.After(50 * time.Millisecond):
				return n
			}
		}
	}
	assert.Equal(t, 1, drain(), "construction loads once")

	require.NoError(t, id.Login(ctx, "a@b.co"))
	assert.Equal(t, 1, drain())

	require.NoError(t, id.Login(ctx, "a@b.co"))
	assert.Equal(t, 0, drain(), "same identity does not reload")
}

func TestStore_BroadcastsFullList(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := setup(t)
	ch := s.Subscribe(4)
	defer s.Unsubscribe(ch)

	_, err := s.Toggle(ctx, tmdb.MovieSummary{ID: 1, Title: "One"})
	require.NoError(t, err)
	_, err = s.Toggle(ctx, tmdb.MovieSummary{ID: 2, Title: "Two"})
	require.NoError(t, err)

	<-ch
	e := <-ch
	changed, ok := e.(*events.WishlistChanged)
	require.True(t, ok)
	assert.Equal(t, int64(2), changed.MovieID)
	assert.True(t, changed.Added)
	assert.Equal(t, "anonymous", changed.Partition)
	assert.Len(t, changed.Wishlist, 2)
}

func TestStore_CorruptPartitionLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, Key("anonymous"), []byte("{broken")))

	s := New(ctx, kv, identity.New(ctx, kv))
	defer s.Close()
	assert.Empty(t, s.Items())

	added, err := s.Toggle(ctx, tmdb.MovieSummary{ID: 9, Title: "Nine"})
	require.NoError(t, err)
	assert.True(t, added)

	raw, ok, err := kv.Get(ctx, Key("anonymous"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, json.Valid(raw))
}

func TestStore_ToggleWriteFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	s, _, kv, rec := setup(t)
	require.NoError(t, kv.Close())

	_, err := s.Toggle(ctx, tmdb.MovieSummary{ID: 1, Title: "One"})
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.Empty(t, s.Items())
	assert.Empty(t, rec.got)
}

// flakyReads fails the first n reads, then passes through.
type flakyReads struct {
	storage.Store
	n int
}

var errDiskBusy = errors.New("disk busy")

func (f *flakyReads) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.n > 0 {
		f.n--
		return nil, false, errDiskBusy
	}
	return f.Store.Get(ctx, key)
}

func TestStore_ReadFailureDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	defer mem.Close()
	saved := []tmdb.MovieSummary{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	require.NoError(t, storage.SetJSON(ctx, mem, Key("anonymous"), saved))

	kv := &flakyReads{Store: mem, n: 2}
	s := New(ctx, kv, identity.New(ctx, mem))
	defer s.Close()
	assert.Empty(t, s.Items())
	assert.Equal(t, "anonymous", s.Partition())

	// The retry inside Toggle fails too, so nothing is written.
	_, err := s.Toggle(ctx, tmdb.MovieSummary{ID: 3, Title: "C"})
	assert.ErrorIs(t, err, errDiskBusy)
	assert.Equal(t, saved, persisted(t, mem, "anonymous"))

	// Storage recovered: Toggle reloads and appends to what was saved.
	added, err := s.Toggle(ctx, tmdb.MovieSummary{ID: 3, Title: "C"})
	require.NoError(t, err)
	assert.True(t, added)
	want := append(slices.Clone(saved), tmdb.MovieSummary{ID: 3, Title: "C"})
	assert.Equal(t, want, persisted(t, mem, "anonymous"))
	assert.Equal(t, want, s.Items())
}
