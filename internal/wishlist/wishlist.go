// Package wishlist keeps the current identity's liked movies. Each identity
// owns a partition in storage; the store reloads whenever the identity changes.
package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vmunix/moviedeck/internal/events"
	"github.com/vmunix/moviedeck/internal/identity"
	"github.com/vmunix/moviedeck/internal/storage"
	"github.com/vmunix/moviedeck/internal/tmdb"
)

// KeyPrefix prefixes every partition key.
const KeyPrefix = "wishlist_"

// Key returns the storage key of a partition.
func Key(partition string) string {
	return KeyPrefix + partition
}

// Store is the in-memory view of one partition, kept in sync with storage.
type Store struct {
	mu        sync.RWMutex
	kv        storage.Store
	identity  *identity.Store
	bus       *events.Bus
	ownBus    bool
	notifier  Notifier
	logger    *slog.Logger
	partition string
	items     []tmdb.MovieSummary
	// loaded is false while the partition could not be read; Toggle must
	// not overwrite what storage holds.
	loaded bool
}

// Option configures a Store.
type Option func(*Store)

// WithBus broadcasts changes on a shared bus instead of a private one.
func WithBus(bus *events.Bus) Option {
	return func(s *Store) {
		s.bus = bus
	}
}

// WithNotifier sets where toggle notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store bound to id. It loads the current partition and
// reloads on every identity transition.
func New(ctx context.Context, kv storage.Store, id *identity.Store, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		identity: id,
		notifier: discard{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "wishlist")
	if s.bus == nil {
		s.bus = events.NewBus(nil, s.logger)
		s.ownBus = true
	}

	id.OnChange(func(ctx context.Context, _ identity.Session) {
		if err := s.Load(ctx); err != nil {
			s.logger.Error("reload after identity change failed", "error", err)
		}
	})
	if err := s.Load(ctx); err != nil {
		s.logger.Error("initial load failed", "error", err)
	}
	return s
}

// Load replaces the in-memory list with the current identity's partition.
// A missing or malformed partition loads empty. When the read itself fails
// the store still switches partition, shows an empty list and refuses to
// write until a later Load succeeds.
func (s *Store) Load(ctx context.Context) error {
	partition := s.identity.PartitionKey()

	var items []tmdb.MovieSummary
	data, ok, readErr := s.kv.Get(ctx, Key(partition))
	if readErr == nil && ok {
		if err := json.Unmarshal(data, &items); err != nil {
			s.logger.Warn("wishlist unreadable, starting empty", "partition", partition, "error", err)
			items = nil
		}
	}

	s.mu.Lock()
	s.partition = partition
	s.items = items
	s.loaded = readErr == nil
	s.mu.Unlock()

	s.logger.Debug("wishlist loaded", "partition", partition, "count", len(items))
	if err := s.bus.Publish(ctx, events.NewWishlistLoaded(partition, len(items))); err != nil {
		s.logger.Warn("publish failed", "error", err)
	}
	if readErr != nil {
		return fmt.Errorf("load wishlist %s: %w", partition, readErr)
	}
	return nil
}

// Toggle removes movie if present, otherwise adds it, then persists the
// partition. It reports whether the movie is now in the list. Nothing
// changes if the write fails. A partition that failed to load is read
// again first; if that read fails too, Toggle returns the error.
func (s *Store) Toggle(ctx context.Context, movie tmdb.MovieSummary) (bool, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		if err := s.Load(ctx); err != nil {
			return false, fmt.Errorf("toggle: %w", err)
		}
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, fmt.Errorf("toggle: wishlist %s not loaded", s.partition)
	}
	idx := slices.IndexFunc(s.items, func(m tmdb.MovieSummary) bool { return m.ID == movie.ID })
	next := slices.Clone(s.items)
	added := idx == -1
	if added {
		next = append(next, movie)
	} else {
		next = slices.Delete(next, idx, idx+1)
	}

	if err := storage.SetJSON(ctx, s.kv, Key(s.partition), next); err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("save wishlist: %w", err)
	}
	s.items = next
	partition := s.partition
	snapshot := slices.Clone(next)
	s.mu.Unlock()

	kind := KindRemoved
	if added {
		kind = KindAdded
	}
	s.logger.Info("wishlist toggled", "partition", partition, "movie_id", movie.ID, "kind", kind)
	s.notifier.Notify(ctx, newNotification(kind, movie.Title))
	if err := s.bus.Publish(ctx, events.NewWishlistChanged(partition, movie, added, snapshot)); err != nil {
		s.logger.Warn("publish failed", "error", err)
	}
	return added, nil
}

// Contains reports whether id is in the loaded list. No I/O.
func (s *Store) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.items, func(m tmdb.MovieSummary) bool { return m.ID == id })
}

// Items returns a copy of the loaded list in insertion order.
func (s *Store) Items() []tmdb.MovieSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Partition returns the key of the loaded partition, without the prefix.
func (s *Store) Partition() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partition
}

// Subscribe returns a channel of wishlist.changed events.
func (s *Store) Subscribe(bufferSize int) <-chan events.Event {
	return s.bus.Subscribe(events.EventWishlistChanged, bufferSize)
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Store) Unsubscribe(ch <-chan events.Event) {
	s.bus.Unsubscribe(ch)
}

// Close releases the private bus, if any.
func (s *Store) Close() error {
	if s.ownBus {
		return s.bus.Close()
	}
	return nil
}
