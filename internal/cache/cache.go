// Package cache provides a lazily expiring cache over the durable key-value store.
//
// Entries live for a fixed TTL. There is no background sweep: an expired entry
// is deleted by the Get that discovers it, so Get may write to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/moviedeck/internal/storage"
)

const (
	// TTL is the maximum age of a cache entry.
	TTL = 30 * time.Minute

	// Namespace prefixes every catalog-derived key.
	Namespace = "movie_cache_"
)

// entry is the persisted wrapper. Timestamp is Unix milliseconds.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Store is a read-through cache keyed by request parameters.
type Store struct {
	kv     storage.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a cache over kv.
func New(kv storage.Store, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		kv:     kv,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key builds a namespaced key: movie_cache_<op>_<discriminator>.
func Key(op string, discriminator any) string {
	return fmt.Sprintf("%s%s_%v", Namespace, op, discriminator)
}

// Set stores value with the current timestamp, overwriting any previous entry.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	raw, err := json.Marshal(entry{Data: data, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// GetRaw returns the JSON payload stored under key if it is still fresh.
// Expired and malformed entries are deleted and reported as absent.
func (s *Store) GetRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || len(e.Data) == 0 {
		s.logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		s.evict(ctx, key)
		return nil, false
	}

	age := s.now().Sub(time.UnixMilli(e.Timestamp))
	if age > TTL {
		s.logger.Debug("cache entry expired", "key", key, "age", age)
		s.evict(ctx, key)
		return nil, false
	}
	return e.Data, true
}

// Get decodes a fresh entry into dest. Returns false on miss.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	data, ok := s.GetRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		s.evict(ctx, key)
		return false
	}
	return true
}

// ClearNamespace deletes every key starting with prefix.
func (s *Store) ClearNamespace(ctx context.Context, prefix string) (int, error) {
	n, err := s.kv.DeletePrefix(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("cache clear %s: %w", prefix, err)
	}
	s.logger.Debug("cache namespace cleared", "prefix", prefix, "removed", n)
	return n, nil
}

// Keys lists cached catalog keys in ascending order, fresh or not.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, Namespace)
	if err != nil {
		return nil, fmt.Errorf("cache keys: %w", err)
	}
	return keys, nil
}

// Clear drops all catalog entries.
func (s *Store) Clear(ctx context.Context) (int, error) {
	return s.ClearNamespace(ctx, Namespace)
}

func (s *Store) evict(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Warn("cache evict failed", "key", key, "error", err)
	}
}
