// Package storage provides the durable key-value store that backs the cache,
// identity fields and wishlist partitions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage closed")

	// ErrUnknownDriver indicates an unsupported storage driver name.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store is a string-keyed byte store. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value for key. The bool is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and reports how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Keys lists keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Open creates a store for the named driver. Disk drivers create the parent
// directory of path if needed.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverBolt:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	if driver == DriverBolt {
		return OpenBolt(path)
	}
	return OpenSQLite(path)
}

// GetJSON decodes the value stored under key into dest.
// Returns false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value as JSON and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
