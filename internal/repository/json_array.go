package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPersistence marks a failed read or write against the key-value store
var ErrPersistence = errors.New("persistence failure")

// ErrMalformed marks stored content that is not a JSON array of the expected shape
var ErrMalformed = errors.New("malformed stored content")

// loadArray reads the array stored under key. A missing key is an empty array.
// On read or decode failure it returns an empty array together with the error
// so callers can fall back to empty state.
func loadArray[T any](ctx context.Context, kv KVStore, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []T{}, nil
		}
		return []T{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return []T{}, fmt.Errorf("%w: key %s: %w", ErrMalformed, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// saveArray replaces the whole array stored under key
func saveArray[T any](ctx context.Context, kv KVStore, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, key, err)
	}
	if err := kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
