// Package cache holds the read cache in front of the workbook, the session store
// backing and the per-category sync lock.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrMiss = errors.New("cache miss")

// Store keeps opaque values for a TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetObject decodes the JSON value at key into dest. found is false on a miss.
func GetObject(ctx context.Context, s Store, key string, dest any) (found bool, err error) {
	b, err := s.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

func SetObject(ctx context.Context, s Store, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b, ttl)
}
