package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a string cache with per-key TTL. Backends return ErrCacheMiss for
// absent keys; any other error means the backend itself failed, and callers
// are expected to recompute rather than fail the request.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
