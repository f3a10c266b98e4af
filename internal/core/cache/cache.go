// Package cache is the shared query cache behind the messaging client core.
// Entries are addressed by ordered key tuples and invalidated by prefix, so
// invalidating ["notifications"] drops every filtered notification listing.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrMiss reports that no entry exists for the key.
var ErrMiss = errors.New("cache: miss")

// Key is an ordered tuple identifying a cached query.
type Key []string

// NewKey builds a key from its parts.
func NewKey(parts ...string) Key {
	return Key(parts)
}

const keySeparator = "|"

func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

// HasPrefix reports whether prefix matches the leading parts of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, part := range prefix {
		if k[i] != part {
			return false
		}
	}
	return true
}

// Cache stores JSON-encodable query results.
type Cache interface {
	// Get decodes the entry into dst or returns ErrMiss.
	Get(ctx context.Context, key Key, dst any) error
	Set(ctx context.Context, key Key, value any) error
	// Invalidate drops every entry whose key starts with prefix.
	Invalidate(ctx context.Context, prefix Key) error
}

// Load is a read-through helper: it serves key from c or calls fetch and
// stores the result. Fetch errors are returned and never cached.
func Load[T any](ctx context.Context, c Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) {
		slog.DebugContext(ctx, "cache get failed", "key", key.String(), "error", err)
	}

	fresh, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.Set(ctx, key, fresh); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key.String(), "error", err)
	}
	return fresh, nil
}

// InvalidateAll drops each prefix, logging failures. Invalidation is best
// effort: the next read refetches either way once the entry expires.
func InvalidateAll(ctx context.Context, c Cache, prefixes ...Key) {
	for _, prefix := range prefixes {
		if err := c.Invalidate(ctx, prefix); err != nil {
			slog.WarnContext(ctx, "cache invalidate failed", "prefix", prefix.String(), "error", err)
		}
	}
}
