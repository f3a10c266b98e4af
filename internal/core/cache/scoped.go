package cache

import "context"

// Scoped confines a Cache to one owner by prefixing every key with
// ["user", id]. Backends shared between users must be wrapped.
type Scoped struct {
	inner Cache
	scope Key
}

// ForUser scopes c to userID.
func ForUser(c Cache, userID string) *Scoped {
	return &Scoped{inner: c, scope: NewKey("user", userID)}
}

var _ Cache = (*Scoped)(nil)

func (s *Scoped) Get(ctx context.Context, key Key, dst any) error {
	return s.inner.Get(ctx, s.key(key), dst)
}

func (s *Scoped) Set(ctx context.Context, key Key, value any) error {
	return s.inner.Set(ctx, s.key(key), value)
}

func (s *Scoped) Invalidate(ctx context.Context, prefix Key) error {
	return s.inner.Invalidate(ctx, s.key(prefix))
}

func (s *Scoped) key(k Key) Key {
	out := make(Key, 0, len(s.scope)+len(k))
	out = append(out, s.scope...)
	return append(out, k...)
}
