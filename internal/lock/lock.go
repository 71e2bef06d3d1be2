// Package lock serializes writers of the same documents. Every multi-record
// operation acquires the keys of all records it will write, in sorted order.
package lock

import (
	"context"
	"sort"
	"time"
)

// Locker acquires exclusive ownership of a set of keys.
type Locker interface {
	// Lock blocks until every key is held or ctx is done. The returned func releases them.
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// normalize sorts keys and drops duplicates so that every caller acquires in the same order.
func normalize(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i == 0 || k != out[n-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}

type timeoutLocker struct {
	Locker
	timeout time.Duration
}

// WithTimeout bounds how long l waits to acquire keys.
func WithTimeout(l Locker, timeout time.Duration) Locker {
	return timeoutLocker{Locker: l, timeout: timeout}
}

func (t timeoutLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Locker.Lock(ctx, keys...)
}
