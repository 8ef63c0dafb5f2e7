package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// LookupCache is a read-through cache keyed by id. It lives for a single
// bracket generation so nothing is shared between requests. Concurrent
// callers asking for the same id share one load, and failures are kept
// like values.
type LookupCache[T any] struct {
	load  func(context.Context, uuid.UUID) (*T, error)
	group singleflight.Group

	mu      sync.Mutex
	results map[uuid.UUID]lookupResult[T]
}

type lookupResult[T any] struct {
	value *T
	err   error
}

func NewLookupCache[T any](load func(context.Context, uuid.UUID) (*T, error)) *LookupCache[T] {
	return &LookupCache[T]{load: load, results: make(map[uuid.UUID]lookupResult[T])}
}

func (c *LookupCache[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	if r, ok := c.cached(id); ok {
		return r.value, r.err
	}

	v, err, _ := c.group.Do(id.String(), func() (any, error) {
		// A flight for the same id may have finished since the check above
		if r, ok := c.cached(id); ok {
			return r.value, r.err
		}
		value, err := c.load(ctx, id)
		c.mu.Lock()
		c.results[id] = lookupResult[T]{value: value, err: err}
		c.mu.Unlock()
		return value, err
	})
	value, _ := v.(*T)
	return value, err
}

func (c *LookupCache[T]) cached(id uuid.UUID) (lookupResult[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[id]
	return r, ok
}

func (c *LookupCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
