package api

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Inflight coalesces concurrent GETs for the same key into one network call.
// Every caller waiting on a key receives the same body or the same error, and
// the key is forgotten as soon as the call returns.
type Inflight struct {
	group singleflight.Group

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewInflight creates an empty registry.
func NewInflight() *Inflight {
	return &Inflight{pending: make(map[string]struct{})}
}

// Do runs fn unless a call for key is already running, in which case it waits
// for that call instead. shared reports whether the result went to more than
// one caller.
//
// ctx only bounds this caller's wait: when it is done Do returns ctx.Err()
// while the call keeps running for the remaining callers.
func (r *Inflight) Do(ctx context.Context, key string, fn func() ([]byte, error)) (data []byte, err error, shared bool) {
	ch := r.group.DoChan(key, func() (any, error) {
		r.mu.Lock()
		r.pending[key] = struct{}{}
		r.mu.Unlock()
		defer func() {
			r.mu.Lock()
			delete(r.pending, key)
			r.mu.Unlock()
		}()

		return fn()
	})

	select {
	case res := <-ch:
		data, _ = res.Val.([]byte)
		return data, res.Err, res.Shared
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}

// Len returns the number of keys with a call in progress.
func (r *Inflight) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
