package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry maps viewer ids to per-viewer values, creating them on demand and
// dropping the ones nobody touched for longer than the idle limit.
type Registry[T any] struct {
	mu      sync.Mutex
	items   map[string]*registryItem[T]
	idle    time.Duration
	create  func(id string) T
	onEvict func(id string, v T)
	now     func() time.Time
}

type registryItem[T any] struct {
	value    T
	lastSeen time.Time
	holds    int // open connections; a held item is never reaped
}

// NewRegistry creates a registry. idle <= 0 disables reaping.
func NewRegistry[T any](idle time.Duration, create func(id string) T) *Registry[T] {
	return &Registry[T]{
		items:  make(map[string]*registryItem[T]),
		idle:   idle,
		create: create,
		now:    time.Now,
	}
}

// OnEvict registers a callback run for every reaped value.
func (r *Registry[T]) OnEvict(f func(id string, v T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = f
}

// Get returns the value for id, creating it if needed, and marks it as seen.
// PRE: id is non-empty
// POST: the same value is returned for id until it is reaped
func (r *Registry[T]) Get(id string) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touchLocked(id).value
}

// Hold is Get for long-lived connections: the value is not reaped until
// release is called. release may be called more than once.
func (r *Registry[T]) Hold(id string) (value T, release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.touchLocked(id)
	it.holds++
	var once sync.Once
	return it.value, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			it.holds--
			it.lastSeen = r.now()
		})
	}
}

func (r *Registry[T]) touchLocked(id string) *registryItem[T] {
	it, ok := r.items[id]
	if !ok {
		it = &registryItem[T]{value: r.create(id)}
		r.items[id] = it
	}
	it.lastSeen = r.now()
	return it
}

// Lookup returns the value for id without creating it.
func (r *Registry[T]) Lookup(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Len returns the number of live viewers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Reap drops idle values and returns how many were removed.
func (r *Registry[T]) Reap() int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	cutoff := r.now().Add(-r.idle)
	type evicted struct {
		id string
		v  T
	}
	var gone []evicted
	for id, it := range r.items {
		if it.holds == 0 && it.lastSeen.Before(cutoff) {
			gone = append(gone, evicted{id, it.value})
			delete(r.items, id)
		}
	}
	onEvict := r.onEvict
	r.mu.Unlock()

	if onEvict != nil {
		for _, e := range gone {
			onEvict(e.id, e.v)
		}
	}
	return len(gone)
}

// Run reaps every interval until ctx is done.
func (r *Registry[T]) Run(ctx context.Context, interval time.Duration) {
	if r.idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(); n > 0 {
				zap.L().Debug("viewers_reaped", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
