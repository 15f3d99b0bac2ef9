package control

import (
	"context"
	"sync"

	"github.com/frudas24/pdb/internal/window"
)

// lockMap hands out one mutex per window handle. Entries are created on
// first use and evicted when the last holder or waiter leaves.
type lockMap struct {
	mu      sync.Mutex
	entries map[window.Handle]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newLockMap() *lockMap {
	return &lockMap{entries: make(map[window.Handle]*lockEntry)}
}

// acquire blocks until h is free or ctx ends. The returned func releases the lock.
func (m *lockMap) acquire(ctx context.Context, h window.Handle) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[h]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		m.entries[h] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.unref(h, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.unref(h, e)
		})
	}, nil
}

func (m *lockMap) unref(h window.Handle, e *lockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 && m.entries[h] == e {
		delete(m.entries, h)
	}
}

// size reports how many handles currently have an entry.
func (m *lockMap) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
