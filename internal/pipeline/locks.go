package pipeline

import (
	"context"
	"sync"
)

// mediaLocks serializes requests for the same media id, whatever their kind.
// The stale sweep, the locator fallback and the exit cleanup all match on the id,
// so two such requests must never overlap between probe and cleanup.
type mediaLocks struct {
	mu   sync.Mutex
	held map[string]*mediaLock
}

type mediaLock struct {
	slot chan struct{}
	refs int
}

// lock blocks until id is free or ctx ends. The returned func releases it.
func (l *mediaLocks) lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()

	if l.held == nil {
		l.held = make(map[string]*mediaLock)
	}

	m, ok := l.held[id]
	if !ok {
		m = &mediaLock{slot: make(chan struct{}, 1)}
		l.held[id] = m
	}

	m.refs++
	l.mu.Unlock()

	select {
	case m.slot <- struct{}{}:
		var once sync.Once

		return func() {
			once.Do(func() {
				<-m.slot
				l.release(id, m)
			})
		}, nil
	case <-ctx.Done():
		l.release(id, m)

		return nil, ctx.Err()
	}
}

func (l *mediaLocks) release(id string, m *mediaLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m.refs--
	if m.refs == 0 {
		delete(l.held, id)
	}
}

// size returns the number of ids currently held or waited on.
func (l *mediaLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.held)
}
