package executor

import "sync"

// gate is one entity's transition lock.
type gate struct {
	mu   sync.Mutex
	refs int
}

// gates hands out per-entity locks, dropping a lock once nobody holds or
// waits for it.
type gates struct {
	mu    sync.Mutex
	locks map[string]*gate
}

func newGates() *gates {
	return &gates{locks: map[string]*gate{}}
}

// lock blocks until the entity's gate is held and returns the unlock.
func (g *gates) lock(entityID string) func() {
	g.mu.Lock()
	l, ok := g.locks[entityID]
	if !ok {
		l = &gate{}
		g.locks[entityID] = l
	}
	l.refs += 1
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		g.mu.Lock()
		defer g.mu.Unlock()
		l.refs -= 1
		if l.refs == 0 {
			delete(g.locks, entityID)
		}
	}
}
