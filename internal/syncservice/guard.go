package syncservice

import (
	"context"
	"sync"
)

// runGuard ensures only one run of a given name is active at a time.
type runGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	// idle is closed when the last active run ends; nil while nothing runs.
	idle chan struct{}
}

// TryLock marks name as running. It returns false if it already is.
func (g *runGuard) TryLock(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[name]; ok {
		return false
	}
	if len(g.running) == 0 {
		g.idle = make(chan struct{})
	}
	g.running[name] = struct{}{}
	return true
}

// Unlock releases name. Releasing a name that is not held is a no-op.
func (g *runGuard) Unlock(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.running[name]; !ok {
		return
	}
	delete(g.running, name)
	if len(g.running) == 0 && g.idle != nil {
		close(g.idle)
		g.idle = nil
	}
}

// Running reports whether name is held.
func (g *runGuard) Running(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[name]
	return ok
}

// WaitAll blocks until every active run completes or ctx is cancelled.
func (g *runGuard) WaitAll(ctx context.Context) {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()
	if idle == nil {
		return
	}
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
