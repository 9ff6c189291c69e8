package service

import (
	"context"
	"path/filepath"
	"sync"
)

// ExportedRunningGuard and ExportedImportKey let _test packages drive the guard.
type ExportedRunningGuard = runningGuard

var ExportedImportKey = importKey

// ─────────────────────────────────────────────────────────────
// runningGuard: prevents overlapping transfers
// ─────────────────────────────────────────────────────────────

// transferKey names one transfer. All exports share exportKey; imports are
// keyed per file so different files can load in parallel.
type transferKey string

const exportKey transferKey = "export"

// importKey keys an import by its cleaned path so two spellings of the same
// file cannot run together.
func importKey(path string) transferKey {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return transferKey("import:" + filepath.Clean(path))
}

// runningGuard ensures only one transfer per key runs at a time.
type runningGuard struct {
	mu      sync.Mutex
	running map[transferKey]struct{}
	wg      sync.WaitGroup
}

// TryLock marks key as running. Returns false if it already is.
func (g *runningGuard) TryLock(key transferKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[transferKey]struct{})
	}
	if _, ok := g.running[key]; ok {
		return false
	}
	g.running[key] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases key. Must follow a successful TryLock.
func (g *runningGuard) Unlock(key transferKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
	g.wg.Done()
}

// WaitAll blocks until running transfers finish or ctx is cancelled.
func (g *runningGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
