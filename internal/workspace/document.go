package workspace

import (
	"context"
	"sync"

	"github.com/jward/zenls/internal/compile"
)

// Handle is a document opened under its environment's lock. Close releases
// the lock; it is safe to call more than once, so callers can defer it.
type Handle struct {
	env     *compile.Environment
	path    string
	once    sync.Once
	release func()
}

// Environment returns the environment that owns the document.
func (h *Handle) Environment() *compile.Environment { return h.env }

// Path returns the document path.
func (h *Handle) Path() string { return h.path }

// Unit returns the document's unit, or nil when it is not loaded.
func (h *Handle) Unit() *compile.Unit { return h.env.Unit(h.path) }

// Close releases the handle's lock.
func (h *Handle) Close() { h.once.Do(h.release) }

// OpenForRead returns a handle holding the read lock of the document's
// environment, creating the environment if needed.
func (m *Manager) OpenForRead(ctx context.Context, path string) (*Handle, error) {
	return m.open(ctx, path, false)
}

// OpenForWrite returns a handle holding the write lock of the document's
// environment, creating the environment if needed.
func (m *Manager) OpenForWrite(ctx context.Context, path string) (*Handle, error) {
	return m.open(ctx, path, true)
}

func (m *Manager) open(ctx context.Context, path string, write bool) (*Handle, error) {
	env, err := m.EnsureEnvironment(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Handle{env: env, path: clean(path), release: env.Acquire(write)}, nil
}
