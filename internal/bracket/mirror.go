package bracket

import (
	"context"
	"fmt"

	"github.com/jward/zenls/internal/store"
)

// Mirror serves lookups from the local SQLite mirror.
type Mirror struct {
	store *store.Store
}

// NewMirror wraps an open, migrated store.
func NewMirror(s *store.Store) *Mirror {
	return &Mirror{store: s}
}

// OpenMirror opens and migrates the mirror database at path.
func OpenMirror(path string) (*Mirror, error) {
	s, err := store.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("bracket: open mirror: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("bracket: migrate mirror: %w", err)
	}
	return &Mirror{store: s}, nil
}

// Store returns the underlying store.
func (m *Mirror) Store() *store.Store { return m.store }

// Close closes the underlying store.
func (m *Mirror) Close() error { return m.store.Close() }

// Entry implements Service.
func (m *Mirror) Entry(_ context.Context, expr string) (*Entry, error) {
	e, err := m.store.EntryByExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("bracket: mirror: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, expr)
	}
	return e, nil
}

// Complete implements Service.
func (m *Mirror) Complete(_ context.Context, prefix string, limit int) ([]string, error) {
	out, err := m.store.ExprsWithPrefix(prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("bracket: mirror: %w", err)
	}
	return out, nil
}
