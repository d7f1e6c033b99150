package store

import (
	"fmt"
	"sync"
)

// BatchedStore buffers entry inserts in memory using fake (negative) IDs
// until CommitBatch writes them in a single transaction.
//
// Thread safety: the mutex protects fake ID allocation and the buffer.
// EntryByExpr answers from the buffer first and then passes through to the
// underlying Store.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Entries []Entry
	byExpr  map[string]int

	nextFakeID int64 // starts at -1, decrements
}

// NewBatchedStore creates a BatchedStore backed by s for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s, byExpr: make(map[string]int), nextFakeID: -1}
}

// InsertEntry buffers e. A later insert of the same expression replaces the
// earlier one.
func (b *BatchedStore) InsertEntry(e *Entry) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextFakeID
	b.nextFakeID--
	e.ID = id
	if i, ok := b.byExpr[e.Expr]; ok {
		b.Entries[i] = *e
		return id, nil
	}
	b.byExpr[e.Expr] = len(b.Entries)
	b.Entries = append(b.Entries, *e)
	return id, nil
}

// EntryByExpr returns a buffered entry, or the committed one.
func (b *BatchedStore) EntryByExpr(expr string) (*Entry, error) {
	b.mu.Lock()
	i, ok := b.byExpr[expr]
	var e Entry
	if ok {
		e = b.Entries[i]
	}
	b.mu.Unlock()
	if ok {
		return &e, nil
	}
	if b.store == nil {
		return nil, nil
	}
	return b.store.EntryByExpr(expr)
}

// Len returns the number of buffered entries.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Entries)
}

// CommitBatch replaces every mirrored entry with the buffered ones and
// records the given metadata, all within a single transaction. Fake IDs are
// replaced by the real ones in the buffer.
func (s *Store) CommitBatch(batch *BatchedStore, metadata map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM properties"); err != nil {
		return fmt.Errorf("commit batch: clear properties: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("commit batch: clear entries: %w", err)
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()
	for i := range batch.Entries {
		if _, err := insertEntryTx(tx, &batch.Entries[i]); err != nil {
			return fmt.Errorf("commit batch: entry %q: %w", batch.Entries[i].Expr, err)
		}
	}
	for k, v := range metadata {
		if err := setMetadataTx(tx, k, v); err != nil {
			return fmt.Errorf("commit batch: metadata %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}
