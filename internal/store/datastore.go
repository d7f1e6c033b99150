package store

// DataStore is the interface the dump importer writes through. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering committed in one
// transaction) implement it.
type DataStore interface {
	InsertEntry(e *Entry) (int64, error)
	EntryByExpr(expr string) (*Entry, error)
}

// Compile-time checks.
var (
	_ DataStore = (*Store)(nil)
	_ DataStore = (*BatchedStore)(nil)
)
