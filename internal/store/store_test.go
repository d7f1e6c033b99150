package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

const testDump = `[
  {"expr": "item:minecraft:stick", "properties": {"_name": ["Stick"], "_icon": ["iVBORw0KGgo="], "tags": ["forge:rods", "minecraft:sticks"]}},
  {"expr": "item:minecraft:stone", "properties": {"_name": ["Stone"]}},
  {"expr": "fluid:water", "properties": {"_name": ["Water"]}},
  {"expr": "", "properties": {"_name": ["ignored"]}}
]`

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"entries", "properties", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

// =============================================================================
// Entries
// =============================================================================

func TestInsertEntry_RoundTripsProperties(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	e := &Entry{Expr: "item:a", Properties: map[string][]string{"tags": {"x", "y"}, "_name": {"A"}}}
	id, err := s.InsertEntry(e)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, e.ID)

	got, err := s.EntryByExpr("item:a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, []string{"x", "y"}, got.Properties["tags"], "values keep their order")
	assert.Equal(t, "A", got.First("_name"))
	assert.Equal(t, "", got.First("missing"))
	assert.Equal(t, []string{"_name", "tags"}, got.Keys())

	_, err = s.InsertEntry(&Entry{Expr: "item:a"})
	assert.Error(t, err, "expressions are unique")
}

func TestEntryByExpr_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.EntryByExpr("item:none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExprsWithPrefix(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.ImportDump(strings.NewReader(testDump))
	require.NoError(t, err)

	all, err := s.ExprsWithPrefix("item:", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"item:minecraft:stick", "item:minecraft:stone"}, all)

	one, err := s.ExprsWithPrefix("item:", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"item:minecraft:stick"}, one)

	none, err := s.ExprsWithPrefix("block:", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	v, err := s.Metadata("k")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetMetadata("k", "1"))
	require.NoError(t, s.SetMetadata("k", "2"))
	v, err = s.Metadata("k")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

// =============================================================================
// Batches & dump import
// =============================================================================

func TestBatchedStore_BuffersUntilCommit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.InsertEntry(&Entry{Expr: "item:old"})
	require.NoError(t, err)

	batch := NewBatchedStore(s)
	id, err := batch.InsertEntry(&Entry{Expr: "item:new", Properties: map[string][]string{"_name": {"first"}}})
	require.NoError(t, err)
	assert.Negative(t, id, "batched IDs should be negative")
	_, err = batch.InsertEntry(&Entry{Expr: "item:new", Properties: map[string][]string{"_name": {"second"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Len(), "later inserts replace earlier ones")

	buffered, err := batch.EntryByExpr("item:new")
	require.NoError(t, err)
	require.NotNil(t, buffered)
	assert.Equal(t, "second", buffered.First("_name"))

	passthrough, err := batch.EntryByExpr("item:old")
	require.NoError(t, err)
	assert.NotNil(t, passthrough, "reads fall through to the store")

	committed, err := s.EntryByExpr("item:new")
	require.NoError(t, err)
	assert.Nil(t, committed, "nothing is written before commit")

	require.NoError(t, s.CommitBatch(batch, map[string]string{"source": "test"}))
	committed, err = s.EntryByExpr("item:new")
	require.NoError(t, err)
	require.NotNil(t, committed)
	assert.Positive(t, committed.ID)

	old, err := s.EntryByExpr("item:old")
	require.NoError(t, err)
	assert.Nil(t, old, "a commit replaces the whole mirror")
	src, err := s.Metadata("source")
	require.NoError(t, err)
	assert.Equal(t, "test", src)
}

func TestImportDump_SkipsUnchangedDump(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	stats, err := s.ImportDump(strings.NewReader(testDump))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.False(t, stats.Skipped)
	assert.Equal(t, ComputeDumpHash([]byte(testDump)), stats.Hash)

	again, err := s.ImportDump(strings.NewReader(testDump))
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, 3, again.Entries)

	stick, err := s.EntryByExpr("item:minecraft:stick")
	require.NoError(t, err)
	require.NotNil(t, stick)
	assert.Equal(t, "Stick", stick.First("_name"))
	assert.Equal(t, []string{"forge:rods", "minecraft:sticks"}, stick.Properties["tags"])

	smaller := `[{"expr": "fluid:lava", "properties": {}}]`
	stats, err = s.ImportDump(strings.NewReader(smaller))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	n, err := s.CountEntries()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportDump_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.ImportDump(strings.NewReader(`{"expr": 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import dump: decode")

	n, err := s.CountEntries()
	require.NoError(t, err)
	assert.Zero(t, n)
}
