package bracket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDump = `[
  {"expr": "item:minecraft:stick", "properties": {"_name": ["Stick"]}},
  {"expr": "item:minecraft:stone", "properties": {"_name": ["Stone"]}}
]`

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := OpenMirror(filepath.Join(t.TempDir(), "brackets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	_, err = m.Store().ImportDump(strings.NewReader(testDump))
	require.NoError(t, err)
	return m
}

// newTestServer serves a fixed set of entries the way a remote bracket
// service does.
func newTestServer(t *testing.T, entries map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/entry", func(w http.ResponseWriter, r *http.Request) {
		expr := r.URL.Query().Get("expr")
		name, ok := entries[expr]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"expr":       expr,
			"properties": map[string][]string{KeyName: {name}},
		})
	})
	mux.HandleFunc("/complete", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		out := []string{}
		for _, expr := range []string{"item:minecraft:stick", "item:mod:gear", "item:mod:wrench"} {
			if _, ok := entries[expr]; ok && strings.HasPrefix(expr, prefix) {
				out = append(out, expr)
			}
		}
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		json.NewEncoder(w).Encode(out)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type failing struct{}

func (failing) Entry(context.Context, string) (*Entry, error) {
	return nil, errors.New("boom")
}

func (failing) Complete(context.Context, string, int) ([]string, error) {
	return nil, errors.New("boom")
}

// =============================================================================
// Expr
// =============================================================================

func TestExpr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "item:minecraft:stick", Expr("<item:minecraft:stick>"))
	assert.Equal(t, "item:minecraft:stick", Expr("item:minecraft:stick"))
	assert.Equal(t, "fluid:water", Expr("< fluid:water >"))
}

// =============================================================================
// Mirror
// =============================================================================

func TestMirror_Entry(t *testing.T) {
	t.Parallel()
	m := newTestMirror(t)
	ctx := context.Background()

	e, err := m.Entry(ctx, "item:minecraft:stick")
	require.NoError(t, err)
	assert.Equal(t, "Stick", e.First(KeyName))

	_, err = m.Entry(ctx, "item:minecraft:dirt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMirror_Complete(t *testing.T) {
	t.Parallel()
	m := newTestMirror(t)
	got, err := m.Complete(context.Background(), "item:minecraft:st", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"item:minecraft:stick", "item:minecraft:stone"}, got)
}

// =============================================================================
// Remote
// =============================================================================

func TestRemote_Entry(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, map[string]string{"item:mod:gear": "Gear"})
	r := NewRemote(srv.URL+"/", nil)
	ctx := context.Background()

	e, err := r.Entry(ctx, "item:mod:gear")
	require.NoError(t, err)
	assert.Equal(t, "item:mod:gear", e.Expr)
	assert.Equal(t, "Gear", e.First(KeyName))

	_, err = r.Entry(ctx, "item:mod:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemote_Complete(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, map[string]string{"item:mod:gear": "Gear", "item:mod:wrench": "Wrench"})
	r := NewRemote(srv.URL, srv.Client())

	got, err := r.Complete(context.Background(), "item:mod:", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"item:mod:gear", "item:mod:wrench"}, got)

	got, err = r.Complete(context.Background(), "item:mod:", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"item:mod:gear"}, got)
}

func TestRemote_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := NewRemote(srv.URL, nil).Entry(context.Background(), "item:x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 500")
}

// =============================================================================
// Chain
// =============================================================================

func TestChain_EntryFallsThroughNotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, map[string]string{"item:mod:gear": "Gear"})
	c := Chain{newTestMirror(t), NewRemote(srv.URL, nil)}
	ctx := context.Background()

	local, err := c.Entry(ctx, "item:minecraft:stick")
	require.NoError(t, err)
	assert.Equal(t, "Stick", local.First(KeyName))

	remote, err := c.Entry(ctx, "item:mod:gear")
	require.NoError(t, err)
	assert.Equal(t, "Gear", remote.First(KeyName))

	_, err = c.Entry(ctx, "item:nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChain_EntryStopsOnError(t *testing.T) {
	t.Parallel()
	c := Chain{failing{}, newTestMirror(t)}
	_, err := c.Entry(context.Background(), "item:minecraft:stick")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestChain_CompleteMergesAndSkipsFailures(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, map[string]string{"item:minecraft:stick": "Stick", "item:mod:gear": "Gear"})
	c := Chain{failing{}, newTestMirror(t), NewRemote(srv.URL, nil)}

	got, err := c.Complete(context.Background(), "item:", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"item:minecraft:stick", "item:minecraft:stone", "item:mod:gear"}, got)

	limited, err := c.Complete(context.Background(), "item:", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
