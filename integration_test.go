package zenls

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/zenls/internal/bracket"
)

func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// newIntegrationEngine loads testdata/project with its bracket dump mirrored
// into a temp database.
func newIntegrationEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	project := filepath.Join(findModuleRoot(t), "testdata", "project")

	mirror, err := bracket.OpenMirror(filepath.Join(t.TempDir(), "brackets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })
	f, err := os.Open(filepath.Join(project, "brackets.json"))
	require.NoError(t, err)
	defer f.Close()
	stats, err := mirror.Store().ImportDump(f)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Entries)

	e := New(WithBracketService(mirror))
	require.NoError(t, e.LoadDir(context.Background(), project))
	return e, filepath.Join(project, "scripts")
}

func TestIntegration_LoadsProject(t *testing.T) {
	t.Parallel()
	e, scripts := newIntegrationEngine(t)
	project := filepath.Dir(scripts)

	assert.Equal(t, []string{
		filepath.Join(project, "generated", "crafttweaker", "item", "IItemStack.d.zs"),
		filepath.Join(project, "generated", "globals.d.zs"),
		filepath.Join(scripts, "main.zs"),
		filepath.Join(scripts, "recipes", "wood.zs"),
	}, e.Units())

	for _, name := range []string{"main.zs", filepath.Join("recipes", "wood.zs")} {
		diags, err := e.Query().Diagnostics(context.Background(), filepath.Join(scripts, name))
		require.NoError(t, err)
		assert.Empty(t, diags, name)
	}
}

func TestIntegration_CrossFileDefinition(t *testing.T) {
	t.Parallel()
	e, scripts := newIntegrationEngine(t)
	q := e.Query()
	ctx := context.Background()
	wood := filepath.Join(scripts, "recipes", "wood.zs")
	main := filepath.Join(scripts, "main.zs")

	// val planks = counter + 4;
	locs, err := q.DefinitionAt(ctx, wood, Position{Line: 1, Column: 14})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, Location{File: main, StartLine: 3, StartCol: 7, EndLine: 3, EndCol: 14}, locs[0])

	// val helper = scripts.main.twice(planks);
	locs, err = q.DefinitionAt(ctx, wood, Position{Line: 2, Column: 27})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, main, locs[0].File)
	assert.Equal(t, 6, locs[0].StartLine)
	assert.Equal(t, 9, locs[0].StartCol)

	h, err := q.HoverAt(ctx, wood, Position{Line: 1, Column: 5})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "```zenscript\nval planks as int\n```", h.Markdown)
}

func TestIntegration_LibraryTypes(t *testing.T) {
	t.Parallel()
	e, scripts := newIntegrationEngine(t)
	main := filepath.Join(scripts, "main.zs")

	// val made = craft(IItemStack.empty(), counter);
	h, err := e.Query().HoverAt(context.Background(), main, Position{Line: 15, Column: 5})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "```zenscript\nval made as crafttweaker.item.IItemStack\n```", h.Markdown)

	// print(made.displayName);
	items, err := e.Query().CompletionsAt(context.Background(), main, Position{Line: 16, Column: 13})
	require.NoError(t, err)
	assert.Equal(t, []string{"displayName"}, names(items))
}

func TestIntegration_BracketMirror(t *testing.T) {
	t.Parallel()
	e, scripts := newIntegrationEngine(t)
	main := filepath.Join(scripts, "main.zs")
	ctx := context.Background()

	// val stick = <item:minecraft:stick>;
	h, err := e.Query().HoverAt(ctx, main, Position{Line: 4, Column: 20})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "**Stick**")
	assert.Contains(t, h.Markdown, "data:image/png;base64,iVBORw0KGgo=")

	text := "val a = <item:minecraft:st"
	wood := filepath.Join(scripts, "recipes", "wood.zs")
	require.NoError(t, e.Apply(ctx, Event{Kind: Changed, Path: wood, Text: &text}))
	items, err := e.Query().CompletionsAt(ctx, wood, Position{Line: 1, Column: len(text)})
	require.NoError(t, err)
	assert.Equal(t, []string{"item:minecraft:stick", "item:minecraft:stone"}, names(items))
}
