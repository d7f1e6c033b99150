package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/zenls"
)

const (
	testLibrary = `zenClass IItemStack {
    val displayName as string;
    function withAmount(amount as int) as IItemStack;
}
`
	testGlobals = "global server as string;\nfunction print(message as string) as void;\n"
	testScript  = `import crafttweaker.item.IItemStack;

global counter as int = 0;

function label(item as IItemStack) as string {
    val name = item.displayName;
    return name ~ counter;
}
`
)

// newTestEngine writes a small project and returns an Engine over it with
// the path of its one script.
func newTestEngine(t *testing.T) (*zenls.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		filepath.Join("generated", "crafttweaker", "item", "IItemStack.d.zs"): testLibrary,
		filepath.Join("generated", "globals.d.zs"):                            testGlobals,
		filepath.Join("scripts", "main.zs"):                                   testScript,
	}
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	e := zenls.New(zenls.WithParallel(false))
	require.NoError(t, e.LoadDir(context.Background(), dir))
	return e, filepath.Join(dir, "scripts", "main.zs")
}

// =============================================================================
// Host functions
// =============================================================================

func TestRunSource_Units(t *testing.T) {
	t.Parallel()
	e, main := newTestEngine(t)
	rt := NewRuntime(e, "")

	script := `
all := units()
assert(len(all) == 3, 'expected 3 units, got {len(all)}')
assert(all[0]["name"] == "crafttweaker.item.IItemStack", 'got {all[0]["name"]}')
assert(all[0]["library"] == true, "expected a library unit")
assert(all[2]["path"] == main_file, 'got {all[2]["path"]}')
assert(all[2]["name"] == "scripts.main", 'got {all[2]["name"]}')
assert(all[2]["library"] == false, "expected a script unit")
`
	_, err := rt.RunSource(context.Background(), script, map[string]any{"main_file": main})
	require.NoError(t, err)
}

func TestRunSource_Symbols(t *testing.T) {
	t.Parallel()
	e, main := newTestEngine(t)
	rt := NewRuntime(e, "")

	script := `
names := []
for _, s := range symbols(main_file) {
    names.append(s["kind"] + " " + s["name"] + " as " + s["type"])
}
names
`
	got, err := rt.RunSource(context.Background(), script, map[string]any{"main_file": main})
	require.NoError(t, err)
	assert.Equal(t, []any{
		"import IItemStack as crafttweaker.item.IItemStack",
		"function label as function(crafttweaker.item.IItemStack)string",
		"variable counter as int",
		"parameter item as crafttweaker.item.IItemStack",
		"variable name as string",
	}, got)
}

func TestRunSource_GlobalsAndFindSymbol(t *testing.T) {
	t.Parallel()
	e, main := newTestEngine(t)
	rt := NewRuntime(e, "")

	script := `
gs := globals(main_file)
names := []
for _, g := range gs {
    names.append(g["name"])
}
found := find_symbol(main_file, "scripts.main.label")
assert(len(found) == 1, 'expected 1 match, got {len(found)}')
assert(found[0]["signature"] == "function label(item as crafttweaker.item.IItemStack) as string", found[0]["signature"])
assert(len(find_symbol(main_file, "nothing")) == 0, "unexpected match")
names
`
	got, err := rt.RunSource(context.Background(), script, map[string]any{"main_file": main})
	require.NoError(t, err)
	assert.Equal(t, []any{"counter", "server", "print"}, got)
}

func TestRunSource_PositionQueries(t *testing.T) {
	t.Parallel()
	e, main := newTestEngine(t)
	rt := NewRuntime(e, "")

	// Line 6 is "    val name = item.displayName;".
	script := `
assert(type_at(main_file, 6, 9) == "string", 'got {type_at(main_file, 6, 9)}')
assert(type_at(main_file, 2, 0) == nil, "blank line has no type")

items := completions(main_file, 6, 22)
assert(len(items) == 1, 'expected 1 completion, got {len(items)}')
assert(items[0]["name"] == "displayName", items[0]["name"])
assert(items[0]["kind"] == "variable", items[0]["kind"])

md := hover(main_file, 6, 9)
assert(md == "` + "```zenscript\\nval name as string\\n```" + `", md)
assert(len(diagnostics(main_file)) == 0, "expected no diagnostics")
`
	_, err := rt.RunSource(context.Background(), script, map[string]any{"main_file": main})
	require.NoError(t, err)
}

func TestRunSource_HostFunctionErrors(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	rt := NewRuntime(e, "")

	_, err := rt.RunSource(context.Background(), `type_at("x.zs", 1)`, nil)
	require.Error(t, err)

	_, err = rt.RunSource(context.Background(), `symbols(42)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string")

	_, err = rt.RunSource(context.Background(), `diagnostics("/nowhere/notes.txt")`, nil)
	require.Error(t, err)
}

func TestRunSource_WithoutEngine(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil, "")

	got, err := rt.RunSource(context.Background(), "log.Info(\"hello\")\n1 + 2", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	_, err = rt.RunSource(context.Background(), `units()`, nil)
	require.Error(t, err, "engine functions are absent without an engine")
}

// =============================================================================
// Script loading
// =============================================================================

func TestRunScript_LoadsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "count.risor"), []byte(`len(units())`), 0o644))
	e, _ := newTestEngine(t)

	got, err := NewRuntime(e, dir).RunScript(context.Background(), "count.risor", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime(nil, t.TempDir()).RunScript(context.Background(), "absent.risor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading script")
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"queries/count.risor": &fstest.MapFile{Data: []byte("1")}}
	rt := NewRuntime(nil, "", WithRuntimeFS(fsys))

	src, err := rt.LoadScript("/queries/count.risor")
	require.NoError(t, err)
	assert.Equal(t, "1", src)

	_, err = rt.LoadScript("queries/absent.risor")
	require.Error(t, err)
}

func TestImport_LocalImporterSeesHostGlobals(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.risor"), []byte(`
func library_count() {
    n := 0
    for _, u := range units() {
        if u["library"] {
            n = n + 1
        }
    }
    return n
}
`), 0o644))
	e, _ := newTestEngine(t)

	got, err := NewRuntime(e, dir).RunSource(context.Background(), "import helpers\nhelpers.library_count()", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}
