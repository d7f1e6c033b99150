package zenls

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/zenls/internal/bracket"
)

const (
	libItemStack = `zenClass IItemStack {
    val displayName as string;
    var amount as int;
    function withAmount(amount as int) as IItemStack;
    function withAmount(amount as int, tag as string) as IItemStack;
    static function empty() as IItemStack;
}
`
	libGlobals = "global server as string;\nfunction print(message as string) as void;\n"
)

// newTestProject writes a project with the standard library declarations and
// the given scripts (paths relative to the scripts directory) and returns an
// Engine for it with the scripts root.
func newTestProject(t *testing.T, scripts map[string]string, opts ...Option) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "generated", "crafttweaker", "item", "IItemStack.d.zs"), libItemStack)
	writeFile(t, filepath.Join(dir, "generated", "globals.d.zs"), libGlobals)
	root := filepath.Join(dir, "scripts")
	for name, src := range scripts {
		writeFile(t, filepath.Join(root, name), src)
	}
	return New(append([]Option{WithParallel(false)}, opts...)...), root
}

func writeFile(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

// after returns the position right after the first occurrence of marker.
func after(t *testing.T, src, marker string) Position {
	t.Helper()
	i := strings.Index(src, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q", marker)
	return offsetPos(src, i+len(marker))
}

// at returns the position of the first occurrence of marker.
func at(t *testing.T, src, marker string) Position {
	t.Helper()
	i := strings.Index(src, marker)
	require.GreaterOrEqual(t, i, 0, "marker %q", marker)
	return offsetPos(src, i)
}

func offsetPos(src string, off int) Position {
	return Position{
		Line:   1 + strings.Count(src[:off], "\n"),
		Column: off - (strings.LastIndexByte(src[:off], '\n') + 1),
	}
}

func names(items []Completion) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name
	}
	return out
}

// fakeBrackets is an in-memory bracket service.
type fakeBrackets struct {
	mu       sync.Mutex
	entries  map[string]*bracket.Entry
	prefixes []string
}

func (f *fakeBrackets) Entry(_ context.Context, expr string) (*bracket.Entry, error) {
	if e, ok := f.entries[expr]; ok {
		return e, nil
	}
	return nil, bracket.ErrNotFound
}

func (f *fakeBrackets) Complete(_ context.Context, prefix string, limit int) ([]string, error) {
	f.mu.Lock()
	f.prefixes = append(f.prefixes, prefix)
	f.mu.Unlock()
	var out []string
	for expr := range f.entries {
		if strings.HasPrefix(expr, prefix) {
			out = append(out, expr)
		}
	}
	return out, nil
}

// =============================================================================
// Completion
// =============================================================================

func TestCompletionsAt_ScopeChainThenKeywords(t *testing.T) {
	t.Parallel()
	src := "val counter = 1;\nfunction compute(x as int) as int {\n    val cost = x;\n    return co;\n}\n"
	e, root := newTestProject(t, map[string]string{"comp.zs": src})
	path := filepath.Join(root, "comp.zs")

	items, err := e.Query().CompletionsAt(context.Background(), path, after(t, src, "return co"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cost", "compute", "counter", "continue"}, names(items))
	assert.Equal(t, CompletionVariable, items[0].Kind)
	assert.Equal(t, CompletionFunction, items[1].Kind)
	assert.Equal(t, "function compute(x as int) as int", items[1].Detail)
	assert.Equal(t, CompletionKeyword, items[3].Kind)
	assert.Equal(t, "keyword", items[3].Detail)
}

func TestCompletionsAt_LaterDeclarationsAreHidden(t *testing.T) {
	t.Parallel()
	src := "val a = va;\nval value = 2;\n"
	e, root := newTestProject(t, map[string]string{"late.zs": src})

	items, err := e.Query().CompletionsAt(context.Background(), filepath.Join(root, "late.zs"), after(t, src, "= va"))
	require.NoError(t, err)
	assert.Equal(t, []string{"val", "var"}, names(items), "value is declared after the cursor")
}

func TestCompletionsAt_EnvironmentGlobals(t *testing.T) {
	t.Parallel()
	src := "val a = se;\nval b = pr;\n"
	e, root := newTestProject(t, map[string]string{"globals.zs": src})
	path := filepath.Join(root, "globals.zs")
	q := e.Query()

	items, err := q.CompletionsAt(context.Background(), path, after(t, src, "= se"))
	require.NoError(t, err)
	require.Equal(t, []string{"server"}, names(items))
	assert.Equal(t, "global server as string", items[0].Detail)

	items, err = q.CompletionsAt(context.Background(), path, after(t, src, "= pr"))
	require.NoError(t, err)
	require.Equal(t, []string{"print"}, names(items))
	assert.Equal(t, CompletionFunction, items[0].Kind)
}

func TestCompletionsAt_Members(t *testing.T) {
	t.Parallel()
	src := "import crafttweaker.item.IItemStack;\n" +
		"function f(item as IItemStack) as void {\n" +
		"    item.am;\n" +
		"    item.;\n" +
		"    IItemStack.;\n" +
		"}\n"
	e, root := newTestProject(t, map[string]string{"members.zs": src})
	path := filepath.Join(root, "members.zs")
	q := e.Query()
	ctx := context.Background()

	items, err := q.CompletionsAt(ctx, path, after(t, src, "item.am"))
	require.NoError(t, err)
	assert.Equal(t, []string{"amount"}, names(items))

	dot := after(t, src, "item.;")
	dot.Column--
	items, err = q.CompletionsAt(ctx, path, dot)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"displayName", "amount", "withAmount"}, names(items), "instance members, overloads once")

	items, err = q.CompletionsAt(ctx, path, after(t, src, "IItemStack."))
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, names(items), "static members through the class")
}

func TestCompletionsAt_BracketHandler(t *testing.T) {
	t.Parallel()
	svc := &fakeBrackets{entries: map[string]*bracket.Entry{
		"item:minecraft:stick": {Expr: "item:minecraft:stick"},
		"fluid:water":          {Expr: "fluid:water"},
	}}
	src := "val a = <item:minecraft:st\nval b = 1 <c;\n"
	e, root := newTestProject(t, map[string]string{"brackets.zs": src}, WithBracketService(svc))
	path := filepath.Join(root, "brackets.zs")
	q := e.Query()

	items, err := q.CompletionsAt(context.Background(), path, after(t, src, "<item:minecraft:st"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item:minecraft:stick", items[0].Name)
	assert.Equal(t, CompletionBracket, items[0].Kind)

	_, err = q.CompletionsAt(context.Background(), path, after(t, src, "1 <c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"item:minecraft:st"}, svc.prefixes, "a comparison is not a bracket handler")
}

func TestInsideBracket(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		line   string
		prefix string
		ok     bool
	}{
		{"val x = <", "", true},
		{"val x = <item:mine", "item:mine", true},
		{"return <fluid:", "fluid:", true},
		{"foo(<item:a>, <ore:ingot", "ore:ingot", true},
		{"val x = <item:a> + 1", "", false},
		{"if (a <b", "", false},
		{"val x = f() <", "", false},
		{"val x = 1 < 2", "", false},
	} {
		prefix, ok := insideBracket(tc.line, len(tc.line))
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.prefix, prefix, tc.line)
	}
}

// =============================================================================
// Hover
// =============================================================================

func TestHoverAt_SymbolsAndTypes(t *testing.T) {
	t.Parallel()
	src := "function twice(n as int) as int { return n * 2; }\nval total = twice(3) + 1;\n"
	e, root := newTestProject(t, map[string]string{"hover.zs": src})
	path := filepath.Join(root, "hover.zs")
	q := e.Query()
	ctx := context.Background()

	h, err := q.HoverAt(ctx, path, at(t, src, "total"))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "```zenscript\nval total as int\n```", h.Markdown)
	assert.Equal(t, 2, h.Location.StartLine)

	h, err = q.HoverAt(ctx, path, at(t, src, "twice(3)"))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "function twice(n as int) as int")

	h, err = q.HoverAt(ctx, path, after(t, src, "twice(3) "))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "```zenscript\nint\n```", h.Markdown, "operators show the expression type")
}

func TestHoverAt_BracketHandler(t *testing.T) {
	t.Parallel()
	svc := &fakeBrackets{entries: map[string]*bracket.Entry{
		"item:minecraft:stick": {Expr: "item:minecraft:stick", Properties: map[string][]string{
			bracket.KeyName: {"Stick"},
			bracket.KeyIcon: {"iVBORw0KGgo="},
		}},
	}}
	src := "val a = <item:minecraft:stick>;\nval b = <item:unknown:thing>;\n"
	e, root := newTestProject(t, map[string]string{"bh.zs": src}, WithBracketService(svc))
	path := filepath.Join(root, "bh.zs")
	q := e.Query()

	h, err := q.HoverAt(context.Background(), path, after(t, src, "<item:mine"))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "**Stick**")
	assert.Contains(t, h.Markdown, "`<item:minecraft:stick>`")
	assert.Contains(t, h.Markdown, "data:image/png;base64,iVBORw0KGgo=")
	assert.Equal(t, 8, h.Location.StartCol)

	h, err = q.HoverAt(context.Background(), path, after(t, src, "<item:unk"))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "`<item:unknown:thing>`", h.Markdown)
}

func TestBracketMarkdown_ErrorMessage(t *testing.T) {
	t.Parallel()
	md := bracketMarkdown("item:x", &bracket.Entry{Properties: map[string][]string{
		bracket.KeyErrorMessage: {"texture not found"},
	}})
	assert.Equal(t, "`<item:x>`\n\n*texture not found*", md)
}

// =============================================================================
// Semantic tokens
// =============================================================================

func TestSemanticTokensFor_RelativeEncoding(t *testing.T) {
	t.Parallel()
	src := "val x = 1;\nvar y = x;\n"
	e, root := newTestProject(t, map[string]string{"tok.zs": src})

	toks, err := e.Query().SemanticTokensFor(context.Background(), filepath.Join(root, "tok.zs"))
	require.NoError(t, err)
	kw, variable := uint32(TokenKeyword), uint32(TokenVariable)
	assert.Equal(t, []uint32{
		0, 0, 3, kw, 0,
		0, 4, 1, variable, ModifierDefinition | ModifierReadonly,
		1, 0, 3, kw, 0,
		0, 4, 1, variable, ModifierDefinition,
		0, 4, 1, variable, ModifierReadonly,
	}, toks.Data)
}

func TestSemanticTokensFor_Kinds(t *testing.T) {
	t.Parallel()
	src := "import crafttweaker.item.IItemStack;\n" +
		"static limit as int = 3;\n" +
		"function f(item as IItemStack) as int {\n" +
		"    return item.amount + limit;\n" +
		"}\n"
	e, root := newTestProject(t, map[string]string{"kinds.zs": src})

	toks, err := e.Query().SemanticTokensFor(context.Background(), filepath.Join(root, "kinds.zs"))
	require.NoError(t, err)
	decoded := decodeTokens(toks.Data)

	assert.Equal(t, semToken{typ: TokenVariable, mods: ModifierStatic | ModifierDefinition | ModifierReadonly},
		decoded[at(t, src, "limit as")])
	assert.Equal(t, semToken{typ: TokenFunction, mods: ModifierDefinition}, decoded[at(t, src, "f(")])
	assert.Equal(t, semToken{typ: TokenParameter, mods: ModifierDefinition}, decoded[at(t, src, "item as")])
	assert.Equal(t, semToken{typ: TokenClass}, decoded[at(t, src, "IItemStack) as")])
	assert.Equal(t, semToken{typ: TokenProperty}, decoded[at(t, src, "amount")])
	assert.Equal(t, semToken{typ: TokenVariable, mods: ModifierStatic | ModifierReadonly}, decoded[at(t, src, "limit;")])
}

// decodeTokens maps each token's start to its type and modifiers.
func decodeTokens(data []uint32) map[Position]semToken {
	out := make(map[Position]semToken)
	line, col := 1, 0
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += int(data[i])
			col = int(data[i+1])
		} else {
			col += int(data[i+1])
		}
		out[Position{Line: line, Column: col}] = semToken{typ: TokenType(data[i+3]), mods: data[i+4]}
	}
	return out
}

// =============================================================================
// Signature help
// =============================================================================

func TestSignatureHelpAt_Overloads(t *testing.T) {
	t.Parallel()
	src := "function add(a as int, b as int) as int { return a + b; }\n" +
		"function add(s as string) as string { return s; }\n" +
		"val one = add(\"x\");\n" +
		"val r = add(1, "
	e, root := newTestProject(t, map[string]string{"sig.zs": src})
	path := filepath.Join(root, "sig.zs")
	q := e.Query()
	ctx := context.Background()

	help, err := q.SignatureHelpAt(ctx, path, after(t, src, "add(1, "))
	require.NoError(t, err)
	require.NotNil(t, help)
	require.Len(t, help.Signatures, 2)
	assert.Equal(t, 1, help.ActiveParameter)
	assert.Equal(t, 0, help.ActiveSignature)
	assert.Equal(t, "function add(a as int, b as int) as int", help.Signatures[0].Label)
	assert.Equal(t, []string{"a as int", "b as int"}, help.Signatures[0].Parameters)

	help, err = q.SignatureHelpAt(ctx, path, after(t, src, "add(\"x"))
	require.NoError(t, err)
	require.NotNil(t, help)
	assert.Equal(t, 0, help.ActiveParameter)
	assert.Equal(t, 1, help.ActiveSignature, "the string overload fits the typed argument")

	help, err = q.SignatureHelpAt(ctx, path, after(t, src, "add(\"x\")"))
	require.NoError(t, err)
	assert.Nil(t, help, "past the closing parenthesis")
}

func TestSignatureHelpAt_MemberCall(t *testing.T) {
	t.Parallel()
	src := "import crafttweaker.item.IItemStack;\n" +
		"function f(item as IItemStack) as void {\n" +
		"    item.withAmount(2, \"t\");\n" +
		"}\n"
	e, root := newTestProject(t, map[string]string{"member.zs": src})

	help, err := e.Query().SignatureHelpAt(context.Background(), filepath.Join(root, "member.zs"), after(t, src, "withAmount(2, "))
	require.NoError(t, err)
	require.NotNil(t, help)
	require.Len(t, help.Signatures, 2)
	assert.Equal(t, 1, help.ActiveParameter)
	assert.Equal(t, "function withAmount(amount as int, tag as string) as crafttweaker.item.IItemStack", help.Signatures[help.ActiveSignature].Label)
}

// =============================================================================
// Definition, outline, diagnostics
// =============================================================================

func TestDefinitionAt(t *testing.T) {
	t.Parallel()
	src := "import crafttweaker.item.IItemStack;\n" +
		"function make() as IItemStack { return IItemStack.empty(); }\n" +
		"val made = make();\n" +
		"val n = made.amount;\n"
	e, root := newTestProject(t, map[string]string{"def.zs": src})
	path := filepath.Join(root, "def.zs")
	q := e.Query()
	ctx := context.Background()

	locs, err := q.DefinitionAt(ctx, path, at(t, src, "make();"))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, path, locs[0].File)
	assert.Equal(t, at(t, src, "make()"), Position{Line: locs[0].StartLine, Column: locs[0].StartCol})

	locs, err = q.DefinitionAt(ctx, path, at(t, src, "amount"))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	lib := filepath.Join(filepath.Dir(root), "generated", "crafttweaker", "item", "IItemStack.d.zs")
	assert.Equal(t, lib, locs[0].File)
	assert.Equal(t, at(t, libItemStack, "amount as int;"), Position{Line: locs[0].StartLine, Column: locs[0].StartCol})

	locs, err = q.DefinitionAt(ctx, path, after(t, src, "import crafttweaker.item.IItem"))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, lib, locs[0].File, "imports lead to the imported class")
	assert.Equal(t, at(t, libItemStack, "IItemStack {"), Position{Line: locs[0].StartLine, Column: locs[0].StartCol})
}

func TestSymbolsOf_Outline(t *testing.T) {
	t.Parallel()
	src := "val a = 1;\nfunction f(p as string) as void { val inner = p; }\n"
	e, root := newTestProject(t, map[string]string{"outline.zs": src})
	path := filepath.Join(root, "outline.zs")
	q := e.Query()
	ctx := context.Background()

	out, err := q.SymbolsOf(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "CompilationUnit", out.Kind)
	var top []string
	for _, s := range out.Symbols {
		top = append(top, s.Kind+" "+s.Name)
	}
	assert.Equal(t, []string{"function f", "variable a"}, top)
	require.Len(t, out.Children, 1)
	fn := out.Children[0]
	assert.Equal(t, "FunctionDecl", fn.Kind)
	require.Len(t, fn.Symbols, 2)
	assert.Equal(t, "p", fn.Symbols[0].Name)
	assert.Equal(t, "string", fn.Symbols[0].Type)
	assert.Equal(t, "inner", fn.Symbols[1].Name)
	assert.Equal(t, "string", fn.Symbols[1].Type)

	again, err := q.SymbolsOf(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	changed := "val a = \"s\";\n"
	require.NoError(t, e.Apply(ctx, Event{Kind: Changed, Path: path, Text: &changed}))
	assert.Equal(t, "variable a", out.Symbols[1].Kind+" "+out.Symbols[1].Name, "outlines are copies")
	updated, err := q.SymbolsOf(ctx, path)
	require.NoError(t, err)
	require.Len(t, updated.Symbols, 1)
	assert.Equal(t, "string", updated.Symbols[0].Type)
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()
	src := "val a = missing;\nval b = ;\n"
	e, root := newTestProject(t, map[string]string{"diag.zs": src})

	diags, err := e.Query().Diagnostics(context.Background(), filepath.Join(root, "diag.zs"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(diags), 2)
	assert.Equal(t, SeverityError, diags[0].Severity, "parse errors come first")
	assert.Equal(t, 2, diags[0].Location.StartLine)
	last := diags[len(diags)-1]
	assert.Equal(t, SeverityInformation, last.Severity)
	assert.Equal(t, "cannot resolve missing", last.Message)
	assert.Equal(t, 1, last.Location.StartLine)
	assert.Equal(t, 8, last.Location.StartCol)
}

// =============================================================================
// Engine
// =============================================================================

func TestQuery_UnknownDocument(t *testing.T) {
	t.Parallel()
	e, root := newTestProject(t, map[string]string{"main.zs": "val a = 1;\n"})

	_, err := e.Query().HoverAt(context.Background(), filepath.Join(root, "absent.zs"), Position{Line: 1})
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = e.Query().CompletionsAt(context.Background(), filepath.Join(root, "notes.txt"), Position{Line: 1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotLoaded))
}

func TestEngine_ApplyUpdatesQueries(t *testing.T) {
	t.Parallel()
	src := "val a = 1;\n"
	e, root := newTestProject(t, map[string]string{"main.zs": src})
	path := filepath.Join(root, "main.zs")
	ctx := context.Background()

	text := "val a = 1;\nval apple = 2;\nval z = ap;\n"
	require.NoError(t, e.Apply(ctx, Event{Kind: Changed, Path: path, Text: &text}))
	items, err := e.Query().CompletionsAt(ctx, path, after(t, text, "= ap"))
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, names(items))
}

func TestEngine_ScriptNamespaceAndLibraryDirs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	api := filepath.Join(dir, "api")
	writeFile(t, filepath.Join(api, "tools.d.zs"), "function tool() as int;\n")
	root := filepath.Join(dir, "scripts")
	writeFile(t, filepath.Join(root, "util.zs"), "function helper() as string { return \"h\"; }\n")
	main := "val h = mods.util.helper();\nval t = tool();\n"
	writeFile(t, filepath.Join(root, "main.zs"), main)

	var notices []Notice
	e := New(WithScriptNamespace("mods"), WithLibraryDirs(api), WithNotifier(func(n Notice) { notices = append(notices, n) }))
	ctx := context.Background()
	path := filepath.Join(root, "main.zs")

	h, err := e.Query().HoverAt(ctx, path, at(t, main, "h ="))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "val h as string")

	h, err = e.Query().HoverAt(ctx, path, at(t, main, "t ="))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "val t as int")
	assert.Empty(t, notices, "the configured library directory has declarations")
}

func TestEngine_NoticeWithoutLibrary(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	root := filepath.Join(dir, "scripts")
	writeFile(t, filepath.Join(root, "main.zs"), "val a = 1;\n")

	var notices []Notice
	e := New(WithNotifier(func(n Notice) { notices = append(notices, n) }))
	_, err := e.Query().Diagnostics(context.Background(), filepath.Join(root, "main.zs"))
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, root, notices[0].Root)
}

func TestEngine_LoadDirAndUnits(t *testing.T) {
	t.Parallel()
	e, root := newTestProject(t, map[string]string{
		"a.zs":         "val a = 1;\n",
		"recipes/b.zs": "val b = 2;\n",
	})
	dir := filepath.Dir(root)
	require.NoError(t, e.LoadDir(context.Background(), dir))

	assert.Equal(t, []string{
		filepath.Join(dir, "generated", "crafttweaker", "item", "IItemStack.d.zs"),
		filepath.Join(dir, "generated", "globals.d.zs"),
		filepath.Join(root, "a.zs"),
		filepath.Join(root, "recipes", "b.zs"),
	}, e.Units())
	assert.Equal(t, []string{dir}, e.Manager().Workspaces())
	assert.Len(t, e.Manager().Environments(), 1)
}

func TestTypeAt(t *testing.T) {
	t.Parallel()
	src := "function half(n as int) as float { return n / 2.0f; }\nval h = half(3);\nval s = \"a\" ~ h;\n"
	e, root := newTestProject(t, map[string]string{"types.zs": src})
	path := filepath.Join(root, "types.zs")
	q := e.Query()
	ctx := context.Background()

	typ, err := q.TypeAt(ctx, path, at(t, src, "h ="))
	require.NoError(t, err)
	assert.Equal(t, "float", typ)

	typ, err = q.TypeAt(ctx, path, at(t, src, "half(3)"))
	require.NoError(t, err)
	assert.Equal(t, "function(int)float", typ)

	typ, err = q.TypeAt(ctx, path, at(t, src, "~"))
	require.NoError(t, err)
	assert.Equal(t, "string", typ)
}
