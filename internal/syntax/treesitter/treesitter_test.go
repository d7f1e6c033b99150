package treesitter

import (
	"context"
	"testing"

	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/zenls/internal/resolve"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// jsGrammar maps the expression subset of JavaScript that the resolver
// understands.
func jsGrammar() Grammar {
	return Grammar{
		Language: javascript.GetLanguage(),
		Rules: map[string]Rule{
			"program": {Kind: syntax.KindCompilationUnit},
			"variable_declarator": {
				Kind:       syntax.KindVariableDecl,
				Fields:     map[string]string{"value": "init"},
				FieldKinds: map[string]syntax.Kind{"name": syntax.KindIdentifier},
			},
			"expression_statement": {
				Kind:   syntax.KindExprStmt,
				Fields: map[string]string{"": "expr"},
			},
			"call_expression": {
				Kind:   syntax.KindCallExpr,
				Fields: map[string]string{"function": "callee", "arguments": "args"},
			},
			"arguments": {Kind: syntax.KindArgumentList},
			"member_expression": {
				Kind:   syntax.KindMemberAccessExpr,
				Fields: map[string]string{"object": "receiver", "property": "member"},
			},
			"binary_expression":   {Kind: syntax.KindBinaryExpr},
			"property_identifier": {Kind: syntax.KindIdentifier},
			"identifier":          {Kind: syntax.KindNameExpr},
			"number":              {Kind: syntax.KindLiteralExpr, Token: syntax.TokenInt},
		},
		Separators: []string{","},
	}
}

const jsSource = "let total = add(1, 2);\nconsole.log(total * 2);\n"

func parseJS(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := Parse(context.Background(), jsGrammar(), []byte(src))
	require.NoError(t, err)
	require.NotNil(t, tree.Root)
	return tree
}

func firstOf(tree *syntax.Tree, k syntax.Kind) *syntax.Node {
	var found *syntax.Node
	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		if found == nil && n.Kind() == k {
			found = n
		}
		return found == nil
	})
	return found
}

type noGlobals struct{}

func (noGlobals) Lookup(string, bool, ...semantic.SymbolKind) []*semantic.Symbol { return nil }

// =============================================================================
// Conversion
// =============================================================================

func TestParse_MapsKindsAndFields(t *testing.T) {
	t.Parallel()
	tree := parseJS(t, jsSource)

	assert.Empty(t, tree.Diagnostics)
	assert.Equal(t, syntax.KindCompilationUnit, tree.Root.Kind())
	assert.Equal(t, jsSource, tree.Source)

	// lexical_declaration has no rule; its declarator attaches to the root.
	children := tree.Root.Children()
	require.Len(t, children, 2)
	decl, stmt := children[0], children[1]

	assert.Equal(t, syntax.KindVariableDecl, decl.Kind())
	require.NotNil(t, decl.Field("name"))
	assert.Equal(t, syntax.KindIdentifier, decl.Field("name").Kind())
	assert.Equal(t, "total", decl.Field("name").Text())

	init := decl.Field("init")
	require.NotNil(t, init)
	assert.Equal(t, syntax.KindCallExpr, init.Kind())
	assert.Equal(t, "add", init.Field("callee").Text())

	args := init.Field("args")
	require.NotNil(t, args)
	assert.Equal(t, syntax.KindArgumentList, args.Kind())
	assert.Len(t, args.Children(), 2)
	assert.Equal(t, []syntax.Position{{Line: 1, Column: 17}}, args.Seps())

	assert.Equal(t, syntax.KindExprStmt, stmt.Kind())
	call := stmt.Field("expr")
	require.NotNil(t, call)
	callee := call.Field("callee")
	require.NotNil(t, callee)
	assert.Equal(t, syntax.KindMemberAccessExpr, callee.Kind())
	assert.Equal(t, "console", callee.Field("receiver").Text())
	assert.Equal(t, syntax.KindIdentifier, callee.Field("member").Kind())
}

func TestParse_OperatorsTokensAndRanges(t *testing.T) {
	t.Parallel()
	tree := parseJS(t, jsSource)

	bin := firstOf(tree, syntax.KindBinaryExpr)
	require.NotNil(t, bin)
	assert.Equal(t, "*", bin.Op())
	assert.Equal(t, "total * 2", bin.Text())
	assert.Equal(t, syntax.Range{
		Start: syntax.Position{Line: 2, Column: 12},
		End:   syntax.Position{Line: 2, Column: 21},
	}, bin.Range())

	lit := bin.Field("right")
	require.NotNil(t, lit)
	assert.Equal(t, syntax.KindLiteralExpr, lit.Kind())
	assert.Equal(t, syntax.TokenInt, lit.Token())
}

func TestParse_ErrorsBecomeDiagnostics(t *testing.T) {
	t.Parallel()
	tree := parseJS(t, "let x = add(1, ;\n")

	assert.NotEmpty(t, tree.Diagnostics)
	for _, d := range tree.Diagnostics {
		assert.Equal(t, 1, d.Range.Start.Line)
	}
}

// =============================================================================
// Resolution
// =============================================================================

func TestParse_TreeFeedsResolver(t *testing.T) {
	t.Parallel()
	tree := parseJS(t, jsSource)
	res := resolve.Run(tree, resolve.UnitInfo{Path: "main.js", QualifiedName: "main"}, noGlobals{})

	decl := tree.Root.Children()[0]
	sym := res.Symbols[decl]
	require.NotNil(t, sym)
	assert.Equal(t, "total", sym.Name)

	ref := firstOf(tree, syntax.KindBinaryExpr).Field("left")
	require.NotNil(t, ref)
	assert.Same(t, sym, res.Symbols[ref])
	assert.Equal(t, semantic.Int, res.Types[firstOf(tree, syntax.KindLiteralExpr)])

	var unresolved []string
	for _, n := range res.Unresolved {
		unresolved = append(unresolved, n.Text())
	}
	assert.Equal(t, []string{"add", "console"}, unresolved)
}
