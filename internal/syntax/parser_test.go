package syntax

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstOfKind(root *Node, kind Kind) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

func allOfKind(root *Node, kind Kind) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind() == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// =============================================================================
// Lexer
// =============================================================================

func TestLex_LiteralKinds(t *testing.T) {
	t.Parallel()
	toks, diags := Lex(`1 2l 3.5 4f 5.0d 0xFF "s" 'c' true false null`)
	require.Empty(t, diags)

	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{
		TokenInt, TokenLong, TokenDouble, TokenFloat, TokenDouble, TokenHex,
		TokenString, TokenString, TokenTrue, TokenFalse, TokenNull, TokenEOF,
	}, kinds)
}

func TestLex_RangeIsNotFraction(t *testing.T) {
	t.Parallel()
	toks, _ := Lex("1..5")
	require.Len(t, toks, 4)
	assert.Equal(t, TokenInt, toks[0].Kind)
	assert.True(t, toks[1].Is(".."))
	assert.Equal(t, TokenInt, toks[2].Kind)
}

func TestLex_SkipsComments(t *testing.T) {
	t.Parallel()
	toks, _ := Lex("# loader\n// line\n/* block\n */ var")
	require.Len(t, toks, 2)
	assert.True(t, toks[0].Is("var"))
	assert.Equal(t, Position{Line: 4, Column: 4}, toks[0].Start)
}

func TestLex_UnterminatedString(t *testing.T) {
	t.Parallel()
	_, diags := Lex(`var s = "oops`)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unterminated")
}

func TestKeywords_SortedAndUnique(t *testing.T) {
	t.Parallel()
	assert.True(t, sort.StringsAreSorted(Keywords))
	seen := map[string]bool{}
	for _, kw := range Keywords {
		assert.False(t, seen[kw], kw)
		seen[kw] = true
	}
	assert.True(t, IsKeyword("zenClass"))
	assert.False(t, IsKeyword("recipes"))
}

// =============================================================================
// Declarations
// =============================================================================

func TestParse_FunctionDecl(t *testing.T) {
	t.Parallel()
	tree := Parse("function add(a as int, b as int = 2) as int {\n  return a + b;\n}\n")
	require.Empty(t, tree.Diagnostics)

	fn := firstOfKind(tree.Root, KindFunctionDecl)
	require.NotNil(t, fn)
	assert.Equal(t, "add", fn.Field("name").Text())
	assert.Equal(t, KindPrimitiveType, fn.Field("return").Kind())

	params := fn.Field("params").Children()
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Field("name").Text())
	assert.Equal(t, "int", params[0].Field("type").Op())
	assert.Nil(t, params[0].Field("default"))
	assert.Equal(t, "2", params[1].Field("default").Text())

	assert.Equal(t, Position{Line: 1, Column: 0}, fn.Range().Start)
	assert.Equal(t, Position{Line: 3, Column: 1}, fn.Range().End)
}

func TestParse_ModifiedFunctionAndVariables(t *testing.T) {
	t.Parallel()
	tree := Parse("static function f() {}\nglobal g as string = 'x';\nval v = 1;\nvar w;\n")
	require.Empty(t, tree.Diagnostics)

	fn := firstOfKind(tree.Root, KindFunctionDecl)
	require.NotNil(t, fn)
	assert.Equal(t, "static", fn.Op())

	vars := allOfKind(tree.Root, KindVariableDecl)
	require.Len(t, vars, 3)
	assert.Equal(t, "global", vars[0].Op())
	assert.Equal(t, "string", vars[0].Field("type").Op())
	assert.Equal(t, "val", vars[1].Op())
	assert.Nil(t, vars[2].Field("init"))
}

func TestParse_ImportWithAlias(t *testing.T) {
	t.Parallel()
	tree := Parse("import crafttweaker.item.IItemStack as Stack;")
	require.Empty(t, tree.Diagnostics)

	imp := firstOfKind(tree.Root, KindImportDecl)
	require.NotNil(t, imp)
	assert.Equal(t, "crafttweaker.item.IItemStack", imp.Field("name").Text())
	assert.Len(t, imp.Field("name").Children(), 3)
	assert.Equal(t, "Stack", imp.Field("alias").Text())
}

func TestParse_ClassDeclaration(t *testing.T) {
	t.Parallel()
	src := `zenClass Vec extends Base, Other {
  var x as int;
  zenConstructor(x as int) { this.x = x; }
  function len() as int { return x; }
  operator + (o as Vec) as Vec;
  operator []= (i as int, v as int) as void;
  operator as () as int | string;
  operator - () as Vec;
}`
	tree := Parse(src)
	require.Empty(t, tree.Diagnostics)

	cls := firstOfKind(tree.Root, KindClassDecl)
	require.NotNil(t, cls)
	assert.Equal(t, "Vec", cls.Field("name").Text())
	require.NotNil(t, cls.Field("extends"))
	assert.Len(t, cls.Field("extends").Children(), 2)

	members := cls.Field("body").Children()
	require.Len(t, members, 7)
	assert.Equal(t, KindVariableDecl, members[0].Kind())
	assert.Equal(t, KindConstructorDecl, members[1].Kind())
	assert.Equal(t, KindFunctionDecl, members[2].Kind())

	var ops []string
	for _, m := range members[3:] {
		require.Equal(t, KindOperatorFunctionDecl, m.Kind())
		ops = append(ops, m.Op())
	}
	assert.Equal(t, []string{"+", "[]=", "as", "-"}, ops)
	assert.Equal(t, KindUnionType, members[5].Field("return").Kind())
	assert.Len(t, members[4].Field("params").Children(), 2)
}

func TestParse_TypeLiterals(t *testing.T) {
	t.Parallel()
	tree := Parse("var a as int[];\nvar b as [string];\nvar c as string[int];\nvar d as function(int, string)bool;\nvar e as a.b.C;")
	require.Empty(t, tree.Diagnostics)

	vars := allOfKind(tree.Root, KindVariableDecl)
	require.Len(t, vars, 5)
	assert.Equal(t, KindArrayType, vars[0].Field("type").Kind())
	assert.Equal(t, KindListType, vars[1].Field("type").Kind())

	m := vars[2].Field("type")
	require.Equal(t, KindMapType, m.Kind())
	assert.Equal(t, "string", m.Field("value").Op())
	assert.Equal(t, "int", m.Field("key").Op())

	fn := vars[3].Field("type")
	require.Equal(t, KindFunctionType, fn.Kind())
	assert.Len(t, fn.Children(), 3)
	assert.Equal(t, "bool", fn.Field("return").Op())

	assert.Equal(t, "a.b.C", vars[4].Field("type").Field("name").Text())
}

// =============================================================================
// Statements and expressions
// =============================================================================

func TestParse_Statements(t *testing.T) {
	t.Parallel()
	src := `for i, item in items {
  if item == null { continue; } else { break; }
}
while x < 10 { x += 1; }
for n in 0 .. 5 { print(n); }`
	tree := Parse(src)
	require.Empty(t, tree.Diagnostics)

	loops := allOfKind(tree.Root, KindForeachStmt)
	require.Len(t, loops, 2)
	assert.Len(t, loops[0].Field("vars").Children(), 2)
	assert.Equal(t, KindIntRangeExpr, loops[1].Field("iter").Kind())

	require.NotNil(t, firstOfKind(tree.Root, KindWhileStmt))
	require.NotNil(t, firstOfKind(tree.Root, KindContinueStmt))
	assign := firstOfKind(tree.Root, KindAssignExpr)
	require.NotNil(t, assign)
	assert.Equal(t, "+=", assign.Op())
}

func TestParse_OperatorPrecedence(t *testing.T) {
	t.Parallel()
	tree := Parse("var r = 1 + 2 * 3 == 7 && !done;")
	require.Empty(t, tree.Diagnostics)

	init := firstOfKind(tree.Root, KindVariableDecl).Field("init")
	require.Equal(t, "&&", init.Op())
	eq := init.Field("left")
	require.Equal(t, "==", eq.Op())
	sum := eq.Field("left")
	require.Equal(t, "+", sum.Op())
	assert.Equal(t, "*", sum.Field("right").Op())
	assert.Equal(t, KindUnaryExpr, init.Field("right").Kind())
}

func TestParse_PostfixChain(t *testing.T) {
	t.Parallel()
	tree := Parse("recipes.addShaped(out, [[a, b]], {key: 1})[0] as string;")
	require.Empty(t, tree.Diagnostics)

	stmt := firstOfKind(tree.Root, KindExprStmt)
	cast := stmt.Field("expr")
	require.Equal(t, KindCastExpr, cast.Kind())
	index := cast.Field("expr")
	require.Equal(t, KindIndexExpr, index.Kind())
	call := index.Field("receiver")
	require.Equal(t, KindCallExpr, call.Kind())
	assert.Equal(t, KindMemberAccessExpr, call.Field("callee").Kind())

	args := call.Field("args")
	assert.Len(t, args.Children(), 3)
	assert.Len(t, args.Seps(), 2)

	entry := firstOfKind(tree.Root, KindMapEntry)
	require.NotNil(t, entry)
	assert.Equal(t, TokenString, entry.Field("key").Token())
}

func TestParse_BracketHandler(t *testing.T) {
	t.Parallel()
	tree := Parse("val stone = <minecraft:stone:1> * 2;")
	require.Empty(t, tree.Diagnostics)

	bh := firstOfKind(tree.Root, KindBracketHandlerExpr)
	require.NotNil(t, bh)
	assert.Equal(t, "<minecraft:stone:1>", bh.Text())
	assert.Equal(t, "minecraft:stone:1", bh.Op())
	assert.Equal(t, Range{Start: Position{Line: 1, Column: 12}, End: Position{Line: 1, Column: 31}}, bh.Range())

	bin := bh.Parent()
	require.Equal(t, KindBinaryExpr, bin.Kind())
	assert.Equal(t, "2", bin.Field("right").Text())
}

func TestParse_FunctionExpressionAndTernary(t *testing.T) {
	t.Parallel()
	tree := Parse("val f = function(x as int) as int { return x > 0 ? x : -x; };")
	require.Empty(t, tree.Diagnostics)
	require.NotNil(t, firstOfKind(tree.Root, KindFunctionExpr))
	require.NotNil(t, firstOfKind(tree.Root, KindTernaryExpr))
}

func TestParse_RecoversAfterError(t *testing.T) {
	t.Parallel()
	tree := Parse("var x = ;\nvar y = 1;\nfoo(;\nvar z = 2;")
	require.NotEmpty(t, tree.Diagnostics)

	names := []string{}
	for _, v := range allOfKind(tree.Root, KindVariableDecl) {
		names = append(names, v.Field("name").Text())
	}
	assert.Equal(t, []string{"x", "y", "z"}, names)
	assert.NotNil(t, firstOfKind(tree.Root, KindInvalidExpr))
}

func TestParse_BodylessDeclarations(t *testing.T) {
	t.Parallel()
	tree := Parse("zenClass IItemStack {\n  function withAmount(n as int) as IItemStack;\n}\nglobal function print(msg as string) as void;")
	require.Empty(t, tree.Diagnostics)
	for _, fn := range allOfKind(tree.Root, KindFunctionDecl) {
		assert.Nil(t, fn.Field("body"))
	}
}

// =============================================================================
// Navigation
// =============================================================================

func TestParentLinks(t *testing.T) {
	t.Parallel()
	tree := Parse("function f() { var x = 1; }")
	Walk(tree.Root, func(n *Node) bool {
		for _, c := range n.Children() {
			assert.Same(t, n, c.Parent())
		}
		return true
	})
	assert.Nil(t, tree.Root.Parent())
}

func TestStackAt(t *testing.T) {
	t.Parallel()
	tree := Parse("var total = count + 1;")

	stack := StackAt(tree.Root, Position{Line: 1, Column: 14})
	require.NotEmpty(t, stack)
	assert.Equal(t, KindNameExpr, stack[0].Kind())
	assert.Equal(t, "count", stack[0].Text())
	assert.Same(t, tree.Root, stack[len(stack)-1])

	// The end of "count" still touches it.
	stack = StackAt(tree.Root, Position{Line: 1, Column: 17})
	require.NotEmpty(t, stack)
	assert.Equal(t, "count", stack[0].Text())

	assert.Nil(t, StackAt(tree.Root, Position{Line: 9, Column: 0}))
}

func TestEnclosing(t *testing.T) {
	t.Parallel()
	tree := Parse("function f() { while true { g(); } }")
	call := firstOfKind(tree.Root, KindCallExpr)
	require.NotNil(t, call)
	fn := Enclosing(call, KindFunctionDecl, KindClassDecl)
	require.NotNil(t, fn)
	assert.Equal(t, KindFunctionDecl, fn.Kind())
	assert.Nil(t, Enclosing(call, KindClassDecl))
}

func TestKindByName(t *testing.T) {
	t.Parallel()
	k, ok := KindByName("CallExpr")
	require.True(t, ok)
	assert.Equal(t, KindCallExpr, k)
	_, ok = KindByName("Nope")
	assert.False(t, ok)
	assert.True(t, KindBinaryExpr.IsExpression())
	assert.False(t, KindArgumentList.IsExpression())
	assert.True(t, KindMapType.IsType())
}
