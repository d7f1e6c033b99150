package syntax

import "fmt"

// PrimitiveNames are the keywords that name built-in types.
var PrimitiveNames = map[string]bool{
	"any":    true,
	"bool":   true,
	"byte":   true,
	"short":  true,
	"int":    true,
	"long":   true,
	"float":  true,
	"double": true,
	"string": true,
	"void":   true,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true,
	"%=": true, "~=": true, "&=": true, "|=": true, "^=": true,
}

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", "<=", ">", ">=", "has", "in", "instanceof"},
	{"to", ".."},
	{"+", "-", "~"},
	{"*", "/", "%"},
}

// Parse builds a syntax tree from src. Parsing never fails: problems are
// reported in Tree.Diagnostics and the parser resynchronizes at the next
// statement boundary.
func Parse(src string) *Tree {
	toks, diags := Lex(src)
	p := &parser{src: src, toks: toks, diags: diags}
	root := p.compilationUnit()
	return &Tree{Root: root, Source: src, Diagnostics: p.diags}
}

type parser struct {
	src   string
	toks  []Token
	pos   int
	diags []Diagnostic
}

type mark struct {
	pos Position
	off int
}

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) peek(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) at(s string) bool { return p.cur().Is(s) }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(s string) bool {
	if p.at(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(s string) bool {
	if p.accept(s) {
		return true
	}
	p.errorf(p.cur(), "expected %q, found %s", s, describe(p.cur()))
	return false
}

func (p *parser) errorf(t Token, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Range:   Range{Start: t.Start, End: t.End},
		Message: fmt.Sprintf(format, args...),
	})
}

func describe(t Token) string {
	if t.Kind == TokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Text)
}

func (p *parser) mark() mark {
	t := p.cur()
	return mark{pos: t.Start, off: t.Offset}
}

// finish sets n's range from m to the end of the last consumed token.
func (p *parser) finish(n *Node, m mark) *Node {
	end, endOff := m.pos, m.off
	if p.pos > 0 {
		if prev := p.toks[p.pos-1]; prev.EndOffset > m.off {
			end, endOff = prev.End, prev.EndOffset
		}
	}
	n.SetRange(Range{Start: m.pos, End: end}, p.src[m.off:endOff])
	return n
}

func (p *parser) leaf(kind Kind) *Node {
	t := p.next()
	n := NewNode(kind, Range{Start: t.Start, End: t.End}, t.Text)
	n.SetToken(t.Kind)
	return n
}

// recover skips to just past the next ';', or to the next '}'.
func (p *parser) recover() {
	for {
		t := p.cur()
		switch {
		case t.Kind == TokenEOF, t.Is("}"):
			return
		case t.Is(";"):
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) ident() *Node {
	if p.cur().Kind != TokenIdent {
		p.errorf(p.cur(), "expected identifier, found %s", describe(p.cur()))
		return nil
	}
	return p.leaf(KindIdentifier)
}

// --- Declarations ---

func (p *parser) compilationUnit() *Node {
	root := NewNode(KindCompilationUnit, Range{}, "")
	for p.cur().Kind != TokenEOF {
		start := p.pos
		root.Append("", p.topLevel())
		if p.pos == start {
			p.errorf(p.cur(), "unexpected %s", describe(p.cur()))
			p.next()
		}
	}
	root.SetRange(Range{Start: Position{Line: 1}, End: p.cur().Start}, p.src)
	return root
}

func (p *parser) topLevel() *Node {
	switch {
	case p.at("import"):
		return p.importDecl()
	case p.at("zenClass"), p.at("frigginClass"):
		return p.classDecl()
	}
	return p.statement()
}

func (p *parser) importDecl() *Node {
	m := p.mark()
	p.next()
	n := NewNode(KindImportDecl, Range{}, "")
	n.Append("name", p.qualifiedName())
	if p.accept("as") {
		n.Append("alias", p.ident())
	}
	if !p.expect(";") {
		p.recover()
	}
	return p.finish(n, m)
}

func (p *parser) qualifiedName() *Node {
	m := p.mark()
	n := NewNode(KindQualifiedName, Range{}, "")
	n.Append("", p.ident())
	for p.at(".") && p.peek(1).Kind == TokenIdent {
		p.next()
		n.Append("", p.ident())
	}
	return p.finish(n, m)
}

func (p *parser) functionDecl() *Node {
	m := p.mark()
	n := NewNode(KindFunctionDecl, Range{}, "")
	if p.at("static") || p.at("global") {
		n.SetOp(p.next().Text)
	}
	p.expect("function")
	n.Append("name", p.ident())
	n.Append("params", p.parameterList())
	if p.accept("as") {
		n.Append("return", p.typeLit(true))
	}
	p.body(n)
	return p.finish(n, m)
}

// body parses a block, or accepts a bare ';' for declarations without one.
func (p *parser) body(n *Node) {
	if p.at("{") {
		n.Append("body", p.block())
		return
	}
	if !p.accept(";") {
		p.errorf(p.cur(), "expected function body, found %s", describe(p.cur()))
	}
}

func (p *parser) parameterList() *Node {
	m := p.mark()
	n := NewNode(KindParameterList, Range{}, "")
	if !p.expect("(") {
		return p.finish(n, m)
	}
	for !p.at(")") && p.cur().Kind != TokenEOF {
		start := p.pos
		n.Append("", p.parameter())
		if p.at(",") {
			n.AddSep(p.next().Start)
			continue
		}
		if p.pos == start {
			break
		}
		if !p.at(")") {
			break
		}
	}
	p.expect(")")
	return p.finish(n, m)
}

func (p *parser) parameter() *Node {
	m := p.mark()
	n := NewNode(KindParameter, Range{}, "")
	n.Append("name", p.ident())
	if p.accept("as") {
		n.Append("type", p.typeLit(false))
	}
	if p.accept("...") {
		n.SetOp("...")
	}
	if p.accept("=") {
		n.Append("default", p.expression())
	}
	return p.finish(n, m)
}

func (p *parser) classDecl() *Node {
	m := p.mark()
	p.next()
	n := NewNode(KindClassDecl, Range{}, "")
	n.Append("name", p.ident())
	if p.at("extends") {
		sm := p.mark()
		p.next()
		supers := NewNode(KindSuperList, Range{}, "")
		supers.Append("", p.qualifiedName())
		for p.accept(",") {
			supers.Append("", p.qualifiedName())
		}
		n.Append("extends", p.finish(supers, sm))
	}
	bm := p.mark()
	body := NewNode(KindClassBody, Range{}, "")
	if p.expect("{") {
		for !p.at("}") && p.cur().Kind != TokenEOF {
			start := p.pos
			body.Append("", p.classMember())
			if p.pos == start {
				p.errorf(p.cur(), "unexpected %s in class body", describe(p.cur()))
				p.next()
			}
		}
		p.expect("}")
	}
	n.Append("body", p.finish(body, bm))
	return p.finish(n, m)
}

func (p *parser) classMember() *Node {
	switch {
	case p.at("zenConstructor"), p.at("frigginConstructor"):
		m := p.mark()
		p.next()
		n := NewNode(KindConstructorDecl, Range{}, "")
		n.Append("params", p.parameterList())
		p.body(n)
		return p.finish(n, m)
	case p.at("operator"):
		return p.operatorDecl()
	case p.at("function"):
		return p.functionDecl()
	case (p.at("static") || p.at("global")) && p.peek(1).Is("function"):
		return p.functionDecl()
	case p.at("var"), p.at("val"), p.at("static"), p.at("global"):
		return p.variableDecl()
	}
	return nil
}

func (p *parser) operatorDecl() *Node {
	m := p.mark()
	p.next()
	n := NewNode(KindOperatorFunctionDecl, Range{}, "")
	n.SetOp(p.operatorLiteral())
	n.Append("params", p.parameterList())
	if p.accept("as") {
		n.Append("return", p.typeLit(true))
	}
	p.body(n)
	return p.finish(n, m)
}

func (p *parser) operatorLiteral() string {
	t := p.cur()
	switch {
	case t.Is("["):
		p.next()
		p.expect("]")
		if p.accept("=") {
			return "[]="
		}
		return "[]"
	case t.Is("."):
		p.next()
		if p.accept("=") {
			return ".="
		}
		return "."
	case t.Kind == TokenPunct && !t.Is("("), t.Kind == TokenKeyword:
		p.next()
		return t.Text
	}
	p.errorf(t, "expected operator, found %s", describe(t))
	return ""
}

func (p *parser) variableDecl() *Node {
	m := p.mark()
	n := NewNode(KindVariableDecl, Range{}, "")
	n.SetOp(p.next().Text)
	n.Append("name", p.ident())
	if p.accept("as") {
		n.Append("type", p.typeLit(true))
	}
	if p.accept("=") {
		n.Append("init", p.expression())
	}
	if !p.expect(";") {
		p.recover()
	}
	return p.finish(n, m)
}

// --- Statements ---

func (p *parser) block() *Node {
	m := p.mark()
	n := NewNode(KindBlock, Range{}, "")
	p.expect("{")
	for !p.at("}") && p.cur().Kind != TokenEOF {
		start := p.pos
		n.Append("", p.statement())
		if p.pos == start {
			p.errorf(p.cur(), "unexpected %s", describe(p.cur()))
			p.next()
		}
	}
	p.expect("}")
	return p.finish(n, m)
}

func (p *parser) statement() *Node {
	m := p.mark()
	switch {
	case p.at("{"):
		return p.block()
	case p.at(";"):
		p.next()
		return nil
	case p.at("import"):
		return p.importDecl()
	case p.at("zenClass"), p.at("frigginClass"):
		return p.classDecl()
	case p.at("function") && p.peek(1).Kind == TokenIdent:
		return p.functionDecl()
	case (p.at("static") || p.at("global")) && p.peek(1).Is("function"):
		return p.functionDecl()
	case p.at("var"), p.at("val"), p.at("static"), p.at("global"):
		return p.variableDecl()
	case p.at("return"):
		p.next()
		n := NewNode(KindReturnStmt, Range{}, "")
		if !p.at(";") && !p.at("}") {
			n.Append("value", p.expression())
		}
		if !p.expect(";") {
			p.recover()
		}
		return p.finish(n, m)
	case p.at("if"):
		p.next()
		n := NewNode(KindIfStmt, Range{}, "")
		n.Append("cond", p.expression())
		n.Append("then", p.statement())
		if p.accept("else") {
			n.Append("else", p.statement())
		}
		return p.finish(n, m)
	case p.at("for"):
		return p.foreach()
	case p.at("while"):
		p.next()
		n := NewNode(KindWhileStmt, Range{}, "")
		n.Append("cond", p.expression())
		n.Append("body", p.block())
		return p.finish(n, m)
	case p.at("break"), p.at("continue"):
		kind := KindBreakStmt
		if p.next().Text == "continue" {
			kind = KindContinueStmt
		}
		n := NewNode(kind, Range{}, "")
		p.expect(";")
		return p.finish(n, m)
	}
	n := NewNode(KindExprStmt, Range{}, "")
	n.Append("expr", p.expression())
	if !p.expect(";") {
		p.recover()
	}
	return p.finish(n, m)
}

func (p *parser) foreach() *Node {
	m := p.mark()
	p.next()
	n := NewNode(KindForeachStmt, Range{}, "")
	vm := p.mark()
	vars := NewNode(KindForeachVarList, Range{}, "")
	for {
		fm := p.mark()
		id := p.ident()
		if id == nil {
			break
		}
		v := NewNode(KindForeachVariable, Range{}, "")
		v.Append("name", id)
		vars.Append("", p.finish(v, fm))
		if !p.accept(",") {
			break
		}
	}
	n.Append("vars", p.finish(vars, vm))
	p.expect("in")
	n.Append("iter", p.expression())
	n.Append("body", p.block())
	return p.finish(n, m)
}

// --- Expressions ---

func (p *parser) expression() *Node { return p.assignment() }

func (p *parser) assignment() *Node {
	m := p.mark()
	left := p.ternary()
	if t := p.cur(); t.Kind == TokenPunct && assignOps[t.Text] {
		p.next()
		n := NewNode(KindAssignExpr, Range{}, "")
		n.SetOp(t.Text)
		n.Append("left", left)
		n.Append("right", p.assignment())
		return p.finish(n, m)
	}
	return left
}

func (p *parser) ternary() *Node {
	m := p.mark()
	cond := p.binary(0)
	if !p.accept("?") {
		return cond
	}
	n := NewNode(KindTernaryExpr, Range{}, "")
	n.Append("cond", cond)
	n.Append("then", p.ternary())
	p.expect(":")
	n.Append("else", p.ternary())
	return p.finish(n, m)
}

func (p *parser) binaryOp(level int) (string, bool) {
	t := p.cur()
	if t.Kind != TokenPunct && t.Kind != TokenKeyword {
		return "", false
	}
	for _, op := range binaryLevels[level] {
		if t.Text == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) binary(level int) *Node {
	if level == len(binaryLevels) {
		return p.unary()
	}
	m := p.mark()
	left := p.binary(level + 1)
	for {
		op, ok := p.binaryOp(level)
		if !ok {
			return left
		}
		p.next()
		var n *Node
		switch op {
		case "instanceof":
			n = NewNode(KindInstanceofExpr, Range{}, "")
			n.Append("left", left)
			n.Append("type", p.typeLit(false))
		case "to", "..":
			n = NewNode(KindIntRangeExpr, Range{}, "")
			n.Append("from", left)
			n.Append("to", p.binary(level+1))
		default:
			n = NewNode(KindBinaryExpr, Range{}, "")
			n.Append("left", left)
			n.Append("right", p.binary(level+1))
		}
		n.SetOp(op)
		left = p.finish(n, m)
	}
}

func (p *parser) unary() *Node {
	if p.at("!") || p.at("-") || p.at("+") {
		m := p.mark()
		n := NewNode(KindUnaryExpr, Range{}, "")
		n.SetOp(p.next().Text)
		n.Append("operand", p.unary())
		return p.finish(n, m)
	}
	return p.postfix()
}

func (p *parser) postfix() *Node {
	m := p.mark()
	expr := p.primary()
	for {
		var n *Node
		switch {
		case p.at("."):
			p.next()
			n = NewNode(KindMemberAccessExpr, Range{}, "")
			n.Append("receiver", expr)
			switch t := p.cur(); t.Kind {
			case TokenIdent, TokenKeyword, TokenString:
				n.Append("member", p.leaf(KindIdentifier))
			default:
				p.errorf(t, "expected member name, found %s", describe(t))
			}
		case p.at("("):
			n = NewNode(KindCallExpr, Range{}, "")
			n.Append("callee", expr)
			n.Append("args", p.arguments())
		case p.at("["):
			p.next()
			n = NewNode(KindIndexExpr, Range{}, "")
			n.Append("receiver", expr)
			n.Append("index", p.expression())
			p.expect("]")
		case p.at("as"):
			p.next()
			n = NewNode(KindCastExpr, Range{}, "")
			n.Append("expr", expr)
			n.Append("type", p.typeLit(false))
		default:
			return expr
		}
		expr = p.finish(n, m)
	}
}

func (p *parser) arguments() *Node {
	m := p.mark()
	n := NewNode(KindArgumentList, Range{}, "")
	p.expect("(")
	for !p.at(")") && p.cur().Kind != TokenEOF {
		start := p.pos
		n.Append("", p.expression())
		if p.at(",") {
			n.AddSep(p.next().Start)
			continue
		}
		if p.pos == start || !p.at(")") {
			break
		}
	}
	p.expect(")")
	return p.finish(n, m)
}

func (p *parser) primary() *Node {
	m := p.mark()
	t := p.cur()
	switch t.Kind {
	case TokenInt, TokenLong, TokenFloat, TokenDouble, TokenHex, TokenString, TokenTrue, TokenFalse, TokenNull:
		return p.leaf(KindLiteralExpr)
	case TokenIdent:
		return p.leaf(KindNameExpr)
	}
	switch {
	case t.Is("this"):
		return p.leaf(KindThisExpr)
	case t.Is("("):
		p.next()
		n := NewNode(KindParensExpr, Range{}, "")
		n.Append("expr", p.expression())
		p.expect(")")
		return p.finish(n, m)
	case t.Is("["):
		p.next()
		n := NewNode(KindArrayLiteralExpr, Range{}, "")
		for !p.at("]") && p.cur().Kind != TokenEOF {
			start := p.pos
			n.Append("", p.expression())
			if !p.accept(",") || p.pos == start {
				break
			}
		}
		p.expect("]")
		return p.finish(n, m)
	case t.Is("{"):
		return p.mapLiteral()
	case t.Is("<"):
		return p.bracketHandler()
	case t.Is("function"):
		p.next()
		n := NewNode(KindFunctionExpr, Range{}, "")
		n.Append("params", p.parameterList())
		if p.accept("as") {
			n.Append("return", p.typeLit(false))
		}
		n.Append("body", p.block())
		return p.finish(n, m)
	}
	p.errorf(t, "expected expression, found %s", describe(t))
	return NewNode(KindInvalidExpr, Range{Start: t.Start, End: t.Start}, "")
}

func (p *parser) mapLiteral() *Node {
	m := p.mark()
	p.next()
	n := NewNode(KindMapLiteralExpr, Range{}, "")
	for !p.at("}") && p.cur().Kind != TokenEOF {
		start := p.pos
		em := p.mark()
		entry := NewNode(KindMapEntry, Range{}, "")
		// Bare identifier keys are string keys.
		if p.cur().Kind == TokenIdent && p.peek(1).Is(":") {
			key := p.leaf(KindLiteralExpr)
			key.SetToken(TokenString)
			entry.Append("key", key)
		} else {
			entry.Append("key", p.expression())
		}
		p.expect(":")
		entry.Append("value", p.expression())
		n.Append("", p.finish(entry, em))
		if !p.accept(",") || p.pos == start {
			break
		}
	}
	p.expect("}")
	return p.finish(n, m)
}

// bracketHandler scans the raw text between '<' and the next '>' on the same
// line, since bracket contents do not follow expression syntax.
func (p *parser) bracketHandler() *Node {
	open := p.next()
	closeOff := -1
	for i := open.EndOffset; i < len(p.src) && p.src[i] != '\n'; i++ {
		if p.src[i] == '>' {
			closeOff = i
			break
		}
	}
	if closeOff < 0 {
		p.errorf(open, "unterminated bracket handler")
		n := NewNode(KindBracketHandlerExpr, Range{Start: open.Start, End: open.End}, open.Text)
		return n
	}
	for p.cur().Kind != TokenEOF && p.cur().Offset <= closeOff {
		p.next()
	}
	end := Position{Line: open.Start.Line, Column: open.Start.Column + (closeOff + 1 - open.Offset)}
	n := NewNode(KindBracketHandlerExpr, Range{Start: open.Start, End: end}, p.src[open.Offset:closeOff+1])
	n.SetOp(p.src[open.EndOffset:closeOff])
	return n
}

// --- Types ---

func (p *parser) typeLit(allowUnion bool) *Node {
	m := p.mark()
	t := p.baseType()
	if !allowUnion || !p.at("|") {
		return t
	}
	n := NewNode(KindUnionType, Range{}, "")
	n.Append("", t)
	for p.accept("|") {
		n.Append("", p.baseType())
	}
	return p.finish(n, m)
}

func (p *parser) baseType() *Node {
	m := p.mark()
	t := p.cur()
	var n *Node
	switch {
	case t.Kind == TokenKeyword && PrimitiveNames[t.Text]:
		n = p.leaf(KindPrimitiveType)
		n.SetOp(t.Text)
	case t.Is("function"):
		p.next()
		n = NewNode(KindFunctionType, Range{}, "")
		p.expect("(")
		for !p.at(")") && p.cur().Kind != TokenEOF {
			start := p.pos
			n.Append("", p.typeLit(false))
			if !p.accept(",") || p.pos == start {
				break
			}
		}
		p.expect(")")
		n.Append("return", p.baseType())
		n = p.finish(n, m)
	case t.Is("["):
		p.next()
		n = NewNode(KindListType, Range{}, "")
		n.Append("elem", p.typeLit(false))
		p.expect("]")
		n = p.finish(n, m)
	case t.Kind == TokenIdent:
		n = NewNode(KindClassType, Range{}, "")
		n.Append("name", p.qualifiedName())
		n = p.finish(n, m)
	default:
		p.errorf(t, "expected type, found %s", describe(t))
		return NewNode(KindClassType, Range{Start: t.Start, End: t.Start}, "")
	}
	for p.at("[") {
		p.next()
		if p.accept("]") {
			arr := NewNode(KindArrayType, Range{}, "")
			arr.Append("elem", n)
			n = p.finish(arr, m)
			continue
		}
		mp := NewNode(KindMapType, Range{}, "")
		mp.Append("value", n)
		mp.Append("key", p.typeLit(false))
		p.expect("]")
		n = p.finish(mp, m)
	}
	return n
}
