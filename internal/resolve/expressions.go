package resolve

import (
	"strings"

	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

var valueKinds = []semantic.SymbolKind{
	semantic.SymbolVariable,
	semantic.SymbolParameter,
	semantic.SymbolFunction,
	semantic.SymbolClass,
	semantic.SymbolImport,
}

// expr types n and its subexpressions, records the result and returns it.
// Each node is typed once per pass. A nil node has type Any.
func (p *Pass) expr(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	if n == nil {
		return semantic.Any
	}
	if t, ok := p.res.Types[n]; ok {
		return t
	}
	t := p.typeExpr(n, scope)
	if t == nil {
		t = semantic.Any
	}
	p.res.Types[n] = t
	return t
}

func (p *Pass) typeExpr(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	switch n.Kind() {
	case syntax.KindLiteralExpr:
		return literalType(n)
	case syntax.KindNameExpr:
		sym := p.lookupValue(n.Text(), scope)
		if sym == nil {
			p.res.Unresolved = append(p.res.Unresolved, n)
			return semantic.Any
		}
		p.res.Symbols[n] = sym
		return symbolType(sym)
	case syntax.KindThisExpr:
		if len(p.classStack) > 0 {
			return p.classStack[len(p.classStack)-1].TypeOf()
		}
		return semantic.Any
	case syntax.KindParensExpr:
		return p.expr(n.Field("expr"), scope)
	case syntax.KindArrayLiteralExpr:
		var elem semantic.Type
		for i, c := range n.Children() {
			t := p.expr(c, scope)
			if i == 0 {
				elem = t
			}
		}
		if elem == nil {
			elem = semantic.Any
		}
		return &semantic.ArrayType{Elem: elem}
	case syntax.KindMapLiteralExpr:
		m := &semantic.MapType{Key: semantic.Any, Value: semantic.Any}
		for i, entry := range n.Children() {
			k := p.expr(entry.Field("key"), scope)
			v := p.expr(entry.Field("value"), scope)
			if i == 0 {
				m.Key, m.Value = k, v
			}
		}
		return m
	case syntax.KindBracketHandlerExpr:
		return semantic.Any
	case syntax.KindFunctionExpr:
		return p.functionExpr(n, scope)
	case syntax.KindCallExpr:
		return p.call(n, scope)
	case syntax.KindMemberAccessExpr:
		return p.memberAccess(n, scope)
	case syntax.KindIndexExpr:
		recv := p.expr(n.Field("receiver"), scope)
		idx := p.expr(n.Field("index"), scope)
		return semantic.BinaryResult(recv, semantic.OpIndexGet, idx)
	case syntax.KindCastExpr:
		p.expr(n.Field("expr"), scope)
		return p.typeOrAny(n.Field("type"), scope)
	case syntax.KindInstanceofExpr:
		p.expr(n.Field("left"), scope)
		p.resolveType(n.Field("type"), scope)
		return semantic.Bool
	case syntax.KindUnaryExpr:
		return p.unary(n, scope)
	case syntax.KindBinaryExpr:
		return p.binary(n, scope)
	case syntax.KindTernaryExpr:
		p.expr(n.Field("cond"), scope)
		then := p.expr(n.Field("then"), scope)
		p.expr(n.Field("else"), scope)
		return then
	case syntax.KindAssignExpr:
		left := p.expr(n.Field("left"), scope)
		p.expr(n.Field("right"), scope)
		return left
	case syntax.KindIntRangeExpr:
		p.expr(n.Field("from"), scope)
		p.expr(n.Field("to"), scope)
		return semantic.IntRange
	}
	return semantic.Any
}

// literalType types a literal by the token it was lexed from.
func literalType(n *syntax.Node) semantic.Type {
	switch n.Token() {
	case syntax.TokenInt, syntax.TokenHex:
		return semantic.Int
	case syntax.TokenLong:
		return semantic.Long
	case syntax.TokenFloat:
		return semantic.Float
	case syntax.TokenDouble:
		return semantic.Double
	case syntax.TokenString:
		return semantic.String
	case syntax.TokenTrue, syntax.TokenFalse:
		return semantic.Bool
	case syntax.TokenNull:
		return semantic.Any
	}
	return semantic.Error
}

// lookupValue resolves a name in expression position: the scope chain, then
// the environment.
func (p *Pass) lookupValue(name string, scope *semantic.Scope) *semantic.Symbol {
	if sym := scope.Lookup(name, valueKinds...); sym != nil {
		return sym
	}
	if found := p.lookupGlobal(name, valueKinds...); len(found) > 0 {
		return found[0]
	}
	return nil
}

func (p *Pass) functionExpr(n *syntax.Node, parent *semantic.Scope) semantic.Type {
	scope := semantic.NewScope(parent, n)
	p.res.Scopes[n] = scope
	ft := &semantic.FunctionType{Return: p.typeOrAny(n.Field("return"), parent)}
	if params := n.Field("params"); params != nil {
		for _, pn := range params.Children() {
			id := pn.Field("name")
			if id == nil {
				continue
			}
			param := p.newSymbol(semantic.SymbolParameter, id.Text(), pn)
			param.Type = p.typeOrAny(pn.Field("type"), parent)
			param.Variadic = pn.Op() == "..."
			if d := pn.Field("default"); d != nil {
				param.Default = d
				p.expr(d, parent)
			}
			ft.Params = append(ft.Params, param.Type)
			scope.Add(param)
		}
	}
	if body := n.Field("body"); body != nil {
		p.hoistLocal(body.Children(), scope)
		p.statements(body.Children(), scope)
	}
	return ft
}

// call types a call. Named callees pick the best overload among the
// functions of that name; a class callee picks among its constructors.
func (p *Pass) call(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	callee := n.Field("callee")
	var args []semantic.Type
	if list := n.Field("args"); list != nil {
		for _, a := range list.Children() {
			args = append(args, p.expr(a, scope))
		}
	}

	candidates, ref := p.callCandidates(callee, scope)
	if len(candidates) == 0 {
		if ft, ok := p.expr(callee, scope).(*semantic.FunctionType); ok {
			return ft.Return
		}
		return semantic.Any
	}
	best := semantic.BestOverload(candidates, args)
	if best == nil {
		best = candidates[0]
	}
	p.res.Symbols[ref] = best
	p.res.Types[callee] = best.FunctionType()
	return best.ReturnOf()
}

// callCandidates returns the overload set a callee names and the node that
// should reference the chosen overload. Receivers of member calls are typed
// along the way.
func (p *Pass) callCandidates(callee *syntax.Node, scope *semantic.Scope) ([]*semantic.Symbol, *syntax.Node) {
	if callee == nil {
		return nil, nil
	}
	switch callee.Kind() {
	case syntax.KindNameExpr:
		name := callee.Text()
		sym := scope.Lookup(name, valueKinds...)
		switch {
		case sym == nil:
			if fns := p.lookupGlobal(name, semantic.SymbolFunction); len(fns) > 0 {
				return fns, callee
			}
			if c := p.lookupClass(name, scope); c != nil {
				return constructors(c), callee
			}
		case sym.Kind == semantic.SymbolFunction:
			return scope.Overloads(name, semantic.SymbolFunction), callee
		case sym.Kind == semantic.SymbolClass:
			return constructors(sym), callee
		case sym.Kind == semantic.SymbolImport:
			if c := sym.SimpleTarget(); c != nil {
				return constructors(c), callee
			}
			if sym.Target != nil && sym.Target.Kind == semantic.SymbolFunction {
				return []*semantic.Symbol{sym.Target}, callee
			}
		}
	case syntax.KindMemberAccessExpr:
		member := callee.Field("member")
		if member == nil {
			return nil, nil
		}
		if found := p.qualified(callee, scope, semantic.SymbolFunction); len(found) > 0 {
			return found, member
		}
		recv := p.expr(callee.Field("receiver"), scope)
		if ms := semantic.MembersNamed(recv, member.Text(), semantic.SymbolFunction); len(ms) > 0 {
			return ms, member
		}
	}
	return nil, nil
}

// constructors returns the constructor overloads of class c. A class
// without declared constructors still constructs through a synthesized one.
func constructors(c *semantic.Symbol) []*semantic.Symbol {
	var out []*semantic.Symbol
	if c.Members != nil {
		out = c.Members.Local(semantic.ConstructorName, semantic.SymbolFunction)
	}
	if len(out) == 0 {
		out = []*semantic.Symbol{{
			Kind:   semantic.SymbolFunction,
			Name:   semantic.ConstructorName,
			Node:   c.Node,
			Unit:   c.Unit,
			Return: c.TypeOf(),
			Params: []*semantic.Symbol{{Kind: semantic.SymbolParameter, Name: "args", Type: semantic.Any, Variadic: true}},
		}}
	}
	return out
}

func (p *Pass) memberAccess(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	member := n.Field("member")
	if member == nil {
		p.expr(n.Field("receiver"), scope)
		return semantic.Any
	}
	if found := p.qualified(n, scope); len(found) > 0 {
		p.res.Symbols[member] = found[0]
		return symbolType(found[0])
	}
	recv := p.expr(n.Field("receiver"), scope)
	if ms := semantic.MembersNamed(recv, member.Text()); len(ms) > 0 {
		m := ms[0]
		p.res.Symbols[member] = m
		return symbolType(m)
	}
	return semantic.BinaryResult(recv, semantic.OpMemberGet, semantic.String)
}

// qualified resolves a dotted chain such as scripts.recipes.helper or
// crafttweaker.item.IItemStack whose leftmost name is not bound locally.
// The names along the chain are left untyped by the chain itself and get
// Any when the pass finalizes.
func (p *Pass) qualified(n *syntax.Node, scope *semantic.Scope, kinds ...semantic.SymbolKind) []*semantic.Symbol {
	parts, root := dotted(n)
	if len(parts) < 2 || root == nil {
		return nil
	}
	if scope.Lookup(parts[0], valueKinds...) != nil {
		return nil
	}
	return p.lookupGlobal(strings.Join(parts, "."), kinds...)
}

// dotted returns the names of a pure name/member chain and its leftmost
// name node, or nil if n contains anything else.
func dotted(n *syntax.Node) ([]string, *syntax.Node) {
	switch n.Kind() {
	case syntax.KindNameExpr:
		return []string{n.Text()}, n
	case syntax.KindMemberAccessExpr:
		recv, member := n.Field("receiver"), n.Field("member")
		if recv == nil || member == nil {
			return nil, nil
		}
		parts, root := dotted(recv)
		if root == nil {
			return nil, nil
		}
		return append(parts, member.Text()), root
	}
	return nil, nil
}

func (p *Pass) unary(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	t := p.expr(n.Field("operand"), scope)
	switch n.Op() {
	case "+":
		return t
	case "!":
		if r := semantic.UnaryResult(t, semantic.OpNot); r.Tag() != semantic.TagAny {
			return r
		}
		return semantic.Bool
	}
	return semantic.UnaryResult(t, semantic.OperatorFromLiteral(n.Op(), 1))
}

func (p *Pass) binary(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	left := p.expr(n.Field("left"), scope)
	right := p.expr(n.Field("right"), scope)
	op := n.Op()
	if op == "in" {
		// `a in b` asks b whether it has a.
		return boolFallback(semantic.BinaryResult(right, semantic.OpHas, left))
	}
	o := semantic.OperatorFromLiteral(op, 2)
	if o == semantic.OpError {
		return semantic.Any
	}
	r := semantic.BinaryResult(left, o, right)
	switch o {
	case semantic.OpHas, semantic.OpAndAnd, semantic.OpOrOr,
		semantic.OpEquals, semantic.OpNotEquals,
		semantic.OpLess, semantic.OpLessEquals, semantic.OpGreater, semantic.OpGreaterEquals:
		return boolFallback(r)
	}
	return r
}

// boolFallback types operators that always yield a bool when the operand
// type cannot say.
func boolFallback(t semantic.Type) semantic.Type {
	if t.Tag() == semantic.TagAny {
		return semantic.Bool
	}
	return t
}
