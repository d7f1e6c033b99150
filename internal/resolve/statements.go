package resolve

import (
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

func (p *Pass) statements(nodes []*syntax.Node, scope *semantic.Scope) {
	for _, n := range nodes {
		p.statement(n, scope)
	}
}

func (p *Pass) statement(n *syntax.Node, scope *semantic.Scope) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case syntax.KindImportDecl:
		// Declared while hoisting.
	case syntax.KindFunctionDecl:
		p.functionBody(n, scope)
	case syntax.KindClassDecl:
		p.classBody(n)
	case syntax.KindVariableDecl:
		p.variable(n, scope)
	case syntax.KindBlock:
		p.block(n, scope)
	case syntax.KindReturnStmt:
		p.expr(n.Field("value"), scope)
	case syntax.KindIfStmt:
		p.expr(n.Field("cond"), scope)
		p.statement(n.Field("then"), scope)
		p.statement(n.Field("else"), scope)
	case syntax.KindWhileStmt:
		p.expr(n.Field("cond"), scope)
		p.statement(n.Field("body"), scope)
	case syntax.KindForeachStmt:
		p.foreach(n, scope)
	case syntax.KindExprStmt:
		p.expr(n.Field("expr"), scope)
	case syntax.KindBreakStmt, syntax.KindContinueStmt:
	default:
		if n.Kind().IsExpression() {
			p.expr(n, scope)
		}
	}
}

// block opens a scope for n and hoists the functions declared in it.
func (p *Pass) block(n *syntax.Node, parent *semantic.Scope) {
	scope := semantic.NewScope(parent, n)
	p.res.Scopes[n] = scope
	p.hoistLocal(n.Children(), scope)
	p.statements(n.Children(), scope)
}

// hoistLocal hoists the declarations of a nested block and resolves their
// signatures right away, since the unit-wide signature phase has passed.
func (p *Pass) hoistLocal(nodes []*syntax.Node, scope *semantic.Scope) {
	fns, fields, classes := len(p.functions), len(p.fields), len(p.classes)
	p.hoist(nodes, scope, false)
	for _, c := range p.classes[classes:] {
		p.resolveSupers(c, scope)
	}
	for _, f := range p.fields[fields:] {
		if t := p.resolveType(f.sym.Node.Field("type"), f.scope); t != nil {
			f.sym.Type = t
		}
	}
	for _, fn := range p.functions[fns:] {
		p.resolveSignature(fn.sym, fn.scope)
	}
}

// functionBody resolves the parameters defaults and body of a function-like
// declaration whose symbol was hoisted.
func (p *Pass) functionBody(n *syntax.Node, parent *semantic.Scope) {
	fn := p.res.Symbols[n]
	scope := semantic.NewScope(parent, n)
	p.res.Scopes[n] = scope
	if fn != nil {
		for _, param := range fn.Params {
			if param.Default != nil {
				p.expr(param.Default, parent)
			}
			scope.Add(param)
		}
	}
	body := n.Field("body")
	if body == nil {
		return
	}
	p.hoistLocal(body.Children(), scope)
	p.statements(body.Children(), scope)
}

func (p *Pass) classBody(n *syntax.Node) {
	c := p.res.Symbols[n]
	body := n.Field("body")
	if c == nil || body == nil {
		return
	}
	p.classStack = append(p.classStack, c)
	defer func() { p.classStack = p.classStack[:len(p.classStack)-1] }()
	for _, m := range body.Children() {
		switch m.Kind() {
		case syntax.KindVariableDecl:
			f := p.res.Symbols[m]
			t := p.expr(m.Field("init"), c.Members)
			if f != nil && (f.Type == nil || f.Type.Tag() == semantic.TagError) && m.Field("init") != nil {
				f.Type = t
			}
		case syntax.KindFunctionDecl, syntax.KindConstructorDecl, syntax.KindOperatorFunctionDecl:
			p.functionBody(m, c.Members)
		}
	}
}

// variable types the initializer before the declaration enters scope, so
// `var x = x;` sees the outer x.
func (p *Pass) variable(n *syntax.Node, scope *semantic.Scope) {
	initType := p.expr(n.Field("init"), scope)
	if n.Field("init") == nil {
		initType = nil
	}
	v, hoisted := p.pending[n]
	if !hoisted {
		v = p.newVariable(n, semantic.ParseModifier(n.Op()))
		if v == nil {
			return
		}
	}
	if v.Type == nil {
		declared := p.resolveType(n.Field("type"), scope)
		v.Type = semantic.Prefer(declared, initType)
	}
	scope.Add(v)
}

func (p *Pass) foreach(n *syntax.Node, parent *semantic.Scope) {
	iter := p.expr(n.Field("iter"), parent)
	scope := semantic.NewScope(parent, n)
	p.res.Scopes[n] = scope
	var vars []*syntax.Node
	if list := n.Field("vars"); list != nil {
		vars = list.Children()
	}
	types := foreachTypes(iter, len(vars))
	for i, vn := range vars {
		id := vn.Field("name")
		if id == nil {
			continue
		}
		v := p.newSymbol(semantic.SymbolVariable, id.Text(), vn)
		v.Type = types[i]
		scope.Add(v)
	}
	p.statement(n.Field("body"), scope)
}

// foreachTypes gives the loop variable types for iterating over t with n
// variables.
func foreachTypes(t semantic.Type, n int) []semantic.Type {
	out := make([]semantic.Type, n)
	for i := range out {
		out[i] = semantic.Any
	}
	if n == 0 {
		return out
	}
	switch x := t.(type) {
	case *semantic.ArrayType:
		sequence(out, x.Elem)
	case *semantic.ListType:
		sequence(out, x.Elem)
	case *semantic.MapType:
		out[0] = x.Key
		if n > 1 {
			out[1] = x.Value
		}
	default:
		if t != nil && t.Tag() == semantic.TagIntRange {
			for i := range out {
				out[i] = semantic.Int
			}
		}
	}
	return out
}

func sequence(out []semantic.Type, elem semantic.Type) {
	if len(out) == 1 {
		out[0] = elem
		return
	}
	out[0], out[1] = semantic.Int, elem
}
