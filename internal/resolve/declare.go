package resolve

import (
	"strings"

	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// hoist declares the functions, classes and imports among nodes into scope
// ahead of the statement walk. At top level it also creates the symbols of
// static and global variables.
func (p *Pass) hoist(nodes []*syntax.Node, scope *semantic.Scope, topLevel bool) {
	for _, n := range nodes {
		switch n.Kind() {
		case syntax.KindImportDecl:
			p.declareImport(n, scope)
		case syntax.KindFunctionDecl:
			fn := p.declareFunction(n, scope, semantic.SymbolFunction)
			if fn != nil && topLevel {
				p.exports = append(p.exports, fn)
			}
		case syntax.KindClassDecl:
			if c := p.declareClass(n, scope); c != nil && topLevel {
				p.exports = append(p.exports, c)
			}
		case syntax.KindVariableDecl:
			if !topLevel {
				continue
			}
			mod := semantic.ParseModifier(n.Op())
			if mod != semantic.ModifierStatic && mod != semantic.ModifierGlobal {
				continue
			}
			if v := p.newVariable(n, mod); v != nil {
				p.pending[n] = v
				p.exports = append(p.exports, v)
			}
		}
	}
}

func (p *Pass) newSymbol(kind semantic.SymbolKind, name string, n *syntax.Node) *semantic.Symbol {
	sym := &semantic.Symbol{Kind: kind, Name: name, Node: n, Unit: p.info.Path}
	p.res.Symbols[n] = sym
	return sym
}

func (p *Pass) newVariable(n *syntax.Node, mod semantic.Modifier) *semantic.Symbol {
	name := n.Field("name")
	if name == nil {
		return nil
	}
	v := p.newSymbol(semantic.SymbolVariable, name.Text(), n)
	v.Modifier = mod
	return v
}

func (p *Pass) declareImport(n *syntax.Node, scope *semantic.Scope) {
	qn := n.Field("name")
	if qn == nil {
		return
	}
	path := qualifiedText(qn)
	name := path[strings.LastIndexByte(path, '.')+1:]
	if alias := n.Field("alias"); alias != nil {
		name = alias.Text()
	}
	imp := p.newSymbol(semantic.SymbolImport, name, n)
	imp.Path = path
	scope.Add(imp)
	p.imports = append(p.imports, imp)
}

// declareFunction creates a function, method, operator or constructor symbol
// with its parameters and adds it to scope.
func (p *Pass) declareFunction(n *syntax.Node, scope *semantic.Scope, kind semantic.SymbolKind) *semantic.Symbol {
	var name string
	switch kind {
	case semantic.SymbolOperatorFunction:
		name = n.Op()
	default:
		if n.Kind() == syntax.KindConstructorDecl {
			name = semantic.ConstructorName
		} else if id := n.Field("name"); id != nil {
			name = id.Text()
		} else {
			return nil
		}
	}
	fn := p.newSymbol(kind, name, n)
	fn.Modifier = semantic.ParseModifier(n.Op())
	if params := n.Field("params"); params != nil {
		for _, pn := range params.Children() {
			id := pn.Field("name")
			if id == nil {
				continue
			}
			param := p.newSymbol(semantic.SymbolParameter, id.Text(), pn)
			param.Default = pn.Field("default")
			param.Variadic = pn.Op() == "..."
			fn.Params = append(fn.Params, param)
		}
	}
	if kind == semantic.SymbolOperatorFunction {
		fn.Modifier = semantic.ModifierNone
		fn.Operator = operatorFor(n.Op(), len(fn.Params)+1)
	}
	scope.Add(fn)
	p.functions = append(p.functions, decl{fn, scope})
	return fn
}

// operatorFor maps a declared operator to its identity. Declarations with
// too many parameters are user errors, not caller bugs, so they map to
// OpError instead of reaching the arity check.
func operatorFor(literal string, arity int) semantic.Operator {
	if arity < 1 || arity > 3 {
		return semantic.OpError
	}
	return semantic.OperatorFromLiteral(literal, arity)
}

func (p *Pass) declareClass(n *syntax.Node, scope *semantic.Scope) *semantic.Symbol {
	id := n.Field("name")
	if id == nil {
		return nil
	}
	c := p.newSymbol(semantic.SymbolClass, id.Text(), n)
	c.QualifiedName = p.qualify(c.Name)
	c.Type = &semantic.ClassType{Class: c}
	scope.Add(c)
	p.classes = append(p.classes, c)

	body := n.Field("body")
	c.Members = semantic.NewScope(scope, body)
	if body == nil {
		return c
	}
	p.res.Scopes[body] = c.Members
	for _, m := range body.Children() {
		switch m.Kind() {
		case syntax.KindVariableDecl:
			if f := p.newVariable(m, semantic.ParseModifier(m.Op())); f != nil {
				c.Members.Add(f)
				p.fields = append(p.fields, decl{f, c.Members})
			}
		case syntax.KindFunctionDecl, syntax.KindConstructorDecl:
			p.declareFunction(m, c.Members, semantic.SymbolFunction)
		case syntax.KindOperatorFunctionDecl:
			p.declareFunction(m, c.Members, semantic.SymbolOperatorFunction)
		}
	}
	return c
}

// qualify names a class declared in this unit. Library classes live in the
// package of their file, script classes under the script's own name.
func (p *Pass) qualify(name string) string {
	qn := p.info.QualifiedName
	if p.info.Library {
		if i := strings.LastIndexByte(qn, '.'); i >= 0 {
			return qn[:i] + "." + name
		}
		return name
	}
	if qn == "" {
		return name
	}
	return qn + "." + name
}

func (p *Pass) resolveSupers(c *semantic.Symbol, scope *semantic.Scope) {
	ext := c.Node.Field("extends")
	if ext == nil {
		return
	}
	for _, qn := range ext.Children() {
		if super := p.lookupClass(qualifiedText(qn), scope); super != nil && super != c {
			p.res.Symbols[qn] = super
			c.Supers = append(c.Supers, super)
		}
	}
}

// resolveSignature assigns parameter and return types of fn. Constructors
// return their class.
func (p *Pass) resolveSignature(fn *semantic.Symbol, scope *semantic.Scope) {
	for _, param := range fn.Params {
		t := p.resolveType(param.Node.Field("type"), scope)
		if t == nil {
			t = semantic.Any
		}
		param.Type = t
	}
	if fn.Node.Kind() == syntax.KindConstructorDecl {
		if body := fn.Node.Parent(); body != nil {
			if c := p.res.Symbols[body.Parent()]; c != nil && c.Kind == semantic.SymbolClass {
				fn.Return = c.Type
			}
		}
	} else if t := p.resolveType(fn.Node.Field("return"), scope); t != nil {
		fn.Return = t
	}
	if fn.Return == nil {
		fn.Return = semantic.Any
	}
	fn.Type = fn.FunctionType()
}

func qualifiedText(qn *syntax.Node) string {
	if qn == nil {
		return ""
	}
	if qn.Kind() != syntax.KindQualifiedName {
		return qn.Text()
	}
	parts := make([]string, 0, len(qn.Children()))
	for _, id := range qn.Children() {
		parts = append(parts, id.Text())
	}
	return strings.Join(parts, ".")
}
