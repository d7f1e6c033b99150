// Package resolve implements the definition resolver. A Pass walks one
// syntax tree, builds its scope tree, binds declarations and references to
// symbols and assigns a type to every expression.
//
// A pass runs in phases so that several units can be resolved against each
// other:
//
//  1. Declare builds the root scope and hoists functions, classes (with all
//     their members) and imports. Top-level static and global variables get
//     their symbols here too, but enter the scope only at their declaration.
//  2. ResolveSignatures resolves import targets, parameter, return and field
//     types, and class super lists.
//  3. ResolveBodies walks statements and expressions in source order.
//
// Callers that resolve a single unit use Run.
package resolve

import (
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// Globals is the environment-wide lookup consulted when a name is not
// bound in the unit's own scope chain.
type Globals interface {
	// Lookup returns the symbols registered under name, which may be a
	// qualified (dotted) name. fromScript tells whether the asking unit is a
	// script; script globals are only visible to scripts.
	Lookup(name string, fromScript bool, kinds ...semantic.SymbolKind) []*semantic.Symbol
}

// UnitInfo describes the unit under resolution.
type UnitInfo struct {
	Path string
	// QualifiedName is the dotted name of the unit, e.g.
	// "crafttweaker.item.IItemStack" or "scripts.recipes".
	QualifiedName string
	Library       bool
}

// Result holds the side tables produced by a pass. The syntax tree itself is
// never modified.
type Result struct {
	Root *semantic.Scope
	// Scopes maps scope-opening nodes (compilation unit, function, block,
	// class body, foreach, function expression) to their scope.
	Scopes map[*syntax.Node]*semantic.Scope
	// Symbols maps declaring nodes to the symbol they declare and reference
	// nodes (names, member identifiers, qualified type names) to their target.
	Symbols map[*syntax.Node]*semantic.Symbol
	// Types maps every expression node to its type.
	Types map[*syntax.Node]semantic.Type
	// Unresolved lists name references that matched nothing, in source order.
	Unresolved []*syntax.Node
}

// TypeOf returns the type recorded for n, or Any.
func (r *Result) TypeOf(n *syntax.Node) semantic.Type {
	if t, ok := r.Types[n]; ok && t != nil {
		return t
	}
	return semantic.Any
}

// ScopeAt returns the innermost scope among the given nodes (innermost
// first, as returned by syntax.StackAt), or the root scope.
func (r *Result) ScopeAt(stack []*syntax.Node) *semantic.Scope {
	for _, n := range stack {
		if s, ok := r.Scopes[n]; ok {
			return s
		}
	}
	return r.Root
}

// decl is a hoisted symbol together with the scope it was declared in.
type decl struct {
	sym   *semantic.Symbol
	scope *semantic.Scope
}

// Pass resolves one unit. A Pass is single-use.
type Pass struct {
	tree    *syntax.Tree
	info    UnitInfo
	globals Globals
	res     *Result

	exports []*semantic.Symbol
	// pending holds top-level static/global variable symbols created in
	// Declare that enter the root scope when the walk reaches them.
	pending map[*syntax.Node]*semantic.Symbol
	// declarations hoisted by Declare, for ResolveSignatures.
	functions []decl
	fields    []decl
	classes   []*semantic.Symbol
	imports   []*semantic.Symbol

	classStack []*semantic.Symbol
	declared   bool
}

// NewPass prepares a pass over tree. globals may be nil.
func NewPass(tree *syntax.Tree, info UnitInfo, globals Globals) *Pass {
	return &Pass{
		tree:    tree,
		info:    info,
		globals: globals,
		pending: make(map[*syntax.Node]*semantic.Symbol),
		res: &Result{
			Scopes:  make(map[*syntax.Node]*semantic.Scope),
			Symbols: make(map[*syntax.Node]*semantic.Symbol),
			Types:   make(map[*syntax.Node]semantic.Type),
		},
	}
}

// Run performs all phases and returns the result.
func Run(tree *syntax.Tree, info UnitInfo, globals Globals) *Result {
	p := NewPass(tree, info, globals)
	p.Declare()
	p.ResolveSignatures()
	return p.ResolveBodies()
}

// Declare runs the hoisting phase. It is idempotent.
func (p *Pass) Declare() {
	if p.declared {
		return
	}
	p.declared = true
	root := p.tree.Root
	p.res.Root = semantic.NewScope(nil, root)
	p.res.Scopes[root] = p.res.Root
	if root == nil {
		return
	}
	p.hoist(root.Children(), p.res.Root, true)
}

// Exports returns the unit's top-level functions, classes and static or
// global variables in declaration order. Only valid after Declare.
func (p *Pass) Exports() []*semantic.Symbol {
	return p.exports
}

// ResolveSignatures resolves everything a declaration exposes to other
// units: import targets, parameter and return types, field types and super
// classes.
func (p *Pass) ResolveSignatures() {
	p.Declare()
	scope := p.res.Root
	for _, imp := range p.imports {
		if found := p.lookupGlobal(imp.Path); len(found) > 0 {
			imp.Target = found[0]
		}
		if imp.Target != nil {
			imp.Type = symbolType(imp.Target)
		}
	}
	for _, c := range p.classes {
		p.resolveSupers(c, scope)
	}
	for _, f := range p.fields {
		if t := p.resolveType(f.sym.Node.Field("type"), f.scope); t != nil {
			f.sym.Type = t
		}
	}
	for _, fn := range p.functions {
		p.resolveSignature(fn.sym, fn.scope)
	}
	for _, v := range p.pending {
		if t := p.resolveType(v.Node.Field("type"), scope); t != nil && t.Tag() != semantic.TagError {
			v.Type = t
		}
	}
}

// ResolveBodies walks all statements and expressions and returns the
// completed side tables.
func (p *Pass) ResolveBodies() *Result {
	p.Declare()
	if root := p.tree.Root; root != nil {
		p.statements(root.Children(), p.res.Root)
		p.finalize(root)
	}
	return p.res
}

// finalize gives every expression and every symbol a type, so no consumer
// ever sees an untyped node.
func (p *Pass) finalize(root *syntax.Node) {
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.Kind().IsExpression() {
			if _, ok := p.res.Types[n]; !ok {
				p.res.Types[n] = semantic.Any
			}
		}
		return true
	})
	for _, sym := range p.res.Symbols {
		if sym.Type == nil && sym.Unit == p.info.Path {
			sym.Type = semantic.Any
		}
	}
}

func (p *Pass) lookupGlobal(name string, kinds ...semantic.SymbolKind) []*semantic.Symbol {
	if p.globals == nil || name == "" {
		return nil
	}
	return p.globals.Lookup(name, !p.info.Library, kinds...)
}

// symbolType is the value type of a reference to sym.
func symbolType(sym *semantic.Symbol) semantic.Type {
	switch sym.Kind {
	case semantic.SymbolVariable, semantic.SymbolParameter:
		return sym.TypeOf()
	case semantic.SymbolFunction:
		return sym.FunctionType()
	case semantic.SymbolClass:
		return sym.TypeOf()
	case semantic.SymbolImport:
		if t := sym.SimpleTarget(); t != nil {
			return t.TypeOf()
		}
		if sym.Target != nil {
			return symbolType(sym.Target)
		}
	}
	return semantic.Any
}
