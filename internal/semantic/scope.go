package semantic

import "github.com/jward/zenls/internal/syntax"

// Scope is one level of lexical nesting. Symbols keep insertion order and
// names may repeat; shadowing is decided by walking the chain outward.
type Scope struct {
	Node     *syntax.Node
	parent   *Scope
	symbols  []*Symbol
	children []*Scope
}

// NewScope creates a scope owned by node and links it under parent.
func NewScope(parent *Scope, node *syntax.Node) *Scope {
	s := &Scope{Node: node, parent: parent}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

func (s *Scope) Parent() *Scope     { return s.parent }
func (s *Scope) Children() []*Scope { return s.children }
func (s *Scope) Symbols() []*Symbol { return s.symbols }

// Add appends sym to the scope.
func (s *Scope) Add(sym *Symbol) {
	s.symbols = append(s.symbols, sym)
}

// Local returns the symbols of this scope alone named name with one of kinds,
// in insertion order.
func (s *Scope) Local(name string, kinds ...SymbolKind) []*Symbol {
	var out []*Symbol
	for _, sym := range s.symbols {
		if sym.Name == name && sym.Is(kinds...) {
			out = append(out, sym)
		}
	}
	return out
}

// Find walks from s to the root and returns the first symbol satisfying
// match.
func (s *Scope) Find(match func(*Symbol) bool) *Symbol {
	for cur := s; cur != nil; cur = cur.parent {
		for _, sym := range cur.symbols {
			if match(sym) {
				return sym
			}
		}
	}
	return nil
}

// Lookup finds the nearest symbol named name with one of kinds.
func (s *Scope) Lookup(name string, kinds ...SymbolKind) *Symbol {
	return s.Find(func(sym *Symbol) bool {
		return sym.Name == name && sym.Is(kinds...)
	})
}

// Overloads returns every symbol named name with one of kinds from the
// innermost scope that declares at least one.
func (s *Scope) Overloads(name string, kinds ...SymbolKind) []*Symbol {
	for cur := s; cur != nil; cur = cur.parent {
		if found := cur.Local(name, kinds...); len(found) > 0 {
			return found
		}
	}
	return nil
}

// Visible returns all symbols on the chain, innermost scope first.
func (s *Scope) Visible() []*Symbol {
	var out []*Symbol
	for cur := s; cur != nil; cur = cur.parent {
		out = append(out, cur.symbols...)
	}
	return out
}

// Root returns the outermost scope of the chain.
func (s *Scope) Root() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}
