package resolve

import (
	"strings"

	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// resolveType converts a type literal to a Type. It returns nil when n is
// nil and Error for names that do not resolve to a class.
func (p *Pass) resolveType(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case syntax.KindPrimitiveType:
		if t, ok := semantic.PrimitiveByName(n.Op()); ok {
			return t
		}
		return semantic.Error
	case syntax.KindClassType:
		qn := n.Field("name")
		if qn == nil {
			return semantic.Error
		}
		c := p.lookupClass(qualifiedText(qn), scope)
		if c == nil {
			return semantic.Error
		}
		p.res.Symbols[qn] = c
		return c.TypeOf()
	case syntax.KindArrayType:
		return &semantic.ArrayType{Elem: p.typeOrAny(n.Field("elem"), scope)}
	case syntax.KindListType:
		return &semantic.ListType{Elem: p.typeOrAny(n.Field("elem"), scope)}
	case syntax.KindMapType:
		return &semantic.MapType{
			Key:   p.typeOrAny(n.Field("key"), scope),
			Value: p.typeOrAny(n.Field("value"), scope),
		}
	case syntax.KindFunctionType:
		ret := n.Field("return")
		ft := &semantic.FunctionType{Return: p.typeOrAny(ret, scope)}
		for _, c := range n.Children() {
			if c != ret {
				ft.Params = append(ft.Params, p.typeOrAny(c, scope))
			}
		}
		return ft
	case syntax.KindUnionType:
		var alts []semantic.Type
		for _, c := range n.Children() {
			alts = append(alts, p.typeOrAny(c, scope))
		}
		return semantic.NewUnion(alts...)
	}
	return semantic.Error
}

func (p *Pass) typeOrAny(n *syntax.Node, scope *semantic.Scope) semantic.Type {
	if t := p.resolveType(n, scope); t != nil {
		return t
	}
	return semantic.Any
}

// lookupClass finds a class by simple or qualified name: the scope chain
// first, where a matching import must point at a class, then the
// environment.
func (p *Pass) lookupClass(name string, scope *semantic.Scope) *semantic.Symbol {
	if name == "" {
		return nil
	}
	if !strings.Contains(name, ".") {
		if sym := scope.Lookup(name, semantic.SymbolClass, semantic.SymbolImport); sym != nil {
			if sym.Kind == semantic.SymbolClass {
				return sym
			}
			return sym.SimpleTarget()
		}
	} else if c := p.localClass(name); c != nil {
		return c
	}
	if found := p.lookupGlobal(name, semantic.SymbolClass); len(found) > 0 {
		return found[0]
	}
	return nil
}

// localClass finds a class of this unit by qualified name.
func (p *Pass) localClass(qualified string) *semantic.Symbol {
	for _, c := range p.classes {
		if c.QualifiedName == qualified {
			return c
		}
	}
	return nil
}
