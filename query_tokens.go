package zenls

import (
	"context"
	"fmt"
	"sort"

	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// TokenType indexes TokenTypes.
type TokenType uint32

const (
	TokenClass TokenType = iota
	TokenParameter
	TokenVariable
	TokenFunction
	TokenMethod
	TokenProperty
	TokenKeyword
)

// TokenTypes is the token legend, in TokenType order.
var TokenTypes = []string{"class", "parameter", "variable", "function", "method", "property", "keyword"}

// Token modifier bits.
const (
	ModifierStatic     uint32 = 1 << 0
	ModifierDefinition uint32 = 1 << 1
	ModifierReadonly   uint32 = 1 << 2
)

// TokenModifiers is the modifier legend, in bit order.
var TokenModifiers = []string{"static", "definition", "readonly"}

// SemanticTokens is the relative encoding of a unit's tokens: five values
// per token, (deltaLine, deltaStart, length, type, modifiers). deltaStart
// is relative to the previous token on the same line and absolute on a new
// line.
type SemanticTokens struct {
	Data []uint32
}

type semToken struct {
	rng  syntax.Range
	typ  TokenType
	mods uint32
}

// SemanticTokensFor classifies the names and keywords of the unit at path.
func (q *QueryBuilder) SemanticTokensFor(ctx context.Context, path string) (*SemanticTokens, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("semantic tokens: %w", err)
	}
	defer h.Close()
	return &SemanticTokens{Data: encodeTokens(collectTokens(u))}, nil
}

func collectTokens(u *compile.Unit) []semToken {
	res := u.Result()
	var toks []semToken
	var brackets []syntax.Range
	syntax.Walk(u.Tree.Root, func(n *syntax.Node) bool {
		switch n.Kind() {
		case syntax.KindBracketHandlerExpr:
			brackets = append(brackets, n.Range())
			return false
		case syntax.KindNameExpr, syntax.KindQualifiedName, syntax.KindIdentifier:
			if sym := res.Symbols[n]; sym != nil {
				toks = append(toks, semToken{n.Range(), tokenType(sym), modifiers(sym, false)})
				return false
			}
			if p := n.Parent(); p != nil && (p.Field("name") == n || p.Field("alias") == n) {
				if sym := res.Symbols[p]; sym != nil {
					toks = append(toks, semToken{n.Range(), tokenType(sym), modifiers(sym, true)})
					return false
				}
			}
		}
		return true
	})

	tokens, _ := syntax.Lex(u.Source)
	for _, t := range tokens {
		if t.Kind == syntax.TokenKeyword && !inAny(brackets, t.Start) {
			toks = append(toks, semToken{syntax.Range{Start: t.Start, End: t.End}, TokenKeyword, 0})
		}
	}

	sort.SliceStable(toks, func(i, j int) bool {
		return toks[i].rng.Start.Before(toks[j].rng.Start)
	})
	return toks
}

func inAny(ranges []syntax.Range, pos syntax.Position) bool {
	for _, r := range ranges {
		if !pos.Before(r.Start) && pos.Before(r.End) {
			return true
		}
	}
	return false
}

func tokenType(sym *semantic.Symbol) TokenType {
	switch sym.Kind {
	case semantic.SymbolClass, semantic.SymbolImport:
		return TokenClass
	case semantic.SymbolParameter:
		return TokenParameter
	case semantic.SymbolFunction, semantic.SymbolOperatorFunction:
		if sym.Name == semantic.ConstructorName {
			return TokenClass
		}
		if member(sym) {
			return TokenMethod
		}
		return TokenFunction
	}
	if member(sym) {
		return TokenProperty
	}
	return TokenVariable
}

// member reports whether sym belongs to a class or built-in type.
func member(sym *semantic.Symbol) bool {
	if sym.Node == nil {
		return true
	}
	p := sym.Node.Parent()
	return p != nil && p.Kind() == syntax.KindClassBody
}

func modifiers(sym *semantic.Symbol, definition bool) uint32 {
	var m uint32
	if sym.Static() {
		m |= ModifierStatic
	}
	if definition {
		m |= ModifierDefinition
	}
	if sym.Readonly() {
		m |= ModifierReadonly
	}
	return m
}

// encodeTokens applies the relative encoding. Tokens spanning lines are
// dropped, as are tokens starting where an earlier one starts.
func encodeTokens(toks []semToken) []uint32 {
	data := make([]uint32, 0, len(toks)*5)
	prev := syntax.Position{Line: 1}
	first := true
	for _, t := range toks {
		if t.rng.Start.Line != t.rng.End.Line || t.rng.End.Column <= t.rng.Start.Column {
			continue
		}
		if !first && !prev.Before(t.rng.Start) {
			continue
		}
		deltaLine := t.rng.Start.Line - prev.Line
		deltaStart := t.rng.Start.Column
		if deltaLine == 0 && !first {
			deltaStart -= prev.Column
		}
		data = append(data,
			uint32(deltaLine),
			uint32(deltaStart),
			uint32(t.rng.End.Column-t.rng.Start.Column),
			uint32(t.typ),
			t.mods,
		)
		prev = t.rng.Start
		first = false
	}
	return data
}
