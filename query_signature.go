package zenls

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// Signature is one candidate overload.
type Signature struct {
	Label      string
	Parameters []string
}

// SignatureHelp lists the overloads of the call around the cursor.
type SignatureHelp struct {
	Signatures      []Signature
	ActiveSignature int
	ActiveParameter int
}

// SignatureHelpAt returns the overloads of the innermost call whose
// argument list contains pos, or nil outside any call. The active parameter
// is the number of separators before pos; the active signature is the best
// overload with room for it, given the arguments typed so far.
func (q *QueryBuilder) SignatureHelpAt(ctx context.Context, path string, pos Position) (*SignatureHelp, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("signature help: %w", err)
	}
	defer h.Close()
	return signatureHelp(h.Environment(), u, pos), nil
}

func signatureHelp(env *compile.Environment, u *compile.Unit, pos Position) *SignatureHelp {
	// Whitespace after an unterminated argument list is outside its range.
	line := lineText(u.Source, pos.Line)
	col := min(pos.Column, len(line))
	probe := syntax.Position{Line: pos.Line, Column: len(strings.TrimRight(line[:col], " \t"))}

	var call, args *syntax.Node
	for _, n := range u.NodeAt(probe) {
		if n.Kind() != syntax.KindCallExpr {
			continue
		}
		a := n.Field("args")
		if a == nil || !a.Range().Start.Before(probe) || !a.Range().Contains(probe) {
			continue
		}
		if strings.HasSuffix(a.Text(), ")") && !probe.Before(a.Range().End) {
			continue
		}
		call, args = n, a
		break
	}
	if call == nil {
		return nil
	}

	candidates := overloadsOf(env, u, call, pos)
	if len(candidates) == 0 {
		return nil
	}

	active := 0
	for _, sep := range args.Seps() {
		if sep.Before(pos) {
			active++
		}
	}
	res := u.Result()
	var argTypes []semantic.Type
	for i, a := range args.Children() {
		if i > active {
			break
		}
		argTypes = append(argTypes, res.TypeOf(a))
	}

	help := &SignatureHelp{
		ActiveParameter: active,
		ActiveSignature: activeOverload(candidates, argTypes, active),
	}
	for _, c := range candidates {
		help.Signatures = append(help.Signatures, signatureOf(c))
	}
	return help
}

// activeOverload ranks the candidates that can take a parameter at index
// active by the worst fit among args. It returns 0 when none qualifies.
func activeOverload(candidates []*semantic.Symbol, args []semantic.Type, active int) int {
	best, bestRank := 0, semantic.Mismatch+1
	for i, c := range candidates {
		variadic := len(c.Params) > 0 && c.Params[len(c.Params)-1].Variadic
		if !variadic && len(c.Params) <= active && !(active == 0 && len(c.Params) == 0) {
			continue
		}
		r := semantic.Self
		for j, a := range args {
			if j >= len(c.Params) && !variadic {
				r = semantic.Mismatch
				break
			}
			p := c.Params[min(j, len(c.Params)-1)]
			r = semantic.Higher(r, semantic.IsSubtypeOf(a, p.TypeOf()))
		}
		if r < bestRank {
			best, bestRank = i, r
		}
	}
	return best
}

// overloadsOf returns the function symbols a call's callee names.
func overloadsOf(env *compile.Environment, u *compile.Unit, call *syntax.Node, pos Position) []*semantic.Symbol {
	res := u.Result()
	callee := call.Field("callee")
	if callee == nil {
		return nil
	}
	var ref *syntax.Node
	switch callee.Kind() {
	case syntax.KindNameExpr:
		ref = callee
	case syntax.KindMemberAccessExpr:
		ref = callee.Field("member")
	}
	if ref == nil {
		return nil
	}
	chosen := res.Symbols[ref]
	if chosen == nil || chosen.Kind != semantic.SymbolFunction {
		return nil
	}

	if chosen.Name == semantic.ConstructorName {
		if c, ok := chosen.ReturnOf().(*semantic.ClassType); ok && c.Class.Members != nil {
			if ctors := c.Class.Members.Local(semantic.ConstructorName, semantic.SymbolFunction); len(ctors) > 0 {
				return ctors
			}
		}
		return []*semantic.Symbol{chosen}
	}

	name := ref.Text()
	if callee.Kind() == syntax.KindMemberAccessExpr {
		if ms := semantic.MembersNamed(res.TypeOf(callee.Field("receiver")), name, semantic.SymbolFunction); len(ms) > 0 {
			return ms
		}
		return []*semantic.Symbol{chosen}
	}
	if local := u.ScopeAt(pos).Overloads(name, semantic.SymbolFunction); len(local) > 0 {
		return local
	}
	if global := env.Lookup(name, !u.Library, semantic.SymbolFunction); len(global) > 0 {
		return global
	}
	return []*semantic.Symbol{chosen}
}

func signatureOf(fn *semantic.Symbol) Signature {
	sig := Signature{Label: fn.Signature()}
	if fn.Name == semantic.ConstructorName {
		sig.Label = constructorLabel(fn)
	}
	for _, p := range fn.Params {
		sig.Parameters = append(sig.Parameters, p.Signature())
	}
	return sig
}
