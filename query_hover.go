package zenls

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jward/zenls/internal/bracket"
	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// Hover is markdown describing the node under the cursor.
type Hover struct {
	Markdown string
	Location Location
}

// HoverAt describes what is under pos: a bracket handler's metadata, a
// symbol's declaration, or an expression's type. It returns nil when there
// is nothing to show.
//
// Bracket metadata is fetched after the environment lock is released, so a
// slow bracket service never blocks reloads.
func (q *QueryBuilder) HoverAt(ctx context.Context, path string, pos Position) (*Hover, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("hover at: %w", err)
	}
	stack := u.NodeAt(pos)
	if len(stack) > 0 {
		if b := syntax.Enclosing(stack[0], syntax.KindBracketHandlerExpr); b != nil {
			loc := locationOf(u.Path, b.Range())
			expr := b.Op()
			if expr == "" {
				expr = bracket.Expr(b.Text())
			}
			h.Close()
			return q.bracketHover(ctx, expr, loc), nil
		}
	}
	defer h.Close()
	return hoverNode(u, stack), nil
}

func hoverNode(u *compile.Unit, stack []*syntax.Node) *Hover {
	if len(stack) == 0 {
		return nil
	}
	res := u.Result()
	if sym, n, _ := symbolAt(res, stack); sym != nil {
		return &Hover{
			Markdown: codeBlock(hoverSignature(sym)),
			Location: locationOf(u.Path, n.Range()),
		}
	}
	for _, n := range stack {
		if t, ok := res.Types[n]; ok {
			return &Hover{
				Markdown: codeBlock(t.String()),
				Location: locationOf(u.Path, n.Range()),
			}
		}
		if !n.Kind().IsExpression() && n.Kind() != syntax.KindIdentifier {
			break
		}
	}
	return nil
}

// TypeAt returns the type of the symbol or expression at pos, or "" when
// nothing typed is there.
func (q *QueryBuilder) TypeAt(ctx context.Context, path string, pos Position) (string, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("type at: %w", err)
	}
	defer h.Close()

	res := u.Result()
	stack := u.NodeAt(pos)
	if sym, _, _ := symbolAt(res, stack); sym != nil {
		return symbolTypeString(sym), nil
	}
	for _, n := range stack {
		if t, ok := res.Types[n]; ok {
			return t.String(), nil
		}
	}
	return "", nil
}

// hoverSignature renders a symbol's declaration with its type. Constructors
// show as a call of their class.
func hoverSignature(sym *semantic.Symbol) string {
	switch sym.Kind {
	case semantic.SymbolFunction:
		if sym.Name == semantic.ConstructorName {
			return constructorLabel(sym)
		}
	case semantic.SymbolImport:
		if sym.Target != nil {
			return sym.Signature() + "\n" + sym.Target.Signature()
		}
	}
	return sym.Signature()
}

func constructorLabel(sym *semantic.Symbol) string {
	params := make([]string, len(sym.Params))
	for i, p := range sym.Params {
		params[i] = p.Signature()
		if p.Variadic {
			params[i] = "..." + params[i]
		}
	}
	return fmt.Sprintf("%s(%s)", sym.ReturnOf(), strings.Join(params, ", "))
}

func codeBlock(text string) string {
	return "```zenscript\n" + text + "\n```"
}

// bracketHover renders a bracket entry. Unknown expressions and service
// failures still show the expression itself.
func (q *QueryBuilder) bracketHover(ctx context.Context, expr string, loc Location) *Hover {
	var entry *bracket.Entry
	if svc := q.engine.brackets; svc != nil {
		e, err := svc.Entry(ctx, expr)
		switch {
		case err == nil:
			entry = e
		case !errors.Is(err, bracket.ErrNotFound):
			log.Warningf("bracket entry %q: %s", expr, err)
		}
	}
	return &Hover{Markdown: bracketMarkdown(expr, entry), Location: loc}
}

func bracketMarkdown(expr string, e *bracket.Entry) string {
	var b strings.Builder
	if e != nil {
		if name := e.First(bracket.KeyName); name != "" {
			fmt.Fprintf(&b, "**%s**\n\n", name)
		}
	}
	fmt.Fprintf(&b, "`<%s>`", expr)
	if e == nil {
		return b.String()
	}
	if icon := e.First(bracket.KeyIcon); icon != "" {
		fmt.Fprintf(&b, "\n\n![icon](data:image/png;base64,%s)", icon)
	}
	if msg := e.First(bracket.KeyErrorMessage); msg != "" {
		fmt.Fprintf(&b, "\n\n*%s*", msg)
	}
	return b.String()
}
