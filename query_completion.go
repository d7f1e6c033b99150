package zenls

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

// DefaultBracketLimit caps bracket-handler completions.
const DefaultBracketLimit = 200

// CompletionKind classifies a completion item.
type CompletionKind int

const (
	CompletionFunction CompletionKind = iota
	CompletionVariable
	CompletionClass
	CompletionKeyword
	CompletionBracket
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionFunction:
		return "function"
	case CompletionVariable:
		return "variable"
	case CompletionClass:
		return "class"
	case CompletionKeyword:
		return "keyword"
	case CompletionBracket:
		return "bracket"
	}
	return fmt.Sprintf("CompletionKind(%d)", int(k))
}

// Completion is one completion item.
type Completion struct {
	Name   string
	Kind   CompletionKind
	Detail string
}

// CompletionsAt returns the completions for the token being typed at pos.
//
// After a member dot the members of the receiver's type are offered. Inside
// a bracket handler the bracket service is asked. Otherwise the result is
// the symbols visible in the scope chain (innermost first), then the
// environment's globals, then keywords, all filtered by the typed prefix.
func (q *QueryBuilder) CompletionsAt(ctx context.Context, path string, pos Position) ([]Completion, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("completions at: %w", err)
	}
	line := lineText(u.Source, pos.Line)
	if bracketPrefix, ok := insideBracket(line, pos.Column); ok {
		h.Close()
		return q.bracketCompletions(ctx, bracketPrefix), nil
	}
	defer h.Close()

	prefix, start := identPrefix(line, pos.Column)
	if start > 0 && line[start-1] == '.' {
		return memberCompletions(u, pos, syntax.Position{Line: pos.Line, Column: start}, prefix), nil
	}
	return scopeCompletions(h.Environment(), u, pos, prefix), nil
}

// bracketCompletions runs without the environment lock held.
func (q *QueryBuilder) bracketCompletions(ctx context.Context, prefix string) []Completion {
	svc := q.engine.brackets
	if svc == nil {
		return nil
	}
	exprs, err := svc.Complete(ctx, prefix, DefaultBracketLimit)
	if err != nil {
		log.Warningf("bracket completion for %q: %s", prefix, err)
		return nil
	}
	out := make([]Completion, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, Completion{Name: expr, Kind: CompletionBracket, Detail: "<" + expr + ">"})
	}
	return out
}

func scopeCompletions(env *compile.Environment, u *compile.Unit, pos Position, prefix string) []Completion {
	seen := make(map[string]bool)
	var out []Completion
	add := func(sym *semantic.Symbol) {
		if !offered(sym, prefix) || seen[sym.Name] {
			return
		}
		seen[sym.Name] = true
		out = append(out, completionFor(sym))
	}

	for _, sym := range u.ScopeAt(pos).Visible() {
		if declaredAfter(sym, u.Path, pos) {
			continue
		}
		add(sym)
	}
	for _, sym := range env.Globals() {
		add(sym)
	}
	for _, kw := range syntax.Keywords {
		if strings.HasPrefix(kw, prefix) && !seen[kw] {
			out = append(out, Completion{Name: kw, Kind: CompletionKeyword, Detail: "keyword"})
		}
	}
	return out
}

// memberCompletions offers the members of the receiver of the member access
// whose dot sits right before start. Access through a class name offers
// static members, access through a value its instance members.
func memberCompletions(u *compile.Unit, pos, start Position, prefix string) []Completion {
	res := u.Result()
	var access *syntax.Node
	for _, n := range u.NodeAt(pos) {
		if n.Kind() != syntax.KindMemberAccessExpr {
			continue
		}
		recv, member := n.Field("receiver"), n.Field("member")
		if recv == nil || start.Before(recv.Range().End) {
			continue
		}
		if member == nil || !member.Range().Start.Before(start) {
			access = n
			break
		}
	}
	if access == nil {
		return nil
	}
	recv := access.Field("receiver")

	static := false
	if sym := res.Symbols[recv]; sym != nil && (sym.Kind == semantic.SymbolClass || sym.SimpleTarget() != nil) {
		static = true
	}

	seen := make(map[string]bool)
	var out []Completion
	for _, m := range semantic.Members(res.TypeOf(recv)) {
		if static != m.Static() {
			continue
		}
		if !offered(m, prefix) || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, completionFor(m))
	}
	return out
}

// offered reports whether sym can be completed by name.
func offered(sym *semantic.Symbol, prefix string) bool {
	if sym.Kind == semantic.SymbolOperatorFunction || sym.Name == semantic.ConstructorName {
		return false
	}
	return strings.HasPrefix(sym.Name, prefix)
}

// declaredAfter reports whether sym is a variable of this unit whose
// declaration starts after pos. Such variables are in their scope's table
// but not yet visible at pos.
func declaredAfter(sym *semantic.Symbol, path string, pos Position) bool {
	if sym.Kind != semantic.SymbolVariable || sym.Unit != path || sym.Node == nil {
		return false
	}
	return pos.Before(sym.Node.Range().Start)
}

func completionFor(sym *semantic.Symbol) Completion {
	c := Completion{Name: sym.Name, Detail: sym.Signature()}
	switch sym.Kind {
	case semantic.SymbolFunction, semantic.SymbolOperatorFunction:
		c.Kind = CompletionFunction
	case semantic.SymbolClass, semantic.SymbolImport:
		c.Kind = CompletionClass
	case semantic.SymbolVariable, semantic.SymbolParameter:
		c.Kind = CompletionVariable
	}
	return c
}

// identPrefix returns the identifier characters before col on line and the
// column where they start.
func identPrefix(line string, col int) (string, int) {
	if col > len(line) {
		col = len(line)
	}
	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	return line[start:col], start
}

// insideBracket reports whether col is inside an unclosed bracket handler
// on line and returns the text typed after its '<'.
func insideBracket(line string, col int) (string, bool) {
	if col > len(line) {
		col = len(line)
	}
	open := strings.LastIndexByte(line[:col], '<')
	if open < 0 || strings.IndexByte(line[open:col], '>') >= 0 {
		return "", false
	}
	// After an operand, '<' is a comparison: "a <b" is not a bracket.
	before := strings.TrimRight(line[:open], " \t")
	if before != "" {
		last := before[len(before)-1]
		if strings.IndexByte(")]}'\"", last) >= 0 {
			return "", false
		}
		if word, _ := identPrefix(before, len(before)); word != "" && !operatorKeyword(word) {
			return "", false
		}
	}
	text := line[open+1 : col]
	for i := 0; i < len(text); i++ {
		if !isIdentByte(text[i]) && text[i] != ':' && text[i] != '.' && text[i] != '*' {
			return "", false
		}
	}
	return text, true
}

// operatorKeyword reports whether word is a keyword that expects an operand
// after it, such as return or in.
func operatorKeyword(word string) bool {
	switch word {
	case "true", "false", "null", "this":
		return false
	}
	return syntax.IsKeyword(word)
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
