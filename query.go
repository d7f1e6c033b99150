package zenls

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/resolve"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
	"github.com/jward/zenls/internal/workspace"
)

// ErrNotLoaded is returned when a document's environment exists but holds
// no unit for it, e.g. a file that has not been saved or announced yet.
var ErrNotLoaded = errors.New("zenls: document not loaded")

// QueryBuilder answers editor queries. Every query holds the read lock of
// the document's environment for its duration and returns owned values
// only.
type QueryBuilder struct {
	engine *Engine
}

// Location represents a source code position range.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func locationOf(file string, r syntax.Range) Location {
	return Location{
		File:      file,
		StartLine: r.Start.Line,
		StartCol:  r.Start.Column,
		EndLine:   r.End.Line,
		EndCol:    r.End.Column,
	}
}

// open returns a read handle on path and its unit. The caller closes the
// handle.
func (q *QueryBuilder) open(ctx context.Context, path string) (*workspace.Handle, *compile.Unit, error) {
	h, err := q.engine.manager.OpenForRead(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("zenls: open %s: %w", path, err)
	}
	u := h.Unit()
	if u == nil {
		h.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotLoaded, path)
	}
	return h, u, nil
}

// DefinitionAt returns the declaration of the symbol referenced or declared
// at pos. Built-in members have no declaration and yield nothing.
func (q *QueryBuilder) DefinitionAt(ctx context.Context, path string, pos Position) ([]Location, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("definition at: %w", err)
	}
	defer h.Close()

	sym, _, _ := symbolAt(u.Result(), u.NodeAt(pos))
	if sym == nil {
		return nil, nil
	}
	if sym.Kind == semantic.SymbolImport && sym.Target != nil {
		sym = sym.Target
	}
	if sym.Node == nil {
		return nil, nil
	}
	return []Location{locationOf(sym.Unit, declRange(sym))}, nil
}

// symbolAt finds the symbol under the innermost node of stack. It looks
// through identifiers to the declaration or reference that owns them and
// reports whether the match is the declaration itself.
func symbolAt(res *resolve.Result, stack []*syntax.Node) (*semantic.Symbol, *syntax.Node, bool) {
	for _, n := range stack {
		if sym := res.Symbols[n]; sym != nil {
			return sym, n, sym.Node == n
		}
		if n.Kind() != syntax.KindIdentifier && n.Kind() != syntax.KindQualifiedName {
			return nil, nil, false
		}
		if p := n.Parent(); p != nil && (p.Field("name") == n || p.Field("alias") == n) {
			if sym := res.Symbols[p]; sym != nil {
				return sym, n, sym.Node == p
			}
		}
	}
	return nil, nil, false
}

// declRange is the range of a symbol's name in its declaration, or the
// whole declaration when it has no name.
func declRange(sym *semantic.Symbol) syntax.Range {
	if id := sym.Node.Field("name"); id != nil {
		return id.Range()
	}
	return sym.Node.Range()
}

// =============================================================================
// Outline
// =============================================================================

// SymbolInfo describes one declared symbol.
type SymbolInfo struct {
	Name      string
	Kind      string
	Type      string
	Signature string
	Location  *Location `json:",omitempty"`
}

// ScopeOutline is a copy of one scope of a unit's scope tree.
type ScopeOutline struct {
	Kind     string
	Location Location
	Symbols  []SymbolInfo
	Children []ScopeOutline
}

// SymbolsOf returns the scope tree of the unit at path. The result shares
// nothing with the environment, so it stays valid after later reloads.
func (q *QueryBuilder) SymbolsOf(ctx context.Context, path string) (*ScopeOutline, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("symbols of: %w", err)
	}
	defer h.Close()

	out := outlineScope(u.Path, u.Result().Root)
	return &out, nil
}

func outlineScope(file string, s *semantic.Scope) ScopeOutline {
	out := ScopeOutline{Kind: syntax.KindCompilationUnit.String()}
	if s.Node != nil {
		out.Kind = s.Node.Kind().String()
		out.Location = locationOf(file, s.Node.Range())
	}
	for _, sym := range s.Symbols() {
		out.Symbols = append(out.Symbols, symbolInfo(sym))
	}
	for _, child := range s.Children() {
		out.Children = append(out.Children, outlineScope(file, child))
	}
	return out
}

func symbolInfo(sym *semantic.Symbol) SymbolInfo {
	info := SymbolInfo{
		Name:      sym.Name,
		Kind:      sym.Kind.String(),
		Type:      symbolTypeString(sym),
		Signature: sym.Signature(),
	}
	if sym.Node != nil {
		loc := locationOf(sym.Unit, declRange(sym))
		info.Location = &loc
	}
	return info
}

func symbolTypeString(sym *semantic.Symbol) string {
	if sym.Is(semantic.SymbolFunction, semantic.SymbolOperatorFunction) {
		return sym.FunctionType().String()
	}
	return sym.TypeOf().String()
}

// =============================================================================
// Diagnostics
// =============================================================================

// Severity follows the editor protocol's numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is a problem found in a unit.
type Diagnostic struct {
	Location Location
	Severity Severity
	Message  string
}

// Diagnostics returns the parse errors of the unit at path followed by its
// unresolved names. Unresolved names are informational since they fall
// back to any.
func (q *QueryBuilder) Diagnostics(ctx context.Context, path string) ([]Diagnostic, error) {
	h, u, err := q.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	defer h.Close()

	var out []Diagnostic
	for _, d := range u.Tree.Diagnostics {
		out = append(out, Diagnostic{
			Location: locationOf(u.Path, d.Range),
			Severity: SeverityError,
			Message:  d.Message,
		})
	}
	for _, n := range u.Result().Unresolved {
		out = append(out, Diagnostic{
			Location: locationOf(u.Path, n.Range()),
			Severity: SeverityInformation,
			Message:  fmt.Sprintf("cannot resolve %s", n.Text()),
		})
	}
	return out, nil
}

// lineText returns the 1-based line of src without its line break.
func lineText(src string, line int) string {
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(src, '\n')
		if nl < 0 {
			return ""
		}
		src = src[nl+1:]
	}
	if nl := strings.IndexByte(src, '\n'); nl >= 0 {
		src = src[:nl]
	}
	return strings.TrimSuffix(src, "\r")
}
