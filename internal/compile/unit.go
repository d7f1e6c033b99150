// Package compile holds compilation units and the environments that own
// them. An Environment keeps two tiers of units: library declaration files
// (*.d.zs), whose exports merge into one library table, and scripts (*.zs),
// which each contribute their own global variables.
//
// Environment methods do not lock. Callers hold the environment's read lock
// for queries and its write lock for anything that adds, reloads or removes
// units; the workspace package does this through document handles.
package compile

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/jward/zenls/internal/resolve"
	"github.com/jward/zenls/internal/semantic"
	"github.com/jward/zenls/internal/syntax"
)

const (
	// LibrarySuffix marks library declaration units.
	LibrarySuffix = ".d.zs"
	// ScriptSuffix marks script units.
	ScriptSuffix = ".zs"
)

// ErrNotSource is returned for paths that are neither scripts nor library
// declarations.
var ErrNotSource = errors.New("compile: not a ZenScript source file")

// Classification tells which tier a path belongs to.
type Classification int

const (
	NotSource Classification = iota
	Script
	Library
)

// Classify inspects the file name only.
func Classify(path string) Classification {
	switch {
	case strings.HasSuffix(path, LibrarySuffix):
		return Library
	case strings.HasSuffix(path, ScriptSuffix):
		return Script
	}
	return NotSource
}

// Unit is one source file of an environment. Its side tables are replaced
// wholesale on every resolution; readers holding the environment lock see
// either the old or the new tables, never a mix.
type Unit struct {
	Path          string
	QualifiedName string
	Library       bool
	Source        string
	Hash          string
	Tree          *syntax.Tree

	result     *resolve.Result
	exports    []*semantic.Symbol
	generation uint64
}

// ParseUnit parses src into a unit that is not yet resolved.
func ParseUnit(path, src string) (*Unit, error) {
	class := Classify(path)
	if class == NotSource {
		return nil, fmt.Errorf("%w: %s", ErrNotSource, path)
	}
	return &Unit{
		Path:    path,
		Library: class == Library,
		Source:  src,
		Hash:    fmt.Sprintf("%x", sha256.Sum256([]byte(src))),
		Tree:    syntax.Parse(src),
	}, nil
}

// Result returns the unit's side tables, or an empty result before the
// first resolution.
func (u *Unit) Result() *resolve.Result {
	if u.result == nil {
		return &resolve.Result{
			Root:    semantic.NewScope(nil, u.Tree.Root),
			Scopes:  map[*syntax.Node]*semantic.Scope{},
			Symbols: map[*syntax.Node]*semantic.Symbol{},
			Types:   map[*syntax.Node]semantic.Type{},
		}
	}
	return u.result
}

// Exports returns the top-level functions, classes and static or global
// variables of the unit.
func (u *Unit) Exports() []*semantic.Symbol { return u.exports }

// Generation is the environment generation at which the unit was last
// resolved. Zero means never.
func (u *Unit) Generation() uint64 { return u.generation }

func (u *Unit) info() resolve.UnitInfo {
	return resolve.UnitInfo{Path: u.Path, QualifiedName: u.QualifiedName, Library: u.Library}
}

func (u *Unit) install(res *resolve.Result, exports []*semantic.Symbol, generation uint64) {
	u.result, u.exports, u.generation = res, exports, generation
}

// NodeAt returns the syntax nodes containing pos, innermost first.
func (u *Unit) NodeAt(pos syntax.Position) []*syntax.Node {
	return syntax.StackAt(u.Tree.Root, pos)
}

// ScopeAt returns the innermost scope containing pos.
func (u *Unit) ScopeAt(pos syntax.Position) *semantic.Scope {
	return u.Result().ScopeAt(u.NodeAt(pos))
}
