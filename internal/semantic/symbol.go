// Package semantic holds the analysis model shared by the resolver and the
// query layer: symbols, lexical scopes, value types, graded subtyping and
// operator-overload resolution.
package semantic

import (
	"fmt"
	"strings"

	"github.com/jward/zenls/internal/syntax"
)

// SymbolKind tags the variant of a Symbol. The set is closed.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolParameter
	SymbolFunction
	SymbolClass
	SymbolImport
	SymbolOperatorFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolImport:
		return "import"
	case SymbolOperatorFunction:
		return "operator"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// ConstructorName is the member name under which class constructors are
// recorded. It is not a valid identifier, so user code cannot reference it.
const ConstructorName = "<init>"

// Modifier is the declaration keyword of a variable or function.
type Modifier int

const (
	ModifierNone Modifier = iota
	ModifierVar
	ModifierVal
	ModifierStatic
	ModifierGlobal
)

// ParseModifier maps a declaration keyword to its Modifier.
func ParseModifier(keyword string) Modifier {
	switch keyword {
	case "var":
		return ModifierVar
	case "val":
		return ModifierVal
	case "static":
		return ModifierStatic
	case "global":
		return ModifierGlobal
	}
	return ModifierNone
}

func (m Modifier) String() string {
	switch m {
	case ModifierVar:
		return "var"
	case ModifierVal:
		return "val"
	case ModifierStatic:
		return "static"
	case ModifierGlobal:
		return "global"
	}
	return ""
}

// Symbol is a named declaration. Which fields are meaningful depends on Kind:
//
//   - Function, OperatorFunction: Params, Return (and Operator for the latter)
//   - Parameter: Default, Variadic
//   - Class: Members, Supers, QualifiedName
//   - Import: Path, Target
//
// Symbols are created by one resolution pass and replaced wholesale when
// their unit reloads; Type is assigned at most once per pass.
type Symbol struct {
	Kind     SymbolKind
	Name     string
	Node     *syntax.Node
	Type     Type
	Modifier Modifier
	Unit     string

	Params   []*Symbol
	Return   Type
	Operator Operator
	Default  *syntax.Node
	Variadic bool

	Members       *Scope
	Supers        []*Symbol
	QualifiedName string

	Path   string
	Target *Symbol
}

// TypeOf returns the symbol's type, or Any while it is unassigned.
func (s *Symbol) TypeOf() Type {
	if s == nil || s.Type == nil {
		return Any
	}
	return s.Type
}

// ReturnOf returns the declared return type, or Any.
func (s *Symbol) ReturnOf() Type {
	if s.Return == nil {
		return Any
	}
	return s.Return
}

// Is reports whether the symbol has one of the given kinds. No kinds matches
// everything.
func (s *Symbol) Is(kinds ...SymbolKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if s.Kind == k {
			return true
		}
	}
	return false
}

// Static reports whether the symbol is a static or global declaration.
func (s *Symbol) Static() bool {
	return s.Modifier == ModifierStatic || s.Modifier == ModifierGlobal
}

// Readonly reports whether the symbol cannot be reassigned.
func (s *Symbol) Readonly() bool {
	return s.Modifier == ModifierVal || s.Static()
}

// SimpleTarget returns the class an import points to, or nil when the
// import is unresolved or names something other than a class.
func (s *Symbol) SimpleTarget() *Symbol {
	if s.Kind != SymbolImport || s.Target == nil || s.Target.Kind != SymbolClass {
		return nil
	}
	return s.Target
}

// FunctionType returns the callable type of a function symbol.
func (s *Symbol) FunctionType() *FunctionType {
	params := make([]Type, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.TypeOf()
	}
	return &FunctionType{Params: params, Return: s.ReturnOf()}
}

// Signature renders the declaration the way it would be written in source.
func (s *Symbol) Signature() string {
	switch s.Kind {
	case SymbolVariable:
		mod := s.Modifier.String()
		if mod == "" {
			mod = "var"
		}
		return fmt.Sprintf("%s %s as %s", mod, s.Name, s.TypeOf())
	case SymbolParameter:
		return fmt.Sprintf("%s as %s", s.Name, s.TypeOf())
	case SymbolFunction:
		prefix := "function "
		if s.Static() {
			prefix = s.Modifier.String() + " function "
		}
		return fmt.Sprintf("%s%s(%s) as %s", prefix, s.Name, s.paramList(), s.ReturnOf())
	case SymbolOperatorFunction:
		return fmt.Sprintf("operator %s(%s) as %s", s.Operator.Literal(), s.paramList(), s.ReturnOf())
	case SymbolClass:
		if s.QualifiedName != "" {
			return "zenClass " + s.QualifiedName
		}
		return "zenClass " + s.Name
	case SymbolImport:
		if s.Path != s.Name && !strings.HasSuffix(s.Path, "."+s.Name) {
			return fmt.Sprintf("import %s as %s", s.Path, s.Name)
		}
		return "import " + s.Path
	}
	return s.Name
}

func (s *Symbol) paramList() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.Signature()
	}
	return strings.Join(parts, ", ")
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s %s", s.Kind, s.Name)
}
