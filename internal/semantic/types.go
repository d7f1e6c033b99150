package semantic

import (
	"fmt"
	"strings"
)

// TypeTag identifies the variant of a Type. The set is closed; consumers
// switch on it exhaustively.
type TypeTag int

const (
	TagPrimitive TypeTag = iota
	TagClass
	TagUnion
	TagAny
	TagError
	TagArray
	TagList
	TagMap
	TagFunction
	TagIntRange
)

// Type is a static value type.
type Type interface {
	Tag() TypeTag
	String() string
}

// Primitive is a built-in scalar type.
type Primitive int

const (
	Byte Primitive = iota + 1
	Short
	Int
	Long
	Float
	Double
	Bool
	String
	Void
)

var primitiveNames = map[Primitive]string{
	Byte:   "byte",
	Short:  "short",
	Int:    "int",
	Long:   "long",
	Float:  "float",
	Double: "double",
	Bool:   "bool",
	String: "string",
	Void:   "void",
}

func (p Primitive) Tag() TypeTag { return TagPrimitive }

func (p Primitive) String() string {
	if name, ok := primitiveNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Primitive(%d)", int(p))
}

// Numeric reports whether p is one of the number types.
func (p Primitive) Numeric() bool {
	return p >= Byte && p <= Double
}

// PrimitiveByName resolves a type keyword. "any" yields Any.
func PrimitiveByName(name string) (Type, bool) {
	if name == "any" {
		return Any, true
	}
	for p, n := range primitiveNames {
		if n == name {
			return p, true
		}
	}
	return nil, false
}

type anyType struct{}

func (anyType) Tag() TypeTag   { return TagAny }
func (anyType) String() string { return "any" }

type errorType struct{}

func (errorType) Tag() TypeTag   { return TagError }
func (errorType) String() string { return "error" }

type intRangeType struct{}

func (intRangeType) Tag() TypeTag   { return TagIntRange }
func (intRangeType) String() string { return "int..int" }

var (
	// Any is the gradual top type.
	Any Type = anyType{}
	// Error marks a type that failed to resolve.
	Error Type = errorType{}
	// IntRange is the type of `a to b` and `a .. b`.
	IntRange Type = intRangeType{}
)

// ClassType is the instance type of a class symbol.
type ClassType struct {
	Class *Symbol
}

func (c *ClassType) Tag() TypeTag { return TagClass }

func (c *ClassType) String() string {
	if c.Class.QualifiedName != "" {
		return c.Class.QualifiedName
	}
	return c.Class.Name
}

// UnionType is an ordered, duplicate-free set of alternatives.
type UnionType struct {
	Types []Type
}

func (u *UnionType) Tag() TypeTag { return TagUnion }

func (u *UnionType) String() string {
	parts := make([]string, len(u.Types))
	for i, t := range u.Types {
		parts[i] = t.String()
	}
	return strings.Join(parts, " | ")
}

// Contains reports whether t is one of the union's alternatives.
func (u *UnionType) Contains(t Type) bool {
	for _, m := range u.Types {
		if Equal(m, t) {
			return true
		}
	}
	return false
}

// NewUnion flattens nested unions and drops duplicates, keeping first
// occurrence order. A single alternative is returned as is.
func NewUnion(types ...Type) Type {
	u := &UnionType{}
	var add func(t Type)
	add = func(t Type) {
		if t == nil {
			return
		}
		if inner, ok := t.(*UnionType); ok {
			for _, m := range inner.Types {
				add(m)
			}
			return
		}
		if !u.Contains(t) {
			u.Types = append(u.Types, t)
		}
	}
	for _, t := range types {
		add(t)
	}
	switch len(u.Types) {
	case 0:
		return Any
	case 1:
		return u.Types[0]
	}
	return u
}

type ArrayType struct{ Elem Type }

func (a *ArrayType) Tag() TypeTag   { return TagArray }
func (a *ArrayType) String() string { return a.Elem.String() + "[]" }

type ListType struct{ Elem Type }

func (l *ListType) Tag() TypeTag   { return TagList }
func (l *ListType) String() string { return "[" + l.Elem.String() + "]" }

type MapType struct{ Key, Value Type }

func (m *MapType) Tag() TypeTag   { return TagMap }
func (m *MapType) String() string { return m.Value.String() + "[" + m.Key.String() + "]" }

type FunctionType struct {
	Params []Type
	Return Type
}

func (f *FunctionType) Tag() TypeTag { return TagFunction }

func (f *FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("function(%s)%s", strings.Join(parts, ","), f.Return)
}

// Equal reports structural type equality. Class types compare by symbol
// identity, falling back to qualified name across reload generations.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag() != b.Tag() {
		return false
	}
	switch x := a.(type) {
	case Primitive:
		return x == b.(Primitive)
	case *ClassType:
		y := b.(*ClassType)
		return x.Class == y.Class || (x.Class.QualifiedName != "" && x.Class.QualifiedName == y.Class.QualifiedName)
	case *UnionType:
		y := b.(*UnionType)
		if len(x.Types) != len(y.Types) {
			return false
		}
		for _, t := range x.Types {
			if !y.Contains(t) {
				return false
			}
		}
		return true
	case *ArrayType:
		return Equal(x.Elem, b.(*ArrayType).Elem)
	case *ListType:
		return Equal(x.Elem, b.(*ListType).Elem)
	case *MapType:
		y := b.(*MapType)
		return Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case *FunctionType:
		y := b.(*FunctionType)
		if len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	}
	// Any, Error and IntRange are singletons.
	return true
}

// Prefer returns the first candidate that is neither nil nor Error, or Any.
func Prefer(candidates ...Type) Type {
	for _, t := range candidates {
		if t != nil && t.Tag() != TagError {
			return t
		}
	}
	return Any
}
