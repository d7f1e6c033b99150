package semantic

import "sync"

var (
	primitiveMembers map[Primitive][]*Symbol
	builtinsOnce     sync.Once
)

// Members returns the members visible on a value of type t: a class's own
// members followed by inherited ones, or the built-in members of primitive
// and collection types.
func Members(t Type) []*Symbol {
	switch x := t.(type) {
	case Primitive:
		initBuiltins()
		return primitiveMembers[x]
	case *ClassType:
		return classMembers(x.Class, map[*Symbol]bool{})
	case *ArrayType:
		return sequenceMembers(t, x.Elem)
	case *ListType:
		return sequenceMembers(t, x.Elem)
	case *MapType:
		return mapMembers(x)
	}
	if t != nil && t.Tag() == TagIntRange {
		return []*Symbol{
			field("from", Int),
			field("to", Int),
			operator(OpHas, Bool, Int),
		}
	}
	// Any, Error, unions and functions expose nothing statically.
	return nil
}

// MembersNamed returns the members of t called name.
func MembersNamed(t Type, name string, kinds ...SymbolKind) []*Symbol {
	var out []*Symbol
	for _, m := range Members(t) {
		if m.Name == name && m.Is(kinds...) {
			out = append(out, m)
		}
	}
	return out
}

func classMembers(c *Symbol, seen map[*Symbol]bool) []*Symbol {
	if c == nil || seen[c] {
		return nil
	}
	seen[c] = true
	var out []*Symbol
	if c.Members != nil {
		out = append(out, c.Members.Symbols()...)
	}
	for _, s := range c.Supers {
		out = append(out, classMembers(s, seen)...)
	}
	return out
}

func param(name string, t Type) *Symbol {
	return &Symbol{Kind: SymbolParameter, Name: name, Type: t}
}

func field(name string, t Type) *Symbol {
	return &Symbol{Kind: SymbolVariable, Name: name, Type: t, Modifier: ModifierVal}
}

func method(name string, ret Type, params ...Type) *Symbol {
	fn := &Symbol{Kind: SymbolFunction, Name: name, Return: ret}
	for i, p := range params {
		fn.Params = append(fn.Params, param(string(rune('a'+i)), p))
	}
	fn.Type = fn.FunctionType()
	return fn
}

func operator(op Operator, ret Type, params ...Type) *Symbol {
	fn := method(op.Literal(), ret, params...)
	fn.Kind = SymbolOperatorFunction
	fn.Operator = op
	return fn
}

var numerics = []Primitive{Byte, Short, Int, Long, Float, Double}

func initBuiltins() {
	builtinsOnce.Do(func() {
		primitiveMembers = make(map[Primitive][]*Symbol)
		for _, p := range numerics {
			var casts []Type
			for _, q := range numerics {
				if q != p {
					casts = append(casts, q)
				}
			}
			casts = append(casts, String)
			ms := []*Symbol{
				operator(OpAdd, p, p),
				operator(OpAdd, String, String),
				operator(OpSub, p, p),
				operator(OpMul, p, p),
				operator(OpDiv, p, p),
				operator(OpMod, p, p),
				operator(OpConcat, String, Any),
				operator(OpNeg, p),
				operator(OpAs, casters(casts...)),
			}
			ms = append(ms, comparisons(p)...)
			if p == Int || p == Long || p == Byte || p == Short {
				ms = append(ms,
					operator(OpAnd, p, p),
					operator(OpOr, p, p),
					operator(OpXor, p, p),
				)
			}
			if p == Int {
				ms = append(ms, operator(OpRange, IntRange, Int))
			}
			primitiveMembers[p] = ms
		}

		primitiveMembers[Bool] = append([]*Symbol{
			operator(OpAndAnd, Bool, Bool),
			operator(OpOrOr, Bool, Bool),
			operator(OpAnd, Bool, Bool),
			operator(OpOr, Bool, Bool),
			operator(OpXor, Bool, Bool),
			operator(OpNot, Bool),
			operator(OpConcat, String, Any),
			operator(OpAs, casters(String)),
		}, equality(Bool)...)

		primitiveMembers[String] = append([]*Symbol{
			field("length", Int),
			method("toUpperCase", String),
			method("toLowerCase", String),
			method("trim", String),
			method("contains", Bool, String),
			method("startsWith", Bool, String),
			method("endsWith", Bool, String),
			method("replace", String, String, String),
			method("split", &ArrayType{Elem: String}, String),
			operator(OpAdd, String, Any),
			operator(OpConcat, String, Any),
			operator(OpIndexGet, String, Int),
			operator(OpHas, Bool, String),
		}, comparisons(String)...)
	})
}

// casters builds the result of an `as` operator. It stays a union even with a
// single target so HasCaster can recognise it.
func casters(targets ...Type) Type {
	return &UnionType{Types: targets}
}

func equality(t Type) []*Symbol {
	return []*Symbol{
		operator(OpEquals, Bool, t),
		operator(OpNotEquals, Bool, t),
	}
}

func comparisons(t Type) []*Symbol {
	return append(equality(t),
		operator(OpLess, Bool, t),
		operator(OpLessEquals, Bool, t),
		operator(OpGreater, Bool, t),
		operator(OpGreaterEquals, Bool, t),
	)
}

func sequenceMembers(self, elem Type) []*Symbol {
	return []*Symbol{
		field("length", Int),
		method("remove", Void, Int),
		operator(OpIndexGet, elem, Int),
		operator(OpIndexSet, Void, Int, elem),
		operator(OpHas, Bool, elem),
		operator(OpAdd, self, elem),
		operator(OpConcat, self, elem),
	}
}

func mapMembers(m *MapType) []*Symbol {
	return []*Symbol{
		field("length", Int),
		field("keys", &ArrayType{Elem: m.Key}),
		field("values", &ArrayType{Elem: m.Value}),
		operator(OpIndexGet, m.Value, m.Key),
		operator(OpIndexSet, Void, m.Key, m.Value),
		operator(OpHas, Bool, m.Key),
		operator(OpMemberGet, m.Value, String),
	}
}
