package semantic

// SubtypeResult grades how well a type fits where another is expected.
// Lower values are better matches.
type SubtypeResult int

const (
	// Self is an exact match.
	Self SubtypeResult = iota
	// Inherit matches through a declared super class.
	Inherit
	// Caster matches through an implicit `as` conversion.
	Caster
	// Fallback matches only because one side is Any.
	Fallback
	// Mismatch does not match.
	Mismatch
)

func (r SubtypeResult) String() string {
	switch r {
	case Self:
		return "self"
	case Inherit:
		return "inherit"
	case Caster:
		return "caster"
	case Fallback:
		return "fallback"
	}
	return "mismatch"
}

// Matched reports whether r is anything but Mismatch.
func (r SubtypeResult) Matched() bool { return r != Mismatch }

// Higher returns the worse of a and b.
func Higher(a, b SubtypeResult) SubtypeResult {
	if a > b {
		return a
	}
	return b
}

// IsSubtypeOf grades a against the expected type b.
func IsSubtypeOf(a, b Type) SubtypeResult {
	if a == nil || b == nil {
		return Mismatch
	}
	if a.Tag() == TagError || b.Tag() == TagError {
		return Mismatch
	}
	if Equal(a, b) {
		return Self
	}
	if a.Tag() == TagAny || b.Tag() == TagAny {
		return Fallback
	}

	switch x := a.(type) {
	case *UnionType:
		// Every alternative must fit; the union is as good as its worst.
		worst := Self
		for _, t := range x.Types {
			worst = Higher(worst, IsSubtypeOf(t, b))
		}
		if worst == Self {
			worst = Inherit
		}
		return worst
	case *ClassType:
		if y, ok := b.(*ClassType); ok && inherits(x.Class, y.Class, map[*Symbol]bool{}) {
			return Inherit
		}
	case *ArrayType:
		if y, ok := b.(*ArrayType); ok {
			return elementGrade(IsSubtypeOf(x.Elem, y.Elem))
		}
	case *ListType:
		if y, ok := b.(*ListType); ok {
			return elementGrade(IsSubtypeOf(x.Elem, y.Elem))
		}
	case *FunctionType:
		if y, ok := b.(*FunctionType); ok && len(x.Params) == len(y.Params) {
			worst := IsSubtypeOf(x.Return, y.Return)
			for i := range x.Params {
				worst = Higher(worst, IsSubtypeOf(y.Params[i], x.Params[i]))
			}
			return elementGrade(worst)
		}
	}

	if u, ok := b.(*UnionType); ok {
		best := Mismatch
		for _, t := range u.Types {
			if r := IsSubtypeOf(a, t); r < best {
				best = r
			}
		}
		if best == Self {
			best = Inherit
		}
		return best
	}

	if HasCaster(a, b) {
		return Caster
	}
	return Mismatch
}

func elementGrade(r SubtypeResult) SubtypeResult {
	if r == Self {
		return Inherit
	}
	return r
}

func inherits(c, target *Symbol, seen map[*Symbol]bool) bool {
	if c == nil || seen[c] {
		return false
	}
	seen[c] = true
	for _, s := range c.Supers {
		if s == target || (s.QualifiedName != "" && s.QualifiedName == target.QualifiedName) {
			return true
		}
		if inherits(s, target, seen) {
			return true
		}
	}
	return false
}
