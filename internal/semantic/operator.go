package semantic

import "fmt"

// Operator is the canonical identity of an overloadable operator.
type Operator int

const (
	OpError Operator = iota

	OpNeg
	OpNot
	OpAs

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
	OpAnd
	OpOr
	OpXor
	OpAndAnd
	OpOrOr
	OpEquals
	OpNotEquals
	OpLess
	OpLessEquals
	OpGreater
	OpGreaterEquals
	OpHas
	OpIndexGet
	OpRange
	OpMemberGet

	OpIndexSet
	OpMemberSet
)

type operatorInfo struct {
	literal string
	arity   int
}

var operatorTable = map[Operator]operatorInfo{
	OpError:         {"<error>", 0},
	OpNeg:           {"-", 1},
	OpNot:           {"!", 1},
	OpAs:            {"as", 1},
	OpAdd:           {"+", 2},
	OpSub:           {"-", 2},
	OpMul:           {"*", 2},
	OpDiv:           {"/", 2},
	OpMod:           {"%", 2},
	OpConcat:        {"~", 2},
	OpAnd:           {"&", 2},
	OpOr:            {"|", 2},
	OpXor:           {"^", 2},
	OpAndAnd:        {"&&", 2},
	OpOrOr:          {"||", 2},
	OpEquals:        {"==", 2},
	OpNotEquals:     {"!=", 2},
	OpLess:          {"<", 2},
	OpLessEquals:    {"<=", 2},
	OpGreater:       {">", 2},
	OpGreaterEquals: {">=", 2},
	OpHas:           {"has", 2},
	OpIndexGet:      {"[]", 2},
	OpRange:         {"..", 2},
	OpMemberGet:     {".", 2},
	OpIndexSet:      {"[]=", 3},
	OpMemberSet:     {".=", 3},
}

type literalKey struct {
	literal string
	arity   int
}

// literals maps surface spellings to operators. Some operators have more
// than one spelling ("in" for "has", "to" for "..").
var literals = func() map[literalKey]Operator {
	m := make(map[literalKey]Operator, len(operatorTable)+2)
	for op, info := range operatorTable {
		if op != OpError {
			m[literalKey{info.literal, info.arity}] = op
		}
	}
	m[literalKey{"in", 2}] = OpHas
	m[literalKey{"to", 2}] = OpRange
	return m
}()

// OperatorFromLiteral maps an operator token and its arity (operands
// including the receiver) to an Operator. Unknown literals yield OpError.
// An arity outside 1..3 is a caller bug and panics.
func OperatorFromLiteral(literal string, arity int) Operator {
	switch arity {
	case 1, 2, 3:
	default:
		panic(fmt.Sprintf("semantic: invalid operator arity %d for %q", arity, literal))
	}
	if op, ok := literals[literalKey{literal, arity}]; ok {
		return op
	}
	return OpError
}

// Literal returns the canonical spelling.
func (op Operator) Literal() string { return operatorTable[op].literal }

// Arity returns the operand count including the receiver.
func (op Operator) Arity() int { return operatorTable[op].arity }

func (op Operator) String() string {
	return fmt.Sprintf("%s/%d", op.Literal(), op.Arity())
}

// FindOperators returns the operator-function members of t for op in
// declaration order.
func FindOperators(t Type, op Operator) []*Symbol {
	var out []*Symbol
	for _, m := range Members(t) {
		if m.Kind == SymbolOperatorFunction && m.Operator == op {
			out = append(out, m)
		}
	}
	return out
}

// UnaryResult resolves a unary operator: the first declared candidate wins.
func UnaryResult(t Type, op Operator) Type {
	if found := FindOperators(t, op); len(found) > 0 {
		return found[0].ReturnOf()
	}
	return Any
}

// BinaryResult resolves a binary operator by picking the candidate whose
// parameter best fits right. Ties keep declaration order.
func BinaryResult(t Type, op Operator, right Type) Type {
	best, bestRank := (*Symbol)(nil), Mismatch
	for _, c := range FindOperators(t, op) {
		if len(c.Params) < 1 {
			continue
		}
		r := IsSubtypeOf(right, c.Params[0].TypeOf())
		if r < bestRank {
			best, bestRank = c, r
		}
	}
	if best == nil {
		return Any
	}
	return best.ReturnOf()
}

// TrinaryResult resolves a three-operand operator. A candidate ranks by its
// worse-fitting parameter.
func TrinaryResult(t Type, op Operator, a, b Type) Type {
	best, bestRank := (*Symbol)(nil), Mismatch
	for _, c := range FindOperators(t, op) {
		if len(c.Params) < 2 {
			continue
		}
		r := Higher(IsSubtypeOf(a, c.Params[0].TypeOf()), IsSubtypeOf(b, c.Params[1].TypeOf()))
		if r < bestRank {
			best, bestRank = c, r
		}
	}
	if best == nil {
		return Any
	}
	return best.ReturnOf()
}

// Apply resolves op on receiver t with the remaining operand types. The
// operand count must agree with the operator's arity.
func Apply(t Type, op Operator, args ...Type) Type {
	if op.Arity() != len(args)+1 {
		panic(fmt.Sprintf("semantic: %s applied to %d operand(s)", op, len(args)+1))
	}
	switch len(args) {
	case 0:
		return UnaryResult(t, op)
	case 1:
		return BinaryResult(t, op, args[0])
	default:
		return TrinaryResult(t, op, args[0], args[1])
	}
}

// HasCaster reports whether src converts to target: either they are the
// same type or src's `as` operator yields a union naming target.
func HasCaster(src, target Type) bool {
	if Equal(src, target) {
		return true
	}
	if u, ok := UnaryResult(src, OpAs).(*UnionType); ok {
		return u.Contains(target)
	}
	return false
}

// BestOverload picks the function whose parameters best fit args, ranking
// each candidate by its worst argument. Candidates whose arity cannot accept
// args are skipped. A candidate that fits by arity only still beats no
// candidate, so partially invalid calls keep a return type.
func BestOverload(candidates []*Symbol, args []Type) *Symbol {
	var best *Symbol
	bestRank := Mismatch + 1
	for _, c := range candidates {
		if !arityFits(c, len(args)) {
			continue
		}
		r := Self
		for i, a := range args {
			r = Higher(r, IsSubtypeOf(a, paramAt(c, i).TypeOf()))
		}
		if r < bestRank {
			best, bestRank = c, r
		}
	}
	return best
}

func paramAt(fn *Symbol, i int) *Symbol {
	if i >= len(fn.Params) {
		return fn.Params[len(fn.Params)-1]
	}
	return fn.Params[i]
}

func arityFits(fn *Symbol, n int) bool {
	if len(fn.Params) > 0 && fn.Params[len(fn.Params)-1].Variadic {
		return n >= len(fn.Params)-1
	}
	if n > len(fn.Params) {
		return false
	}
	for _, p := range fn.Params[n:] {
		if p.Default == nil {
			return false
		}
	}
	return true
}
