package syntax

import "fmt"

// Position is a location in source text. Line is 1-based, Column is 0-based.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range spans Start (inclusive) to End (exclusive).
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies within r, treating End as inclusive so
// a cursor placed right after a token still touches it.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Node is one vertex of a syntax tree. Analysis code treats it as read-only;
// the mutators exist for tree builders (the parser and tree-sitter adapter).
type Node struct {
	kind     Kind
	op       string
	token    TokenKind
	text     string
	rng      Range
	parent   *Node
	children []*Node
	fields   map[string]*Node
	seps     []Position
}

// NewNode creates a detached node.
func NewNode(kind Kind, rng Range, text string) *Node {
	return &Node{kind: kind, rng: rng, text: text}
}

func (n *Node) Kind() Kind        { return n.kind }
func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }
func (n *Node) Text() string      { return n.text }
func (n *Node) Range() Range      { return n.rng }
func (n *Node) Token() TokenKind  { return n.token }
func (n *Node) Seps() []Position  { return n.seps }

// Op is the operator literal for operator expressions and operator
// declarations, or the modifier keyword for declarations.
func (n *Node) Op() string { return n.op }

// Field returns the child registered under name, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}
	return n.fields[name]
}

// Append adds child as the last child of n. A non-empty field also
// registers the child under that name.
func (n *Node) Append(field string, child *Node) {
	if child == nil {
		return
	}
	child.parent = n
	n.children = append(n.children, child)
	if field != "" {
		if n.fields == nil {
			n.fields = make(map[string]*Node, 4)
		}
		n.fields[field] = child
	}
}

func (n *Node) SetOp(op string)            { n.op = op }
func (n *Node) SetToken(tok TokenKind)     { n.token = tok }
func (n *Node) AddSep(pos Position)        { n.seps = append(n.seps, pos) }
func (n *Node) SetRange(r Range, t string) { n.rng, n.text = r, t }

func (n *Node) String() string {
	return fmt.Sprintf("%s@%s", n.kind, n.rng)
}

// Diagnostic is a parse error.
type Diagnostic struct {
	Range   Range
	Message string
}

// Tree is a parsed source file.
type Tree struct {
	Root        *Node
	Source      string
	Diagnostics []Diagnostic
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		Walk(c, fn)
	}
}

// StackAt returns the nodes containing pos, innermost first and ending with
// root. When two siblings touch at pos, the one starting at pos wins over the
// one ending there.
func StackAt(root *Node, pos Position) []*Node {
	if root == nil || !root.rng.Contains(pos) {
		return nil
	}
	stack := []*Node{root}
	cur := root
	for {
		var next, touching *Node
		for _, c := range cur.children {
			if !c.rng.Contains(pos) {
				continue
			}
			if pos.Before(c.rng.End) {
				next = c
				break
			}
			touching = c
		}
		if next == nil {
			next = touching
		}
		if next == nil {
			break
		}
		stack = append(stack, next)
		cur = next
	}
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack
}

// Enclosing returns the nearest ancestor of n (including n) of one of kinds.
func Enclosing(n *Node, kinds ...Kind) *Node {
	for ; n != nil; n = n.parent {
		for _, k := range kinds {
			if n.kind == k {
				return n
			}
		}
	}
	return nil
}
