// Package treesitter builds syntax trees from tree-sitter parses. A Grammar
// maps the node types and field names of a tree-sitter language onto
// syntax kinds and fields, so any grammar can feed the resolver.
package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/zenls/internal/syntax"
)

// Rule maps one tree-sitter node type.
type Rule struct {
	Kind syntax.Kind
	// Fields renames tree-sitter fields of this node's children. The empty
	// key names children that have no field. Unlisted fields keep their
	// tree-sitter name.
	Fields map[string]string
	// FieldKinds overrides the kind of the child in a tree-sitter field,
	// e.g. an identifier that declares a name rather than referencing one.
	FieldKinds map[string]syntax.Kind
	// Token is recorded on literal nodes.
	Token syntax.TokenKind
}

// Grammar is a tree-sitter language together with its mapping.
type Grammar struct {
	Language *sitter.Language
	Rules    map[string]Rule
	// Separators are anonymous tokens recorded as separator positions on
	// the enclosing node, e.g. "," in argument lists.
	Separators []string
}

// Parse parses src with g and converts the result. Named nodes without a
// rule are dropped and their mapped descendants attach to the nearest
// mapped ancestor. Anonymous children in the "operator" field set the
// parent's Op. Error and missing nodes become diagnostics.
func Parse(ctx context.Context, g Grammar, src []byte) (*syntax.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.Language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("treesitter: parse: %w", err)
	}
	defer tree.Close()

	c := &converter{g: g, src: src, seps: make(map[string]bool, len(g.Separators))}
	for _, s := range g.Separators {
		c.seps[s] = true
	}
	return c.convert(tree.RootNode()), nil
}

type converter struct {
	g     Grammar
	src   []byte
	seps  map[string]bool
	diags []syntax.Diagnostic
}

func (c *converter) convert(root *sitter.Node) *syntax.Tree {
	rng := rangeOf(root)
	top := syntax.NewNode(syntax.KindCompilationUnit, rng, string(c.src))
	rule := Rule{Kind: syntax.KindCompilationUnit}
	if r, ok := c.g.Rules[root.Type()]; ok && r.Kind == syntax.KindCompilationUnit {
		rule = r
	}
	if root.IsError() {
		c.diags = append(c.diags, syntax.Diagnostic{Range: rng, Message: "syntax error"})
	}

	cur := sitter.NewTreeCursor(root)
	defer cur.Close()
	c.children(cur, top, rule)
	return &syntax.Tree{Root: top, Source: string(c.src), Diagnostics: c.diags}
}

// children visits the children under the cursor and returns it to the
// node it started on.
func (c *converter) children(cur *sitter.TreeCursor, parent *syntax.Node, rule Rule) {
	if !cur.GoToFirstChild() {
		return
	}
	for {
		c.visit(cur, parent, rule, cur.CurrentFieldName())
		if !cur.GoToNextSibling() {
			break
		}
	}
	cur.GoToParent()
}

func (c *converter) visit(cur *sitter.TreeCursor, parent *syntax.Node, parentRule Rule, field string) {
	n := cur.CurrentNode()
	typ := n.Type()

	switch {
	case n.IsMissing():
		c.diags = append(c.diags, syntax.Diagnostic{Range: rangeOf(n), Message: "missing " + typ})
		return
	case n.IsError():
		c.diags = append(c.diags, syntax.Diagnostic{Range: rangeOf(n), Message: "syntax error"})
		c.children(cur, parent, parentRule)
		return
	case !n.IsNamed():
		if field == "operator" {
			parent.SetOp(typ)
		} else if c.seps[typ] {
			parent.AddSep(position(n.StartPoint()))
		}
		return
	}

	rule, ok := c.g.Rules[typ]
	if !ok {
		c.children(cur, parent, parentRule)
		return
	}
	if k, ok := parentRule.FieldKinds[field]; ok {
		rule.Kind = k
	}
	node := syntax.NewNode(rule.Kind, rangeOf(n), n.Content(c.src))
	if rule.Token != syntax.TokenEOF {
		node.SetToken(rule.Token)
	}
	name := field
	if renamed, ok := parentRule.Fields[field]; ok {
		name = renamed
	}
	parent.Append(name, node)
	c.children(cur, node, rule)
}

func position(p sitter.Point) syntax.Position {
	return syntax.Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func rangeOf(n *sitter.Node) syntax.Range {
	return syntax.Range{Start: position(n.StartPoint()), End: position(n.EndPoint())}
}
