// Package css keeps a stylesheet as a lossless tree of rules, at-rules,
// declarations and comments. Every node remembers the text around it, so
// printing an unmodified tree gives back the input unchanged and edits only
// touch the nodes they change.
package css

import (
	"io"
	"slices"
	"strings"
)

// Raws holds source formatting around a node.
type Raws struct {
	Before    string // whitespace and stray semicolons preceding the node
	Between   string // rule and at-rule: text before "{" or ";"; declaration: colon with surrounding whitespace
	After     string // container: text before closing "}"; declaration: text before ";"
	AfterName string // at-rule: text between name and params
}

// Node is a single item of the stylesheet tree.
type Node interface {
	// Parent returns the container holding the node or nil for detached nodes.
	Parent() Container
	// Remove detaches the node from its parent.
	Remove()
	// Line is the 1-based source line where the node starts, 0 for nodes
	// which were not parsed.
	Line() int

	base() *node
	write(sb *strings.Builder)
}

// Container is a node (or the stylesheet itself) holding child nodes.
type Container interface {
	Children() []Node
	RemoveChild(n Node) bool
	Append(nodes ...Node)
}

type node struct {
	Raws   Raws
	parent Container
	line   int
}

func (n *node) Parent() Container { return n.parent }
func (n *node) Line() int         { return n.line }
func (n *node) base() *node       { return n }

func detach(n Node) {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

type block struct {
	nodes []Node
}

// Children returns child nodes in document order. The slice belongs to the
// container and must not be modified.
func (b *block) Children() []Node { return b.nodes }

// RemoveChild detaches n and reports whether it was a child.
func (b *block) RemoveChild(n Node) bool {
	i := slices.Index(b.nodes, n)
	if i < 0 {
		return false
	}
	b.nodes = slices.Delete(b.nodes, i, i+1)
	n.base().parent = nil
	return true
}

func (b *block) append(owner Container, nodes []Node) {
	for _, n := range nodes {
		detach(n)
		n.base().parent = owner
		b.nodes = append(b.nodes, n)
	}
}

func (b *block) writeChildren(sb *strings.Builder) {
	for _, n := range b.nodes {
		n.write(sb)
	}
}

// Stylesheet is the root of the tree.
type Stylesheet struct {
	block
	Raws Raws // only After is used: text following the last node
}

// Append adds nodes to the end of the stylesheet.
func (s *Stylesheet) Append(nodes ...Node) { s.block.append(s, nodes) }

// RemoveChild detaches n. When the first node goes away its leading
// whitespace is handed to the node which becomes first, so the document keeps
// its original indentation.
func (s *Stylesheet) RemoveChild(n Node) bool {
	i := slices.Index(s.nodes, n)
	if i < 0 {
		return false
	}
	if i == 0 && len(s.nodes) > 1 {
		s.nodes[1].base().Raws.Before = n.base().Raws.Before
	}
	return s.block.RemoveChild(n)
}

// String prints the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.writeChildren(&sb)
	sb.WriteString(s.Raws.After)
	return sb.String()
}

// WriteTo implements io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// Walk visits nodes below c in document order, parents before children. When
// fn returns false, or removes the visited node, its children are skipped.
// Nodes may be removed from fn freely.
func Walk(c Container, fn func(Node) bool) {
	for _, n := range slices.Clone(c.Children()) {
		if !fn(n) || n.Parent() != c {
			continue
		}
		if sub, ok := n.(Container); ok {
			Walk(sub, fn)
		}
	}
}

// Walk is a shortcut for Walk(s, fn).
func (s *Stylesheet) Walk(fn func(Node) bool) { Walk(s, fn) }

// Rules returns a snapshot of all rules in document order.
func (s *Stylesheet) Rules() []*Rule {
	var rules []*Rule
	Walk(s, func(n Node) bool {
		if r, ok := n.(*Rule); ok {
			rules = append(rules, r)
		}
		return true
	})
	return rules
}

// AtRules returns a snapshot of all at-rules in document order.
func (s *Stylesheet) AtRules() []*AtRule {
	var rules []*AtRule
	Walk(s, func(n Node) bool {
		if a, ok := n.(*AtRule); ok {
			rules = append(rules, a)
		}
		return true
	})
	return rules
}

// Rule is a qualified rule: selector list with a block.
type Rule struct {
	node
	block
	Selector string // selector list as written, without trailing whitespace
}

func (r *Rule) Remove() { detach(r) }
func (r *Rule) Append(nodes ...Node) { r.block.append(r, nodes) }
func (r *Rule) write(sb *strings.Builder) {
	sb.WriteString(r.Raws.Before)
	sb.WriteString(r.Selector)
	sb.WriteString(r.Raws.Between)
	sb.WriteByte('{')
	r.writeChildren(sb)
	sb.WriteString(r.Raws.After)
	sb.WriteByte('}')
}

// Selectors returns individual selectors of the rule's selector list,
// trimmed. Commas inside parentheses, brackets and strings do not separate
// selectors.
func (r *Rule) Selectors() []string {
	parts, _ := splitList(r.Selector)
	sels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sels = append(sels, p)
		}
	}
	return sels
}

// SetSelectors replaces the selector list. Selectors are joined with the
// separator following the first comma of the current list, or with a comma
// and the whitespace before "{" when there was no comma.
func (r *Rule) SetSelectors(sels []string) {
	sep := "," + r.Raws.Between
	if _, seps := splitList(r.Selector); len(seps) > 0 {
		sep = seps[0]
	}
	r.Selector = strings.Join(sels, sep)
}

// AtRule is an at-rule, with or without a block.
type AtRule struct {
	node
	block
	Name      string // without "@"
	Params    string
	HasBlock  bool
	Semicolon bool // statement at-rule terminated by ";"
}

func (a *AtRule) Remove() { detach(a) }
func (a *AtRule) Append(nodes ...Node) { a.HasBlock = true; a.block.append(a, nodes) }

// Empty reports whether the at-rule has a block without any children.
func (a *AtRule) Empty() bool { return a.HasBlock && len(a.nodes) == 0 }

func (a *AtRule) write(sb *strings.Builder) {
	sb.WriteString(a.Raws.Before)
	sb.WriteByte('@')
	sb.WriteString(a.Name)
	sb.WriteString(a.Raws.AfterName)
	sb.WriteString(a.Params)
	sb.WriteString(a.Raws.Between)
	switch {
	case a.HasBlock:
		sb.WriteByte('{')
		a.writeChildren(sb)
		sb.WriteString(a.Raws.After)
		sb.WriteByte('}')
	case a.Semicolon:
		sb.WriteByte(';')
	}
}

// Declaration is a "property: value" pair.
type Declaration struct {
	node
	Prop      string
	Value     string
	Semicolon bool
}

func (d *Declaration) Remove() { detach(d) }
func (d *Declaration) write(sb *strings.Builder) {
	sb.WriteString(d.Raws.Before)
	sb.WriteString(d.Prop)
	sb.WriteString(d.Raws.Between)
	sb.WriteString(d.Value)
	sb.WriteString(d.Raws.After)
	if d.Semicolon {
		sb.WriteByte(';')
	}
}

// Comment is a /* */ comment outside of selectors and values.
type Comment struct {
	node
	Text string // without delimiters
}

func (c *Comment) Remove() { detach(c) }
func (c *Comment) write(sb *strings.Builder) {
	sb.WriteString(c.Raws.Before)
	sb.WriteString("/*")
	sb.WriteString(c.Text)
	sb.WriteString("*/")
}
