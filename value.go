package rulepeg

import (
	"fmt"
	"strings"
)

// Range is the byte span of a value within the input
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Str returns the exact text of the input covered by the range
func (r Range) Str(input string) string {
	return input[r.Start:r.End]
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Value is what the parser outputs: either a Leaf with the text
// matched by a terminal, or a Node named after the rule that
// produced it.
type Value interface {
	Span() Range
	String() string
	Text() string
}

// Leaf Value

type Leaf struct {
	span  Range
	Value string
}

func NewLeaf(value string, span Range) *Leaf {
	return &Leaf{Value: value, span: span}
}

func (n *Leaf) Span() Range    { return n.span }
func (n *Leaf) Text() string   { return n.Value }
func (n *Leaf) String() string { return fmt.Sprintf("%q @ %s", n.Value, n.span) }

// Node Value

type Node struct {
	span  Range
	Name  string
	Items []Value
}

func NewNode(name string, items []Value, span Range) *Node {
	return &Node{Name: name, Items: items, span: span}
}

func (n *Node) Span() Range { return n.span }

// Text returns the concatenation of the text of all the leaves under
// the node, depth-first
func (n *Node) Text() string {
	var s strings.Builder
	writeText(&s, n.Items)
	return s.String()
}

func (n *Node) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%s(", n.Name)
	for i, item := range n.Items {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(item.String())
	}
	fmt.Fprintf(&s, ") @ %s", n.span)
	return s.String()
}

// Find returns the first node named `name`, searching depth-first
// and starting with the node itself
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, item := range n.Items {
		if child, ok := item.(*Node); ok {
			if found := child.Find(name); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindAll returns every node named `name` in depth-first order,
// including the node itself.  Matches nested within other matches
// are included as well.
func (n *Node) FindAll(name string) []*Node {
	var found []*Node
	n.Walk(func(c *Node) bool {
		if c.Name == name {
			found = append(found, c)
		}
		return true
	})
	return found
}

// Walk calls `fn` for the node and its descendant nodes in
// depth-first order.  Children of a node are skipped when `fn`
// returns false for it.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, item := range n.Items {
		if child, ok := item.(*Node); ok {
			child.Walk(fn)
		}
	}
}

// Children returns the nodes directly under n, leaving leaves out
func (n *Node) Children() []*Node {
	var children []*Node
	for _, item := range n.Items {
		if child, ok := item.(*Node); ok {
			children = append(children, child)
		}
	}
	return children
}

// Leaves returns the text of all the leaves under the node
func (n *Node) Leaves() []string {
	var leaves []string
	collectLeaves(n.Items, &leaves)
	return leaves
}

func collectLeaves(values []Value, out *[]string) {
	for _, v := range values {
		switch v := v.(type) {
		case *Leaf:
			*out = append(*out, v.Value)
		case *Node:
			collectLeaves(v.Items, out)
		}
	}
}

// Text flattens a list of values into the text they matched
func Text(values []Value) string {
	var s strings.Builder
	writeText(&s, values)
	return s.String()
}

func writeText(s *strings.Builder, values []Value) {
	for _, v := range values {
		switch v := v.(type) {
		case *Leaf:
			s.WriteString(v.Value)
		case *Node:
			writeText(s, v.Items)
		default:
			s.WriteString(v.Text())
		}
	}
}

// Nodes returns the named nodes found at the top level of `values`
func Nodes(values []Value) []*Node {
	var nodes []*Node
	for _, v := range values {
		if n, ok := v.(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
