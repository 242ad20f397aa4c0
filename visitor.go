package rulepeg

import "strings"

// Handler renders the node `n`.  It can call v.RenderChildren(n) to
// get the default rendering of the node's children.
type Handler func(v *Visitor, n *Node) string

// Visitor renders parse trees into text by dispatching on the name
// of each node.  Nodes without a handler render as the concatenation
// of their rendered children, and leaves render as their text.
//
// For each node, the `before` hook runs first, then the handler (or
// the default rendering), then the `after` hook, which can replace
// the output.
type Visitor struct {
	before map[string]func(*Node)
	on     map[string]Handler
	after  map[string]func(*Node, string) string
}

func NewVisitor() *Visitor {
	return &Visitor{
		before: make(map[string]func(*Node)),
		on:     make(map[string]Handler),
		after:  make(map[string]func(*Node, string) string),
	}
}

// On registers the handler for nodes named `name`
func (v *Visitor) On(name string, h Handler) *Visitor {
	v.on[name] = h
	return v
}

// Before registers a hook that runs before nodes named `name` are
// rendered
func (v *Visitor) Before(name string, fn func(*Node)) *Visitor {
	v.before[name] = fn
	return v
}

// After registers a hook that receives the rendered output of nodes
// named `name` and returns what should replace it
func (v *Visitor) After(name string, fn func(*Node, string) string) *Visitor {
	v.after[name] = fn
	return v
}

// Render renders a single value
func (v *Visitor) Render(val Value) string {
	n, ok := val.(*Node)
	if !ok {
		return val.Text()
	}
	if fn, ok := v.before[n.Name]; ok {
		fn(n)
	}
	var out string
	if h, ok := v.on[n.Name]; ok {
		out = h(v, n)
	} else {
		out = v.RenderChildren(n)
	}
	if fn, ok := v.after[n.Name]; ok {
		out = fn(n, out)
	}
	return out
}

// RenderChildren renders the items of `n` and concatenates the output
func (v *Visitor) RenderChildren(n *Node) string {
	return v.RenderAll(n.Items)
}

// RenderAll renders each value and concatenates the output
func (v *Visitor) RenderAll(values []Value) string {
	var s strings.Builder
	for _, val := range values {
		s.WriteString(v.Render(val))
	}
	return s.String()
}
