package rulepeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode(t *testing.T) {
	// pair(key("a"), "=", value(num("1")))
	num := NewNode("num", []Value{NewLeaf("1", NewRange(4, 5))}, NewRange(4, 5))
	value := NewNode("value", []Value{num}, NewRange(4, 5))
	key := NewNode("key", []Value{NewLeaf("a", NewRange(0, 1))}, NewRange(0, 1))
	pair := NewNode("pair", []Value{key, NewLeaf("=", NewRange(2, 3)), value}, NewRange(0, 5))

	t.Run("text", func(t *testing.T) {
		assert.Equal(t, "a=1", pair.Text())
		assert.Equal(t, "a=1", Text([]Value{pair}))
		assert.Equal(t, []string{"a", "=", "1"}, pair.Leaves())
	})

	t.Run("find", func(t *testing.T) {
		assert.Same(t, num, pair.Find("num"))
		assert.Same(t, pair, pair.Find("pair"))
		assert.Nil(t, pair.Find("missing"))
		assert.Equal(t, []*Node{key, value}, pair.Children())
		assert.Equal(t, []*Node{num}, pair.FindAll("num"))
	})

	t.Run("walk can skip subtrees", func(t *testing.T) {
		var names []string
		pair.Walk(func(n *Node) bool {
			names = append(names, n.Name)
			return n.Name != "value"
		})
		assert.Equal(t, []string{"pair", "key", "value"}, names)
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, `key("a" @ 0..1) @ 0..1`, key.String())
	})

	t.Run("top level nodes", func(t *testing.T) {
		assert.Equal(t, []*Node{key}, Nodes([]Value{NewLeaf("x", NewRange(0, 1)), key}))
	})
}

func TestRange(t *testing.T) {
	r := NewRange(2, 5)
	assert.Equal(t, "2..5", r.String())
	assert.Equal(t, "3", NewRange(3, 3).String())
	assert.Equal(t, "cde", r.Str("abcdefg"))
	assert.True(t, r.Contains(NewRange(3, 5)))
	assert.False(t, r.Contains(NewRange(1, 3)))
}
