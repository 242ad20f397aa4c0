package rulepeg

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type memoKey struct {
	pos int
	id  uint64
}

// memoEntry is the outcome of matching a pattern at a position.  A
// failed attempt is cached with `ok` set to false, which is not the
// same as not finding an entry at all.
//
// The progress made while matching is kept too, so a hit reports the
// same errors as matching again would.  depth is how many rules deep
// the match nested, relative to where it started.
type memoEntry struct {
	ok     bool
	values []Value
	end    int

	depth    int
	furthest int
	failPos  int
	expected []string
}

// progressAt is the progress of the entry for a match starting at
// the rule nesting depth `depth`
func (e memoEntry) progressAt(depth int) progress {
	return progress{
		furthest: e.furthest,
		failPos:  e.failPos,
		expected: e.expected,
		deepest:  depth + e.depth,
	}
}

// memoTable is the packrat cache of a single parse.  Positions are
// only meaningful for the input they were computed against, so
// tables are never shared between parses.
type memoTable interface {
	lookup(pos int, id uint64) (memoEntry, bool)
	store(pos int, id uint64, e memoEntry)
}

func newMemoTable(limit int) memoTable {
	if limit <= 0 {
		return make(mapMemo)
	}
	cache, err := lru.New[memoKey, memoEntry](limit)
	if err != nil {
		return make(mapMemo)
	}
	return &lruMemo{cache: cache}
}

// mapMemo keeps every outcome until the parse is over
type mapMemo map[memoKey]memoEntry

func (m mapMemo) lookup(pos int, id uint64) (memoEntry, bool) {
	e, ok := m[memoKey{pos: pos, id: id}]
	return e, ok
}

func (m mapMemo) store(pos int, id uint64, e memoEntry) {
	m[memoKey{pos: pos, id: id}] = e
}

// lruMemo keeps at most a fixed amount of outcomes.  Evicted entries
// are just computed again, so the output of the parser doesn't
// change, only the time it takes.
type lruMemo struct {
	cache *lru.Cache[memoKey, memoEntry]
}

func (m *lruMemo) lookup(pos int, id uint64) (memoEntry, bool) {
	return m.cache.Get(memoKey{pos: pos, id: id})
}

func (m *lruMemo) store(pos int, id uint64, e memoEntry) {
	m.cache.Add(memoKey{pos: pos, id: id}, e)
}
