package rulepeg

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// matcher holds the state of a single parse.  It's created by the
// entry points of the Parser and thrown away once they return.
type matcher struct {
	input string
	lines *lineIndex
	log   logrus.FieldLogger

	skipSpaces bool
	comment    Pattern
	memo       memoTable
	maxDepth   int
	showFails  bool
	trace      bool

	// inComment is set while the comment pattern is being matched,
	// which disables both comment skipping and the cache
	inComment bool

	depth int
	progress

	stats Stats
}

// progress is what matching left behind for error reporting.
// furthest is the largest offset reached by a token that matched,
// and failPos the largest offset in which a token failed to match.
// Backtracking means the deepest point is a better guess of where an
// error is than the last failure.  deepest is the largest rule
// nesting depth entered.
//
// Each memoized match collects its own progress, which is cached
// along with its result and merged again on every cache hit.
type progress struct {
	furthest int
	failPos  int
	expected []string
	deepest  int
}

// merge folds the progress `o` of an inner match into `m`
func (m *matcher) merge(o progress) {
	m.furthest = max(m.furthest, o.furthest)
	m.deepest = max(m.deepest, o.deepest)
	switch {
	case o.failPos > m.failPos:
		m.failPos = o.failPos
		m.expected = append([]string(nil), o.expected...)
	case o.failPos == m.failPos:
		for _, desc := range o.expected {
			m.expect(desc)
		}
	}
}

// Stats are the counters collected during a parse
type Stats struct {
	RuleCalls  int
	MaxDepth   int
	MemoHits   int
	MemoMisses int
	MemoStores int
	Furthest   int
}

func (m *matcher) match(p Pattern, pos int) ([]Value, int, error) {
	if p == nil {
		return nil, pos, &GrammarError{Message: "nil pattern"}
	}
	if m.memo == nil || m.inComment {
		values, end, err := m.dispatch(p, pos)
		if err != nil {
			return nil, pos, err
		}
		return values, end, nil
	}

	// an entry that nested deeper than what's left before the
	// maximum depth is matched again so the depth error is raised
	e, found := m.memo.lookup(pos, p.ID())
	if found && (m.maxDepth <= 0 || m.depth+e.depth <= m.maxDepth) {
		m.stats.MemoHits++
		m.merge(e.progressAt(m.depth))
		if !e.ok {
			return nil, pos, errNoMatch
		}
		return e.values, e.end, nil
	}
	m.stats.MemoMisses++

	outer := m.progress
	m.progress = progress{deepest: m.depth}
	values, end, err := m.dispatch(p, pos)
	inner := m.progress
	m.progress = outer
	m.merge(inner)

	if !isthrown(err) {
		m.memo.store(pos, p.ID(), memoEntry{
			ok:       err == nil,
			values:   values,
			end:      end,
			depth:    inner.deepest - m.depth,
			furthest: inner.furthest,
			failPos:  inner.failPos,
			expected: inner.expected,
		})
		m.stats.MemoStores++
	}
	if err != nil {
		return nil, pos, err
	}
	return values, end, nil
}

func (m *matcher) dispatch(p Pattern, pos int) ([]Value, int, error) {
	start, err := m.skip(pos)
	if err != nil {
		return nil, pos, err
	}

	switch p := p.(type) {
	case *LiteralPattern:
		if strings.HasPrefix(m.input[start:], p.Value) {
			return m.token(start, start+len(p.Value))
		}
		return m.fail(p, start)

	case *KeywordPattern:
		end := scanWord(m.input, start)
		if end > start && m.input[start:end] == p.Value {
			return m.token(start, end)
		}
		return m.fail(p, start)

	case *RegexPattern:
		if loc := p.expr.FindStringIndex(m.input[start:]); loc != nil {
			return m.token(start, start+loc[1])
		}
		return m.fail(p, start)

	case *IgnorePattern:
		if loc := p.expr.FindStringIndex(m.input[start:]); loc != nil {
			m.reach(start + loc[1])
			return nil, start + loc[1], nil
		}
		return m.fail(p, start)

	case *LookaheadPattern:
		return m.lookahead(p, pos, start)

	case *SequencePattern:
		if p.err != nil {
			return nil, pos, p.err
		}
		var (
			out []Value
			cur = start
		)
		for _, item := range p.Items {
			values, next, err := m.repeat(item.Count, item.Expr, cur)
			if err != nil {
				return nil, pos, err
			}
			out = append(out, values...)
			cur = next
		}
		return out, cur, nil

	case *ChoicePattern:
		if p.err != nil {
			return nil, pos, p.err
		}
		for _, alt := range p.Items {
			values, next, err := m.match(alt, start)
			if err == nil {
				return values, next, nil
			}
			if isthrown(err) {
				return nil, pos, err
			}
		}
		return nil, pos, errNoMatch

	case *RuleRef:
		return m.call(p, pos, start)

	default:
		return nil, pos, &GrammarError{Message: fmt.Sprintf("unknown pattern type %T", p)}
	}
}

// lookahead matches the inner expression of `p` and always leaves
// the cursor where it was
func (m *matcher) lookahead(p *LookaheadPattern, pos, start int) ([]Value, int, error) {
	if p.err != nil {
		return nil, pos, p.err
	}
	// what the inner expression reached or expected is only peeked
	// at and doesn't count as progress
	outer := m.progress
	_, _, err := m.match(p.Expr, start)
	outer.deepest = max(outer.deepest, m.deepest)
	m.progress = outer

	if isthrown(err) {
		return nil, pos, err
	}
	if matched := err == nil; matched == p.Negative {
		return m.fail(p, start)
	}
	return nil, pos, nil
}

// repeat applies the repetition count `count` to `p`.  Repetitions
// are greedy and are never given back to let what comes after them
// in a sequence match.
func (m *matcher) repeat(count Count, p Pattern, pos int) ([]Value, int, error) {
	switch {
	case count == Optional:
		values, next, err := m.match(p, pos)
		if err != nil {
			if isthrown(err) {
				return nil, pos, err
			}
			return nil, pos, nil
		}
		return values, next, nil

	case count == ZeroOrMore || count == OneOrMore:
		var (
			out     []Value
			cur     = pos
			matches = 0
		)
		for {
			values, next, err := m.match(p, cur)
			if err != nil {
				if isthrown(err) {
					return nil, pos, err
				}
				break
			}
			out = append(out, values...)
			matches++
			// an empty match would match again forever
			if next == cur {
				break
			}
			cur = next
		}
		if count == OneOrMore && matches == 0 {
			return nil, pos, errNoMatch
		}
		return out, cur, nil

	case count > 0:
		var (
			out []Value
			cur = pos
		)
		for i := 0; i < int(count); i++ {
			values, next, err := m.match(p, cur)
			if err != nil {
				return nil, pos, err
			}
			out = append(out, values...)
			cur = next
		}
		return out, cur, nil

	default:
		return nil, pos, &GrammarError{Message: fmt.Sprintf("invalid repetition count %d", count)}
	}
}

// call matches the body of the rule `r` and wraps its results in a
// node named after it, unless the rule is private
func (m *matcher) call(r *RuleRef, pos, start int) ([]Value, int, error) {
	expr, err := r.resolve()
	if err != nil {
		return nil, pos, err
	}
	if m.maxDepth > 0 && m.depth >= m.maxDepth {
		return nil, pos, m.depthError(r, start)
	}

	m.depth++
	m.deepest = max(m.deepest, m.depth)
	m.stats.RuleCalls++
	m.stats.MaxDepth = max(m.stats.MaxDepth, m.depth)
	values, end, err := m.match(expr, start)
	m.depth--

	if m.trace {
		m.log.WithFields(logrus.Fields{
			"rule":  r.name,
			"pos":   start,
			"end":   end,
			"depth": m.depth + 1,
			"ok":    err == nil,
		}).Debug("rule")
	}

	if err != nil {
		if ge, ok := err.(*GrammarError); ok {
			return nil, pos, ge.withRule(r.name)
		}
		return nil, pos, err
	}
	if r.Private() {
		return values, end, nil
	}
	return []Value{NewNode(r.name, values, NewRange(start, end))}, end, nil
}

// skip moves the cursor past whitespace and comments.  The comment
// pattern is matched with comment skipping disabled, and whitespace
// is skipped again after each comment.
func (m *matcher) skip(pos int) (int, error) {
	if m.skipSpaces {
		pos = skipWhitespace(m.input, pos)
	}
	if m.comment == nil || m.inComment {
		return pos, nil
	}

	m.inComment = true
	defer func() { m.inComment = false }()

	for {
		_, next, err := m.match(m.comment, pos)
		if err != nil {
			if isthrown(err) {
				return pos, err
			}
			return pos, nil
		}
		if next == pos {
			return pos, nil
		}
		pos = next
		if m.skipSpaces {
			pos = skipWhitespace(m.input, pos)
		}
	}
}

// token emits a leaf for the input between start and end
func (m *matcher) token(start, end int) ([]Value, int, error) {
	m.reach(end)
	return []Value{NewLeaf(m.input[start:end], NewRange(start, end))}, end, nil
}

func (m *matcher) reach(pos int) {
	if pos > m.furthest {
		m.furthest = pos
	}
}

// fail records that `p` didn't match at `pos`.  Only failures at the
// furthest position are kept as expectations.  Failures within
// comments are expected to happen and aren't recorded at all.
func (m *matcher) fail(p Pattern, pos int) ([]Value, int, error) {
	if m.inComment {
		return nil, pos, errNoMatch
	}
	if pos > m.failPos {
		m.failPos = pos
		m.expected = nil
	}
	if m.showFails && pos == m.failPos {
		m.expect(p.String())
	}
	return nil, pos, errNoMatch
}

func (m *matcher) expect(desc string) {
	for _, e := range m.expected {
		if e == desc {
			return
		}
	}
	m.expected = append(m.expected, desc)
}

// errorOffset is where errors are reported: the deepest point the
// parser got to, be it a token that matched or one that failed
func (m *matcher) errorOffset() int {
	return max(m.furthest, m.failPos)
}

func (m *matcher) syntaxError(reason, message string, offset int) *SyntaxError {
	pos, text, ok := m.lines.locate(offset)
	if !ok {
		pos = Position{Offset: offset}
	}
	err := &SyntaxError{
		Message:  message,
		Reason:   reason,
		Position: pos,
		LineText: text,
	}
	if offset == m.failPos && len(m.expected) > 0 {
		err.Expected = append([]string(nil), m.expected...)
	}
	return err
}

func (m *matcher) depthError(r *RuleRef, pos int) *SyntaxError {
	err := m.syntaxError(ReasonMaxDepth, fmt.Sprintf("maximum nesting depth of %d exceeded", m.maxDepth), pos)
	err.Rule = r.name
	err.Expected = nil
	return err
}

func skipWhitespace(input string, pos int) int {
	for pos < len(input) {
		r, size := utf8.DecodeRuneInString(input[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

// scanWord returns the end of the run of word characters starting
// at pos
func scanWord(input string, pos int) int {
	for pos < len(input) {
		r, size := utf8.DecodeRuneInString(input[pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		pos += size
	}
	return pos
}
