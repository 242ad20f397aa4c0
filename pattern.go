package rulepeg

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// Count is the repetition count applied to the pattern that follows
// it within a sequence.  Positive values mean "exactly N times".
type Count int

const (
	OneOrMore  Count = -2
	ZeroOrMore Count = -1
	Optional   Count = 0
	Once       Count = 1
)

func (c Count) suffix() string {
	switch {
	case c == OneOrMore:
		return "+"
	case c == ZeroOrMore:
		return "*"
	case c == Optional:
		return "?"
	case c == Once:
		return ""
	default:
		return fmt.Sprintf("{%d}", int(c))
	}
}

// Pattern is the closed set of expressions a rule body can return.
// Each pattern value carries an identity assigned when it's built,
// and that identity (not its structure) is what the packrat cache
// uses to tell patterns apart.
type Pattern interface {
	// ID returns the identity of the pattern instance
	ID() uint64

	// String returns a PEG-like rendering of the pattern
	String() string

	pattern()
}

var lastPatternID atomic.Uint64

type patternID struct{ id uint64 }

func newPatternID() patternID  { return patternID{id: lastPatternID.Add(1)} }
func (p patternID) ID() uint64 { return p.id }
func (patternID) pattern()     {}

// Pattern Type: Literal

type LiteralPattern struct {
	patternID
	Value string
}

// Literal matches if the input starts with the exact text `v`
func Literal(v string) *LiteralPattern {
	return &LiteralPattern{patternID: newPatternID(), Value: v}
}

func (p *LiteralPattern) String() string { return fmt.Sprintf("%q", p.Value) }

// Pattern Type: Keyword

type KeywordPattern struct {
	patternID
	Value string
}

// Keyword matches the longest run of word characters under the
// cursor and requires it to be exactly `v`, so the keyword `if`
// won't match the prefix of `iffy`.
func Keyword(v string) *KeywordPattern {
	return &KeywordPattern{patternID: newPatternID(), Value: v}
}

func (p *KeywordPattern) String() string { return fmt.Sprintf("keyword(%s)", p.Value) }

// Pattern Type: Regex

type RegexPattern struct {
	patternID
	expr   *regexp.Regexp
	source string
}

// Regex compiles `expr` anchored at the cursor position.  It panics
// if the expression can't be compiled, just like regexp.MustCompile.
func Regex(expr string) *RegexPattern {
	p, err := CompileRegex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileRegex is the same as Regex but returns the compilation
// error instead of panicking
func CompileRegex(expr string) (*RegexPattern, error) {
	re, err := compileAnchored(expr)
	if err != nil {
		return nil, err
	}
	return &RegexPattern{patternID: newPatternID(), expr: re, source: expr}, nil
}

// RegexFrom creates a Regex pattern out of an already compiled
// expression
func RegexFrom(re *regexp.Regexp) *RegexPattern {
	return Regex(re.String())
}

func (p *RegexPattern) String() string { return "/" + p.source + "/" }

// Pattern Type: Ignore

type IgnorePattern struct {
	patternID
	expr   *regexp.Regexp
	source string
}

// Ignore matches exactly like Regex but doesn't add anything to the
// parse tree.
func Ignore(expr string) *IgnorePattern {
	re, err := compileAnchored(expr)
	if err != nil {
		panic(err)
	}
	return &IgnorePattern{patternID: newPatternID(), expr: re, source: expr}
}

// IgnoreFrom creates an Ignore pattern out of an already compiled
// expression
func IgnoreFrom(re *regexp.Regexp) *IgnorePattern {
	return Ignore(re.String())
}

func (p *IgnorePattern) String() string { return "ignore(/" + p.source + "/)" }

func compileAnchored(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern /%s/: %w", expr, err)
	}
	return re, nil
}

// Pattern Type: Lookahead

type LookaheadPattern struct {
	patternID
	Negative bool
	Expr     Pattern
	err      *GrammarError
}

// And succeeds if `item` matches, without consuming any input
func And(item any) *LookaheadPattern {
	return newLookahead(false, item)
}

// Not succeeds if `item` does not match, without consuming any input
func Not(item any) *LookaheadPattern {
	return newLookahead(true, item)
}

func newLookahead(negative bool, item any) *LookaheadPattern {
	p := &LookaheadPattern{patternID: newPatternID(), Negative: negative}
	p.Expr, p.err = asPattern(item)
	return p
}

func (p *LookaheadPattern) String() string {
	op := "&"
	if p.Negative {
		op = "!"
	}
	return op + patternString(p.Expr)
}

// Pattern Type: Sequence

// SeqItem is a single element of a sequence with the repetition
// count that applies to it
type SeqItem struct {
	Count Count
	Expr  Pattern
}

type SequencePattern struct {
	patternID
	Items []SeqItem
	err   *GrammarError
}

// Seq builds a sequence.  Items can be patterns, strings (literals),
// compiled regular expressions or repetition counts (`int` or
// `Count`), which apply to the item right after them.
//
//	Seq(OneOrMore, Regex(`\d`), " end")
func Seq(items ...any) *SequencePattern {
	s := &SequencePattern{patternID: newPatternID()}
	count, pending := Once, false

	for i, item := range items {
		var (
			c       Count
			isCount = true
		)
		switch v := item.(type) {
		case Count:
			c = v
		case int:
			c = Count(v)
		default:
			isCount = false
		}
		if isCount {
			switch {
			case pending:
				s.setErr(fmt.Sprintf("item %d: count %d follows another count", i, c))
			case c < OneOrMore:
				s.setErr(fmt.Sprintf("item %d: invalid repetition count %d", i, c))
			}
			count, pending = c, true
			continue
		}
		p, err := asPattern(item)
		if err != nil {
			s.setErr(fmt.Sprintf("item %d: %s", i, err.Message))
		}
		s.Items = append(s.Items, SeqItem{Count: count, Expr: p})
		count, pending = Once, false
	}
	if pending {
		s.setErr("sequence ends with a repetition count and no pattern")
	}
	return s
}

func (p *SequencePattern) setErr(msg string) {
	if p.err == nil {
		p.err = &GrammarError{Message: msg}
	}
}

func (p *SequencePattern) String() string {
	parts := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		parts = append(parts, patternString(item.Expr)+item.Count.suffix())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Pattern Type: Choice

type ChoicePattern struct {
	patternID
	Items []Pattern
	err   *GrammarError
}

// Choice tries each alternative in order and commits to the first
// one that matches.
func Choice(items ...any) *ChoicePattern {
	c := &ChoicePattern{patternID: newPatternID()}
	for i, item := range items {
		p, err := asPattern(item)
		if err != nil && c.err == nil {
			c.err = &GrammarError{Message: fmt.Sprintf("alternative %d: %s", i, err.Message)}
		}
		c.Items = append(c.Items, p)
	}
	return c
}

func (p *ChoicePattern) String() string {
	parts := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		parts = append(parts, patternString(item))
	}
	return "(" + strings.Join(parts, " / ") + ")"
}

// asPattern converts the shorthands accepted by the combinators into
// patterns
func asPattern(item any) (Pattern, *GrammarError) {
	switch v := item.(type) {
	case nil:
		return nil, &GrammarError{Message: "nil pattern"}
	case string:
		return Literal(v), nil
	case *regexp.Regexp:
		if v == nil {
			return nil, &GrammarError{Message: "nil regular expression"}
		}
		return RegexFrom(v), nil
	case Count, int:
		return nil, &GrammarError{Message: fmt.Sprintf("repetition count %v is only valid within a sequence", v)}
	case Pattern:
		return v, nil
	default:
		return nil, &GrammarError{Message: fmt.Sprintf("unsupported pattern type %T", item)}
	}
}

func patternString(p Pattern) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}

// Inspect traverses the pattern `p` depth-first and calls `fn` for
// each pattern found.  If `fn` returns false, the children of that
// pattern are skipped.  Rule references are reported but not
// followed, which keeps the traversal finite on recursive grammars.
func Inspect(p Pattern, fn func(Pattern) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch v := p.(type) {
	case *LookaheadPattern:
		Inspect(v.Expr, fn)
	case *SequencePattern:
		for _, item := range v.Items {
			Inspect(item.Expr, fn)
		}
	case *ChoicePattern:
		for _, item := range v.Items {
			Inspect(item, fn)
		}
	}
}
