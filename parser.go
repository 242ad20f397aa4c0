package rulepeg

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Parser matches grammars against inputs according to its
// configuration.  It keeps no state between calls, so a single
// Parser can be used by multiple goroutines at the same time.
type Parser struct {
	cfg     *Config
	comment Pattern
	log     logrus.FieldLogger
}

// Option changes optional settings of a Parser
type Option func(*Parser)

// WithComment sets the pattern skipped before every token, along
// with whitespace
func WithComment(p Pattern) Option {
	return func(ps *Parser) { ps.comment = p }
}

// WithLogger sets the logger used for tracing and summaries
func WithLogger(l logrus.FieldLogger) Option {
	return func(ps *Parser) { ps.log = l }
}

// NewParser creates a parser.  A nil `cfg` means the defaults
// returned by NewConfig.
func NewParser(cfg *Config, opts ...Option) *Parser {
	if cfg == nil {
		cfg = NewConfig()
	}
	p := &Parser{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = discardLogger()
	}
	return p
}

func (p *Parser) newMatcher(input string, lines *lineIndex) *matcher {
	m := &matcher{
		input:      input,
		lines:      lines,
		log:        p.log,
		skipSpaces: p.cfg.GetBool("parser.skip_whitespace"),
		comment:    p.comment,
		maxDepth:   p.cfg.GetInt("parser.max_depth"),
		showFails:  p.cfg.GetBool("parser.show_fails"),
		trace:      p.cfg.GetBool("parser.trace"),
	}
	if p.cfg.GetBool("parser.memoize") {
		m.memo = newMemoTable(p.cfg.GetInt("parser.memo_limit"))
	}
	return m
}

// ParseLine matches `root` against the beginning of `input` and
// returns the values it produced appended to `soFar`, along with the
// part of the input that wasn't consumed.  It only fails if `root`
// doesn't match.
func (p *Parser) ParseLine(input string, root Pattern, soFar []Value) ([]Value, string, error) {
	var lines *lineIndex
	if p.cfg.GetBool("parser.track_lines") {
		lines = newTextLineIndex(input, "")
	}
	m := p.newMatcher(input, lines)
	values, end, err := m.match(root, 0)
	p.summary(m, root, err)
	if err != nil {
		return soFar, input, m.failure(err)
	}
	return append(soFar, values...), input[end:], nil
}

// Parse reads all the lines of `src`, matches `root` against their
// concatenation and requires the whole input to be consumed.
// Trailing whitespace and comments are skipped before checking.
func (p *Parser) Parse(root Pattern, src LineSource) ([]Value, error) {
	values, _, err := p.ParseWithStats(root, src)
	return values, err
}

// ParseString is Parse for inputs already in memory
func (p *Parser) ParseString(input string, root Pattern) ([]Value, error) {
	return p.Parse(root, LinesFromString(input))
}

// ParseWithStats is Parse returning the counters collected while
// parsing
func (p *Parser) ParseWithStats(root Pattern, src LineSource) ([]Value, Stats, error) {
	input, lines, err := readLines(src)
	if err != nil {
		return nil, Stats{}, err
	}
	if !p.cfg.GetBool("parser.track_lines") {
		lines = nil
	}

	m := p.newMatcher(input, lines)
	values, end, err := m.match(root, 0)
	if err == nil {
		end, err = m.skip(end)
	}
	p.summary(m, root, err)
	if err != nil {
		return nil, m.stats, m.failure(err)
	}
	if end < len(input) {
		offset := max(end, m.errorOffset())
		return nil, m.stats, m.syntaxError(ReasonUnconsumed, "unconsumed input", offset)
	}
	return values, m.stats, nil
}

// failure converts the error that stopped the matcher into the error
// returned to the caller
func (m *matcher) failure(err error) error {
	if isthrown(err) {
		return err
	}
	return m.syntaxError(ReasonNoMatch, "no match", m.errorOffset())
}

func (p *Parser) summary(m *matcher, root Pattern, err error) {
	m.stats.Furthest = m.furthest
	p.log.WithFields(logrus.Fields{
		"root":        patternString(root),
		"ok":          err == nil,
		"rule_calls":  m.stats.RuleCalls,
		"max_depth":   m.stats.MaxDepth,
		"memo_hits":   m.stats.MemoHits,
		"memo_misses": m.stats.MemoMisses,
		"furthest":    m.furthest,
	}).Debug("parse finished")
}

// readLines concatenates all the lines of `src`, recording where each
// one of them starts
func readLines(src LineSource) (string, *lineIndex, error) {
	var (
		s   strings.Builder
		idx = &lineIndex{}
	)
	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("reading input: %w", err)
		}
		idx.add(s.Len(), line.Number, line.File)
		s.WriteString(line.Text)
	}
	idx.input = s.String()
	return idx.input, idx, nil
}

// ParseLine matches `root` against `input` with a parser configured
// by the arguments.  See (*Parser).ParseLine.
func ParseLine(input string, root Pattern, soFar []Value, skipWhitespace bool, comment Pattern, memoize bool) ([]Value, string, error) {
	return newParser(skipWhitespace, comment, memoize, true).ParseLine(input, root, soFar)
}

// Parse matches `root` against the lines of `src` with a parser
// configured by the arguments.  See (*Parser).Parse.
func Parse(root Pattern, src LineSource, skipWhitespace bool, comment Pattern, memoize, trackLines bool) ([]Value, error) {
	return newParser(skipWhitespace, comment, memoize, trackLines).Parse(root, src)
}

func newParser(skipWhitespace bool, comment Pattern, memoize, trackLines bool) *Parser {
	cfg := NewConfig()
	cfg.SetBool("parser.skip_whitespace", skipWhitespace)
	cfg.SetBool("parser.memoize", memoize)
	cfg.SetBool("parser.track_lines", trackLines)
	return NewParser(cfg, WithComment(comment))
}
