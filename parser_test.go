package rulepeg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignmentsGrammar() *Grammar {
	g := NewGrammar("file")
	g.Define("file", func() Pattern { return Seq(ZeroOrMore, g.Ref("entry")) })
	g.Define("entry", func() Pattern { return Seq(Regex(`[a-z]+`), "=", Regex(`\d+`)) })
	return g
}

func TestParse(t *testing.T) {
	g := assignmentsGrammar()

	t.Run("whole input", func(t *testing.T) {
		values, err := NewParser(nil).ParseString("a = 1\nb = 2\n", g.Root())
		require.NoError(t, err)
		require.Len(t, values, 1)
		file := values[0].(*Node)
		assert.Equal(t, "file", file.Name)
		assert.Len(t, file.FindAll("entry"), 2)
		assert.Equal(t, []string{"a", "=", "1", "b", "=", "2"}, file.Leaves())
	})

	t.Run("unconsumed input reports the furthest failure", func(t *testing.T) {
		_, err := NewParser(nil).ParseString("a = 1\nb = x\nc = 3\n", g.Root())

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, ReasonUnconsumed, serr.Reason)
		assert.Equal(t, Position{Line: 2, Column: 5, Offset: 10}, serr.Position)
		assert.Equal(t, "b = x", serr.LineText)
		assert.Equal(t, []string{`/\d+/`}, serr.Expected)
		assert.Equal(t, "2:5: unconsumed input, expected /\\d+/\n    b = x", serr.Error())
	})

	t.Run("unconsumed input without failures past it", func(t *testing.T) {
		_, err := NewParser(nil).ParseString("a b", Literal("a"))

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, ReasonUnconsumed, serr.Reason)
		assert.Equal(t, 2, serr.Position.Offset)
		assert.Empty(t, serr.Expected)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := NewParser(nil).ParseString("b", Choice("a", Keyword("if")))

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, ReasonNoMatch, serr.Reason)
		assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, serr.Position)
		assert.Equal(t, []string{`"a"`, "keyword(if)"}, serr.Expected)
	})

	t.Run("expectations are hidden when disabled", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetBool("parser.show_fails", false)
		_, err := NewParser(cfg).ParseString("b", Literal("a"))

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Empty(t, serr.Expected)
	})

	t.Run("trailing whitespace and comments", func(t *testing.T) {
		p := NewParser(nil, WithComment(Regex(`#[^\n]*`)))
		values, err := p.ParseString("a = 1 # one\n\n# done\n", g.Root())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "=", "1"}, values[0].(*Node).Leaves())
	})

	t.Run("without line tracking", func(t *testing.T) {
		_, err := Parse(g.Root(), LinesFromString("a = 1\nb = x\n"), true, nil, true, false)

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, Position{Offset: 10}, serr.Position)
		assert.Equal(t, "", serr.LineText)
		assert.True(t, strings.HasPrefix(serr.Error(), "offset 10: "))
	})

	t.Run("across files", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.txt")
		b := filepath.Join(dir, "b.txt")
		require.NoError(t, os.WriteFile(a, []byte("a = 1\n"), 0o644))
		require.NoError(t, os.WriteFile(b, []byte("b = 2\nc = x\n"), 0o644))

		_, err := NewParser(nil).Parse(g.Root(), LinesFromFiles(a, b))

		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, Position{File: b, Line: 2, Column: 5, Offset: 16}, serr.Position)
		assert.Equal(t, "c = x", serr.LineText)
	})

	t.Run("source errors", func(t *testing.T) {
		_, err := NewParser(nil).Parse(g.Root(), LinesFromFiles(filepath.Join(t.TempDir(), "missing")))
		require.Error(t, err)
		var serr *SyntaxError
		assert.False(t, errors.As(err, &serr))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("empty input", func(t *testing.T) {
		values, err := NewParser(nil).ParseString("", g.Root())
		require.NoError(t, err)
		assert.Equal(t, "file", values[0].(*Node).Name)
		assert.Empty(t, values[0].(*Node).Items)
	})
}

func TestParseLine(t *testing.T) {
	g := assignmentsGrammar()

	t.Run("values are appended to the ones passed in", func(t *testing.T) {
		soFar := []Value{NewLeaf("x", NewRange(0, 1))}
		values, rest, err := ParseLine("a = 1 b = x", g.Ref("entry"), soFar, true, nil, true)
		require.NoError(t, err)
		assert.Equal(t, " b = x", rest)
		require.Len(t, values, 2)
		assert.Same(t, soFar[0], values[0])
		assert.Equal(t, "entry", values[1].(*Node).Name)
	})

	t.Run("failure leaves the input untouched", func(t *testing.T) {
		soFar := []Value{NewLeaf("x", NewRange(0, 1))}
		values, rest, err := ParseLine("= 1", g.Ref("entry"), soFar, true, nil, true)
		require.Error(t, err)
		assert.Equal(t, "= 1", rest)
		assert.Equal(t, soFar, values)
	})

	t.Run("lines are tracked within the input", func(t *testing.T) {
		_, _, err := ParseLine("a = 1\nb", g.Ref("file"), nil, true, nil, true)
		require.NoError(t, err)

		_, _, err = ParseLine("\n\n  = 1", g.Ref("entry"), nil, true, nil, true)
		var serr *SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, 3, serr.Position.Line)
		assert.Equal(t, 3, serr.Position.Column)
		assert.Equal(t, "  = 1", serr.LineText)
	})

	t.Run("trailing whitespace is left alone", func(t *testing.T) {
		_, rest, err := ParseLine("a = 1  \n", g.Ref("entry"), nil, true, nil, false)
		require.NoError(t, err)
		assert.Equal(t, "  \n", rest)
	})
}

func TestParserConcurrentUse(t *testing.T) {
	g := assignmentsGrammar()
	p := NewParser(nil)
	inputs := []string{"a = 1", "b = 2\nc = 3", "d = 4 e = 5 f = 6"}

	expected := make([][]Value, len(inputs))
	for i, input := range inputs {
		values, err := p.ParseString(input, g.Root())
		require.NoError(t, err)
		expected[i] = values
	}

	var wg sync.WaitGroup
	results := make([][]Value, 30)
	errs := make([]error, 30)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.ParseString(inputs[i%len(inputs)], g.Root())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Empty(t, cmp.Diff(expected[i%len(inputs)], results[i], cmpValues))
	}
}

func TestParserLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", "text")
	require.NoError(t, err)

	cfg := NewConfig()
	cfg.SetBool("parser.trace", true)
	p := NewParser(cfg, WithLogger(logger))

	_, err = p.ParseString("a = 1", assignmentsGrammar().Root())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg=rule`)
	assert.Contains(t, out, `rule=entry`)
	assert.Contains(t, out, `msg="parse finished"`)
	assert.Contains(t, out, `ok=true`)

	t.Run("no trace at info level", func(t *testing.T) {
		buf.Reset()
		logger.SetLevel(logrus.InfoLevel)
		_, err = p.ParseString("a = 1", assignmentsGrammar().Root())
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestParseWithStats(t *testing.T) {
	g := assignmentsGrammar()
	_, stats, err := NewParser(nil).ParseWithStats(g.Root(), LinesFromString("a = 1\nb = 2"))
	require.NoError(t, err)
	// file, two entries and the entry attempt at the end of input
	assert.Equal(t, 4, stats.RuleCalls)
	assert.Equal(t, 2, stats.MaxDepth)
	assert.Equal(t, 11, stats.Furthest)
}
