package rulepeg

import (
	"fmt"
	"strings"
)

// SyntaxError is returned when the input can't be matched by the
// grammar, either because the root pattern failed or because some
// input was left unconsumed after it.  It's always reported at the
// furthest position the parser managed to reach.
type SyntaxError struct {
	// Message is the human readable description of the failure
	Message string

	// Reason is one of the `Reason*` constants
	Reason string

	// Position is where the failure was detected.  Line and File
	// are only filled when line tracking is enabled and the offset
	// could be resolved.
	Position Position

	// LineText is the literal source line containing Position
	LineText string

	// Expected lists the tokens that were attempted at Position
	Expected []string

	// Rule is the rule being matched when the error was thrown.
	// Only set for errors that stop the parser right away.
	Rule string
}

const (
	ReasonNoMatch    = "no match"
	ReasonUnconsumed = "unconsumed input"
	ReasonMaxDepth   = "max depth"
)

// Error returns the human readable representation of a syntax error
func (e *SyntaxError) Error() string {
	var s strings.Builder
	s.WriteString(e.Position.String())
	s.WriteString(": ")
	s.WriteString(e.Message)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&s, ", expected %s", strings.Join(e.Expected, " or "))
	}
	if e.LineText != "" {
		fmt.Fprintf(&s, "\n    %s", e.LineText)
	}
	return s.String()
}

// GrammarError is returned when the grammar itself is malformed:
// references to rules that were never defined, rule bodies returning
// nil, or values that aren't part of the pattern vocabulary.  It
// says nothing about the input.
type GrammarError struct {
	Rule        string
	Message     string
	Suggestions []string
}

func (e *GrammarError) Error() string {
	var s strings.Builder
	s.WriteString("grammar error")
	if e.Rule != "" {
		fmt.Fprintf(&s, " in rule `%s`", e.Rule)
	}
	s.WriteString(": ")
	s.WriteString(e.Message)
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&s, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return s.String()
}

// withRule returns a copy of the error attributed to `rule`, unless
// it was already attributed to another one.  Errors stored in
// patterns are shared, so they're never modified in place.
func (e *GrammarError) withRule(rule string) *GrammarError {
	if e.Rule != "" {
		return e
	}
	c := *e
	c.Rule = rule
	return &c
}

// backtrackingError is the internal signal captured by Choice and
// the repetition operators.  It never leaves the matcher.
type backtrackingError struct{}

func (backtrackingError) Error() string { return "no match" }

var errNoMatch error = backtrackingError{}

// isthrown returns true for errors that can't be recovered by
// backtracking and must stop the parser right away
func isthrown(err error) bool {
	return err != nil && err != errNoMatch
}
