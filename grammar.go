package rulepeg

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// privatePrefix marks rules whose results are spliced into the
// parent instead of being wrapped in a named node
const privatePrefix = "_"

// maxSuggestionDistance is the largest edit distance for a defined
// rule name to be suggested when an undefined rule is referenced
const maxSuggestionDistance = 3

// Grammar is a table of named rules.  Rules can be referenced before
// they're defined, which is what allows recursive and mutually
// recursive rules to be declared in any order.
//
//	g := NewGrammar("list")
//	g.Define("list", func() Pattern { return Seq(g.Ref("item"), ZeroOrMore, Seq(",", g.Ref("item"))) })
//	g.Define("item", func() Pattern { return Regex(`\w+`) })
//
// A grammar can be shared by concurrent parses.
type Grammar struct {
	mu    sync.Mutex
	root  string
	rules map[string]*RuleRef
	order []string
}

func NewGrammar(root string) *Grammar {
	return &Grammar{root: root, rules: make(map[string]*RuleRef)}
}

// Ref returns the reference to the rule `name`, creating it if it
// doesn't exist yet.  References to a name are always the same
// pattern instance.
func (g *Grammar) Ref(name string) *RuleRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ref(name)
}

func (g *Grammar) ref(name string) *RuleRef {
	if r, ok := g.rules[name]; ok {
		return r
	}
	r := &RuleRef{patternID: newPatternID(), name: name, grammar: g}
	g.rules[name] = r
	return r
}

// Define sets the body of the rule `name`.  The body is called once,
// the first time the rule is matched or validated, and the pattern
// it returns is reused from then on.  Defining the same rule twice
// is a programming error and panics.
func (g *Grammar) Define(name string, body func() Pattern) *RuleRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.ref(name)
	if r.defined() {
		panic(fmt.Sprintf("rule already defined: %s", name))
	}
	r.setBody(body)
	g.order = append(g.order, name)
	return r
}

// Root returns the reference to the root rule of the grammar
func (g *Grammar) Root() *RuleRef { return g.Ref(g.root) }

// RootName returns the name of the root rule of the grammar
func (g *Grammar) RootName() string { return g.root }

// Rules returns the sorted names of all the defined rules
func (g *Grammar) Rules() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := slices.Clone(g.order)
	sort.Strings(names)
	return names
}

// Validate resolves the body of every rule reachable from the rule
// table and reports all the problems found within them
func (g *Grammar) Validate() error {
	var errs []error
	seen := make(map[string]struct{})

	for _, name := range g.Rules() {
		r := g.Ref(name)
		expr, err := r.resolve()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		Inspect(expr, func(p Pattern) bool {
			var gerr *GrammarError
			switch v := p.(type) {
			case *RuleRef:
				if !v.defined() {
					if _, ok := seen[v.name]; !ok {
						seen[v.name] = struct{}{}
						gerr = v.undefinedError()
					}
				}
			case *SequencePattern:
				gerr = v.err
			case *ChoicePattern:
				gerr = v.err
			case *LookaheadPattern:
				gerr = v.err
			}
			if gerr != nil {
				errs = append(errs, gerr.withRule(name))
			}
			return true
		})
	}
	if _, reported := seen[g.root]; !reported && !g.Ref(g.root).defined() {
		errs = append(errs, &GrammarError{Rule: g.root, Message: "root rule is not defined"})
	}
	return errors.Join(errs...)
}

func (g *Grammar) suggestions(name string) []string {
	return closestStrings(maxSuggestionDistance+1, name, g.Rules())
}

func closestStrings(minDistance int, a string, candidates []string) []string {
	closest := []string{}
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(a, c)
		switch {
		case d < minDistance:
			closest = []string{c}
			minDistance = d
		case d == minDistance:
			closest = append(closest, c)
		}
	}
	sort.Strings(closest)
	return closest
}

// RuleRef is a pattern that invokes a named rule.  The name becomes
// the name of the node wrapping the results of the rule, unless it
// starts with an underscore, in which case the results are spliced
// into the parent.
type RuleRef struct {
	patternID
	name    string
	grammar *Grammar

	mu   sync.Mutex
	body func() Pattern
	once sync.Once
	expr Pattern
}

// Rule creates a rule that doesn't belong to any grammar.  It's
// handy for small grammars that don't need forward references.
func Rule(name string, body func() Pattern) *RuleRef {
	r := &RuleRef{patternID: newPatternID(), name: name}
	r.setBody(body)
	return r
}

func (r *RuleRef) Name() string      { return r.name }
func (r *RuleRef) Private() bool     { return strings.HasPrefix(r.name, privatePrefix) }
func (r *RuleRef) String() string    { return r.name }
func (r *RuleRef) Grammar() *Grammar { return r.grammar }

func (r *RuleRef) setBody(body func() Pattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = body
}

func (r *RuleRef) defined() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body != nil
}

// resolve returns the pattern of the rule's body, calling the body
// the first time around
func (r *RuleRef) resolve() (Pattern, error) {
	r.mu.Lock()
	body := r.body
	r.mu.Unlock()

	if body == nil {
		return nil, r.undefinedError()
	}
	r.once.Do(func() { r.expr = body() })
	if r.expr == nil {
		return nil, &GrammarError{Rule: r.name, Message: "rule body returned a nil pattern"}
	}
	return r.expr, nil
}

func (r *RuleRef) undefinedError() *GrammarError {
	err := &GrammarError{Rule: r.name, Message: "rule is not defined"}
	if r.grammar != nil {
		err.Suggestions = r.grammar.suggestions(r.name)
	}
	return err
}
