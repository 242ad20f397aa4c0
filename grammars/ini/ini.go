// Package ini reads INI files
//
//	; global settings come before any section
//	name = demo
//
//	[server]
//	host = "0.0.0.0"  # quoted values can hold ; and #
//	port = 8080
package ini

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/clarete/rulepeg"
)

// File is the content of an INI file.  Entries that come before the
// first section header belong to a section with an empty name.
type File struct {
	Sections []*Section
}

type Section struct {
	Name    string
	Entries []Entry
}

type Entry struct {
	Key   string
	Value string
}

// Section returns the last section named `name`
func (f *File) Section(name string) *Section {
	for i := len(f.Sections) - 1; i >= 0; i-- {
		if f.Sections[i].Name == name {
			return f.Sections[i]
		}
	}
	return nil
}

// Get returns the value of `key` within `section`.  When a key shows
// up more than once, the last value wins.
func (f *File) Get(section, key string) (string, bool) {
	for i := len(f.Sections) - 1; i >= 0; i-- {
		s := f.Sections[i]
		if s.Name != section {
			continue
		}
		if v, ok := s.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

func (s *Section) Get(key string) (string, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Key == key {
			return s.Entries[i].Value, true
		}
	}
	return "", false
}

var grammar = sync.OnceValue(func() *rulepeg.Grammar {
	g := rulepeg.NewGrammar("file")

	g.Define("file", func() rulepeg.Pattern { return rulepeg.Seq(rulepeg.ZeroOrMore, g.Ref("_line")) })

	// line breaks are significant, so blanks are skipped by the
	// comment pattern instead of the whitespace skipper
	g.Define("_line", func() rulepeg.Pattern {
		return rulepeg.Seq(
			rulepeg.Optional, rulepeg.Choice(g.Ref("section"), g.Ref("entry")),
			rulepeg.Ignore(`\r?\n|$`),
		)
	})
	g.Define("section", func() rulepeg.Pattern {
		return rulepeg.Seq(rulepeg.Ignore(`\[`), g.Ref("name"), rulepeg.Ignore(`\]`))
	})
	g.Define("name", func() rulepeg.Pattern { return rulepeg.Regex(`[^\]\s]+(?:[ \t]+[^\]\s]+)*`) })

	g.Define("entry", func() rulepeg.Pattern {
		return rulepeg.Seq(g.Ref("key"), rulepeg.Ignore(`=`), g.Ref("value"))
	})
	g.Define("key", func() rulepeg.Pattern { return rulepeg.Regex(`[^\s=;#\[\]]+(?:[ \t]+[^\s=;#\[\]]+)*`) })
	g.Define("value", func() rulepeg.Pattern { return rulepeg.Choice(g.Ref("quoted"), g.Ref("plain")) })
	g.Define("quoted", func() rulepeg.Pattern { return rulepeg.Regex(`"(?:[^"\\\n]|\\.)*"`) })
	g.Define("plain", func() rulepeg.Pattern { return rulepeg.Regex(`(?:[^\s;#]+(?:[ \t]+[^\s;#]+)*)?`) })
	return g
})

var comment = sync.OnceValue(func() rulepeg.Pattern {
	return rulepeg.Regex(`[ \t]+|[;#][^\n]*`)
})

// Grammar returns the grammar of INI files
func Grammar() *rulepeg.Grammar { return grammar() }

// Comment returns the pattern skipped before every token: blanks
// within a line and comments up to the end of the line
func Comment() rulepeg.Pattern { return comment() }

// NewParser returns a parser for INI files based on `cfg`
func NewParser(cfg *rulepeg.Config, opts ...rulepeg.Option) *rulepeg.Parser {
	if cfg == nil {
		cfg = rulepeg.NewConfig()
	}
	cfg = cfg.Clone()
	cfg.SetBool("parser.skip_whitespace", false)
	return rulepeg.NewParser(cfg, append([]rulepeg.Option{rulepeg.WithComment(Comment())}, opts...)...)
}

// Load parses the lines of `src` into a File
func Load(src rulepeg.LineSource) (*File, error) {
	values, err := NewParser(nil).Parse(Grammar().Root(), src)
	if err != nil {
		return nil, err
	}
	return FromTree(values)
}

// LoadString is Load for content already in memory
func LoadString(input string) (*File, error) {
	return Load(rulepeg.LinesFromString(input))
}

// FromTree builds a File out of the values returned by parsing with
// Grammar
func FromTree(values []rulepeg.Value) (*File, error) {
	var (
		f       = &File{}
		current *Section
		errs    []error
	)
	global := func() *Section {
		if current == nil {
			current = &Section{}
			f.Sections = append(f.Sections, current)
		}
		return current
	}

	rulepeg.NewVisitor().
		Before("section", func(n *rulepeg.Node) {
			current = &Section{Name: n.Find("name").Text()}
			f.Sections = append(f.Sections, current)
		}).
		On("entry", func(v *rulepeg.Visitor, n *rulepeg.Node) string {
			value, err := entryValue(n.Find("value"))
			if err != nil {
				errs = append(errs, err)
			}
			s := global()
			s.Entries = append(s.Entries, Entry{Key: n.Find("key").Text(), Value: value})
			return ""
		}).
		RenderAll(values)

	if len(errs) > 0 {
		return nil, errs[0]
	}
	return f, nil
}

func entryValue(n *rulepeg.Node) (string, error) {
	if q := n.Find("quoted"); q != nil {
		s, err := strconv.Unquote(q.Text())
		if err != nil {
			return "", fmt.Errorf("invalid quoted value %s at %s: %w", q.Text(), q.Span(), err)
		}
		return s, nil
	}
	return n.Text(), nil
}
