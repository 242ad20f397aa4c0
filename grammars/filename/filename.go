// Package filename splits file names into their base name, version
// and extensions.
//
//	archive-1.2.3.tar.gz -> archive, 1.2.3, [tar gz]
package filename

import (
	"strings"
	"sync"

	"github.com/clarete/rulepeg"
)

// Filename is the result of splitting a file name
type Filename struct {
	Name       string
	Version    string
	Extensions []string
}

// Ext returns the extensions joined back together, including the
// leading dot, or an empty string if there are none
func (f *Filename) Ext() string {
	if len(f.Extensions) == 0 {
		return ""
	}
	return "." + strings.Join(f.Extensions, ".")
}

func (f *Filename) String() string {
	var s strings.Builder
	s.WriteString(f.Name)
	if f.Version != "" {
		s.WriteString("-")
		s.WriteString(f.Version)
	}
	s.WriteString(f.Ext())
	return s.String()
}

var grammar = sync.OnceValue(func() *rulepeg.Grammar {
	g := rulepeg.NewGrammar("filename")

	g.Define("filename", func() rulepeg.Pattern {
		return rulepeg.Seq(
			g.Ref("name"),
			rulepeg.Optional, g.Ref("version"),
			rulepeg.ZeroOrMore, g.Ref("extension"),
		)
	})

	// dashes belong to the name unless a version comes after them
	g.Define("name", func() rulepeg.Pattern {
		return rulepeg.Seq(
			rulepeg.Optional, ".",
			g.Ref("_word"),
			rulepeg.ZeroOrMore, rulepeg.Seq("-", rulepeg.Not(rulepeg.Regex(`[vV]?\d`)), g.Ref("_word")),
		)
	})
	g.Define("_word", func() rulepeg.Pattern { return rulepeg.Regex(`[^.\-]+`) })

	g.Define("version", func() rulepeg.Pattern {
		return rulepeg.Seq(rulepeg.Ignore(`-`), rulepeg.Regex(`[vV]?\d+(?:\.\d+)*`))
	})
	g.Define("extension", func() rulepeg.Pattern {
		return rulepeg.Seq(rulepeg.Ignore(`\.`), rulepeg.Regex(`[^.]+`))
	})
	return g
})

// Grammar returns the grammar of file names.  The same instance is
// returned on every call.
func Grammar() *rulepeg.Grammar { return grammar() }

// NewParser returns a parser for file names.  Whitespace is part of
// names, so it's never skipped regardless of `cfg`.
func NewParser(cfg *rulepeg.Config, opts ...rulepeg.Option) *rulepeg.Parser {
	if cfg == nil {
		cfg = rulepeg.NewConfig()
	}
	cfg = cfg.Clone()
	cfg.SetBool("parser.skip_whitespace", false)
	return rulepeg.NewParser(cfg, opts...)
}

// Split breaks `name` down into its parts
func Split(name string) (*Filename, error) {
	values, err := NewParser(nil).ParseString(name, Grammar().Root())
	if err != nil {
		return nil, err
	}
	return FromTree(values), nil
}

// FromTree builds a Filename out of the values returned by parsing
// with Grammar
func FromTree(values []rulepeg.Value) *Filename {
	f := &Filename{}
	rulepeg.NewVisitor().
		On("name", func(_ *rulepeg.Visitor, n *rulepeg.Node) string {
			f.Name = n.Text()
			return f.Name
		}).
		On("version", func(_ *rulepeg.Visitor, n *rulepeg.Node) string {
			f.Version = n.Text()
			return f.Version
		}).
		On("extension", func(_ *rulepeg.Visitor, n *rulepeg.Node) string {
			f.Extensions = append(f.Extensions, n.Text())
			return n.Text()
		}).
		RenderAll(values)
	return f
}
