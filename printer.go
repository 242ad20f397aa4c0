package rulepeg

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type FormatToken int

const (
	FormatToken_None FormatToken = iota
	FormatToken_Range
	FormatToken_Literal
	FormatToken_Name
)

// FormatFunc decorates a piece of printed output according to the
// kind of token it is
type FormatFunc func(input string, token FormatToken) string

var printerTheme = map[FormatToken]string{
	FormatToken_None:    "\033[0m",          // reset
	FormatToken_Range:   "\033[38;5;208m",   // orange
	FormatToken_Literal: "\033[1;38;5;245m", // gray
	FormatToken_Name:    "\033[1;38;5;99m",  // purple
}

// Pretty renders values as an indented tree
//
//	list (0..5)
//	├── item (0..1)
//	│   └── "a" (0..1)
//	└── item (4..5)
//	    └── "b" (4..5)
func Pretty(values []Value) string {
	return printValues(values, func(input string, _ FormatToken) string {
		return input
	})
}

// Highlight is Pretty with terminal colors
func Highlight(values []Value) string {
	return printValues(values, func(input string, token FormatToken) string {
		return printerTheme[token] + input + printerTheme[FormatToken_None]
	})
}

func printValues(values []Value, format FormatFunc) string {
	tp := newTreePrinter(format)
	for i, v := range values {
		if i > 0 {
			tp.write("\n")
		}
		tp.visit(v)
	}
	return tp.output.String()
}

type treePrinter struct {
	padStr []string
	output *strings.Builder
	format FormatFunc
}

func newTreePrinter(format FormatFunc) *treePrinter {
	return &treePrinter{output: &strings.Builder{}, format: format}
}

func (tp *treePrinter) indent(s string) { tp.padStr = append(tp.padStr, s) }
func (tp *treePrinter) unindent()       { tp.padStr = tp.padStr[:len(tp.padStr)-1] }
func (tp *treePrinter) write(s string)  { tp.output.WriteString(s) }

func (tp *treePrinter) pwrite(s string) {
	for _, item := range tp.padStr {
		tp.write(item)
	}
	tp.write(s)
}

func (tp *treePrinter) visit(v Value) {
	switch v := v.(type) {
	case *Leaf:
		tp.write(tp.format(strconv.Quote(v.Value), FormatToken_Literal))
		tp.write(tp.format(fmt.Sprintf(" (%s)", v.Span()), FormatToken_Range))

	case *Node:
		tp.write(tp.format(v.Name, FormatToken_Name))
		tp.write(tp.format(fmt.Sprintf(" (%s)", v.Span()), FormatToken_Range))
		for i, item := range v.Items {
			tp.write("\n")
			if i == len(v.Items)-1 {
				tp.pwrite("└── ")
				tp.indent("    ")
			} else {
				tp.pwrite("├── ")
				tp.indent("│   ")
			}
			tp.visit(item)
			tp.unindent()
		}
	}
}

// MarshalYAML renders values as YAML: leaves are strings and nodes
// are single-key mappings from their name to their items
func MarshalYAML(values []Value) ([]byte, error) {
	return yaml.Marshal(yamlValues(values))
}

func yamlValues(values []Value) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, yamlValue(v))
	}
	return out
}

func yamlValue(v Value) any {
	switch v := v.(type) {
	case *Node:
		return map[string]any{v.Name: yamlValues(v.Items)}
	default:
		return v.Text()
	}
}
