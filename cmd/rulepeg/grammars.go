package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gobwas/glob"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newGrammarsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grammars [pattern]",
		Short: "List the built-in grammars",
		Long: `List the built-in grammars along with their rules.  The optional
pattern is a glob matched against the names of the grammars, e.g. "f*".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) > 0 {
				pattern = args[0]
			}
			return listGrammars(a.stdout, pattern)
		},
	}
}

func listGrammars(out io.Writer, pattern string) error {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	table := generateTableWithKeys(out, "name", "root", "rules", "description")
	for _, name := range grammarNames() {
		if !matcher.Match(name) {
			continue
		}
		entry := registry[name]
		g := entry.grammar()
		if err := g.Validate(); err != nil {
			return fmt.Errorf("grammar %s: %w", name, err)
		}
		table.Append([]string{name, g.RootName(), strings.Join(g.Rules(), " "), entry.description})
	}
	table.Render()
	return nil
}

func generateTableWithKeys(writer io.Writer, keys ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	aligns := []int{}
	var hdrs []string
	for _, k := range keys {
		hdrs = append(hdrs, strings.ToUpper(k[:1])+k[1:])
		aligns = append(aligns, tablewriter.ALIGN_LEFT)
	}
	table.SetHeader(hdrs)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment(aligns)
	table.SetAutoWrapText(false)
	return table
}
