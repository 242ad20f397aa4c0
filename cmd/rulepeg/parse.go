package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/clarete/rulepeg"
)

const (
	formatTree = "tree"
	formatYAML = "yaml"
	formatText = "text"
)

type parseParams struct {
	grammar string
	format  string
	color   bool
	stats   bool
	timeout time.Duration
}

func newParseCommand(a *app) *cobra.Command {
	params := &parseParams{}
	cmd := &cobra.Command{
		Use:   "parse -g <grammar> [file...]",
		Short: "Parse files with a grammar",
		Long: `Parse the concatenation of the given files, or the standard input
when no files are given, and print the resulting tree.

Syntax errors are reported at the furthest position the parser got
to, with the line and column within the file it came from.`,
		PreRunE: func(*cobra.Command, []string) error {
			switch params.format {
			case formatTree, formatYAML, formatText:
				return nil
			default:
				return fmt.Errorf("unknown format `%s`", params.format)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.parse(cmd.Context(), args, params)
		},
	}
	cmd.Flags().StringVarP(&params.grammar, "grammar", "g", "", "name of the grammar (see `rulepeg grammars`)")
	cmd.Flags().StringVarP(&params.format, "format", "f", formatTree, "output format (tree, yaml, text)")
	cmd.Flags().BoolVar(&params.color, "color", false, "highlight the tree format")
	cmd.Flags().BoolVar(&params.stats, "stats", false, "print parser statistics")
	cmd.Flags().DurationVar(&params.timeout, "timeout", 0, "give up parsing after this long (0 means no timeout)")
	return cmd
}

type parseResult struct {
	values []rulepeg.Value
	stats  rulepeg.Stats
	err    error
}

func (a *app) parse(ctx context.Context, args []string, params *parseParams) error {
	entry, err := lookupGrammar(params.grammar)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if params.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.timeout)
		defer cancel()
	}

	var src rulepeg.LineSource
	if len(args) == 0 {
		src = rulepeg.LinesFromReader("stdin", a.stdin)
	} else {
		src = rulepeg.LinesFromFiles(args...)
	}

	p := entry.newParser(a.cfg, rulepeg.WithLogger(a.log.WithField("grammar", entry.name)))
	root := entry.grammar().Root()

	// the parser can't be interrupted, so it's left running in the
	// background when the deadline is reached
	done := make(chan parseResult, 1)
	go func() {
		values, stats, err := p.ParseWithStats(root, src)
		done <- parseResult{values: values, stats: stats, err: err}
	}()

	var result parseResult
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("parsing took longer than %s", params.timeout)
		}
		return ctx.Err()
	case result = <-done:
	}
	if result.err != nil {
		return result.err
	}

	if err := writeValues(a.stdout, result.values, params); err != nil {
		return err
	}
	if params.stats {
		writeStats(a.stdout, result.stats)
	}
	return nil
}

func writeValues(out io.Writer, values []rulepeg.Value, params *parseParams) error {
	switch params.format {
	case formatYAML:
		data, err := rulepeg.MarshalYAML(values)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case formatText:
		_, err := fmt.Fprintln(out, rulepeg.NewVisitor().RenderAll(values))
		return err
	default:
		tree := rulepeg.Pretty(values)
		if params.color {
			tree = rulepeg.Highlight(values)
		}
		_, err := fmt.Fprintln(out, tree)
		return err
	}
}

func writeStats(out io.Writer, stats rulepeg.Stats) {
	table := generateTableWithKeys(out, "name", "value")
	for _, row := range []struct {
		name  string
		value int
	}{
		{"rule_calls", stats.RuleCalls},
		{"max_depth", stats.MaxDepth},
		{"memo_hits", stats.MemoHits},
		{"memo_misses", stats.MemoMisses},
		{"memo_stores", stats.MemoStores},
		{"furthest_offset", stats.Furthest},
	} {
		table.Append([]string{row.name, strconv.Itoa(row.value)})
	}
	table.Render()
}
