package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/clarete/rulepeg"
)

const historyFile = ".rulepeg_history"

type replParams struct {
	grammar string
	rule    string
	history string
}

func newReplCommand(a *app) *cobra.Command {
	params := &replParams{}
	cmd := &cobra.Command{
		Use:   "repl -g <grammar>",
		Short: "Parse lines typed interactively",
		Long: `Start an interactive session that parses each line with a grammar
and prints the resulting tree.

Lines starting with a colon are commands:

	:rules        list the rules of the grammar
	:rule <name>  parse with <name> instead of the root rule
	:exit         leave the session`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			entry, err := lookupGrammar(params.grammar)
			if err != nil {
				return err
			}
			s := newSession(entry, entry.newParser(a.cfg, rulepeg.WithLogger(a.log)), a.stdout)
			if params.rule != "" {
				if err := s.setRule(params.rule); err != nil {
					return err
				}
			}
			return s.loop(params.history)
		},
	}
	cmd.Flags().StringVarP(&params.grammar, "grammar", "g", "", "name of the grammar (see `rulepeg grammars`)")
	cmd.Flags().StringVar(&params.rule, "rule", "", "rule to start parsing from (defaults to the root rule)")
	cmd.Flags().StringVar(&params.history, "history", defaultHistoryPath(), "path of the history file")
	return cmd
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

type stop struct{}

func (stop) Error() string { return "stop" }

// session holds the state of an interactive parsing session
type session struct {
	entry  *grammarEntry
	parser *rulepeg.Parser
	rule   *rulepeg.RuleRef
	output io.Writer
}

func newSession(entry *grammarEntry, p *rulepeg.Parser, output io.Writer) *session {
	return &session{entry: entry, parser: p, rule: entry.grammar().Root(), output: output}
}

// loop runs until the user enters ":exit", Ctrl+C or Ctrl+D
func (s *session) loop(historyPath string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	loadHistory(line, historyPath)

	fmt.Fprintf(s.output, "rulepeg %s (:rules, :rule <name>, :exit)\n", s.entry.name)
	for {
		input, err := line.Prompt(s.prompt())
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(s.output, "Exiting")
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if err := s.oneShot(input); err != nil {
			if _, ok := err.(stop); ok {
				break
			}
			fmt.Fprintln(s.output, "error:", err)
		}
	}

	saveHistory(line, historyPath)
	return nil
}

func (s *session) prompt() string {
	return fmt.Sprintf("%s/%s> ", s.entry.name, s.rule.Name())
}

// oneShot handles a single line of input and prints the result
func (s *session) oneShot(input string) error {
	if strings.HasPrefix(input, ":") {
		return s.command(strings.Fields(input[1:]))
	}
	values, err := s.parser.ParseString(input, s.rule)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.output, rulepeg.Pretty(values))
	return nil
}

func (s *session) command(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}
	switch args[0] {
	case "exit", "quit":
		return stop{}
	case "rules":
		fmt.Fprintln(s.output, strings.Join(s.entry.grammar().Rules(), "\n"))
		return nil
	case "rule":
		if len(args) != 2 {
			return fmt.Errorf("usage: :rule <name>")
		}
		return s.setRule(args[1])
	default:
		return fmt.Errorf("unknown command `%s`", args[0])
	}
}

func (s *session) setRule(name string) error {
	g := s.entry.grammar()
	for _, r := range g.Rules() {
		if r == name {
			s.rule = g.Ref(name)
			return nil
		}
	}
	return fmt.Errorf("grammar %s has no rule `%s`", s.entry.name, name)
}

func loadHistory(prompt *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		prompt.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(prompt *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		prompt.WriteHistory(f)
		f.Close()
	}
}
