package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/clarete/rulepeg"
)

// app is what the subcommands share once the root command has read
// flags, environment variables and the config file
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	params rootParams
	cfg    *rulepeg.Config
	log    *logrus.Logger
}

type rootParams struct {
	configFile string
	logLevel   string
	logFormat  string
	noSkipWS   bool
	noMemo     bool
	memoLimit  int
	maxDepth   int
	trace      bool
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "rulepeg",
		Short:         "Parse inputs with the built-in PEG grammars",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkEnvironmentVariables(cmd); err != nil {
				return err
			}
			return a.setup(cmd)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.params.configFile, "config", "c", "", "read parser settings from a YAML, TOML or JSON file")
	flags.StringVar(&a.params.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&a.params.logFormat, "log-format", "text", "log format (text, json)")
	flags.BoolVar(&a.params.noSkipWS, "no-skip-ws", false, "don't skip whitespace before tokens")
	flags.BoolVar(&a.params.noMemo, "no-memo", false, "disable the packrat cache")
	flags.IntVar(&a.params.memoLimit, "memo-limit", 0, "max entries in the packrat cache (0 means no limit)")
	flags.IntVar(&a.params.maxDepth, "max-depth", 0, "max nesting of rule calls (0 means no limit)")
	flags.BoolVar(&a.params.trace, "trace", false, "log every rule call (needs --log-level=debug)")

	root.AddCommand(
		newGrammarsCommand(a),
		newParseCommand(a),
		newReplCommand(a),
	)
	return root
}

// setup creates the logger and the parser configuration.  Settings
// come from the defaults, then the config file, then environment
// variables and finally the flags that were explicitly set.
func (a *app) setup(cmd *cobra.Command) error {
	logger, err := rulepeg.NewLogger(a.stderr, a.params.logLevel, a.params.logFormat)
	if err != nil {
		return err
	}
	a.log = logger

	cfg := rulepeg.NewConfig()
	if err := loadConfig(cfg, a.params.configFile); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("no-skip-ws") {
		cfg.SetBool("parser.skip_whitespace", !a.params.noSkipWS)
	}
	if flags.Changed("no-memo") {
		cfg.SetBool("parser.memoize", !a.params.noMemo)
	}
	if flags.Changed("memo-limit") {
		cfg.SetInt("parser.memo_limit", a.params.memoLimit)
	}
	if flags.Changed("max-depth") {
		cfg.SetInt("parser.max_depth", a.params.maxDepth)
	}
	if flags.Changed("trace") {
		cfg.SetBool("parser.trace", a.params.trace)
	}
	a.cfg = cfg

	if a.log.IsLevelEnabled(logrus.DebugLevel) {
		var buf bytes.Buffer
		a.cfg.Debug(&buf)
		a.log.Debug(buf.String())
	}
	return nil
}

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
