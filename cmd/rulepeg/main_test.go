package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarete/rulepeg"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseCommand(t *testing.T) {
	t.Run("tree", func(t *testing.T) {
		out, _, err := run(t, "a-1.txt", "parse", "-g", "filename")
		require.NoError(t, err)
		expected := strings.Join([]string{
			`filename (0..7)`,
			`├── name (0..1)`,
			`│   └── "a" (0..1)`,
			`├── version (1..3)`,
			`│   └── "1" (2..3)`,
			`└── extension (3..7)`,
			`    └── "txt" (4..7)`,
		}, "\n") + "\n"
		assert.Equal(t, expected, out)
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := run(t, "a-1.txt", "parse", "-g", "filename", "--format", "text")
		require.NoError(t, err)
		assert.Equal(t, "a1txt\n", out)
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := run(t, "[s]\nk = v\n", "parse", "-g", "ini", "-f", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "- file:")
		assert.Contains(t, out, "- section:")
		assert.Contains(t, out, "- entry:")
	})

	t.Run("stats", func(t *testing.T) {
		out, _, err := run(t, "a = 1\n", "parse", "-g", "ini", "--stats")
		require.NoError(t, err)
		assert.Contains(t, out, "rule_calls")
		assert.Contains(t, out, "memo_hits")
	})

	t.Run("files", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.ini")
		b := filepath.Join(dir, "b.ini")
		require.NoError(t, os.WriteFile(a, []byte("[a]\nx = 1\n"), 0o644))
		require.NoError(t, os.WriteFile(b, []byte("[b]\ny = \"2\" z\n"), 0o644))

		_, _, err := run(t, "", "parse", "-g", "ini", a)
		require.NoError(t, err)

		_, _, err = run(t, "", "parse", "-g", "ini", a, b)
		var serr *rulepeg.SyntaxError
		require.True(t, errors.As(err, &serr), "got %v", err)
		assert.Equal(t, b, serr.Position.File)
		assert.Equal(t, 2, serr.Position.Line)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, _, err := run(t, "a..b", "parse", "-g", "filename")
		var serr *rulepeg.SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, rulepeg.ReasonUnconsumed, serr.Reason)
	})

	t.Run("unknown grammar", func(t *testing.T) {
		_, _, err := run(t, "", "parse", "-g", "json")
		assert.EqualError(t, err, "unknown grammar `json`, use one of: filename, ini")
	})

	t.Run("missing grammar", func(t *testing.T) {
		_, _, err := run(t, "", "parse")
		assert.EqualError(t, err, "no grammar given, use one of: filename, ini")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := run(t, "", "parse", "-g", "ini", "-f", "xml")
		assert.EqualError(t, err, "unknown format `xml`")
	})

	t.Run("format from the environment", func(t *testing.T) {
		t.Setenv("RULEPEG_PARSE_FORMAT", "text")
		out, _, err := run(t, "a-1.txt", "parse", "-g", "filename")
		require.NoError(t, err)
		assert.Equal(t, "a1txt\n", out)
	})

	t.Run("flags win over the environment", func(t *testing.T) {
		t.Setenv("RULEPEG_FORMAT", "yaml")
		out, _, err := run(t, "a-1.txt", "parse", "-g", "filename", "-f", "text")
		require.NoError(t, err)
		assert.Equal(t, "a1txt\n", out)
	})

	t.Run("max depth", func(t *testing.T) {
		_, _, err := run(t, "a-1.txt", "parse", "-g", "filename", "--max-depth", "1")
		var serr *rulepeg.SyntaxError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, rulepeg.ReasonMaxDepth, serr.Reason)
	})

	t.Run("debug logging", func(t *testing.T) {
		_, logs, err := run(t, "a-1.txt", "parse", "-g", "filename", "--log-level", "debug", "--trace")
		require.NoError(t, err)
		assert.Contains(t, logs, "parser.trace")
		assert.Contains(t, logs, "rule=version")
		assert.Contains(t, logs, "grammar=filename")
	})
}

func TestGrammarsCommand(t *testing.T) {
	out, _, err := run(t, "", "grammars")
	require.NoError(t, err)
	assert.Contains(t, out, "filename")
	assert.Contains(t, out, "INI files")
	assert.Contains(t, out, "_word extension filename name version")

	t.Run("filtered", func(t *testing.T) {
		out, _, err := run(t, "", "grammars", "i*")
		require.NoError(t, err)
		assert.Contains(t, out, "INI files")
		assert.NotContains(t, out, "file names")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, _, err := run(t, "", "grammars", "[")
		assert.ErrorContains(t, err, "invalid pattern")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rulepeg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("parser:\n  memoize: false\n  max_depth: 5\n"), 0o644))

		cfg := rulepeg.NewConfig()
		require.NoError(t, loadConfig(cfg, path))
		assert.False(t, cfg.GetBool("parser.memoize"))
		assert.Equal(t, 5, cfg.GetInt("parser.max_depth"))
		assert.True(t, cfg.GetBool("parser.track_lines"))
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rulepeg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("parser:\n  max_depth: 5\n"), 0o644))
		t.Setenv("RULEPEG_PARSER_MAX_DEPTH", "7")

		cfg := rulepeg.NewConfig()
		require.NoError(t, loadConfig(cfg, path))
		assert.Equal(t, 7, cfg.GetInt("parser.max_depth"))
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("RULEPEG_PARSER_MEMOIZE", "sometimes")
		err := loadConfig(rulepeg.NewConfig(), "")
		assert.ErrorContains(t, err, "setting `parser.memoize`")
	})

	t.Run("missing file", func(t *testing.T) {
		err := loadConfig(rulepeg.NewConfig(), filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "can't read config file")
	})
}
