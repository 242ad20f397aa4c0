package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clarete/rulepeg"
	"github.com/clarete/rulepeg/grammars/filename"
	"github.com/clarete/rulepeg/grammars/ini"
)

type grammarEntry struct {
	name        string
	description string
	grammar     func() *rulepeg.Grammar
	newParser   func(*rulepeg.Config, ...rulepeg.Option) *rulepeg.Parser
}

var registry = map[string]*grammarEntry{
	"filename": {
		name:        "filename",
		description: "file names split into name, version and extensions",
		grammar:     filename.Grammar,
		newParser:   filename.NewParser,
	},
	"ini": {
		name:        "ini",
		description: "INI files with sections and ;/# comments",
		grammar:     ini.Grammar,
		newParser:   ini.NewParser,
	},
}

func grammarNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupGrammar(name string) (*grammarEntry, error) {
	if name == "" {
		return nil, fmt.Errorf("no grammar given, use one of: %s", strings.Join(grammarNames(), ", "))
	}
	entry, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown grammar `%s`, use one of: %s", name, strings.Join(grammarNames(), ", "))
	}
	return entry, nil
}
