package rulepeg

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Position is a location within the source of a parse.  Line and
// Column are 1-based; zero means they're unknown.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	var loc string
	switch {
	case p.Line > 0:
		loc = fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		loc = fmt.Sprintf("offset %d", p.Offset)
	}
	if p.File != "" {
		return p.File + ":" + loc
	}
	return loc
}

// checkpoint records that the source line `line` of `file` starts at
// `offset` within the concatenated input
type checkpoint struct {
	offset int
	line   int
	file   string
}

// lineIndex maps offsets of the concatenated input back to the
// source lines they came from
type lineIndex struct {
	input       string
	checkpoints []checkpoint
}

// newTextLineIndex indexes each line of `input`
func newTextLineIndex(input, file string) *lineIndex {
	idx := &lineIndex{input: input}
	idx.add(0, 1, file)
	line := 1
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' && i+1 < len(input) {
			line++
			idx.add(i+1, line, file)
		}
	}
	return idx
}

func (idx *lineIndex) add(offset, line int, file string) {
	idx.checkpoints = append(idx.checkpoints, checkpoint{offset: offset, line: line, file: file})
}

// locate returns the position of `offset` along with the text of the
// line that contains it.  It returns false when there's no
// checkpoint data or the offset falls outside of the input.
func (idx *lineIndex) locate(offset int) (Position, string, bool) {
	unknown := Position{Offset: offset}
	if idx == nil || len(idx.checkpoints) == 0 || offset < 0 || offset > len(idx.input) {
		return unknown, "", false
	}

	// last checkpoint starting at or before offset
	i := sort.Search(len(idx.checkpoints), func(i int) bool {
		return idx.checkpoints[i].offset > offset
	}) - 1
	if i < 0 {
		return unknown, "", false
	}

	cp := idx.checkpoints[i]
	end := len(idx.input)
	if i+1 < len(idx.checkpoints) {
		end = idx.checkpoints[i+1].offset
	}
	if cp.offset > end {
		return unknown, "", false
	}
	text := strings.TrimRight(idx.input[cp.offset:end], "\r\n")
	column := utf8.RuneCountInString(idx.input[cp.offset:offset]) + 1

	return Position{
		File:   cp.file,
		Line:   cp.line,
		Column: column,
		Offset: offset,
	}, text, true
}
