package rulepeg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Line is a single line of a source, including its line terminator
type Line struct {
	Text   string
	File   string
	Number int
}

// LineSource provides the lines of the input of Parse in order.
// Next returns io.EOF once there are no more lines.
type LineSource interface {
	Next() (Line, error)
}

// LinesFromString splits `input` in lines
func LinesFromString(input string) LineSource {
	return &stringLines{lines: strings.SplitAfter(input, "\n")}
}

type stringLines struct {
	lines []string
	n     int
}

func (s *stringLines) Next() (Line, error) {
	for s.n < len(s.lines) {
		text := s.lines[s.n]
		s.n++
		if text != "" {
			return Line{Text: text, Number: s.n}, nil
		}
	}
	return Line{}, io.EOF
}

// LinesFromReader reads lines out of `r`.  The `name` is reported as
// the file of each line.
func LinesFromReader(name string, r io.Reader) LineSource {
	return &readerLines{name: name, r: bufio.NewReader(r)}
}

type readerLines struct {
	name string
	r    *bufio.Reader
	n    int
}

func (s *readerLines) Next() (Line, error) {
	text, err := s.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Line{}, fmt.Errorf("%s: %w", s.name, err)
	}
	if text == "" {
		return Line{}, io.EOF
	}
	s.n++
	return Line{Text: text, File: s.name, Number: s.n}, nil
}

// LinesFromFiles reads the lines of each file in `paths`, one after
// the other.  Line numbers start over on each file.
func LinesFromFiles(paths ...string) LineSource {
	return &fileLines{paths: paths}
}

type fileLines struct {
	paths   []string
	current *os.File
	lines   LineSource
}

func (s *fileLines) Next() (Line, error) {
	for {
		if s.lines == nil {
			if len(s.paths) == 0 {
				return Line{}, io.EOF
			}
			f, err := os.Open(s.paths[0])
			if err != nil {
				return Line{}, fmt.Errorf("can't open input file: %w", err)
			}
			s.current = f
			s.lines = LinesFromReader(s.paths[0], f)
			s.paths = s.paths[1:]
		}

		line, err := s.lines.Next()
		if err == nil {
			return line, nil
		}
		s.current.Close()
		s.current, s.lines = nil, nil
		if !errors.Is(err, io.EOF) {
			return Line{}, err
		}
	}
}
