package eval

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SectionPrefix starts a section header line.
const SectionPrefix = ": "

// Instance is one analogy test: Query[0] is to Query[1] as Query[2] is to
// Answer.
type Instance struct {
	Section string
	Query   [3]string
	Answer  string
}

// ParseError reports a test line that is not a section header and does not
// hold exactly four words.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("eval: line %d: expected 4 words, got %q", e.Line, e.Text)
}

// ReadInstances parses an analogy test file. Blank lines are ignored and any
// malformed line aborts parsing with a *ParseError.
func ReadInstances(r io.Reader) ([]Instance, error) {
	var (
		section   string
		instances []Instance
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if rest, ok := strings.CutPrefix(text, SectionPrefix); ok {
			section = rest
			continue
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return nil, &ParseError{Line: line, Text: text}
		}
		instances = append(instances, Instance{
			Section: section,
			Query:   [3]string{fields[0], fields[1], fields[2]},
			Answer:  fields[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("eval: read analogies: %w", err)
	}
	return instances, nil
}
