package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LinePrompter asks questions on out and reads answers line by line from in.
// End of input cancels a text prompt and declines a confirmation.
type LinePrompter struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

// NewLinePrompter creates a LinePrompter. With assumeYes set, confirmations
// are accepted without reading input.
func NewLinePrompter(in io.Reader, out io.Writer, assumeYes bool) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (p *LinePrompter) AskText(question, initial string) (string, bool) {
	if initial != "" {
		fmt.Fprintf(p.out, "%s [%s] ", question, initial)
	} else {
		fmt.Fprintf(p.out, "%s ", question)
	}
	line, ok := p.readLine()
	if !ok {
		return "", false
	}
	return line, true
}

func (p *LinePrompter) Confirm(question string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	line, ok := p.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (p *LinePrompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", false
	}
	return strings.TrimSpace(line), true
}
