package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PlainIO implements IO using plain terminal output. It is used when TUI
// mode is disabled or stdin is not a terminal.
type PlainIO struct {
	scanner *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	status  Status
}

var _ IO = (*PlainIO)(nil)

// NewPlainIO creates a PlainIO on stdin/stdout.
func NewPlainIO() *PlainIO {
	return NewPlainIOWith(os.Stdin, os.Stdout, os.Stderr)
}

// NewPlainIOWith creates a PlainIO over arbitrary streams.
func NewPlainIOWith(in io.Reader, out, errOut io.Writer) *PlainIO {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 1024*1024), 1024*1024)
	return &PlainIO{scanner: s, out: out, errOut: errOut}
}

func (p *PlainIO) ReadInput() (string, error) {
	prompt := "\n> "
	if n := len(p.status.Staged); n > 0 {
		prompt = fmt.Sprintf("\n[%d staged] > ", n)
	}
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *PlainIO) UserMessage(_ string, attachments []string) {
	// The user already sees what they typed.
	if len(attachments) > 0 {
		fmt.Fprintf(p.out, "  attached: %s\n", strings.Join(attachments, ", "))
	}
}

func (p *PlainIO) ThinkingStart() {
	fmt.Fprintln(p.out, "...")
}

func (p *PlainIO) ThinkingDone() {}

func (p *PlainIO) AssistantMessage(text string) {
	fmt.Fprintf(p.out, "\n%s\n", text)
}

func (p *PlainIO) SystemMessage(text string) {
	fmt.Fprintln(p.out, text)
}

func (p *PlainIO) Error(msg string) {
	fmt.Fprintf(p.errOut, "error: %s\n", msg)
}

func (p *PlainIO) SetStatus(s Status) {
	p.status = s
}
