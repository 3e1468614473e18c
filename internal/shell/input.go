package shell

import (
	"bufio"
	"io"
)

// MaxLineLength bounds one piped query.
const MaxLineLength = 1 << 20

// Input is a LineReader that must be closed when the session ends.
type Input interface {
	LineReader
	io.Closer
}

// PipedInput reads queries from non-terminal input. liner splits lines longer
// than its read buffer in that mode, so redirected stdin goes through a
// scanner instead.
type PipedInput struct {
	sc  *bufio.Scanner
	out io.Writer
}

// NewPipedInput reads lines from r and echoes each prompt to promptOut (may be nil).
func NewPipedInput(r io.Reader, promptOut io.Writer) *PipedInput {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	return &PipedInput{sc: sc, out: promptOut}
}

func (p *PipedInput) Prompt(prompt string) (string, error) {
	if p.out != nil && prompt != "" {
		if _, err := io.WriteString(p.out, prompt); err != nil {
			return "", err
		}
	}
	if p.sc.Scan() {
		return p.sc.Text(), nil
	}
	if err := p.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (p *PipedInput) Close() error { return nil }

// OpenInput uses liner when in is an interactive terminal and a PipedInput
// otherwise. History is only kept for terminals.
func OpenInput(in io.Reader, promptOut io.Writer, historyFile string) (Input, error) {
	if isTerminal(in) {
		return OpenTerminal(historyFile)
	}
	return NewPipedInput(in, promptOut), nil
}
