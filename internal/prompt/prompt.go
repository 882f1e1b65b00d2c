// Package prompt reads operator answers from a line-oriented console.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Affirmative answers. Matching is exact after trimming surrounding whitespace.
var affirmative = map[string]bool{"yes": true, "y": true, "ok": true}

// IsAffirmative reports whether answer is one of yes, y or ok.
func IsAffirmative(answer string) bool {
	return affirmative[strings.TrimSpace(answer)]
}

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

// New returns a Prompter. When in is a terminal, Password hides what is typed.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	}
	return p
}

// Ask prints question and returns the trimmed answer. io.EOF is returned only
// when the input ends before any text is read.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil {
		if err == io.EOF && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

// AskDefault is Ask, returning def for an empty answer.
func (p *Prompter) AskDefault(question, def string) (string, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. End of input counts as no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Ask(question)
	if err == io.EOF {
		fmt.Fprintln(p.out)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return IsAffirmative(answer), nil
}

// Password reads a secret without echo when attached to a terminal,
// falling back to a plain line read otherwise.
func (p *Prompter) Password(question string) (string, error) {
	if !p.isTerm {
		return p.Ask(question)
	}
	fmt.Fprint(p.out, question)
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
