package review

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TerminalPrompter conducts the review Q&A over a reader/writer pair,
// normally stdin and stderr. Stdout stays free for the result record.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter returns a prompter on the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) Show(text string) {
	fmt.Fprintf(p.out, "\n%s\n", text)
}

func (p *TerminalPrompter) Choose(question string, options []Option) (string, error) {
	fmt.Fprintf(p.out, "\n%s\n", question)
	for _, opt := range options {
		fmt.Fprintf(p.out, "   [%s] %s\n", opt.Key, opt.Label)
	}

	for {
		fmt.Fprint(p.out, "\nYour choice: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return "", err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		for _, opt := range options {
			if answer == opt.Key {
				return answer, nil
			}
		}
		fmt.Fprintf(p.out, "Please answer one of: %s\n", optionKeys(options))
	}
}

func (p *TerminalPrompter) Input(question string) (string, error) {
	fmt.Fprintf(p.out, "\n%s: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func optionKeys(options []Option) string {
	keys := make([]string, len(options))
	for i, opt := range options {
		keys[i] = opt.Key
	}
	return strings.Join(keys, ", ")
}
