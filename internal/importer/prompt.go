package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// TerminalPrompter reads the answer from In after writing the question to Out.
// Only "y" or "yes" (any case) confirm; anything else, including EOF, declines.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) Confirm(question string) (bool, error) {
	if p.Out != nil {
		if _, err := fmt.Fprint(p.Out, question+" "); err != nil {
			return false, err
		}
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// AutoConfirm answers every question with Answer; used by -yes.
type AutoConfirm struct {
	Answer bool
}

func (a AutoConfirm) Confirm(string) (bool, error) { return a.Answer, nil }
