// Copyright 2023 The gwsetup Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter mediates the operator checkpoints. Both calls block until the
// operator answers; there is no timeout, because the right wait duration is
// set by physical actions (power-cycling hardware) the software cannot see.
type Prompter interface {
	// Checkpoint shows the instruction and waits for the operator to
	// confirm readiness. Returns false if the operator aborts.
	Checkpoint(stage, instruction string) (bool, error)

	// ConfirmIrreversible asks for an explicit affirmative before a
	// destructive stage. Anything but a literal "yes" declines.
	ConfirmIrreversible(stage, summary string) (bool, error)
}

// NewTerminalPrompter returns a Prompter reading from stdin.
func NewTerminalPrompter() Prompter {
	return newTerminalPrompter(os.Stdin, os.Stderr)
}

func newTerminalPrompter(in *os.File, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, r: bufio.NewReader(in), out: out}
}

type terminalPrompter struct {
	in *os.File
	// r persists across prompts so input buffered past one newline is
	// still there for the next checkpoint.
	r   *bufio.Reader
	out io.Writer
}

func (p *terminalPrompter) Checkpoint(stage, instruction string) (bool, error) {
	fmt.Fprintf(p.out, "\n[%s] %s\n", stage, instruction)
	fmt.Fprintf(p.out, "Press Enter when ready, or type \"abort\": ")
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return line != "abort", nil
}

func (p *terminalPrompter) ConfirmIrreversible(stage, summary string) (bool, error) {
	// A piped "yes" must not be able to destroy the only factory dump.
	if !term.IsTerminal(int(p.in.Fd())) {
		return false, fmt.Errorf("stage %s is irreversible and needs interactive confirmation, but stdin is not a terminal", stage)
	}
	fmt.Fprintf(p.out, "\n[%s] %s\n", stage, summary)
	fmt.Fprintf(p.out, "This cannot be undone. Type \"yes\" to continue: ")
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return line == "yes", nil
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("cannot read operator input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
