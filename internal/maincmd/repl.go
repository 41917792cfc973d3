package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"
)

// Repl runs an interactive read-eval-print loop over stdio (spec.md §6): one
// line of source per Interpret call, sharing a single VM (and so a single
// GC, globals table and intern table) across the whole session.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, _ []string) error {
	machine := newVM(stdio)
	scanner := bufio.NewScanner(stdio.Stdin)

	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		machine.Interpret(line)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}
	return nil
}
