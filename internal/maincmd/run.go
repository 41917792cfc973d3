package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/vm"
)

const initialGCThreshold = 1024 * 1024

// Exit codes for compile and runtime errors (spec.md §6 "a distinct non-zero
// code for compile errors and another for runtime errors"). mainer's own
// ExitCode only distinguishes Success/Failure/InvalidArgs, so Run bypasses it
// with a direct os.Exit for these two cases, matching the sysexits.h-style
// codes a Lox CLI conventionally uses.
const (
	exitDataErr  = 65 // EX_DATAERR: compile error
	exitSoftware = 70 // EX_SOFTWARE: runtime error
)

// Run compiles and executes the Lox script at args[0] (spec.md §6 "run a
// single file and exit").
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return err
	}

	machine := newVM(stdio)
	switch machine.Interpret(string(src)) {
	case vm.InterpretCompileError:
		os.Exit(exitDataErr)
	case vm.InterpretRuntimeError:
		os.Exit(exitSoftware)
	}
	return nil
}

func newVM(stdio mainer.Stdio) *vm.VM {
	cfg := gcConfigFromEnv()
	g := gc.New(initialGCThreshold, cfg.GrowthFactor)
	g.StressGC = cfg.StressGC
	g.LogGC = cfg.LogGC
	g.Log = stdio.Stderr
	return vm.New(g, stdio.Stdout, stdio.Stderr)
}
