// Package vm implements the stack-based bytecode interpreter (spec.md §4.6):
// a fixed-size value stack, an explicit array of call frames (no native Go
// call stack recursion per Lox call), open-upvalue tracking, and a globals
// table. One VM owns exactly one lang/gc.GC, so multiple VMs never share
// heap or collector state (spec.md §5).
package vm

import (
	"fmt"
	"io"
	"time"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/gc"
)

// framesMax and stackMax bound recursion depth and operand-stack depth
// (spec.md §4.6 "a fixed maximum call depth... overflow is a runtime error").
// The stack is sized as the clox VM sizes it: enough slots for framesMax
// frames each using the full one-byte local-slot address space.
const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// InterpretResult reports how a top-level Interpret call ended.
type InterpretResult uint8

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// CallFrame is one active function invocation: its closure, instruction
// pointer into that closure's Chunk, and the base stack slot its locals
// start at (spec.md §4.6).
type CallFrame struct {
	closure *bytecode.ObjClosure
	ip      int
	slots   int
}

// VM is a single Lox execution context.
type VM struct {
	stack    [stackMax]bytecode.Value
	stackTop int

	frames     [framesMax]CallFrame
	frameCount int

	globals      *bytecode.Table
	openUpvalues *bytecode.ObjUpvalue

	gc         *gc.GC
	initString *bytecode.ObjString

	Stdout io.Writer
	Stderr io.Writer
}

// New constructs a VM backed by g, wiring itself up as g's VM-roots marker
// and registering the native functions described in spec.md §1.
func New(g *gc.GC, stdout, stderr io.Writer) *VM {
	vm := &VM{globals: bytecode.NewTable(), gc: g, Stdout: stdout, Stderr: stderr}
	g.SetVMRoots(vm)
	vm.initString = g.NewString("init", bytecode.HashString("init"))
	vm.defineNative("clock", 0, clockNative)
	return vm
}

// MarkRoots marks every Value reachable directly from VM state: the live
// portion of the operand stack, every active call frame's closure, the
// open-upvalue list, the globals table, and the cached "init" string
// (spec.md §4.7 step 1).
func (vm *VM) MarkRoots(g *gc.GC) {
	for i := 0; i < vm.stackTop; i++ {
		g.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		g.MarkObject(vm.frames[i].closure)
	}
	for u := vm.openUpvalues; u != nil; u = u.Next {
		g.MarkObject(u)
	}
	g.MarkTable(vm.globals)
	// initString is still nil during the collection that New's own interning
	// of "init" can trigger.
	if vm.initString != nil {
		g.MarkObject(vm.initString)
	}
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() bytecode.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// Interpret compiles and runs source as a complete program (spec.md §6).
func (vm *VM) Interpret(source string) InterpretResult {
	fn, err := compiler.Compile(source, vm.gc)
	if err != nil {
		fmt.Fprintln(vm.Stderr, err)
		return InterpretCompileError
	}

	vm.push(bytecode.FromObj(fn))
	closure := vm.gc.NewClosure(fn)
	vm.pop()
	vm.push(bytecode.FromObj(closure))
	vm.callValue(bytecode.FromObj(closure), 0)

	return vm.run()
}

func (vm *VM) defineNative(name string, arity int, fn bytecode.NativeFn) {
	nameObj := vm.gc.NewString(name, bytecode.HashString(name))
	vm.push(bytecode.FromObj(nameObj))
	native := vm.gc.NewNative(name, arity, fn)
	vm.push(bytecode.FromObj(native))
	vm.globals.Set(vm.stack[0].AsObj().(*bytecode.ObjString), vm.stack[1])
	vm.pop()
	vm.pop()
}

func clockNative(_ []bytecode.Value) (bytecode.Value, error) {
	return bytecode.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// runtimeError formats a runtime error with a frame-by-frame stack trace
// (spec.md §4.6 "[line N] in funcName()") and resets the VM to a clean,
// reusable state (so a REPL can keep running after a runtime error).
func (vm *VM) runtimeError(format string, args ...interface{}) {
	fmt.Fprintf(vm.Stderr, format+"\n", args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := 0
		if frame.ip-1 < len(fn.Chunk.Lines) && frame.ip-1 >= 0 {
			line = fn.Chunk.Lines[frame.ip-1]
		}
		fmt.Fprintf(vm.Stderr, "[line %d] in %s()\n", line, fn.DisplayName())
	}
	vm.resetStack()
}
