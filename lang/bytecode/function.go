package bytecode

import "fmt"

// ObjFunction is a compiled function: its arity, the number of upvalues its
// closures must capture, and the Chunk of bytecode that implements it
// (spec.md §3 Object).
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString // nil for the top-level script function
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// DisplayName returns the function's name for stack traces, or "script" for
// the top-level function (spec.md §4.6 runtime error trace format).
func (f *ObjFunction) DisplayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars
}

var _ Obj = (*ObjFunction)(nil)

// NativeFn is the host-side implementation of a native function, invoked
// synchronously with its positional arguments (spec.md §6 defineNative).
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host-provided Go function so it can be called like any
// other Lox callable.
type ObjNative struct {
	Header
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

var _ Obj = (*ObjNative)(nil)
