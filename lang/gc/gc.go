// Package gc implements the precise, tri-color, non-incremental mark-sweep
// collector described in spec.md §4.7, the single allocator shim every heap
// object in lang/bytecode is created through, and the string-interning table
// that makes String equality a reference comparison.
//
// A GC instance is owned exclusively by one VM (spec.md §5): there is no
// process-wide collector state, so multiple VMs never interfere with each
// other.
package gc

import (
	"fmt"
	"io"

	"github.com/mna/loxvm/lang/bytecode"
)

// RootMarker is implemented by whoever owns a set of GC roots at a given
// moment: the VM (evaluation stack, call frames, open upvalues, globals) and,
// while a compile is in progress, the active Compiler chain
// (markCompilerRoots in spec.md §4.7 step 1).
type RootMarker interface {
	MarkRoots(gc *GC)
}

// GC owns the heap: the intrusive list of every live allocation, the
// byte-accounting that drives collection frequency, and the string-intern
// table.
type GC struct {
	objects bytecode.Obj // head of the intrusive all-objects list
	gray    []bytecode.Obj

	bytesAllocated int
	nextGC         int
	growthFactor   float64

	// Strings is the intern table. It is deliberately NOT included as a GC
	// root: spec.md §4.7 step 4 and §9 require it to be a weak reference
	// table, cleaned with RemoveWhite before sweep, so that interning never
	// keeps a string alive on its own.
	Strings *bytecode.Table

	vmRoots       RootMarker
	compilerRoots RootMarker

	// StressGC, when true, forces a collection before every single
	// allocation (spec.md §4.7 "a debug mode may stress-collect on every
	// allocation"), wired to LOXVM_STRESS_GC in the CLI.
	StressGC bool
	// LogGC, when true, traces allocate/collect/free activity to Log.
	LogGC bool
	Log   io.Writer
}

// New returns a ready-to-use GC with the given initial collection threshold
// (bytes) and heap growth factor (spec.md §4.7 step 5: nextGC = bytesAllocated
// * growthFactor, normally 2).
func New(initialThreshold int, growthFactor float64) *GC {
	if growthFactor <= 1 {
		growthFactor = 2
	}
	return &GC{
		nextGC:       initialThreshold,
		growthFactor: growthFactor,
		Strings:      bytecode.NewTable(),
		Log:          io.Discard,
	}
}

// SetVMRoots registers the VM as the (always-present) root marker for the
// evaluation stack, call frames, open upvalues and globals table.
func (g *GC) SetVMRoots(m RootMarker) { g.vmRoots = m }

// PushCompilerRoot registers the currently-innermost Compiler as a root
// marker; it is expected to walk its own `enclosing` chain to cover every
// in-progress Compiler frame (spec.md §4.7 step 1). Call PopCompilerRoot to
// restore the enclosing Compiler (or clear the root entirely) when a nested
// function's compilation finishes.
func (g *GC) PushCompilerRoot(m RootMarker) { g.compilerRoots = m }

// PopCompilerRoot restores the enclosing compiler (or nil, once the
// outermost compile finishes) as the active compiler root.
func (g *GC) PopCompilerRoot(enclosing RootMarker) { g.compilerRoots = enclosing }

func (g *GC) track(o bytecode.Obj) {
	bytecode.SetNextObj(o, g.objects)
	g.objects = o
}

// note accounts for a change in live heap bytes and triggers a collection
// when the new total crosses nextGC (spec.md §4.7's single reallocate entry
// point, minus the actual free/shrink/grow of Go-managed memory, which the
// Go runtime already handles for us; what spec.md cares about here is the
// *policy*: when to collect).
func (g *GC) note(delta int) {
	g.bytesAllocated += delta
	if g.StressGC {
		g.Collect()
		return
	}
	if g.bytesAllocated > g.nextGC {
		g.Collect()
	}
}

func (g *GC) logf(format string, args ...interface{}) {
	if g.LogGC {
		fmt.Fprintf(g.Log, format, args...)
	}
}
