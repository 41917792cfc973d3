package gc

import (
	"unsafe"

	"github.com/mna/loxvm/lang/bytecode"
)

// allocate tracks o on the intrusive all-objects list, accounts for its
// (approximate) size against the collection threshold, and optionally traces
// the allocation (spec.md §4.7's single allocation entry point; every NewXxx
// helper below funnels through this).
//
// Like clox's reallocate, a call here can itself trigger a collection before
// it returns. None of the NewXxx helpers below protect their own result from
// that collection: a freshly-built object is not yet reachable from any root,
// so if the caller goes on to make further GC allocations before anchoring
// it, the result can be swept out from under the caller. Per
// spec.md §5, it is the caller's job — compiler and VM code that chains
// allocations together, such as string concatenation — to push a Value onto
// the VM stack (or otherwise anchor it to a root) before performing any
// allocation that could be reclaimed.
func (g *GC) allocate(o bytecode.Obj, size int) {
	// note() must run before the object is linked onto g.objects: it may
	// itself trigger a collection, and a collection that found o already
	// linked but still white (every root walk finishes before this function
	// gets a chance to mark anything reachable from the caller's own locals)
	// would immediately sweep the very object being constructed.
	g.note(size)
	bytecode.SetSizeOf(o, size)
	g.track(o)
	g.logf("gc: allocate %p (%s, %d bytes)\n", o, bytecode.Type(o), size)
}

// NewString interns s, allocating a new ObjString only if an equal one is not
// already present in the Strings table (spec.md §4.3 FindString, §9 "one
// logical string in memory at a time"). hash must be HashString(s).
func (g *GC) NewString(s string, hash uint32) *bytecode.ObjString {
	if interned := g.Strings.FindString(s, hash); interned != nil {
		return interned
	}
	str := &bytecode.ObjString{Header: bytecode.Header{Type: bytecode.TypeString}, Chars: s, Hash: hash}
	// Any collection happens inside allocate, before str is linked onto the
	// heap list; Strings.Set grows the table with plain Go memory and never
	// calls back into the collector.
	g.allocate(str, int(unsafe.Sizeof(*str))+len(s))
	g.Strings.Set(str, bytecode.True)
	return str
}

// NewFunction allocates an empty, arity-0 ObjFunction ready for the compiler
// to fill in.
func (g *GC) NewFunction() *bytecode.ObjFunction {
	fn := &bytecode.ObjFunction{Header: bytecode.Header{Type: bytecode.TypeFunction}}
	g.allocate(fn, int(unsafe.Sizeof(*fn)))
	return fn
}

// NewNative wraps a host Go function as a callable Lox value.
func (g *GC) NewNative(name string, arity int, fn bytecode.NativeFn) *bytecode.ObjNative {
	n := &bytecode.ObjNative{Header: bytecode.Header{Type: bytecode.TypeNative}, Name: name, Arity: arity, Fn: fn}
	g.allocate(n, int(unsafe.Sizeof(*n)))
	return n
}

// NewClosure allocates a Closure over function, with a fresh Upvalues slice
// sized to the function's UpvalueCount (callers fill each slot in by capture
// order, spec.md §4.6 OP_CLOSURE).
func (g *GC) NewClosure(function *bytecode.ObjFunction) *bytecode.ObjClosure {
	c := &bytecode.ObjClosure{
		Header:   bytecode.Header{Type: bytecode.TypeClosure},
		Function: function,
		Upvalues: make([]*bytecode.ObjUpvalue, function.UpvalueCount),
	}
	g.allocate(c, int(unsafe.Sizeof(*c))+function.UpvalueCount*int(unsafe.Sizeof((*bytecode.ObjUpvalue)(nil))))
	return c
}

// NewUpvalue allocates an open upvalue pointing at the given live stack slot.
func (g *GC) NewUpvalue(slot *bytecode.Value) *bytecode.ObjUpvalue {
	u := &bytecode.ObjUpvalue{Header: bytecode.Header{Type: bytecode.TypeUpvalue}, Location: slot}
	g.allocate(u, int(unsafe.Sizeof(*u)))
	return u
}

// NewClass allocates a class named name with an empty method table.
func (g *GC) NewClass(name *bytecode.ObjString) *bytecode.ObjClass {
	c := &bytecode.ObjClass{Header: bytecode.Header{Type: bytecode.TypeClass}, Name: name, Methods: bytecode.NewTable()}
	g.allocate(c, int(unsafe.Sizeof(*c)))
	return c
}

// NewInstance allocates an instance of class with an empty field table.
func (g *GC) NewInstance(class *bytecode.ObjClass) *bytecode.ObjInstance {
	i := &bytecode.ObjInstance{Header: bytecode.Header{Type: bytecode.TypeInstance}, Class: class, Fields: bytecode.NewTable()}
	g.allocate(i, int(unsafe.Sizeof(*i)))
	return i
}

// NewBoundMethod pairs receiver with method, materialized when GET_PROPERTY
// resolves to a method rather than a field (spec.md §4.6).
func (g *GC) NewBoundMethod(receiver bytecode.Value, method *bytecode.ObjClosure) *bytecode.ObjBoundMethod {
	b := &bytecode.ObjBoundMethod{Header: bytecode.Header{Type: bytecode.TypeBoundMethod}, Receiver: receiver, Method: method}
	g.allocate(b, int(unsafe.Sizeof(*b)))
	return b
}
