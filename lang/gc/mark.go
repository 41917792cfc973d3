package gc

import "github.com/mna/loxvm/lang/bytecode"

// MarkValue marks v's object, if it holds one. Nil/bool/number values carry
// nothing to trace.
func (g *GC) MarkValue(v bytecode.Value) {
	if v.IsObj() {
		g.MarkObject(v.AsObj())
	}
}

// MarkObject marks o gray (spec.md §4.7 step 1/2: the tri-color invariant).
// Marking an already-marked object is a no-op, which is what keeps cyclic
// object graphs (e.g. a closure whose upvalue points back into a class
// method table that references the same closure) from looping forever.
func (g *GC) MarkObject(o bytecode.Obj) {
	if o == nil || bytecode.IsMarked(o) {
		return
	}
	bytecode.SetMarked(o, true)
	g.logf("gc: mark %p (%s)\n", o, bytecode.Type(o))
	g.gray = append(g.gray, o)
}

// MarkTable marks every key and value stored in t (globals, fields, methods).
func (g *GC) MarkTable(t *bytecode.Table) {
	if t == nil {
		return
	}
	t.Each(func(key *bytecode.ObjString, value bytecode.Value) {
		g.MarkObject(key)
		g.MarkValue(value)
	})
}

// traceReferences drains the gray worklist, blackening each object by
// visiting everything it references (spec.md §4.7 step 2).
func (g *GC) traceReferences() {
	for len(g.gray) > 0 {
		o := g.gray[len(g.gray)-1]
		g.gray = g.gray[:len(g.gray)-1]
		g.blacken(o)
	}
}

func (g *GC) blacken(o bytecode.Obj) {
	g.logf("gc: blacken %p (%s)\n", o, bytecode.Type(o))
	switch v := o.(type) {
	case *bytecode.ObjString, *bytecode.ObjNative:
		// no outgoing references
	case *bytecode.ObjUpvalue:
		g.MarkValue(v.Closed)
		if v.IsOpen() {
			g.MarkValue(*v.Location)
		}
	case *bytecode.ObjFunction:
		g.MarkObject(objOrNil(v.Name))
		for _, c := range v.Chunk.Constants {
			g.MarkValue(c)
		}
	case *bytecode.ObjClosure:
		g.MarkObject(v.Function)
		for _, u := range v.Upvalues {
			g.MarkObject(objOrNil(u))
		}
	case *bytecode.ObjClass:
		g.MarkObject(v.Name)
		g.MarkTable(v.Methods)
	case *bytecode.ObjInstance:
		g.MarkObject(v.Class)
		g.MarkTable(v.Fields)
	case *bytecode.ObjBoundMethod:
		g.MarkValue(v.Receiver)
		g.MarkObject(v.Method)
	}
}

// objOrNil returns o as a bytecode.Obj, or the untyped nil interface if o is
// a nil pointer of a concrete Obj type. A bare `Obj(ptr)` conversion of a nil
// *ObjString, say, would otherwise produce a non-nil interface value that
// MarkObject's `o == nil` check cannot catch.
func objOrNil[T interface {
	comparable
	bytecode.Obj
}](o T) bytecode.Obj {
	var zero T
	if o == zero {
		return nil
	}
	return o
}
