package gc_test

import (
	"testing"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/gc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rootSet is a minimal gc.RootMarker that marks exactly the objects it is
// given, standing in for the VM/Compiler roots described in spec.md §4.7.
type rootSet struct{ roots []bytecode.Obj }

func (r *rootSet) MarkRoots(g *gc.GC) {
	for _, o := range r.roots {
		g.MarkObject(o)
	}
}

func TestStringInterning(t *testing.T) {
	g := gc.New(1<<20, 2)
	a := g.NewString("hello", bytecode.HashString("hello"))
	b := g.NewString("hello", bytecode.HashString("hello"))
	assert.Same(t, a, b, "equal-content strings intern to the same object (spec.md §3, §8 property 1)")

	c := g.NewString("world", bytecode.HashString("world"))
	assert.NotSame(t, a, c)
}

func TestCollectSweepsUnreachable(t *testing.T) {
	// A large initial threshold keeps setup allocations from triggering a
	// premature automatic collection; only the explicit g.Collect() below
	// exercises the sweep.
	g := gc.New(1<<20, 2)
	roots := &rootSet{}
	g.SetVMRoots(roots)

	kept := g.NewString("kept", bytecode.HashString("kept"))
	roots.roots = []bytecode.Obj{kept}

	// Allocated with nothing pointing at it: must not survive a collection.
	_ = g.NewString("garbage", bytecode.HashString("garbage"))

	g.Collect()

	assert.NotNil(t, g.Strings.FindString("kept", bytecode.HashString("kept")),
		"a rooted string survives collection")
	assert.Nil(t, g.Strings.FindString("garbage", bytecode.HashString("garbage")),
		"an unrooted string is collected and its weak intern entry removed")
}

func TestCollectRetainsObjectGraph(t *testing.T) {
	g := gc.New(1<<20, 2)
	roots := &rootSet{}
	g.SetVMRoots(roots)

	name := g.NewString("Greeter", bytecode.HashString("Greeter"))
	class := g.NewClass(name)
	instance := g.NewInstance(class)
	roots.roots = []bytecode.Obj{instance}

	g.Collect()

	// instance -> class -> name must all have survived via tracing, even
	// though only instance was an explicit root (spec.md §4.7 step 2).
	assert.NotNil(t, g.Strings.FindString("Greeter", bytecode.HashString("Greeter")))
}

func TestCompilerRootsCoverInProgressFunction(t *testing.T) {
	g := gc.New(1<<20, 2)
	vmRoots := &rootSet{}
	g.SetVMRoots(vmRoots)

	fn := g.NewFunction()
	name := g.NewString("partial", bytecode.HashString("partial"))
	fn.Name = name

	compilerRoots := &rootSet{roots: []bytecode.Obj{fn}}
	g.PushCompilerRoot(compilerRoots)

	g.Collect()

	require.NotNil(t, g.Strings.FindString("partial", bytecode.HashString("partial")),
		"a function still under construction is kept alive via the compiler root, per spec.md §4.7 markCompilerRoots")

	g.PopCompilerRoot(nil)
}

// TestAllocatedObjectsCarryTheirOwnType guards against each NewXxx helper
// forgetting to set its object's type tag, which would leave every object
// reporting the zero ObjType (TypeString) regardless of its real kind and
// silently break every IsObjType check in the VM (GET_PROPERTY, INHERIT,
// string-vs-number dispatch in ADD).
func TestAllocatedObjectsCarryTheirOwnType(t *testing.T) {
	g := gc.New(1<<20, 2)

	name := g.NewString("C", bytecode.HashString("C"))
	class := g.NewClass(name)
	instance := g.NewInstance(class)
	fn := g.NewFunction()
	closure := g.NewClosure(fn)
	native := g.NewNative("n", 0, func(_ []bytecode.Value) (bytecode.Value, error) { return bytecode.Nil, nil })
	upvalue := g.NewUpvalue(&bytecode.Nil)
	bound := g.NewBoundMethod(bytecode.FromObj(instance), closure)

	assert.Equal(t, bytecode.TypeString, bytecode.ObjTypeOf(name))
	assert.Equal(t, bytecode.TypeClass, bytecode.ObjTypeOf(class))
	assert.Equal(t, bytecode.TypeInstance, bytecode.ObjTypeOf(instance))
	assert.Equal(t, bytecode.TypeFunction, bytecode.ObjTypeOf(fn))
	assert.Equal(t, bytecode.TypeClosure, bytecode.ObjTypeOf(closure))
	assert.Equal(t, bytecode.TypeNative, bytecode.ObjTypeOf(native))
	assert.Equal(t, bytecode.TypeUpvalue, bytecode.ObjTypeOf(upvalue))
	assert.Equal(t, bytecode.TypeBoundMethod, bytecode.ObjTypeOf(bound))
}
