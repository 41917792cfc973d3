package gc

import "github.com/mna/loxvm/lang/bytecode"

// sweep walks the intrusive all-objects list, unlinking and discarding every
// object left unmarked after tracing (spec.md §4.7 step 5). Marks are reset
// to white as each survivor is visited, readying the heap for the next cycle.
func (g *GC) sweep() {
	var prev bytecode.Obj
	cur := g.objects
	for cur != nil {
		if bytecode.IsMarked(cur) {
			bytecode.SetMarked(cur, false)
			prev = cur
			cur = bytecode.NextObj(cur)
			continue
		}
		unreached := cur
		cur = bytecode.NextObj(cur)
		if prev != nil {
			bytecode.SetNextObj(prev, cur)
		} else {
			g.objects = cur
		}
		g.bytesAllocated -= bytecode.SizeOf(unreached)
		g.logf("gc: free %p (%s)\n", unreached, bytecode.Type(unreached))
	}
}
