package gc

// Collect runs one full mark-sweep cycle (spec.md §4.7): mark every
// registered root, trace until the gray worklist is empty, drop now-unmarked
// entries from the string-intern table (so interning stays a weak reference),
// sweep the heap, then grow the next collection threshold.
func (g *GC) Collect() {
	before := g.bytesAllocated
	g.logf("gc: begin collect\n")

	if g.vmRoots != nil {
		g.vmRoots.MarkRoots(g)
	}
	if g.compilerRoots != nil {
		g.compilerRoots.MarkRoots(g)
	}
	g.traceReferences()
	g.Strings.RemoveWhite()
	g.sweep()

	g.nextGC = int(float64(g.bytesAllocated) * g.growthFactor)
	if g.nextGC < 1024 {
		g.nextGC = 1024
	}
	g.logf("gc: end collect, %d -> %d bytes, next at %d\n", before, g.bytesAllocated, g.nextGC)
}
