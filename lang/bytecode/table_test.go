package bytecode_test

import (
	"fmt"
	"testing"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *bytecode.ObjString {
	return &bytecode.ObjString{Chars: s, Hash: bytecode.HashString(s)}
}

func TestTableSetGetDelete(t *testing.T) {
	tbl := bytecode.NewTable()
	a, b := str("a"), str("b")

	require.True(t, tbl.Set(a, bytecode.Number(1)))
	require.False(t, tbl.Set(a, bytecode.Number(2)), "re-setting an existing key is not a new key")

	v, ok := tbl.Get(a)
	require.True(t, ok)
	assert.Equal(t, bytecode.Number(2), v)

	_, ok = tbl.Get(b)
	assert.False(t, ok)

	require.True(t, tbl.Delete(a))
	_, ok = tbl.Get(a)
	assert.False(t, ok, "deleted key must no longer be found")
	assert.False(t, tbl.Delete(a), "deleting an absent key reports false")
}

func TestTableTombstoneReuse(t *testing.T) {
	tbl := bytecode.NewTable()
	a, b := str("a"), str("b")

	tbl.Set(a, bytecode.Number(1))
	countBefore := tbl.Count()
	tbl.Delete(a)
	// a tombstone does not decrease count (spec.md §4.3: "tombstones do not
	// count as present" applies to insertion bookkeeping, but the slot is
	// still consumed until the next resize).
	assert.Equal(t, countBefore, tbl.Count())

	require.True(t, tbl.Set(b, bytecode.Number(2)))
	v, ok := tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, bytecode.Number(2), v)
}

func TestTableGrowsAndSurvivesEntries(t *testing.T) {
	tbl := bytecode.NewTable()
	const n = 200
	keys := make([]*bytecode.ObjString, n)
	for i := 0; i < n; i++ {
		keys[i] = str(fmt.Sprintf("key%d", i))
		tbl.Set(keys[i], bytecode.Number(float64(i)))
	}
	assert.Equal(t, n, tbl.Count())
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok, "key %d must still be present after growth", i)
		assert.Equal(t, bytecode.Number(float64(i)), v)
	}
}

func TestTableFindString(t *testing.T) {
	tbl := bytecode.NewTable()
	foo := str("foo")
	tbl.Set(foo, bytecode.True)

	got := tbl.FindString("foo", bytecode.HashString("foo"))
	assert.Same(t, foo, got, "FindString must return the canonical interned object")

	assert.Nil(t, tbl.FindString("bar", bytecode.HashString("bar")))
}

func TestTableFindStringSkipsTombstones(t *testing.T) {
	tbl := bytecode.NewTable()
	a, b := str("a"), str("b")
	tbl.Set(a, bytecode.True)
	tbl.Set(b, bytecode.True)
	tbl.Delete(a)

	// b must still be reachable even though probing may pass through a's
	// tombstone on the way (spec.md §4.3: tombstones are "passable", empty
	// slots terminate the scan).
	got := tbl.FindString("b", bytecode.HashString("b"))
	assert.Same(t, b, got)
}

func TestTableAddAll(t *testing.T) {
	from, to := bytecode.NewTable(), bytecode.NewTable()
	from.Set(str("x"), bytecode.Number(1))
	from.Set(str("y"), bytecode.Number(2))

	to.AddAll(from)
	assert.Equal(t, 2, to.Count())
}

func TestTableRemoveWhite(t *testing.T) {
	tbl := bytecode.NewTable()
	marked, unmarked := str("marked"), str("unmarked")
	bytecode.SetMarked(marked, true)
	tbl.Set(marked, bytecode.True)
	tbl.Set(unmarked, bytecode.True)

	tbl.RemoveWhite()

	_, ok := tbl.Get(marked)
	assert.True(t, ok, "marked entries survive RemoveWhite")
	_, ok = tbl.Get(unmarked)
	assert.False(t, ok, "unmarked entries are deleted by RemoveWhite")
}
