package bytecode_test

import (
	"math"
	"testing"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    bytecode.Value
		want bool
	}{
		{"nil", bytecode.Nil, false},
		{"false", bytecode.False, false},
		{"true", bytecode.True, true},
		{"zero", bytecode.Number(0), true},
		{"empty string", bytecode.FromObj(&bytecode.ObjString{Chars: ""}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, bytecode.Equal(bytecode.Nil, bytecode.Nil))
	assert.True(t, bytecode.Equal(bytecode.True, bytecode.True))
	assert.False(t, bytecode.Equal(bytecode.True, bytecode.False))
	assert.True(t, bytecode.Equal(bytecode.Number(1), bytecode.Number(1)))
	assert.False(t, bytecode.Equal(bytecode.Number(1), bytecode.Number(2)))
	assert.False(t, bytecode.Equal(bytecode.Nil, bytecode.False), "nil and false are distinct kinds")

	nan := bytecode.Number(math.NaN())
	assert.False(t, bytecode.Equal(nan, nan), "NaN is never equal to itself")
}

func TestEqualStringsByContent(t *testing.T) {
	// Two distinct ObjString allocations with equal content and hash compare
	// equal (spec.md §3: "strings, whose interning makes identity equal to
	// content equality"); Equal itself doesn't need the intern table to get
	// this right, only equal Hash/Chars.
	a := bytecode.FromObj(&bytecode.ObjString{Chars: "hi", Hash: bytecode.HashString("hi")})
	b := bytecode.FromObj(&bytecode.ObjString{Chars: "hi", Hash: bytecode.HashString("hi")})
	assert.True(t, bytecode.Equal(a, b))
}

func TestHashStringReadsEachByte(t *testing.T) {
	// spec.md §9: a known-buggy revision's FNV-1a hash reads key[0] in the
	// loop instead of key[i], which would make every same-length-prefix string
	// collide. Guard against regressing to that bug.
	h1 := bytecode.HashString("aa")
	h2 := bytecode.HashString("ab")
	assert.NotEqual(t, h1, h2)
}
