package bytecode

import "strconv"

// ObjString is an interned, immutable byte string. Interning (see Table's
// FindString) makes reference identity and content equality coincide for
// every String value that flows through a single VM (spec.md §3 invariant).
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// Quoted returns the string formatted the way a Lox REPL would print a
// string literal, for diagnostics that need to disambiguate it from bare
// text.
func (s *ObjString) Quoted() string { return strconv.Quote(s.Chars) }

var _ Obj = (*ObjString)(nil)

// HashString computes the FNV-1a hash of s, used both by the constant pool
// and by the identity-interning hash table (spec.md §4.3/§9: a known-buggy
// revision reads key[0] in the loop instead of key[i]; this implementation
// reads key[i], as specified).
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
