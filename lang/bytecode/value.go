package bytecode

import (
	"fmt"
	"strconv"
)

// Kind is the tag of a Value's active representation (spec.md §3 Value).
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a dynamically-typed cell: boolean, nil, an IEEE-754 double, or a
// reference to a heap Obj. This is the "tagged record" representation spec.md
// §3 allows as an alternative to NaN-boxing; it trades a few bytes of padding
// for straightforward Go ergonomics (no unsafe, no unions).
type Value struct {
	kind Kind
	num  float64
	b    bool
	obj  Obj
}

// Nil is the singular nil Value.
var Nil = Value{kind: KindNil}

// Bool returns the Value wrapping b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// True and False are the two Bool values, preallocated as in clox's VM for
// the same reason: zero-operand opcodes push one of these without touching
// the constant pool.
var (
	True  = Bool(true)
	False = Bool(false)
)

// Number returns the Value wrapping the float64 n.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// FromObj returns the Value wrapping the heap object o.
func FromObj(o Obj) Value { return Value{kind: KindObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Obj        { return v.obj }

// IsObjType reports whether v holds a heap object of the given ObjType.
func (v Value) IsObjType(t ObjType) bool { return v.kind == KindObj && v.obj.objType() == t }

// Truthy implements Lox falsiness: nil and false are falsey, everything else
// (including 0 and "") is truthy (spec.md §4.5).
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Type returns the short runtime type name of v ("nil", "boolean", "number"
// or the heap object's type name).
func (v Value) Type() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	default:
		return Type(v.obj)
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	default:
		return v.obj.(fmt.Stringer).String()
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Equal implements Lox value equality (spec.md §3): nil=nil, booleans by bit,
// numbers by IEEE equality (so NaN != NaN), objects by reference identity
// except Strings, for which interning already makes identity equality the
// same thing as content equality (so a plain pointer/content compare here is
// sufficient and does not need to know about the intern table).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	default:
		if as, ok := a.obj.(*ObjString); ok {
			if bs, ok := b.obj.(*ObjString); ok {
				return as.Hash == bs.Hash && as.Chars == bs.Chars
			}
			return false
		}
		return a.obj == b.obj
	}
}
