package bytecode

// ObjType identifies the concrete kind of a heap-allocated Obj.
type ObjType uint8

//nolint:revive
const (
	TypeString ObjType = iota
	TypeFunction
	TypeNative
	TypeClosure
	TypeUpvalue
	TypeClass
	TypeInstance
	TypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFunction:
		return "function"
	case TypeNative:
		return "native"
	case TypeClosure:
		return "closure"
	case TypeUpvalue:
		return "upvalue"
	case TypeClass:
		return "class"
	case TypeInstance:
		return "instance"
	case TypeBoundMethod:
		return "bound method"
	}
	return "unknown"
}

// Obj is implemented by every heap-allocated reference type. Every Object
// carries a type tag, a mark bit and a link field threading it onto the
// intrusive list of all live allocations (see spec.md §3 Object); Header
// supplies all three via struct embedding, so concrete types need only embed
// Header and implement their own display behaviour.
type Obj interface {
	objType() ObjType
	isMarked() bool
	setMarked(bool)
	nextObj() Obj
	setNextObj(Obj)
	size() int
	setSize(int)
}

// Header is embedded in every concrete Obj implementation. Its methods are
// unexported: only this package and lang/gc (via the exported helpers below)
// touch the mark bit, list link and allocation size.
type Header struct {
	Type     ObjType
	marked   bool
	next     Obj
	byteSize int
}

func (h *Header) objType() ObjType { return h.Type }
func (h *Header) isMarked() bool   { return h.marked }
func (h *Header) setMarked(m bool) { h.marked = m }
func (h *Header) nextObj() Obj     { return h.next }
func (h *Header) setNextObj(o Obj) { h.next = o }
func (h *Header) size() int        { return h.byteSize }
func (h *Header) setSize(n int)    { h.byteSize = n }

// Type returns the runtime type name of a heap object, as printed in the
// collector's trace output.
func Type(o Obj) string { return o.objType().String() }

// The following exported wrappers let lang/gc drive the mark-sweep algorithm
// (spec.md §4.7) without this package exposing Header's fields directly.

func IsMarked(o Obj) bool     { return o.isMarked() }
func SetMarked(o Obj, m bool) { o.setMarked(m) }
func NextObj(o Obj) Obj       { return o.nextObj() }
func SetNextObj(o, next Obj)  { o.setNextObj(next) }
func ObjTypeOf(o Obj) ObjType { return o.objType() }
func SizeOf(o Obj) int        { return o.size() }
func SetSizeOf(o Obj, n int)  { o.setSize(n) }
