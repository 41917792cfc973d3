package bytecode

import "fmt"

// ObjClass is a Lox class: a name and its own method table (methods
// inherited from a superclass are copied in at INHERIT time, spec.md §4.5).
// Instances are allocated exclusively through lang/gc, which is responsible
// for all heap allocation (spec.md §4.7); this package only defines shape.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) String() string { return c.Name.Chars }

var _ Obj = (*ObjClass)(nil)

// ObjInstance is an instance of a class: the class reference plus a table of
// its own fields.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }

var _ Obj = (*ObjInstance)(nil)

// ObjBoundMethod pairs a receiver Value with the Closure that implements the
// method, allocated anew each time GET_PROPERTY (or GET_SUPER) resolves to a
// method rather than a field (spec.md §4.6 Method binding).
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) String() string { return b.Method.String() }

var _ Obj = (*ObjBoundMethod)(nil)
