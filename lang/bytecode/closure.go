package bytecode

import "fmt"

// ObjClosure pairs a compiled ObjFunction with the array of upvalues it
// captured at creation time (length always equals Function.UpvalueCount).
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }

var _ Obj = (*ObjClosure)(nil)

// ObjUpvalue proxies access to a variable captured from an enclosing scope.
// Location points either into a live VM stack slot ("open") or at the
// upvalue's own Closed field ("closed"); Next threads it onto the VM's
// open-upvalue list, ordered by descending stack address (spec.md §3, §4.6).
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	Next     *ObjUpvalue
}

func (u *ObjUpvalue) String() string { return fmt.Sprintf("upvalue(%p)", u) }

// IsOpen reports whether the upvalue still references a live stack slot.
func (u *ObjUpvalue) IsOpen() bool { return u.Location != &u.Closed }

// Close lifts the upvalue's current value into its own storage and redirects
// Location to point at it, as required when the referenced stack slot is
// about to leave scope (spec.md §3 Lifecycles).
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

var _ Obj = (*ObjUpvalue)(nil)
