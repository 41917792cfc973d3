package vm

import (
	"unsafe"

	"github.com/mna/loxvm/lang/bytecode"
)

// callValue dispatches a CALL to whatever callable sits at callee, per
// spec.md §4.6: a Closure pushes a new CallFrame, a Native invokes
// synchronously, a Class instantiates (running `init` if present), and a
// BoundMethod calls through to its underlying closure with its receiver
// spliced in at slot 0.
func (vm *VM) callValue(callee bytecode.Value, argCount int) bool {
	if !callee.IsObj() {
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
	switch obj := callee.AsObj().(type) {
	case *bytecode.ObjClosure:
		return vm.call(obj, argCount)
	case *bytecode.ObjNative:
		return vm.callNative(obj, argCount)
	case *bytecode.ObjClass:
		return vm.instantiate(obj, argCount)
	case *bytecode.ObjBoundMethod:
		vm.stack[vm.stackTop-argCount-1] = obj.Receiver
		return vm.call(obj.Method, argCount)
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

func (vm *VM) callNative(native *bytecode.ObjNative, argCount int) bool {
	if argCount != native.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
		return false
	}
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(args)
	if err != nil {
		vm.runtimeError("%s", err.Error())
		return false
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return true
}

func (vm *VM) instantiate(class *bytecode.ObjClass, argCount int) bool {
	instance := vm.gc.NewInstance(class)
	vm.stack[vm.stackTop-argCount-1] = bytecode.FromObj(instance)

	if initializer, ok := class.Methods.Get(vm.initString); ok {
		return vm.call(initializer.AsObj().(*bytecode.ObjClosure), argCount)
	}
	if argCount != 0 {
		vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		return false
	}
	return true
}

// call pushes a new CallFrame for closure, rejecting both arity mismatches
// and call-stack overflow (spec.md §4.6).
func (vm *VM) call(closure *bytecode.ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return true
}

// bindMethod resolves name on class's method table and, if found, wraps it
// with the instance currently on top of the stack into a BoundMethod
// replacing that instance (spec.md §4.6 GET_PROPERTY method fallback).
func (vm *VM) bindMethod(class *bytecode.ObjClass, name *bytecode.ObjString) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.gc.NewBoundMethod(vm.peek(0), method.AsObj().(*bytecode.ObjClosure))
	vm.pop()
	vm.push(bytecode.FromObj(bound))
	return true
}

// invoke is the fused "get property then call" fast path OP_INVOKE uses to
// skip materializing an intermediate BoundMethod for the common case of
// calling a method immediately (spec.md §4.6).
func (vm *VM) invoke(name *bytecode.ObjString, argCount int) bool {
	receiver := vm.peek(argCount)
	if !receiver.IsObj() {
		vm.runtimeError("Only instances have methods.")
		return false
	}
	instance, ok := receiver.AsObj().(*bytecode.ObjInstance)
	if !ok {
		vm.runtimeError("Only instances have methods.")
		return false
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *bytecode.ObjClass, name *bytecode.ObjString, argCount int) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method.AsObj().(*bytecode.ObjClosure), argCount)
}

// captureUpvalue returns the open upvalue for the stack slot at local,
// reusing an existing one if the VM's open-upvalue list (kept sorted by
// descending stack address) already has it, or inserting a new one in the
// right position otherwise (spec.md §4.6).
func (vm *VM) captureUpvalue(local *bytecode.Value) *bytecode.ObjUpvalue {
	var prev *bytecode.ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Location != local && slotIndex(vm, cur.Location) > slotIndex(vm, local) {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Location == local {
		return cur
	}

	created := vm.gc.NewUpvalue(local)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// slotIndex returns slot's position within vm.stack, by pointer arithmetic
// against the array's base. It exists purely to keep the open-upvalue list
// ordered by descending stack address (spec.md §4.6); the values themselves
// are meaningless outside that comparison.
func slotIndex(vm *VM, slot *bytecode.Value) int {
	base := uintptr(unsafe.Pointer(&vm.stack[0]))
	return int((uintptr(unsafe.Pointer(slot)) - base) / unsafe.Sizeof(vm.stack[0]))
}

// closeUpvalues closes every open upvalue at or above the stack slot last,
// lifting each one's value off the stack and onto its own storage before the
// corresponding scope is popped (spec.md §4.6 OP_CLOSE_UPVALUE, and at
// function return).
func (vm *VM) closeUpvalues(last *bytecode.Value) {
	for vm.openUpvalues != nil && slotIndex(vm, vm.openUpvalues.Location) >= slotIndex(vm, last) {
		u := vm.openUpvalues
		u.Close()
		vm.openUpvalues = u.Next
	}
}
