package vm

import (
	"fmt"

	"github.com/mna/loxvm/lang/bytecode"
)

// run executes bytecode starting from the top call frame until it returns
// from frame 0 (program end) or hits a runtime error (spec.md §4.6). This is
// the VM's central dispatch loop; every opcode defined in lang/bytecode is
// handled here.
func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() uint16 {
		hi := readByte()
		lo := readByte()
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() bytecode.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *bytecode.ObjString {
		return readConstant().AsObj().(*bytecode.ObjString)
	}

	for {
		op := bytecode.OpCode(readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(readConstant())

		case bytecode.OpNil:
			vm.push(bytecode.Nil)
		case bytecode.OpTrue:
			vm.push(bytecode.True)
		case bytecode.OpFalse:
			vm.push(bytecode.False)
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			vm.push(vm.stack[frame.slots+int(readByte())])
		case bytecode.OpSetLocal:
			vm.stack[frame.slots+int(readByte())] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case bytecode.OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return InterpretRuntimeError
			}

		case bytecode.OpGetUpvalue:
			vm.push(*frame.closure.Upvalues[readByte()].Location)
		case bytecode.OpSetUpvalue:
			*frame.closure.Upvalues[readByte()].Location = vm.peek(0)

		case bytecode.OpGetProperty:
			if !vm.peek(0).IsObjType(bytecode.TypeInstance) {
				vm.runtimeError("Only instances have properties.")
				return InterpretRuntimeError
			}
			instance := vm.peek(0).AsObj().(*bytecode.ObjInstance)
			name := readString()
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if !vm.bindMethod(instance.Class, name) {
				return InterpretRuntimeError
			}
		case bytecode.OpSetProperty:
			if !vm.peek(1).IsObjType(bytecode.TypeInstance) {
				vm.runtimeError("Only instances have fields.")
				return InterpretRuntimeError
			}
			instance := vm.peek(1).AsObj().(*bytecode.ObjInstance)
			instance.Fields.Set(readString(), vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)
		case bytecode.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsObj().(*bytecode.ObjClass)
			if !vm.bindMethod(superclass, name) {
				return InterpretRuntimeError
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.Bool(bytecode.Equal(a, b)))
		case bytecode.OpGreater:
			if !vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Bool(a > b) }) {
				return InterpretRuntimeError
			}
		case bytecode.OpLess:
			if !vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Bool(a < b) }) {
				return InterpretRuntimeError
			}

		case bytecode.OpAdd:
			if !vm.add() {
				return InterpretRuntimeError
			}
		case bytecode.OpSubtract:
			if !vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a - b) }) {
				return InterpretRuntimeError
			}
		case bytecode.OpMultiply:
			if !vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a * b) }) {
				return InterpretRuntimeError
			}
		case bytecode.OpDivide:
			if !vm.binaryNumberOp(func(a, b float64) bytecode.Value { return bytecode.Number(a / b) }) {
				return InterpretRuntimeError
			}

		case bytecode.OpNot:
			vm.push(bytecode.Bool(!vm.pop().Truthy()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.push(bytecode.Number(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().String())

		case bytecode.OpJump:
			frame.ip += int(readShort())
		case bytecode.OpJumpIfFalse:
			offset := readShort()
			if !vm.peek(0).Truthy() {
				frame.ip += int(offset)
			}
		case bytecode.OpLoop:
			frame.ip -= int(readShort())

		case bytecode.OpCall:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpInvoke:
			method := readString()
			argCount := int(readByte())
			if !vm.invoke(method, argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpSuperInvoke:
			method := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsObj().(*bytecode.ObjClass)
			if !vm.invokeFromClass(superclass, method, argCount) {
				return InterpretRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClosure:
			fn := readConstant().AsObj().(*bytecode.ObjFunction)
			closure := vm.gc.NewClosure(fn)
			vm.push(bytecode.FromObj(closure))
			for i := range closure.Upvalues {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slots+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slots])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClass:
			vm.push(bytecode.FromObj(vm.gc.NewClass(readString())))

		case bytecode.OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsObjType(bytecode.TypeClass) {
				vm.runtimeError("Superclass must be a class.")
				return InterpretRuntimeError
			}
			subclass := vm.peek(0).AsObj().(*bytecode.ObjClass)
			subclass.Methods.AddAll(superVal.AsObj().(*bytecode.ObjClass).Methods)
			vm.pop() // the subclass, leaving the superclass for the enclosing scope's local

		case bytecode.OpMethod:
			vm.defineMethod(readString())

		default:
			vm.runtimeError("Unknown opcode %s.", op)
			return InterpretRuntimeError
		}
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) bytecode.Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return true
}

// add implements OP_ADD's two overloads: numeric addition and string
// concatenation (spec.md §4.5/§4.6). Both operands are peeked, not popped,
// until the concatenation's own allocation has succeeded, so a collection
// triggered by that allocation cannot reclaim either operand first
// (spec.md §5's push-before-alloc discipline).
func (vm *VM) add() bool {
	switch {
	case vm.peek(0).IsObjType(bytecode.TypeString) && vm.peek(1).IsObjType(bytecode.TypeString):
		b := vm.peek(0).AsObj().(*bytecode.ObjString)
		a := vm.peek(1).AsObj().(*bytecode.ObjString)
		concatenated := a.Chars + b.Chars
		result := vm.gc.NewString(concatenated, bytecode.HashString(concatenated))
		vm.pop()
		vm.pop()
		vm.push(bytecode.FromObj(result))
		return true
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		vm.push(bytecode.Number(a + b))
		return true
	default:
		vm.runtimeError("Operands must be two numbers or two strings.")
		return false
	}
}

func (vm *VM) defineMethod(name *bytecode.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsObj().(*bytecode.ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}
