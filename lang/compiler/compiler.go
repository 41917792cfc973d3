// Package compiler implements the single-pass Pratt parser/compiler that
// turns Lox source directly into bytecode (spec.md §4.4): there is no
// intermediate AST. Expression parsing is table-driven (see rules.go);
// statements and declarations are parsed by straightforward recursive
// descent (stmt.go).
package compiler

import (
	"errors"
	"strings"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/scanner"
	"github.com/mna/loxvm/lang/token"
)

// maxLocals and maxUpvalues match the one-byte GET_LOCAL/GET_UPVALUE operands
// (spec.md §4.2); maxParams matches the one-byte argument count used by CALL.
const (
	maxLocals   = 256
	maxUpvalues = 256
	maxParams   = 255
)

// FunctionType distinguishes the kind of ObjFunction a Compiler is building,
// which changes a handful of parsing rules: TypeScript's implicit top-level
// function may not `return` a value, TypeMethod/TypeInitializer bind `this`
// as local slot 0, and TypeInitializer's implicit return is the receiver
// rather than nil (spec.md §4.4, §4.6).
type FunctionType uint8

const (
	TypeFunction FunctionType = iota
	TypeScript
	TypeMethod
	TypeInitializer
)

// local is a resolved stack-slot variable: depth -1 marks "declared but not
// yet defined", the window during which a variable's own initializer may not
// refer to itself (spec.md §4.4 edge case).
type local struct {
	name       token.Token
	depth      int
	isCaptured bool
}

// upvalueRef records how a Compiler's function captures a single upvalue:
// either directly off the enclosing function's locals (isLocal true) or by
// forwarding one of the enclosing function's own upvalues (isLocal false).
// index is stored verbatim as the source slot/upvalue index (spec.md §9: a
// known-buggy revision collapses this to a bare boolean instead of keeping
// the index; this implementation keeps both).
type upvalueRef struct {
	index   byte
	isLocal bool
}

// classCompiler tracks the class currently being compiled, threaded as a
// stack so that methods nested inside methods (there are none in Lox, but a
// class nested inside another class's method body is legal) resolve `super`
// and "inside a class" status correctly (spec.md §4.4).
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler holds the compile-time state for a single Lox function body: its
// in-progress bytecode (via function.Chunk), its locals and their scope
// depths, and the upvalues it has resolved. One Compiler exists per nested
// function literal at any given time, chained through enclosing.
type Compiler struct {
	enclosing *Compiler
	function  *bytecode.ObjFunction
	fnType    FunctionType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

// MarkRoots marks every function object still under construction along this
// Compiler's enclosing chain, keeping them alive across a collection
// triggered mid-compile even though nothing outside the compiler references
// them yet (spec.md §4.7 step 1, markCompilerRoots).
func (c *Compiler) MarkRoots(g *gc.GC) {
	for cc := c; cc != nil; cc = cc.enclosing {
		g.MarkObject(cc.function)
	}
}

func newCompiler(g *gc.GC, enclosing *Compiler, fnType FunctionType, name string) *Compiler {
	fn := g.NewFunction()
	if name != "" {
		fn.Name = internString(g, name)
	}
	c := &Compiler{enclosing: enclosing, function: fn, fnType: fnType}
	// Slot 0 is reserved: the receiver for methods/initializers, or an unnamed
	// placeholder for plain functions and the top-level script (spec.md §4.6).
	selfName := ""
	if fnType == TypeMethod || fnType == TypeInitializer {
		selfName = "this"
	}
	c.locals = append(c.locals, local{name: token.Token{Lexeme: selfName}, depth: 0})
	return c
}

func internString(g *gc.GC, s string) *bytecode.ObjString {
	return g.NewString(s, bytecode.HashString(s))
}

// Compile parses source as a complete Lox program and compiles it into the
// implicit top-level script function, per spec.md §4.4/§6. A non-nil error
// means one or more syntax errors were reported during panic-mode recovery;
// the returned function is nil in that case.
func Compile(source string, g *gc.GC) (*bytecode.ObjFunction, error) {
	p := &Parser{scanner: scanner.New(source), gc: g}
	p.cc = newCompiler(g, nil, TypeScript, "")
	g.PushCompilerRoot(p.cc)
	defer g.PopCompilerRoot(nil)

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endCompiler()

	if p.hadError {
		return nil, errors.New(strings.Join(p.errs, "\n"))
	}
	return fn, nil
}

// current* helpers operate on the Parser's innermost Compiler.

func (p *Parser) emitByte(b byte) {
	p.cc.function.Chunk.WriteByte(b, p.previous.Line)
}

func (p *Parser) emitOp(op bytecode.OpCode) {
	p.cc.function.Chunk.WriteOp(op, p.previous.Line)
}

func (p *Parser) emitOps(op1, op2 bytecode.OpCode) {
	p.emitOp(op1)
	p.emitOp(op2)
}

func (p *Parser) emitOpByte(op bytecode.OpCode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

// emitReturn emits the implicit return at the end of a function body: `this`
// for initializers, nil otherwise (spec.md §4.6 init() special case).
func (p *Parser) emitReturn() {
	if p.cc.fnType == TypeInitializer {
		p.emitOpByte(bytecode.OpGetLocal, 0)
	} else {
		p.emitOp(bytecode.OpNil)
	}
	p.emitOp(bytecode.OpReturn)
}

// makeConstant adds v to the current chunk's constant pool, reporting an
// error instead of silently truncating if the one-byte operand would
// overflow (spec.md §4.2 "Too many constants in one chunk.").
func (p *Parser) makeConstant(v bytecode.Value) byte {
	idx := p.cc.function.Chunk.AddConstant(v)
	if idx >= bytecode.MaxConstants {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (p *Parser) emitConstant(v bytecode.Value) {
	p.emitOpByte(bytecode.OpConstant, p.makeConstant(v))
}

// emitJump emits a two-operand placeholder jump and returns the offset of
// its first operand byte, to be patched later by patchJump.
func (p *Parser) emitJump(op bytecode.OpCode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.cc.function.Chunk.Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.cc.function.Chunk.Code) - offset - 2
	if jump > 0xffff {
		p.error("Too much code to jump over.")
	}
	code := p.cc.function.Chunk.Code
	code[offset] = byte((jump >> 8) & 0xff)
	code[offset+1] = byte(jump & 0xff)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(bytecode.OpLoop)
	offset := len(p.cc.function.Chunk.Code) - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
	}
	p.emitByte(byte((offset >> 8) & 0xff))
	p.emitByte(byte(offset & 0xff))
}

// endCompiler finishes the current function, emits its implicit return, and
// pops back to the enclosing Compiler (restoring it as the active compiler
// GC root), returning the finished function.
func (p *Parser) endCompiler() *bytecode.ObjFunction {
	p.emitReturn()
	fn := p.cc.function
	p.gc.PopCompilerRoot(p.cc.enclosing)
	p.cc = p.cc.enclosing
	return fn
}

func (p *Parser) beginScope() { p.cc.scopeDepth++ }

// endScope pops every local declared in the scope being left, emitting
// CLOSE_UPVALUE for any that were captured by a nested closure and a plain
// POP otherwise (spec.md §4.6 upvalue closing on scope exit).
func (p *Parser) endScope() {
	p.cc.scopeDepth--
	locals := p.cc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.cc.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(bytecode.OpCloseUpvalue)
		} else {
			p.emitOp(bytecode.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.cc.locals = locals
}
