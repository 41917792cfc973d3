package compiler

import (
	"strconv"

	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/token"
)

func grouping(p *Parser, _ bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func number(p *Parser, _ bool) {
	n, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(bytecode.Number(n))
}

func stringLit(p *Parser, _ bool) {
	raw := p.previous.Lexeme
	s := raw[1 : len(raw)-1] // strip surrounding quotes
	str := internString(p.gc, s)
	p.emitConstant(bytecode.FromObj(str))
}

func literal(p *Parser, _ bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(bytecode.OpFalse)
	case token.TRUE:
		p.emitOp(bytecode.OpTrue)
	case token.NIL:
		p.emitOp(bytecode.OpNil)
	}
}

func unary(p *Parser, _ bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(PrecUnary)
	switch opKind {
	case token.MINUS:
		p.emitOp(bytecode.OpNegate)
	case token.BANG:
		p.emitOp(bytecode.OpNot)
	}
}

func binary(p *Parser, _ bool) {
	opKind := p.previous.Kind
	rule := getRule(opKind)
	p.parsePrecedence(rule.Precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		p.emitOps(bytecode.OpEqual, bytecode.OpNot)
	case token.EQUAL_EQUAL:
		p.emitOp(bytecode.OpEqual)
	case token.GREATER:
		p.emitOp(bytecode.OpGreater)
	case token.GREATER_EQUAL:
		p.emitOps(bytecode.OpLess, bytecode.OpNot)
	case token.LESS:
		p.emitOp(bytecode.OpLess)
	case token.LESS_EQUAL:
		p.emitOps(bytecode.OpGreater, bytecode.OpNot)
	case token.PLUS:
		p.emitOp(bytecode.OpAdd)
	case token.MINUS:
		p.emitOp(bytecode.OpSubtract)
	case token.STAR:
		p.emitOp(bytecode.OpMultiply)
	case token.SLASH:
		p.emitOp(bytecode.OpDivide)
	}
}

// and_ implements short-circuiting: if the left operand is falsey, jump over
// the right operand entirely, leaving the falsey left value as the result.
func and_(p *Parser, _ bool) {
	endJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitOp(bytecode.OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

// or_ mirrors and_: if the left operand is truthy, jump over the right
// operand.
func or_(p *Parser, _ bool) {
	elseJump := p.emitJump(bytecode.OpJumpIfFalse)
	endJump := p.emitJump(bytecode.OpJump)

	p.patchJump(elseJump)
	p.emitOp(bytecode.OpPop)

	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func call(p *Parser, _ bool) {
	argCount := p.argumentList()
	p.emitOpByte(bytecode.OpCall, argCount)
}

// argumentList parses a parenthesized, comma-separated argument list and
// returns the argument count, rejecting the 256th argument (spec.md §9: a
// known-buggy revision checks `argCount` truthily instead of comparing it to
// 255, silently accepting too many arguments; this implementation compares
// argCount == 255 before incrementing past it).
func (p *Parser) argumentList() byte {
	var argCount int
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if argCount == maxParams {
				p.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argCount)
}

func dot(p *Parser, canAssign bool) {
	p.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous.Lexeme)

	switch {
	case canAssign && p.match(token.EQUAL):
		p.expression()
		p.emitOpByte(bytecode.OpSetProperty, name)
	case p.match(token.LEFT_PAREN):
		argCount := p.argumentList()
		p.emitOpByte(bytecode.OpInvoke, name)
		p.emitByte(argCount)
	default:
		p.emitOpByte(bytecode.OpGetProperty, name)
	}
}

func variable(p *Parser, canAssign bool) {
	namedVariable(p, p.previous.Lexeme, canAssign)
}

func namedVariable(p *Parser, name string, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	arg := resolveLocal(p, p.cc, name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = resolveUpvalue(p, p.cc, name); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(p.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitOpByte(setOp, byte(arg))
	} else {
		p.emitOpByte(getOp, byte(arg))
	}
}

func this(p *Parser, _ bool) {
	if p.currentClass == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	namedVariable(p, "this", false)
}

// super parses `super.method` (or `super.method(args)` as an invoke
// optimization), pushing the enclosing instance's `this` and the resolved
// superclass before emitting GET_SUPER/SUPER_INVOKE (spec.md §4.6).
func super(p *Parser, _ bool) {
	switch {
	case p.currentClass == nil:
		p.error("Can't use 'super' outside of a class.")
	case !p.currentClass.hasSuperclass:
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := p.identifierConstant(p.previous.Lexeme)

	namedVariable(p, "this", false)
	if p.match(token.LEFT_PAREN) {
		argCount := p.argumentList()
		namedVariable(p, "super", false)
		p.emitOpByte(bytecode.OpSuperInvoke, name)
		p.emitByte(argCount)
	} else {
		namedVariable(p, "super", false)
		p.emitOpByte(bytecode.OpGetSuper, name)
	}
}
