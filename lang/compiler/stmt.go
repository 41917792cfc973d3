package compiler

import (
	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/token"
)

func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

// block parses statements up to the closing brace. It explicitly checks for
// RIGHT_BRACE as its termination condition rather than just EOF (spec.md §9:
// a known-buggy revision only checks for EOF, so a missing '}' silently
// consumes the rest of the file instead of reporting an error).
func (p *Parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(bytecode.OpNil)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(bytecode.OpPop)
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(bytecode.OpPrint)
}

func (p *Parser) returnStatement() {
	if p.cc.fnType == TypeScript {
		p.error("Can't return from top-level code.")
	}
	switch {
	case p.match(token.SEMICOLON):
		p.emitReturn()
	default:
		if p.cc.fnType == TypeInitializer {
			p.error("Can't return a value from an initializer.")
		}
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after return value.")
		p.emitOp(bytecode.OpReturn)
	}
}

func (p *Parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitOp(bytecode.OpPop)
	p.statement()

	elseJump := p.emitJump(bytecode.OpJump)
	p.patchJump(thenJump)
	p.emitOp(bytecode.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.cc.function.Chunk.Code)
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitOp(bytecode.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(bytecode.OpPop)
}

// forStatement desugars entirely to while-loop bytecode at compile time
// (spec.md §4.4): there is no FOR opcode.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.cc.function.Chunk.Code)
	exitJump := -1
	if !p.match(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(bytecode.OpJumpIfFalse)
		p.emitOp(bytecode.OpPop)
	}

	if !p.match(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(bytecode.OpJump)
		incrementStart := len(p.cc.function.Chunk.Code)
		p.expression()
		p.emitOp(bytecode.OpPop)
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(bytecode.OpPop)
	}
	p.endScope()
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

// function compiles a nested function body in a fresh Compiler, then emits
// OP_CLOSURE with the upvalue capture descriptors the nested compile
// resolved (spec.md §4.4 §4.6).
func (p *Parser) function(fnType FunctionType) {
	name := p.previous.Lexeme
	p.cc = newCompiler(p.gc, p.cc, fnType, name)
	p.gc.PushCompilerRoot(p.cc)
	p.beginScope()

	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.cc.function.Arity++
			if p.cc.function.Arity > maxParams {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	nested := p.cc
	fn := p.endCompiler()

	idx := p.makeConstant(bytecode.FromObj(fn))
	p.emitOpByte(bytecode.OpClosure, idx)

	for _, u := range nested.upvalues {
		if u.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(u.index)
	}
}

func (p *Parser) classDeclaration() {
	p.consume(token.IDENTIFIER, "Expect class name.")
	className := p.previous.Lexeme
	nameConstant := p.identifierConstant(className)
	p.declareVariable(className)

	p.emitOpByte(bytecode.OpClass, nameConstant)
	p.defineVariable(nameConstant)

	classComp := &classCompiler{enclosing: p.currentClass}
	p.currentClass = classComp

	if p.match(token.LESS) {
		p.consume(token.IDENTIFIER, "Expect superclass name.")
		variable(p, false)
		if identifiersEqual(p.previous.Lexeme, className) {
			p.error("A class can't inherit from itself.")
		}

		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)

		namedVariable(p, className, false)
		p.emitOp(bytecode.OpInherit)
		classComp.hasSuperclass = true
	}

	namedVariable(p, className, false)
	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	p.emitOp(bytecode.OpPop) // the class itself, pushed for the method decls above

	if classComp.hasSuperclass {
		p.endScope()
	}
	p.currentClass = classComp.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENTIFIER, "Expect method name.")
	name := p.previous.Lexeme
	constant := p.identifierConstant(name)

	fnType := TypeMethod
	if name == "init" {
		fnType = TypeInitializer
	}
	p.function(fnType)
	p.emitOpByte(bytecode.OpMethod, constant)
}
