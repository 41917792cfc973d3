package compiler

import (
	"github.com/mna/loxvm/lang/bytecode"
	"github.com/mna/loxvm/lang/token"
)

// identifierConstant adds name's lexeme to the constant pool as an
// ObjString, for OP_*_GLOBAL and property-access instructions that address
// their name by constant index rather than by local/upvalue slot.
func (p *Parser) identifierConstant(lexeme string) byte {
	return p.makeConstant(bytecode.FromObj(internString(p.gc, lexeme)))
}

func identifiersEqual(a, b string) bool { return a == b }

// declareVariable records a local variable declaration in the current
// scope, rejecting a redeclaration of the same name within that same scope
// (spec.md §4.4 edge case: shadowing across scopes is fine, within one is
// not). Globals (scopeDepth == 0) are not tracked here at all.
func (p *Parser) declareVariable(name string) {
	if p.cc.scopeDepth == 0 {
		return
	}
	for i := len(p.cc.locals) - 1; i >= 0; i-- {
		l := &p.cc.locals[i]
		if l.depth != -1 && l.depth < p.cc.scopeDepth {
			break
		}
		if identifiersEqual(l.name.Lexeme, name) {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name string) {
	if len(p.cc.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.cc.locals = append(p.cc.locals, local{name: token.Token{Lexeme: name}, depth: -1})
}

// markInitialized finishes declaring the most recent local, making it
// resolvable from expressions, or does nothing for a global (whose
// visibility is governed by OP_DEFINE_GLOBAL instead).
func (p *Parser) markInitialized() {
	if p.cc.scopeDepth == 0 {
		return
	}
	p.cc.locals[len(p.cc.locals)-1].depth = p.cc.scopeDepth
}

// resolveLocal returns the stack slot of the innermost local named name in
// compiler c, or -1 if name is not a local there.
func resolveLocal(p *Parser, c *Compiler, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if identifiersEqual(c.locals[i].name.Lexeme, name) {
			if c.locals[i].depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue finds name in one of c's enclosing functions, threading an
// upvalueRef through every intermediate Compiler so each function along the
// chain captures exactly what it needs to hand the next one a value
// (spec.md §4.6).
func resolveUpvalue(p *Parser, c *Compiler, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := resolveLocal(p, c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return addUpvalue(p, c, byte(local), true)
	}
	if up := resolveUpvalue(p, c.enclosing, name); up != -1 {
		return addUpvalue(p, c, byte(up), false)
	}
	return -1
}

func addUpvalue(p *Parser, c *Compiler, index byte, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

// parseVariable consumes an identifier, declares it if it is a local, and
// returns the constant-pool index to use if it turns out to be a global
// (defineVariable decides which, based on scope depth).
func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENTIFIER, errMsg)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.cc.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) defineVariable(global byte) {
	if p.cc.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(bytecode.OpDefineGlobal, global)
}
