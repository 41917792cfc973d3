package compiler

import (
	"fmt"

	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/scanner"
	"github.com/mna/loxvm/lang/token"
)

// Parser holds the whole-compile state shared across every nested Compiler:
// the token stream, panic-mode error recovery, and the current class/function
// compiler chains (spec.md §4.4).
type Parser struct {
	scanner *scanner.Scanner
	gc      *gc.GC

	previous, current token.Token

	hadError  bool
	panicMode bool
	errs      []string

	cc           *Compiler
	currentClass *classCompiler
}

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.ScanToken()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(k token.Kind, msg string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *Parser) errorAt(t token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	var where string
	switch t.Kind {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
		// lexical error: message is already in t.Lexeme, no location suffix
	default:
		where = fmt.Sprintf(" at '%s'", t.Lexeme)
	}
	p.errs = append(p.errs, fmt.Sprintf("[line %d] Error%s: %s", t.Line, where, msg))
	p.hadError = true
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, so a single syntax error reports once instead of cascading
// (spec.md §4.4 panic-mode recovery).
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMICOLON {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
