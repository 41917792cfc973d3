package compiler

import "github.com/mna/loxvm/lang/token"

// Precedence orders Lox's binary operators from loosest to tightest binding
// (spec.md §4.4 Pratt parsing table).
type Precedence uint8

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

// ParseRule binds a token kind to its prefix parser (if it can start an
// expression), its infix parser (if it can continue one) and the precedence
// of that infix use.
type ParseRule struct {
	Prefix     parseFn
	Infix      parseFn
	Precedence Precedence
}

var rules map[token.Kind]ParseRule

func init() {
	rules = map[token.Kind]ParseRule{
		token.LEFT_PAREN:    {Prefix: grouping, Infix: call, Precedence: PrecCall},
		token.DOT:           {Infix: dot, Precedence: PrecCall},
		token.MINUS:         {Prefix: unary, Infix: binary, Precedence: PrecTerm},
		token.PLUS:          {Infix: binary, Precedence: PrecTerm},
		token.SLASH:         {Infix: binary, Precedence: PrecFactor},
		token.STAR:          {Infix: binary, Precedence: PrecFactor},
		token.BANG:          {Prefix: unary},
		token.BANG_EQUAL:    {Infix: binary, Precedence: PrecEquality},
		token.EQUAL_EQUAL:   {Infix: binary, Precedence: PrecEquality},
		token.GREATER:       {Infix: binary, Precedence: PrecComparison},
		token.GREATER_EQUAL: {Infix: binary, Precedence: PrecComparison},
		token.LESS:          {Infix: binary, Precedence: PrecComparison},
		token.LESS_EQUAL:    {Infix: binary, Precedence: PrecComparison},
		token.IDENTIFIER:    {Prefix: variable},
		token.STRING:        {Prefix: stringLit},
		token.NUMBER:        {Prefix: number},
		token.AND:           {Infix: and_, Precedence: PrecAnd},
		token.OR:            {Infix: or_, Precedence: PrecOr},
		token.FALSE:         {Prefix: literal},
		token.NIL:           {Prefix: literal},
		token.TRUE:          {Prefix: literal},
		token.THIS:          {Prefix: this},
		token.SUPER:         {Prefix: super},
	}
}

func getRule(k token.Kind) ParseRule { return rules[k] }

// parsePrecedence is the core Pratt loop: parse a prefix expression, then
// keep folding in infix operators whose precedence is at least prec
// (spec.md §4.4).
func (p *Parser) parsePrecedence(prec Precedence) {
	p.advance()
	prefix := getRule(p.previous.Kind).Prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(p, canAssign)

	for prec <= getRule(p.current.Kind).Precedence {
		p.advance()
		infix := getRule(p.previous.Kind).Infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) expression() { p.parsePrecedence(PrecAssignment) }
