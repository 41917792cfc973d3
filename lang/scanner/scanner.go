// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner implements the on-demand lexical scanner for Lox. It
// produces one token at a time from a source string; it has no knowledge of
// grammar, precedence or scope, which belong to lang/compiler.
package scanner

import (
	"github.com/mna/loxvm/lang/token"
)

// Scanner tokenizes a single source string on demand. The zero value is not
// usable; construct one with New.
type Scanner struct {
	src     string
	start   int // start of the lexeme currently being scanned
	current int // current read position
	line    int
}

// New returns a Scanner over src, ready to produce tokens starting at line 1.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// ScanToken returns the next token in the source. It is idempotent at EOF:
// once the end of the source is reached, every subsequent call returns an
// EOF token without advancing further.
func (s *Scanner) ScanToken() token.Token {
	s.skipWhitespaceAndComments()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LEFT_PAREN)
	case ')':
		return s.make(token.RIGHT_PAREN)
	case '{':
		return s.make(token.LEFT_BRACE)
	case '}':
		return s.make(token.RIGHT_BRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.makeTwo('=', token.BANG_EQUAL, token.BANG)
	case '=':
		return s.makeTwo('=', token.EQUAL_EQUAL, token.EQUAL)
	case '<':
		return s.makeTwo('=', token.LESS_EQUAL, token.LESS)
	case '>':
		return s.makeTwo('=', token.GREATER_EQUAL, token.GREATER)
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.current] != want {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: s.src[s.start:s.current], Line: s.line}
}

func (s *Scanner) makeTwo(second byte, ifMatch, otherwise token.Kind) token.Token {
	if s.match(second) {
		return s.make(ifMatch)
	}
	return s.make(otherwise)
}

func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{Kind: token.ILLEGAL, Lexeme: msg, Line: s.line}
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorToken("Unterminated string.")
	}
	s.advance() // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // consume '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	lexeme := s.src[s.start:s.current]
	if kind, ok := token.Lookup(lexeme); ok {
		return s.make(kind)
	}
	return s.make(token.IDENTIFIER)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
