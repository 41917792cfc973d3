package compiler_test

import (
	"strings"
	"testing"

	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/gc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) (ok bool, errMsg string) {
	t.Helper()
	g := gc.New(1<<20, 2)
	_, err := compiler.Compile(src, g)
	if err == nil {
		return true, ""
	}
	return false, err.Error()
}

func TestCompileValidPrograms(t *testing.T) {
	srcs := []string{
		`print 1 + 2 * 3;`,
		`var a = 1; { var a = 2; print a; } print a;`,
		`fun f(a, b) { return a + b; } print f(1, 2);`,
		`class A {} class B < A {} print B;`,
		`for (var i = 0; i < 3; i = i + 1) print i;`,
	}
	for _, src := range srcs {
		ok, msg := compile(t, src)
		assert.True(t, ok, "unexpected compile error for %q: %s", src, msg)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing semicolon", `print 1`, "Expect ';' after value."},
		{"invalid assignment target", `1 = 2;`, "Invalid assignment target."},
		{"redeclared local", `{ var a = 1; var a = 2; }`, "Already a variable with this name in this scope."},
		{"self-referencing initializer", `{ var a = a; }`, "Can't read local variable in its own initializer."},
		{"return at top level", `return 1;`, "Can't return from top-level code."},
		{"return value from initializer", `class A { init() { return 1; } }`, "Can't return a value from an initializer."},
		{"this outside class", `print this;`, "Can't use 'this' outside of a class."},
		{"super outside class", `print super.x;`, "Can't use 'super' outside of a class."},
		{"super without superclass", `class A { m() { super.m(); } }`, "Can't use 'super' in a class with no superclass."},
		{"class inherits itself", `class A < A {}`, "A class can't inherit from itself."},
		{"unterminated block", `{ print 1;`, "Expect '}' after block."},
		{"unterminated string", "var a = \"no end;", "Unterminated string."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ok, msg := compile(t, c.src)
			require.False(t, ok, "expected a compile error")
			assert.Contains(t, msg, c.want)
		})
	}
}

func TestCompileTooManyArguments(t *testing.T) {
	var b strings.Builder
	b.WriteString("fun f() {}\nf(")
	for i := 0; i < 256; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("nil")
	}
	b.WriteString(");")

	ok, msg := compile(t, b.String())
	require.False(t, ok)
	assert.Contains(t, msg, "Can't have more than 255 arguments.")
}
