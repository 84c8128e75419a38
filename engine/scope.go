// scope.go implements the per-invocation variable scope a macro runs in.
//
// A scope is created fresh from the tokenized command line when a macro is
// invoked and discarded when the macro finishes. There is no cross-call
// persistence and no nesting.
package engine

import (
	"strconv"
	"strings"
)

// Scope maps positional slots ("1".."n"), named variables set via `var`,
// plus argc and the full original line ("0" / "*0").
type Scope struct {
	line string
	args []string // args[0] is the macro name
	vars map[string]string
}

// NewScope builds a scope from the original line and its tokens.
func NewScope(line string, tokens []Token) *Scope {
	args := make([]string, len(tokens))
	for i, t := range tokens {
		args[i] = t.Text
	}
	return &Scope{line: line, args: args, vars: make(map[string]string)}
}

// Argc is the number of positional tokens, excluding the macro name.
func (s *Scope) Argc() int {
	if len(s.args) == 0 {
		return 0
	}
	return len(s.args) - 1
}

// Positional returns token n. n = 0 is the full original line.
func (s *Scope) Positional(n int) (string, bool) {
	if n == 0 {
		return s.line, true
	}
	if n < 0 || n >= len(s.args) {
		return "", false
	}
	return s.args[n], true
}

// Tail returns tokens n through argc, space-joined. Empty when none exist.
func (s *Scope) Tail(n int) string {
	if n == 0 {
		return s.line
	}
	if n < 1 || n >= len(s.args) {
		return ""
	}
	return strings.Join(s.args[n:], " ")
}

// SetVar assigns a named variable. The value is stored literally,
// including any quotes.
func (s *Scope) SetVar(name, value string) {
	s.vars[strings.ToLower(name)] = value
}

// Var looks up a named variable, falling back to positional lookup when
// the name is numeric.
func (s *Scope) Var(name string) (string, bool) {
	if n, err := strconv.Atoi(name); err == nil {
		return s.Positional(n)
	}
	v, ok := s.vars[strings.ToLower(name)]
	return v, ok
}
