// expand.go runs a compiled macro against a per-invocation scope.
//
// Execution is a fetch-execute loop over the instruction list. A stack of
// branch flags tracks nested if/else; while any enclosing frame is false,
// instructions are skipped entirely except the if/else/endif bookkeeping
// itself. The loop ends on exit (SQL discarded), return (SQL finalized),
// or end of body (implicit return).
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// echoBreak is the inline marker that splits an echo message into
// multiple display lines.
const echoBreak = "<br>"

// Expansion is the outcome of running a macro body.
type Expansion struct {
	SQL      string   // generated SQL; empty when nothing was emitted
	Messages []string // echo / exit display lines, in order
	Exited   bool     // true: SQL was discarded, send nothing to the driver
}

// Expand executes m against scope. The registry is consulted only to
// reject generated lines that would re-enter macro expansion.
func (r *Registry) Expand(m *Macro, scope *Scope) (*Expansion, error) {
	exp := &Expansion{}
	var parts []string
	var branch []bool // one flag per open if; all must be true to run

	active := func() bool {
		for _, b := range branch {
			if !b {
				return false
			}
		}
		return true
	}

loop:
	for _, ins := range m.prog {
		switch ins.op {
		case opIf:
			if !active() {
				// Suppressed frames never evaluate their condition.
				branch = append(branch, false)
			} else {
				branch = append(branch, evalCondition(substitute(ins.arg, scope)))
			}
		case opElse:
			branch[len(branch)-1] = !branch[len(branch)-1]
		case opEndif:
			branch = branch[:len(branch)-1]
		default:
			if !active() {
				continue
			}
			switch ins.op {
			case opEmit:
				line := substitute(ins.arg, scope)
				if tokens := Tokenize(line); len(tokens) > 0 {
					if hit, ok := r.Lookup(tokens[0].Text); ok {
						return nil, fmt.Errorf("%w: macro %s generates a call to macro %s",
							ErrRecursiveMacroInvocation, m.Name, hit.Name)
					}
				}
				parts = append(parts, line)
			case opEcho:
				exp.Messages = append(exp.Messages, splitEcho(substitute(ins.arg, scope))...)
			case opVar:
				name, rest := splitKeyword(ins.arg)
				if name != "" {
					// Name stays unsubstituted; the value is substituted and
					// kept literally, quotes included.
					scope.SetVar(name, substitute(rest, scope))
				}
			case opExit:
				if msg := substitute(ins.arg, scope); msg != "" {
					exp.Messages = append(exp.Messages, splitEcho(msg)...)
				}
				exp.Exited = true
				break loop
			case opReturn:
				break loop
			}
		}
	}

	if !exp.Exited {
		exp.SQL = strings.Join(parts, " ")
	}
	return exp, nil
}

func splitEcho(msg string) []string {
	return strings.Split(msg, echoBreak)
}

// substitute applies the brace grammar to text in a single left-to-right
// pass. Substituted values are not rescanned.
//
// Forms: {n} positional, {*n} tail from n, {name} named variable,
// {^n}/{^name} upper-cased, {argc} argument count. A positional or named
// reference with no value renders the literal `null`; a tail past the end
// renders empty.
func substitute(text string, scope *Scope) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			b.WriteString(text)
			return b.String()
		}
		close := strings.IndexByte(text[open:], '}')
		if close < 0 {
			b.WriteString(text)
			return b.String()
		}
		close += open

		b.WriteString(text[:open])
		inner := text[open+1 : close]
		if val, ok := resolveRef(inner, scope); ok {
			b.WriteString(val)
		} else {
			// Not a recognized reference; keep the braces verbatim.
			b.WriteString(text[open : close+1])
		}
		text = text[close+1:]
	}
}

// resolveRef resolves one brace reference. ok is false when inner is not a
// well-formed reference at all (it is then emitted literally).
func resolveRef(inner string, scope *Scope) (string, bool) {
	upper := false
	if strings.HasPrefix(inner, "^") {
		upper = true
		inner = inner[1:]
	}

	var val string
	switch {
	case inner == "argc":
		val = strconv.Itoa(scope.Argc())

	case strings.HasPrefix(inner, "*"):
		n, err := strconv.Atoi(inner[1:])
		if err != nil {
			return "", false
		}
		val = scope.Tail(n)

	case isRefName(inner):
		v, ok := scope.Var(inner)
		if !ok {
			v = "null"
		}
		val = v

	default:
		return "", false
	}

	if upper {
		val = strings.ToUpper(val)
	}
	return val, true
}

func isRefName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// evalCondition evaluates an if-condition after substitution. The grammar
// is `lhs op rhs` with =, ==, <>, !=, <, <=, >, >=. When both operands
// parse as numbers the comparison is numeric, otherwise string. Malformed
// conditions evaluate to false.
func evalCondition(expr string) bool {
	// Two-character operators first so "<=" is not read as "<".
	for _, op := range []string{"<=", ">=", "<>", "!=", "==", "=", "<", ">"} {
		i := indexOutsideQuotes(expr, op)
		if i < 0 {
			continue
		}
		lhs := trimOperand(expr[:i])
		rhs := trimOperand(expr[i+len(op):])
		return compare(lhs, rhs, op)
	}
	return false
}

// indexOutsideQuotes finds the first occurrence of op in expr that is not
// inside a quoted run, so operands like 'a<=b' do not split the condition.
func indexOutsideQuotes(expr, op string) int {
	i := 0
	for i < len(expr) {
		c := expr[i]
		if c == '\'' || c == '"' {
			i = skipQuoted(expr, i)
			continue
		}
		if strings.HasPrefix(expr[i:], op) {
			return i
		}
		i++
	}
	return -1
}

func trimOperand(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			s = s[1 : len(s)-1]
		}
	}
	return s
}

func compare(lhs, rhs, op string) bool {
	ln, lerr := strconv.ParseFloat(lhs, 64)
	rn, rerr := strconv.ParseFloat(rhs, 64)

	var cmp int
	if lerr == nil && rerr == nil {
		switch {
		case ln < rn:
			cmp = -1
		case ln > rn:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(lhs, rhs)
	}

	switch op {
	case "=", "==":
		return cmp == 0
	case "<>", "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}
