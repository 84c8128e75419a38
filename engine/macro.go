// macro.go implements the macro registry and the define-time compiler.
//
// Design decision: a macro body is compiled once, when it is defined, into
// a flat instruction list. Structural problems (unbalanced if/endif, depth
// over the limit) are caught here, so an invocation can never fail on
// structure — the expander is a plain fetch-execute loop.
package engine

import (
	"fmt"
	"sort"
	"strings"
)

// maxIfDepth is the deepest allowed if-nesting inside a macro body.
const maxIfDepth = 9

type opcode uint8

const (
	opEmit   opcode = iota // append substituted text to the SQL buffer
	opEcho                 // display substituted text
	opVar                  // assign a named variable in the scope
	opIf                   // push a branch frame
	opElse                 // flip the current branch frame
	opEndif                // pop the current branch frame
	opExit                 // display optional text, discard SQL, stop
	opReturn               // finalize SQL, stop
)

type instruction struct {
	op  opcode
	arg string // remainder of the line, raw (substituted at run time)
}

// Macro is a named, compiled command template.
type Macro struct {
	Name string
	Body []string // raw lines as defined, kept for display
	prog []instruction
}

// Registry is the session-lifetime store of macros. Keys are
// case-insensitive; a later define overwrites an earlier one.
type Registry struct {
	macros map[string]*Macro
}

// NewRegistry creates an empty macro registry.
func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]*Macro)}
}

// Define compiles body and installs it under name, replacing any previous
// definition. Returns ErrMalformedMacroBody on structural errors.
func (r *Registry) Define(name string, body []string) error {
	m, err := compile(name, body)
	if err != nil {
		return err
	}
	r.macros[strings.ToLower(name)] = m
	return nil
}

// Lookup finds a macro by case-insensitive name.
func (r *Registry) Lookup(name string) (*Macro, bool) {
	m, ok := r.macros[strings.ToLower(name)]
	return m, ok
}

// Names returns all registered macro names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.macros))
	for _, m := range r.macros {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// compile classifies each body line by its leading keyword and validates
// the if/endif structure.
func compile(name string, body []string) (*Macro, error) {
	m := &Macro{Name: name, Body: body}
	depth := 0
	for lineno, raw := range body {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, rest := splitKeyword(line)
		switch keyword {
		case "echo":
			m.prog = append(m.prog, instruction{op: opEcho, arg: rest})
		case "exit":
			m.prog = append(m.prog, instruction{op: opExit, arg: rest})
		case "return":
			m.prog = append(m.prog, instruction{op: opReturn})
		case "var":
			m.prog = append(m.prog, instruction{op: opVar, arg: rest})
		case "if":
			depth++
			if depth > maxIfDepth {
				return nil, fmt.Errorf("%w: macro %s line %d: if nested deeper than %d",
					ErrMalformedMacroBody, name, lineno+1, maxIfDepth)
			}
			m.prog = append(m.prog, instruction{op: opIf, arg: rest})
		case "else":
			if depth == 0 {
				return nil, fmt.Errorf("%w: macro %s line %d: else with no open if",
					ErrMalformedMacroBody, name, lineno+1)
			}
			m.prog = append(m.prog, instruction{op: opElse})
		case "endif":
			if depth == 0 {
				return nil, fmt.Errorf("%w: macro %s line %d: endif with no open if",
					ErrMalformedMacroBody, name, lineno+1)
			}
			depth--
			m.prog = append(m.prog, instruction{op: opEndif})
		default:
			m.prog = append(m.prog, instruction{op: opEmit, arg: line})
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: macro %s: %d unclosed if", ErrMalformedMacroBody, name, depth)
	}
	return m, nil
}

// splitKeyword returns the lower-cased leading word and the rest of the line.
func splitKeyword(line string) (string, string) {
	i := strings.IndexFunc(line, func(r rune) bool { return r == ' ' || r == '\t' })
	if i < 0 {
		return strings.ToLower(line), ""
	}
	return strings.ToLower(line[:i]), strings.TrimSpace(line[i+1:])
}
