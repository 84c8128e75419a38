// script.go loads macro definitions from a script file, so a session can
// start with a library of macros instead of defining each one by hand.
//
// Format: a line whose first word is `define` starts a macro; every
// following line belongs to its body until the next define or end of
// input. Blank lines and top-level # comments between macros are ignored.
package engine

import (
	"fmt"
	"strings"
)

// DefineFromScript compiles and installs every macro in script. It stops
// at the first bad definition and reports how many were installed.
func DefineFromScript(reg *Registry, script string) (int, error) {
	lines := strings.Split(script, "\n")

	installed := 0
	var name string
	var body []string

	flush := func() error {
		if name == "" {
			return nil
		}
		if err := reg.Define(name, body); err != nil {
			return err
		}
		installed++
		name = ""
		body = nil
		return nil
	}

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) > 0 && strings.EqualFold(fields[0], "define") {
			if err := flush(); err != nil {
				return installed, err
			}
			if len(fields) < 2 {
				return installed, fmt.Errorf("define without a macro name")
			}
			name = fields[1]
			continue
		}

		if name != "" {
			body = append(body, line)
			continue
		}

		// Between macros only blanks and comments are allowed.
		if len(fields) > 0 && !strings.HasPrefix(fields[0], "#") {
			return installed, fmt.Errorf("unexpected text outside a macro definition: %q", line)
		}
	}

	if err := flush(); err != nil {
		return installed, err
	}
	return installed, nil
}
