// bind.go implements parameter binding: `:name` substitution with type
// modifiers, `?*N` placeholder shorthand, and EXECUTE ... USING argument
// resolution.
//
// All scanning here is quote-aware: text inside single or double quotes is
// never rewritten. Placeholders are emitted as driver-neutral `?`; the
// driver translates to its native marker.
package engine

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// inlineVariables rewrites `:name` references in sql against the session
// variable table.
//
// A reference with a type modifier (`:name@int`, `:name@char`, ...) is
// inlined as literal text: int/integer and dec/decimal unquoted, char
// single-quoted with embedded quotes doubled, bin/binary as a hex literal.
// A bare reference is replaced by a placeholder and its value is returned
// out-of-band, preserving the exact type and avoiding quoting hazards.
// References to names that are not set are left untouched for the driver
// to report.
func inlineVariables(sql string, vars map[string]any) (string, []any) {
	var b strings.Builder
	var args []any

	i := 0
	for i < len(sql) {
		c := sql[i]

		if c == '\'' || c == '"' {
			j := skipQuoted(sql, i)
			b.WriteString(sql[i:j])
			i = j
			continue
		}

		// `::` is a cast, not a variable reference.
		if c == ':' && i+1 < len(sql) && sql[i+1] == ':' {
			b.WriteString("::")
			i += 2
			continue
		}

		if c == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]) {
			name, end := scanIdent(sql, i+1)
			modifier, modEnd := scanModifier(sql, end)

			val, ok := vars[strings.ToLower(name)]
			if !ok {
				b.WriteString(sql[i:modEnd])
				i = modEnd
				continue
			}

			if modifier == "" {
				b.WriteByte('?')
				args = append(args, val)
			} else {
				b.WriteString(inlineLiteral(val, modifier))
			}
			i = modEnd
			continue
		}

		b.WriteByte(c)
		i++
	}
	return b.String(), args
}

// inlineLiteral renders a variable value as SQL literal text per modifier.
func inlineLiteral(val any, modifier string) string {
	switch modifier {
	case "int", "integer", "dec", "decimal":
		return fmt.Sprintf("%v", val)
	case "bin", "binary":
		return "X'" + hex.EncodeToString(rawBytes(val)) + "'"
	default: // char
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", val), "'", "''") + "'"
	}
}

// typedValue resolves a typed reference for out-of-band binding. Quote
// doubling and hex wrapping are inline-SQL escapes and must not leak into
// a bound value: char carries the raw string, int/dec the numeric text,
// bin the raw bytes.
func typedValue(val any, modifier string) any {
	if modifier == "bin" || modifier == "binary" {
		return rawBytes(val)
	}
	return fmt.Sprintf("%v", val)
}

// rawBytes returns the value's bytes, without the %v rendering that would
// mangle a []byte.
func rawBytes(val any) []byte {
	if b, ok := val.([]byte); ok {
		return b
	}
	return []byte(fmt.Sprintf("%v", val))
}

// expandPlaceholders expands every `?*N` group into N comma-separated `?`
// markers and returns the rewritten text plus the total parameter count
// (expansions plus bare `?`).
func expandPlaceholders(sql string) (string, int) {
	var b strings.Builder
	count := 0

	i := 0
	for i < len(sql) {
		c := sql[i]

		if c == '\'' || c == '"' {
			j := skipQuoted(sql, i)
			b.WriteString(sql[i:j])
			i = j
			continue
		}

		if c == '?' {
			if i+2 < len(sql) && sql[i+1] == '*' && isDigit(sql[i+2]) {
				j := i + 2
				for j < len(sql) && isDigit(sql[j]) {
					j++
				}
				n, _ := strconv.Atoi(sql[i+2 : j])
				for k := 0; k < n; k++ {
					if k > 0 {
						b.WriteByte(',')
					}
					b.WriteByte('?')
				}
				count += n
				i = j
				continue
			}
			b.WriteByte('?')
			count++
			i++
			continue
		}

		b.WriteByte(c)
		i++
	}
	return b.String(), count
}

// resolveUsing turns an EXECUTE USING clause into the flattened, ordered
// argument list. Items are constants, the null keyword, `:name[@type]`
// references, or bare variable names; a bare name holding an ordered
// container is expanded in place to its elements.
func resolveUsing(clause string, vars map[string]any) ([]any, error) {
	var out []any
	for _, item := range splitTopLevel(clause, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if strings.EqualFold(item, "null") {
			out = append(out, nil)
			continue
		}

		if strings.HasPrefix(item, ":") {
			name, end := scanIdent(item, 1)
			modifier, _ := scanModifier(item, end)
			val, ok := vars[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("variable :%s is not set", name)
			}
			if modifier != "" {
				out = append(out, typedValue(val, modifier))
			} else {
				out = append(out, val)
			}
			continue
		}

		if len(item) >= 2 && (item[0] == '\'' || item[0] == '"') && item[len(item)-1] == item[0] {
			out = append(out, item[1:len(item)-1])
			continue
		}

		if n, err := strconv.ParseInt(item, 10, 64); err == nil {
			out = append(out, n)
			continue
		}
		if f, err := strconv.ParseFloat(item, 64); err == nil {
			out = append(out, f)
			continue
		}

		// Bare variable name, possibly a container.
		name := item
		if at := strings.IndexByte(item, '@'); at > 0 {
			name = item[:at]
		}
		val, ok := vars[strings.ToLower(name)]
		if !ok {
			// Unquoted constant.
			out = append(out, item)
			continue
		}
		out = append(out, flatten(val)...)
	}
	return out, nil
}

// flatten expands ordered containers into their elements. Scalars (and
// byte slices, which are single binary values) pass through as one slot.
func flatten(val any) []any {
	switch v := val.(type) {
	case []any:
		return v
	case []byte:
		return []any{v}
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{val}
}

// splitStatements breaks a multi-statement block on unquoted semicolons.
func splitStatements(block string) []string {
	var out []string
	for _, stmt := range splitTopLevel(block, ';') {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitTopLevel splits text on sep, ignoring separators inside quotes or
// parentheses.
func splitTopLevel(text string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\'' || c == '"':
			i = skipQuoted(text, i)
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, text[start:i])
			start = i + 1
		}
		i++
	}
	parts = append(parts, text[start:])
	return parts
}

// skipQuoted returns the index just past the quoted run starting at i.
// An unterminated quote runs to the end of the text.
func skipQuoted(text string, i int) int {
	quote := text[i]
	j := i + 1
	for j < len(text) && text[j] != quote {
		j++
	}
	if j < len(text) {
		j++
	}
	return j
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scanIdent reads an identifier starting at i and returns it with the
// index just past it.
func scanIdent(text string, i int) (string, int) {
	j := i
	for j < len(text) && isIdentByte(text[j]) {
		j++
	}
	return text[i:j], j
}

// scanModifier reads an optional `@word` type modifier at i. Unknown words
// are not modifiers; the scan position then stays at i.
func scanModifier(text string, i int) (string, int) {
	if i >= len(text) || text[i] != '@' {
		return "", i
	}
	word, j := scanIdent(text, i+1)
	switch strings.ToLower(word) {
	case "int", "integer", "char", "dec", "decimal", "bin", "binary":
		return strings.ToLower(word), j
	}
	return "", i
}
