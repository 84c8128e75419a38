// token.go implements the quote-aware command tokenizer.
//
// A command line is split on unquoted whitespace. A token that begins with
// a single or double quote runs to the matching close quote and keeps the
// quotes in its text; internal whitespace does not split it. Parentheses
// and commas are not special: a parenthesized expression with no internal
// whitespace is one token, and one with whitespace splits — a documented
// limitation, not something to silently fix.
package engine

import "unicode"

// Token is one positional unit of a command line. Token 0 is the invoked
// macro's name; arguments are numbered from 1.
type Token struct {
	Text   string
	Quoted bool
}

// Tokenize splits line into tokens. Empty input yields no tokens.
func Tokenize(line string) []Token {
	var tokens []Token
	runes := []rune(line)
	i := 0
	for i < len(runes) {
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}

		if runes[i] == '\'' || runes[i] == '"' {
			quote := runes[i]
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j < len(runes) {
				j++ // include the closing quote
			}
			tokens = append(tokens, Token{Text: string(runes[i:j]), Quoted: true})
			i = j
			continue
		}

		j := i
		for j < len(runes) && !unicode.IsSpace(runes[j]) {
			j++
		}
		tokens = append(tokens, Token{Text: string(runes[i:j])})
		i = j
	}
	return tokens
}
