// Package tokenizer splits command lines into shell-like tokens.
//
// Rules:
//   - Delimiters: space, slash and equals. A delimiter ends the current
//     token and stays attached to it as its last character.
//   - Quotes: ' and " suspend delimiter recognition until the same quote
//     closes. Quote characters are never kept. An unclosed quote runs to
//     the end of input.
//   - Escape: a backslash makes the next character literal, inside quotes
//     too. The backslash itself is dropped.
//
// Concatenating the tokens of an input gives back the input minus quote
// and escape characters, which is what lets autocomplete splice a
// completion onto the raw text instead of re-serializing it.
package tokenizer

import "strings"

const escape = '\\'

func isDelimiter(r rune) bool {
	return r == ' ' || r == '/' || r == '='
}

func isQuote(r rune) bool {
	return r == '\'' || r == '"'
}

func isSpecial(r rune) bool {
	return isDelimiter(r) || isQuote(r) || r == escape
}

// Tokenize splits input into tokens. Empty input yields no tokens;
// otherwise the final token is always emitted, even when empty, so a line
// ending in a delimiter has a trailing "" for the word being typed.
func Tokenize(input string) []string {
	if input == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
		inQuote rune
		escaped bool
	)

	flush := func(delim rune) {
		if delim != 0 {
			current.WriteRune(delim)
		}
		tokens = append(tokens, current.String())
		current.Reset()
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case isQuote(r):
			// The other kind of quote inside a quoted run is dropped too.
			switch inQuote {
			case 0:
				inQuote = r
			case r:
				inQuote = 0
			}
		case r == escape:
			escaped = true
		case inQuote != 0:
			current.WriteRune(r)
		case isDelimiter(r):
			flush(r)
		default:
			current.WriteRune(r)
		}
	}
	flush(0)

	return tokens
}

// Stringify joins tokens back into a command line that Tokenize maps to
// the same tokens. Special characters in a token body are escaped and the
// trailing delimiter is written as is. The last token never carries a
// delimiter (Tokenize ends every line with an undelimited token), so it is
// escaped in full.
func Stringify(tokens []string) string {
	if len(tokens) == 1 && tokens[0] == "" {
		return `""`
	}

	var b strings.Builder
	for i, token := range tokens {
		body, delim := Split(token)
		if i == len(tokens)-1 {
			body, delim = token, ""
		}
		for _, r := range body {
			if isSpecial(r) {
				b.WriteRune(escape)
			}
			b.WriteRune(r)
		}
		b.WriteString(delim)
	}
	return b.String()
}

// Split separates a token into its body and trailing delimiter.
func Split(token string) (body, delim string) {
	if token == "" {
		return "", ""
	}
	last := token[len(token)-1]
	if isDelimiter(rune(last)) {
		return token[:len(token)-1], token[len(token)-1:]
	}
	return token, ""
}

// Trim returns a token without its trailing delimiter and surrounding
// whitespace; it is how a token is read as a word (a command name, an
// argument value).
func Trim(token string) string {
	body, _ := Split(token)
	return strings.TrimSpace(body)
}

// Words returns the trimmed form of every token, dropping empty ones.
func Words(tokens []string) []string {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if w := Trim(t); w != "" {
			words = append(words, w)
		}
	}
	return words
}
