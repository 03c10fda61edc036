package commands

import (
	"strings"

	"github.com/nnoitra/terminal/internal/tokenizer"
)

// words regroups the tokens after the command name into shell words. A
// word ends at a token whose delimiter is a space, so "A=" and "b" join
// back into "A=b".
func words(args []string) []string {
	if len(args) <= 1 {
		return nil
	}
	var (
		out []string
		cur strings.Builder
	)
	for _, tok := range args[1:] {
		body, delim := tokenizer.Split(tok)
		if delim != " " {
			cur.WriteString(tok)
			continue
		}
		cur.WriteString(body)
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// operand returns the first word after the command name.
func operand(args []string) string {
	if w := words(args); len(w) > 0 {
		return w[0]
	}
	return ""
}

// parseAssignment splits "name=value". Surrounding whitespace is trimmed
// from both parts.
func parseAssignment(s string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}

// firstArg reports whether completion is at the first argument.
func firstArg(args []string) bool {
	return len(args) <= 1
}
