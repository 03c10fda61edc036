package autocomplete

import (
	"strings"
	"unicode/utf8"
)

// LongestCommonPrefix returns the longest prefix shared by every string.
// It is "" for an empty list and the element itself for a single one. The
// prefix shrinks a rune at a time, so it is always valid UTF-8.
func LongestCommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	prefix := candidates[0]
	for _, c := range candidates[1:] {
		for !strings.HasPrefix(c, prefix) {
			_, size := utf8.DecodeLastRuneInString(prefix)
			prefix = prefix[:len(prefix)-size]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// FilterPrefix keeps the candidates that start with prefix, case-sensitive.
func FilterPrefix(candidates []string, prefix string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
