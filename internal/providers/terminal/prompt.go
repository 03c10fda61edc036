package terminal

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultPS1 is the PS1 default.
const DefaultPS1 = "[{year}-{month}-{day} {hour}:{minute}:{second}] {user}@{host}:{path}"

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// PromptVars are the values substituted into PS1.
type PromptVars struct {
	User string
	Host string
	Path string
}

// RenderPrompt expands the placeholders in ps1.
func RenderPrompt(ps1 string, vars PromptVars, now time.Time) string {
	values := map[string]string{
		"user":   vars.User,
		"host":   vars.Host,
		"path":   vars.Path,
		"year":   fmt.Sprintf("%d", now.Year()),
		"month":  fmt.Sprintf("%02d", int(now.Month())),
		"day":    fmt.Sprintf("%02d", now.Day()),
		"hour":   fmt.Sprintf("%02d", now.Hour()),
		"minute": fmt.Sprintf("%02d", now.Minute()),
		"second": fmt.Sprintf("%02d", now.Second()),
	}
	return placeholder.ReplaceAllStringFunc(ps1, func(m string) string {
		if v, ok := values[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
