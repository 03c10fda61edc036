package main

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// completer adapts the session's autocomplete service to readline.
type completer struct {
	bus     *bus.Bus
	timeout time.Duration
}

// Do returns the suffixes readline appends at the cursor. length is the
// number of runes the suffixes share with the word being typed.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	before := string(line[:pos])
	res, err := bus.CallAs[types.AutocompleteResult](context.Background(), c.bus, types.TopicAutocompleteRequest,
		types.AutocompleteRequest{BeforeCursor: before, AfterCursor: string(line[pos:])}, c.timeout)
	if err != nil {
		return nil, 0
	}
	return suffixes(before, res)
}

// suffixes converts a completion result into readline candidates.
func suffixes(before string, res types.AutocompleteResult) ([][]rune, int) {
	delta := ""
	if len(res.NewTextBeforeCursor) > len(before) {
		delta = res.NewTextBeforeCursor[len(before):]
	}
	if len(res.Options) == 0 {
		if delta == "" {
			return nil, 0
		}
		return [][]rune{[]rune(delta)}, 0
	}

	typed := res.PrefixLength - utf8.RuneCountInString(delta)
	if typed < 0 {
		typed = 0
	}
	out := make([][]rune, 0, len(res.Options))
	for _, opt := range res.Options {
		r := []rune(opt)
		if typed > len(r) {
			continue
		}
		out = append(out, r[typed:])
	}
	return out, typed
}
