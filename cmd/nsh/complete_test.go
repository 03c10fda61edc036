package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nnoitra/terminal/internal/shared/types"
)

func runes(ss ...string) [][]rune {
	out := make([][]rune, len(ss))
	for i, s := range ss {
		out[i] = []rune(s)
	}
	return out
}

func TestSuffixes(t *testing.T) {
	tests := []struct {
		name       string
		before     string
		res        types.AutocompleteResult
		want       [][]rune
		wantLength int
	}{
		{
			name:   "unique completion appends delta",
			before: "ma",
			res:    types.AutocompleteResult{NewTextBeforeCursor: "man ", Options: []string{}, PrefixLength: 2},
			want:   runes("n "),
		},
		{
			name:       "options share typed prefix",
			before:     "e",
			res:        types.AutocompleteResult{NewTextBeforeCursor: "e", Options: []string{"export ", "exit ", "echo "}, PrefixLength: 1},
			want:       runes("xport ", "xit ", "cho "),
			wantLength: 1,
		},
		{
			name:       "common prefix already extended",
			before:     "ex",
			res:        types.AutocompleteResult{NewTextBeforeCursor: "ex", Options: []string{"export ", "exit "}, PrefixLength: 2},
			want:       runes("port ", "it "),
			wantLength: 2,
		},
		{
			name:   "nothing to add",
			before: "zz",
			res:    types.AutocompleteResult{NewTextBeforeCursor: "zz", Options: []string{}, PrefixLength: 2},
		},
		{
			name:   "description only",
			before: "login ",
			res:    types.AutocompleteResult{NewTextBeforeCursor: "login ", Options: []string{}, Description: "<USERNAME>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, length := suffixes(tt.before, tt.res)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLength, length)
		})
	}
}
