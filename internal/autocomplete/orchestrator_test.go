package autocomplete

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

func TestLongestCommonPrefix(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"ls"}, "ls"},
		{[]string{"export", "exit"}, "ex"},
		{[]string{"abc", "xyz"}, ""},
		{[]string{"help ", "history "}, "h"},
		{[]string{"héllo", "hèllo"}, "h"},
		{[]string{"same", "same"}, "same"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LongestCommonPrefix(tt.in), "%v", tt.in)
	}
}

func TestFilterPrefixIsCaseSensitive(t *testing.T) {
	assert.Equal(t, []string{"man "}, FilterPrefix([]string{"man ", "Makefile", "alias "}, "ma"))
}

// fixture answers suggestion requests with a fixed response and records
// the parts it was asked about.
func fixture(t *testing.T, resp types.SuggestionsResponse) (*Orchestrator, *bus.Bus, chan []string) {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)

	asked := make(chan []string, 4)
	b.Listen(types.TopicGetSuggestions, "resolver", func(_ context.Context, msg *bus.Message) {
		req := msg.Payload.(types.SuggestionsRequest)
		asked <- req.Parts
		msg.Respond(resp)
	})
	return New(b, nil, time.Second), b, asked
}

func TestCompleteCommandNameUniquely(t *testing.T) {
	o, _, asked := fixture(t, types.SuggestionsResponse{Suggestions: []string{"help ", "history ", "man "}})

	res := o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: "ma", AfterCursor: " tail"})

	assert.Equal(t, []string{""}, <-asked)
	assert.Equal(t, "man ", res.NewTextBeforeCursor)
	assert.Empty(t, res.Options)
	assert.Equal(t, " tail", res.AfterCursorText)
	assert.Equal(t, 2, res.PrefixLength)
}

func TestCompleteAmbiguousExtendsToCommonPrefix(t *testing.T) {
	o, _, _ := fixture(t, types.SuggestionsResponse{Suggestions: []string{"export ", "exit ", "echo "}})

	res := o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: "e"})

	assert.Equal(t, "e", res.NewTextBeforeCursor)
	assert.Equal(t, []string{"export ", "exit ", "echo "}, res.Options)
	assert.Equal(t, 1, res.PrefixLength)

	res = o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: "ex"})
	assert.Equal(t, "ex", res.NewTextBeforeCursor)
	assert.Equal(t, []string{"export ", "exit "}, res.Options)
	assert.Equal(t, 2, res.PrefixLength)
}

func TestCompleteAddsOnlyDelta(t *testing.T) {
	o, _, asked := fixture(t, types.SuggestionsResponse{Suggestions: []string{"history", "help"}})

	res := o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: `man "h`})

	assert.Equal(t, []string{"man ", ""}, <-asked)
	// The quote stays on the line; the shared "h" is already typed.
	assert.Equal(t, `man "h`, res.NewTextBeforeCursor)
	assert.Equal(t, []string{"history", "help"}, res.Options)

	res = o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: `man "hi`})
	assert.Equal(t, `man "history`, res.NewTextBeforeCursor)
	assert.Empty(t, res.Options)
	assert.Equal(t, len("story"), res.PrefixLength)
}

func TestCompleteWithDescriptionOnly(t *testing.T) {
	o, _, _ := fixture(t, types.SuggestionsResponse{Description: "<USERNAME>"})

	res := o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: "login al"})

	assert.Equal(t, "login al", res.NewTextBeforeCursor)
	assert.Empty(t, res.Options)
	assert.Equal(t, "<USERNAME>", res.Description)
	assert.Zero(t, res.PrefixLength)
}

func TestCompleteNoMatches(t *testing.T) {
	o, _, _ := fixture(t, types.SuggestionsResponse{Suggestions: []string{"alias "}})

	res := o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: "zz"})

	assert.Equal(t, "zz", res.NewTextBeforeCursor)
	assert.Empty(t, res.Options)
	assert.Equal(t, 2, res.PrefixLength)
}

func TestCompleteEmptyLine(t *testing.T) {
	o, _, asked := fixture(t, types.SuggestionsResponse{Suggestions: []string{"alias ", "help "}})

	res := o.Complete(context.Background(), types.AutocompleteRequest{})

	assert.Equal(t, []string{""}, <-asked)
	assert.Equal(t, "", res.NewTextBeforeCursor)
	assert.Equal(t, []string{"alias ", "help "}, res.Options)
}

func TestCompleteWithoutResolver(t *testing.T) {
	b := bus.New()
	defer b.Close()
	o := New(b, nil, 10*time.Millisecond)

	res := o.Complete(context.Background(), types.AutocompleteRequest{BeforeCursor: "he"})

	assert.Equal(t, "he", res.NewTextBeforeCursor)
	assert.Empty(t, res.Options)
}

func TestListenBroadcastsAndResponds(t *testing.T) {
	o, b, _ := fixture(t, types.SuggestionsResponse{Suggestions: []string{"version "}})
	o.Listen()

	broadcast := make(chan types.AutocompleteResult, 1)
	b.Listen(types.TopicAutocompleteBroadcast, "presenter", func(_ context.Context, msg *bus.Message) {
		broadcast <- msg.Payload.(types.AutocompleteResult)
	})

	res, err := bus.CallAs[types.AutocompleteResult](context.Background(), b, types.TopicAutocompleteRequest,
		types.AutocompleteRequest{BeforeCursor: "v"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "version ", res.NewTextBeforeCursor)

	select {
	case got := <-broadcast:
		assert.Equal(t, res, got)
	case <-time.After(time.Second):
		t.Fatal("no autocomplete broadcast")
	}
}
