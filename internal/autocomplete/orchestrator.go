// Package autocomplete turns the text left of the cursor into a completion.
//
// The orchestrator never re-serializes the command line. It appends only
// the characters the longest common prefix adds beyond what the user
// typed, so quotes and escapes already on the line survive completion.
package autocomplete

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/tokenizer"
)

// Observer receives completion results for metrics.
type Observer interface {
	ObserveAutocomplete(options int, completed bool)
}

// Orchestrator answers autocomplete requests on one bus.
type Orchestrator struct {
	bus      *bus.Bus
	log      *zap.Logger
	timeout  time.Duration
	observer Observer
}

// New creates an orchestrator. timeout bounds the suggestions request.
func New(b *bus.Bus, log *zap.Logger, timeout time.Duration) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{bus: b, log: log, timeout: timeout}
}

// SetObserver attaches a metrics observer.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.observer = obs
}

// Listen handles TopicAutocompleteRequest. Every result is broadcast on
// TopicAutocompleteBroadcast; requests made with Call also get it as their
// response.
func (o *Orchestrator) Listen() {
	o.bus.Listen(types.TopicAutocompleteRequest, "autocomplete", func(ctx context.Context, msg *bus.Message) {
		req, ok := bus.PayloadAs[types.AutocompleteRequest](msg)
		if !ok {
			o.log.Warn("malformed autocomplete payload", zap.Any("payload", msg.Payload))
			return
		}
		result := o.Complete(ctx, req)
		o.bus.Publish(types.TopicAutocompleteBroadcast, result)
		msg.Respond(result)
	})
}

// Complete computes the completion for req. PrefixLength is in runes.
func (o *Orchestrator) Complete(ctx context.Context, req types.AutocompleteRequest) types.AutocompleteResult {
	parts := tokenizer.Tokenize(req.BeforeCursor)
	incomplete := ""
	if n := len(parts); n > 0 {
		incomplete = parts[n-1]
		parts = parts[:n-1]
	}
	parts = append(parts, "")

	var (
		completed    string
		options      []string
		description  string
		prefixLength int
	)

	resp, err := bus.CallAs[types.SuggestionsResponse](ctx, o.bus, types.TopicGetSuggestions,
		types.SuggestionsRequest{Parts: parts}, o.timeout)
	if err != nil {
		o.log.Error("suggestions request failed", zap.Error(err))
	}
	description = resp.Description

	switch {
	case len(resp.Suggestions) > 0:
		filtered := FilterPrefix(resp.Suggestions, incomplete)
		completed = LongestCommonPrefix(filtered)
		if len(filtered) == 1 && filtered[0] == completed {
			options = []string{}
		} else {
			options = filtered
			prefixLength = utf8.RuneCountInString(incomplete)
		}
	case description != "":
		completed = incomplete
		options = []string{}
	}

	delta := ""
	if len(completed) > len(incomplete) {
		delta = completed[len(incomplete):]
	}
	prefixLength += utf8.RuneCountInString(delta)

	if options == nil {
		options = []string{}
	}
	if o.observer != nil {
		o.observer.ObserveAutocomplete(len(options), delta != "")
	}

	o.log.Debug("autocomplete",
		zap.String("incomplete", incomplete),
		zap.String("delta", delta),
		zap.Int("options", len(options)))

	return types.AutocompleteResult{
		NewTextBeforeCursor: req.BeforeCursor + delta,
		Options:             options,
		AfterCursorText:     req.AfterCursor,
		Description:         description,
		PrefixLength:        prefixLength,
	}
}
