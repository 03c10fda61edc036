package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/capability"
	"github.com/nnoitra/terminal/internal/shared/types"
	"github.com/nnoitra/terminal/internal/shared/utils"
	"github.com/nnoitra/terminal/internal/tokenizer"
)

// Execution outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

// Observer receives command executions for metrics.
type Observer interface {
	ObserveCommand(name, outcome string, elapsed time.Duration)
}

// Resolver expands aliases, dispatches command lines, and answers
// completion and metadata requests for one bus.
type Resolver struct {
	registry *Registry
	bus      *bus.Bus
	caps     *capability.Provider
	log      *zap.Logger
	timeout  time.Duration
	observer Observer
}

// NewResolver creates a resolver. timeout bounds its own bus requests
// (alias table, login state).
func NewResolver(registry *Registry, b *bus.Bus, caps *capability.Provider, log *zap.Logger, timeout time.Duration) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		registry: registry,
		bus:      b,
		caps:     caps,
		log:      log,
		timeout:  timeout,
	}
}

// SetObserver attaches a metrics observer.
func (r *Resolver) SetObserver(o Observer) {
	r.observer = o
}

// Listen registers the resolver's bus handlers.
func (r *Resolver) Listen() {
	r.bus.Listen(types.TopicCommandExecute, "command.execute", r.handleExecute)
	r.bus.Listen(types.TopicGetSuggestions, "command.suggestions", r.handleSuggestions)
	r.bus.Listen(types.TopicGetCommandList, "command.list", r.handleCommandList)
	r.bus.Listen(types.TopicGetCommandMeta, "command.meta", r.handleCommandMeta)
}

// Resolve expands an alias on the first token, one level deep, and
// returns the command name and the full resolved token list. The
// replacement text is tokenized and takes the place of the first token.
// A name produced by the expansion is not looked up again.
func (r *Resolver) Resolve(ctx context.Context, tokens []string) (string, []string) {
	args := append([]string(nil), tokens...)
	name := firstWord(args)
	if name == "" {
		return "", nil
	}

	aliases := r.aliases(ctx)
	if replacement, ok := aliases[name]; ok {
		expanded := tokenizer.Tokenize(replacement)
		if len(expanded) == 0 {
			// An empty alias still occupies the command position.
			expanded = []string{""}
		}
		args = append(expanded, args[1:]...)
		name = firstWord(args)
	}
	return name, args
}

func firstWord(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return strings.TrimSpace(tokens[0])
}

func (r *Resolver) aliases(ctx context.Context) map[string]string {
	resp, err := bus.CallAs[types.AliasesResponse](ctx, r.bus, types.TopicGetAliases, nil, r.timeout)
	if err != nil {
		r.log.Warn("alias lookup failed", zap.Error(err))
		return nil
	}
	return resp.Aliases
}

func (r *Resolver) context(ctx context.Context) Context {
	status, err := bus.CallAs[types.UserStatus](ctx, r.bus, types.TopicIsLoggedIn, nil, r.timeout)
	if err != nil {
		r.log.Debug("login state unavailable", zap.Error(err))
		return Context{}
	}
	return Context{IsLoggedIn: status.LoggedIn}
}

// PermittedNames returns the sorted names of commands available to the
// current user.
func (r *Resolver) PermittedNames(ctx context.Context) []string {
	return r.registry.Permitted(r.context(ctx))
}

// Execute runs one command line and writes its output to out. It never
// returns an error: unknown commands and command failures become output.
// The finished broadcast is published exactly once per call, whatever
// the outcome.
func (r *Resolver) Execute(ctx context.Context, line string, out types.Sink) {
	defer r.bus.Publish(types.TopicCommandExecutionFinished, nil)

	if out == nil {
		out = discard{}
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	name, args := r.Resolve(ctx, tokenizer.Tokenize(line))
	if name == "" {
		return
	}

	start := time.Now()
	def, ok := r.registry.Get(name)
	if !ok {
		out.SetText(fmt.Sprintf("%s: command not found", name))
		r.observe(name, OutcomeNotFound, start)
		return
	}

	r.log.Debug("executing command", zap.String("command", name), zap.Strings("args", args))
	if err := r.run(ctx, def, args, out); err != nil {
		r.log.Error("command failed", zap.String("command", name), zap.Error(err))
		out.SetText(fmt.Sprintf("Error executing %s: %s", name, err.Error()))
		r.observe(name, OutcomeError, start)
		return
	}
	r.observe(name, OutcomeOK, start)
}

func (r *Resolver) run(ctx context.Context, def Definition, args []string, out types.Sink) (err error) {
	defer func() {
		if perr := utils.PanicError(r.log, "command "+def.Name, recover()); perr != nil {
			err = perr
		}
	}()

	cmd := def.New(r.caps.Bind(def.Name, def.Capabilities))
	return cmd.Execute(ctx, args, out)
}

func (r *Resolver) observe(name, outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveCommand(name, outcome, time.Since(start))
	}
}

// Suggestions returns completion candidates for parts, the committed
// tokens plus the word being typed. With at most one part the candidates
// are the permitted command names, each followed by a space. Otherwise
// the command, after alias expansion, completes its own arguments.
func (r *Resolver) Suggestions(ctx context.Context, parts []string) (types.SuggestionsResponse, error) {
	if len(parts) <= 1 {
		names := r.PermittedNames(ctx)
		suggestions := make([]string, len(names))
		for i, name := range names {
			suggestions[i] = name + " "
		}
		return types.SuggestionsResponse{Suggestions: suggestions}, nil
	}

	name, args := r.Resolve(ctx, parts)
	def, ok := r.registry.Get(name)
	if !ok {
		return types.SuggestionsResponse{}, nil
	}

	cmd := def.New(r.caps.Bind(def.Name, def.Capabilities))
	completer, ok := cmd.(ArgCompleter)
	if !ok {
		return types.SuggestionsResponse{}, nil
	}

	completion, err := completer.CompleteArgs(ctx, args[1:])
	if err != nil {
		return types.SuggestionsResponse{}, fmt.Errorf("complete %s: %w", name, err)
	}
	return types.SuggestionsResponse{
		Suggestions: completion.Suggestions,
		Description: completion.Description,
	}, nil
}

func (r *Resolver) handleExecute(ctx context.Context, msg *bus.Message) {
	req, ok := bus.PayloadAs[types.CommandExecute](msg)
	if !ok {
		r.log.Warn("malformed execute payload", zap.Any("payload", msg.Payload))
		r.bus.Publish(types.TopicCommandExecutionFinished, nil)
		return
	}
	r.Execute(ctx, req.CommandString, req.Output)
}

func (r *Resolver) handleSuggestions(ctx context.Context, msg *bus.Message) {
	req, _ := bus.PayloadAs[types.SuggestionsRequest](msg)
	resp, err := r.Suggestions(ctx, req.Parts)
	if err != nil {
		r.log.Warn("argument completion failed", zap.Error(err))
	}
	msg.Respond(resp)
}

func (r *Resolver) handleCommandList(ctx context.Context, msg *bus.Message) {
	msg.Respond(types.CommandListResponse{Commands: r.PermittedNames(ctx)})
}

func (r *Resolver) handleCommandMeta(_ context.Context, msg *bus.Message) {
	req, _ := bus.PayloadAs[types.CommandMetaRequest](msg)
	def, ok := r.registry.Get(req.Name)
	if !ok {
		msg.Respond(types.CommandMetaResponse{})
		return
	}
	value, found := def.Meta(req.Key)
	msg.Respond(types.CommandMetaResponse{Value: value, Found: found})
}

type discard struct{}

func (discard) SetText(string)    {}
func (discard) AppendText(string) {}
func (discard) AppendHTML(string) {}
