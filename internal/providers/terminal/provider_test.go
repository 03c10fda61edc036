package terminal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/types"
)

func TestRenderPrompt(t *testing.T) {
	now := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
	vars := PromptVars{User: "alice", Host: "box", Path: "~"}

	assert.Equal(t, "[2024-03-05 07:08:09] alice@box:~", RenderPrompt(DefaultPS1, vars, now))
	assert.Equal(t, "{nope} alice $", RenderPrompt("{nope} {user} $", vars, now))
	assert.Equal(t, "plain", RenderPrompt("plain", vars, now))
}

func TestBlockSanitizesHTML(t *testing.T) {
	b := NewBlock(nil)
	b.AppendText("a")
	b.AppendText("b")
	b.AppendHTML(`<b>bold</b><script>alert(1)</script>`)

	chunks := b.Chunks()
	require.Len(t, chunks, 2)
	assert.Equal(t, "ab", chunks[0].Text)
	assert.Equal(t, "<b>bold</b>", chunks[1].HTML)
	assert.Equal(t, "abbold", b.String())

	b.SetText("reset")
	assert.Equal(t, []types.OutputChunk{{Text: "reset"}}, b.Chunks())
}

type loop struct {
	bus      *bus.Bus
	terminal *Provider
	outputs  chan types.Output
	prompts  chan string
	persist  chan string
}

func newLoop(t *testing.T, lines ...string) *loop {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)

	vars := map[string]string{
		types.VarPS1:  "{user}@{host}:{path}$",
		types.VarUser: "alice",
	}
	b.Listen(types.TopicVarGet, "env", func(_ context.Context, msg *bus.Message) {
		req := msg.Payload.(types.VarRequest)
		v, ok := vars[req.Key]
		msg.Respond(types.VarResponse{Value: v, Found: ok})
	})

	var mu sync.Mutex
	b.Listen(types.TopicInputRequest, "input", func(_ context.Context, msg *bus.Message) {
		mu.Lock()
		defer mu.Unlock()
		if len(lines) == 0 {
			return
		}
		msg.Respond(types.InputResponse{Value: lines[0]})
		lines = lines[1:]
	})

	b.Listen(types.TopicCommandExecute, "resolver", func(_ context.Context, msg *bus.Message) {
		req := msg.Payload.(types.CommandExecute)
		req.Output.AppendText("ran " + req.CommandString)
		b.Publish(types.TopicCommandExecutionFinished, nil)
	})

	l := &loop{
		bus:     b,
		outputs: make(chan types.Output, 8),
		prompts: make(chan string, 8),
		persist: make(chan string, 8),
	}
	b.Listen(types.TopicOutput, "presenter", func(_ context.Context, msg *bus.Message) {
		l.outputs <- msg.Payload.(types.Output)
	})
	b.Listen(types.TopicPromptRender, "presenter", func(_ context.Context, msg *bus.Message) {
		l.prompts <- msg.Payload.(types.PromptRender).Prompt
	})
	b.Listen(types.TopicHistoryPersist, "history", func(_ context.Context, msg *bus.Message) {
		l.persist <- msg.Payload.(types.HistoryPersist).Command
	})

	l.terminal = NewProvider(b, Config{Host: "box", Timeout: time.Second}, nil)
	l.terminal.Listen()
	return l
}

func TestStepRunsOneCommand(t *testing.T) {
	l := newLoop(t, "echo hi")

	require.NoError(t, l.terminal.Step(context.Background()))

	assert.Equal(t, "alice@box:~$", <-l.prompts)
	out := <-l.outputs
	assert.Equal(t, 1, out.ID)
	assert.Equal(t, "echo hi", out.Command)
	assert.Equal(t, "alice@box:~$", out.Prompt)
	assert.Equal(t, []types.OutputChunk{{Text: "ran echo hi"}}, out.Chunks)
	assert.Equal(t, "echo hi", <-l.persist)
}

func TestRunNumbersBlocksAndSkipsBlankHistory(t *testing.T) {
	l := newLoop(t, "one", "  ", "two")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.terminal.Run(ctx) }()

	for want := 1; want <= 3; want++ {
		assert.Equal(t, want, (<-l.outputs).ID)
	}
	assert.Equal(t, "one", <-l.persist)
	assert.Equal(t, "two", <-l.persist)
	select {
	case got := <-l.persist:
		t.Fatalf("blank line persisted: %q", got)
	default:
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestClearRestartsNumbering(t *testing.T) {
	l := newLoop(t, "one", "two")
	ctx := context.Background()

	require.NoError(t, l.terminal.Step(ctx))
	assert.Equal(t, 1, (<-l.outputs).ID)

	l.bus.Publish(types.TopicClearScreen, nil)
	assert.Eventually(t, func() bool { return l.terminal.peekID() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, l.terminal.Step(ctx))
	assert.Equal(t, 1, (<-l.outputs).ID)
}

func TestRunStopsWhenBusCloses(t *testing.T) {
	l := newLoop(t)
	done := make(chan error, 1)
	go func() { done <- l.terminal.Run(context.Background()) }()

	<-l.prompts
	l.bus.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, bus.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestDefaults(t *testing.T) {
	b := bus.New()
	defer b.Close()
	p := NewProvider(b, Config{Host: "box"}, nil)
	p.Listen()
	ctx := context.Background()

	for key, want := range map[string]string{types.VarPS1: DefaultPS1, types.VarHost: "box", "pwd": "~"} {
		resp, err := bus.CallAs[types.VarResponse](ctx, b, types.TopicVarDefault, types.VarRequest{Key: key}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, resp.Value, key)
	}

	_, err := b.Call(ctx, types.TopicVarDefault, types.VarRequest{Key: "OTHER"}, 20*time.Millisecond)
	assert.ErrorIs(t, err, bus.ErrTimeout)
}

func TestPromptFallsBackWithoutEnvironment(t *testing.T) {
	b := bus.New()
	defer b.Close()
	p := NewProvider(b, Config{Host: "box", Timeout: 10 * time.Millisecond}, nil)
	p.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	assert.Equal(t, "[2024-01-02 03:04:05] @box:~", p.Prompt(context.Background()))
}

func (p *Provider) peekID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextID
}
