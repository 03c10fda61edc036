package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnoitra/terminal/internal/app"
	"github.com/nnoitra/terminal/internal/config"
	"github.com/nnoitra/terminal/internal/session"
)

// scripted replays lines and records the prompts it was shown.
type scripted struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
	prompt  string
}

func (s *scripted) SetPrompt(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = p
}

func (s *scripted) Readline() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, s.prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scripted) ReadPassword(p string) ([]byte, error) {
	s.SetPrompt(p)
	line, err := s.Readline()
	return []byte(line), err
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func openSession(t *testing.T) (*session.Session, context.Context) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.SQLitePath = ""
	cfg.Shell.Hostname = "box"

	a, err := app.New(context.Background(), cfg, app.BuildInfo{Version: "9.9.9"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	sess, err := a.Sessions.Open(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = sess.Run(ctx) }()
	return sess, ctx
}

func TestOnce(t *testing.T) {
	sess, ctx := openSession(t)
	out := &syncBuffer{}
	sh := newShell(sess, &scripted{}, out)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	require.NoError(t, sh.once(ctx, "echo from nsh"))
	assert.Equal(t, "from nsh\n", out.String())
}

func TestInteractive(t *testing.T) {
	sess, ctx := openSession(t)
	out := &syncBuffer{}
	in := &scripted{lines: []string{"version", "whoami"}}
	sh := newShell(sess, in, out)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	require.NoError(t, sh.interactive(ctx))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "guest")
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Nnoitra Terminal 9.9.9")

	in.mu.Lock()
	defer in.mu.Unlock()
	require.NotEmpty(t, in.prompts)
	assert.Contains(t, in.prompts[0], "guest@box:~ ")
}
