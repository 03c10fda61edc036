package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/session"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// lineReader is the part of readline the shell uses.
type lineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
}

// shell drives one session from a terminal.
type shell struct {
	sess  *session.Session
	in    lineReader
	out   io.Writer
	strip *bluemonday.Policy

	requests chan types.InputRequest
	outputs  chan types.Output

	mu     sync.Mutex
	prompt string
}

func newShell(sess *session.Session, in lineReader, out io.Writer) *shell {
	sh := &shell{
		sess:     sess,
		in:       in,
		out:      out,
		strip:    bluemonday.StrictPolicy(),
		requests: make(chan types.InputRequest, 4),
		outputs:  make(chan types.Output, 16),
	}

	b := sess.Bus()
	b.Listen(types.TopicPromptRender, "nsh.prompt", func(_ context.Context, msg *bus.Message) {
		p, _ := bus.PayloadAs[types.PromptRender](msg)
		sh.mu.Lock()
		sh.prompt = p.Prompt
		sh.mu.Unlock()
	})
	b.Listen(types.TopicInputReady, "nsh.input", func(_ context.Context, msg *bus.Message) {
		req, _ := bus.PayloadAs[types.InputRequest](msg)
		sh.requests <- req
	})
	b.Listen(types.TopicOutput, "nsh.output", func(_ context.Context, msg *bus.Message) {
		out, _ := bus.PayloadAs[types.Output](msg)
		sh.outputs <- out
	})
	b.Listen(types.TopicClearScreen, "nsh.clear", func(context.Context, *bus.Message) {
		fmt.Fprint(sh.out, "\033[H\033[2J")
	})
	return sh
}

// interactive answers input requests from the line reader until EOF.
func (sh *shell) interactive(ctx context.Context) error {
	for {
		select {
		case req := <-sh.requests:
			sh.drain()
			line, err := sh.read(req)
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				line = ""
			case errors.Is(err, io.EOF):
				return nil
			case err != nil:
				return err
			}
			sh.sess.Input().Submit(line)
		case out := <-sh.outputs:
			sh.print(out)
		case <-ctx.Done():
			return ctx.Err()
		case <-sh.sess.Bus().Done():
			return nil
		}
	}
}

// once runs one command line and prints its output.
func (sh *shell) once(ctx context.Context, line string) error {
	submitted := false
	for {
		select {
		case req := <-sh.requests:
			if submitted {
				// A command asking for more input cannot be answered here.
				if req.AllowHistory {
					return nil
				}
				sh.sess.Input().Submit("")
				continue
			}
			sh.sess.Input().Submit(line)
			submitted = true
		case out := <-sh.outputs:
			sh.print(out)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-sh.sess.Bus().Done():
			return errors.New("session closed")
		}
	}
}

// drain prints blocks that arrived with the next input request.
func (sh *shell) drain() {
	for {
		select {
		case out := <-sh.outputs:
			sh.print(out)
		default:
			return
		}
	}
}

func (sh *shell) read(req types.InputRequest) (string, error) {
	if req.Secret {
		b, err := sh.in.ReadPassword(req.Prompt)
		return string(b), err
	}
	prompt := req.Prompt
	if req.AllowHistory {
		sh.mu.Lock()
		prompt = sh.prompt + " "
		sh.mu.Unlock()
	}
	sh.in.SetPrompt(prompt)
	return sh.in.Readline()
}

// print writes a block as plain text.
func (sh *shell) print(out types.Output) {
	var sb strings.Builder
	for _, c := range out.Chunks {
		if c.HTML != "" {
			sb.WriteString(sh.strip.Sanitize(c.HTML))
			continue
		}
		sb.WriteString(c.Text)
	}
	text := sb.String()
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Fprint(sh.out, text)
}
