package terminal

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/nnoitra/terminal/internal/shared/types"
)

// Block collects the output of one command. It is safe for concurrent
// use. HTML chunks are sanitized on the way in.
type Block struct {
	policy *bluemonday.Policy

	mu     sync.Mutex
	chunks []types.OutputChunk
}

// NewBlock creates an empty block. A nil policy uses bluemonday's UGC
// policy.
func NewBlock(policy *bluemonday.Policy) *Block {
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	return &Block{policy: policy}
}

// SetText replaces everything written so far with text.
func (b *Block) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = []types.OutputChunk{{Text: text}}
}

// AppendText adds plain text.
func (b *Block) AppendText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.chunks); n > 0 && b.chunks[n-1].HTML == "" {
		b.chunks[n-1].Text += text
		return
	}
	b.chunks = append(b.chunks, types.OutputChunk{Text: text})
}

// AppendHTML adds sanitized markup.
func (b *Block) AppendHTML(html string) {
	clean := b.policy.Sanitize(html)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = append(b.chunks, types.OutputChunk{HTML: clean})
}

// Chunks returns a copy of the output.
func (b *Block) Chunks() []types.OutputChunk {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.OutputChunk, len(b.chunks))
	copy(out, b.chunks)
	return out
}

// String returns the plain-text rendering: text as is, HTML with tags
// stripped.
func (b *Block) String() string {
	strip := bluemonday.StrictPolicy()
	var s string
	for _, c := range b.Chunks() {
		if c.HTML != "" {
			s += strip.Sanitize(c.HTML)
			continue
		}
		s += c.Text
	}
	return s
}
