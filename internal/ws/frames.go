package ws

import "time"

// Inbound frame types.
const (
	FrameInput        = "input"
	FrameAutocomplete = "autocomplete"
	FrameHistory      = "history"
	FramePing         = "ping"
)

// Outbound frame types. FrameInput and FrameAutocomplete are reused for
// the server's side of those exchanges.
const (
	FrameSession = "session"
	FramePrompt  = "prompt"
	FrameOutput  = "output"
	FrameClear   = "clear"
	FrameUser    = "user"
	FrameError   = "error"
	FramePong    = "pong"
)

// History directions.
const (
	DirectionPrevious = "previous"
	DirectionNext     = "next"
)

// Inbound is a frame from the browser.
type Inbound struct {
	Type         string `json:"type"`
	Value        string `json:"value,omitempty"`
	BeforeCursor string `json:"beforeCursor,omitempty"`
	AfterCursor  string `json:"afterCursor,omitempty"`
	Direction    string `json:"direction,omitempty"`
}

// Outbound is a frame to the browser.
type Outbound struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func frame(typ string, data any) Outbound {
	return Outbound{Type: typ, Data: data, Timestamp: time.Now().Unix()}
}

func errorFrame(msg string) Outbound {
	return Outbound{Type: FrameError, Message: msg, Timestamp: time.Now().Unix()}
}

// inboundLabel bounds the metric label to known frame types.
func inboundLabel(typ string) string {
	switch typ {
	case FrameInput, FrameAutocomplete, FrameHistory, FramePing:
		return typ
	}
	return "unknown"
}
