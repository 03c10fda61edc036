// Package ws connects browser terminals over WebSocket.
//
// Each connection opens its own session and relays between the socket and
// the session bus. Frames are JSON objects with a "type" field.
//
// Features:
//   - One session per connection, closed with the socket
//   - Per-connection frame rate limiting
//   - Read size limit and keep-alive pings
//   - Bounded send queue; a client that falls behind is disconnected
//
// Message Types (Client → Server):
//   - input: submit a line ({"value"})
//   - autocomplete: complete the line ({"beforeCursor", "afterCursor"})
//   - history: walk history ({"direction": "previous" | "next"})
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - session: session id and storage instance, sent first
//   - prompt: rendered prompt for the next line
//   - input: the terminal is waiting for a line
//   - output: a finished command block
//   - autocomplete: completion result
//   - history: history entry
//   - clear: clear the screen
//   - user: login state changed
//   - error: a frame was rejected
//   - pong: reply to ping
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, ws.Config{}, metrics, log)
//	router.GET("/terminal", handler.HandleConnection)
package ws
