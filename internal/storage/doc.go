// Package storage provides the storage services behind storage-api-request.
//
// A Service pairs one Backend with a name (SESSION, LOCAL, REMOTE) and
// answers only the requests addressed to that name. Every backend exposes
// the same node API; locking is layered on top by the Service so backends
// stay plain key/value stores.
//
// Backends:
//   - Memory: per-instance maps, gone when the process exits
//   - SQLite: zstd-compressed rows in a single table
//   - Remote: a JSON HTTP API behind a rate limiter and a circuit breaker
//
// Services reach storage through a Client, which turns the request/response
// protocol into method calls and encodes values with sonic.
package storage
