package storage

import (
	"context"
	"errors"
)

// ErrUnknownAPI is returned for a request naming an API no backend has.
var ErrUnknownAPI = errors.New("unknown storage api")

// Backend is a key/value store partitioned by instance id. Keys are
// opaque strings; nodes are opaque bytes.
type Backend interface {
	Get(ctx context.Context, instance, key string) ([]byte, bool, error)
	Set(ctx context.Context, instance, key string, node []byte) error
	Delete(ctx context.Context, instance, key string) error
	ListKeys(ctx context.Context, instance, prefix string) ([]string, error)
	Close() error
}
