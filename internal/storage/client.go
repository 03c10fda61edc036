package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// Client calls one storage service over the bus on behalf of one storage
// instance.
type Client struct {
	bus      *bus.Bus
	name     string
	instance string
	timeout  time.Duration
}

// NewClient creates a client for the named storage and instance id.
func NewClient(b *bus.Bus, name, instance string, timeout time.Duration) *Client {
	return &Client{bus: b, name: name, instance: instance, timeout: timeout}
}

// Name returns the storage name the client addresses.
func (c *Client) Name() string { return c.name }

func (c *Client) call(ctx context.Context, api string, data types.StorageData) (types.StorageResponse, error) {
	data.ID = c.instance
	resp, err := bus.CallAs[types.StorageResponse](ctx, c.bus, types.TopicStorageAPI,
		types.StorageRequest{StorageName: c.name, API: api, Data: data}, c.timeout)
	if err != nil {
		return resp, fmt.Errorf("%s %s: %w", c.name, api, err)
	}
	return resp, nil
}

// Get reads a node. lockID may be empty.
func (c *Client) Get(ctx context.Context, key string, lockID id.LockID) ([]byte, bool, error) {
	resp, err := c.call(ctx, types.APIGetNode, types.StorageData{Key: key, LockID: lockID})
	return resp.Node, resp.Found, err
}

// Set writes a node. lockID may be empty.
func (c *Client) Set(ctx context.Context, key string, node []byte, lockID id.LockID) error {
	_, err := c.call(ctx, types.APISetNode, types.StorageData{Key: key, Node: node, LockID: lockID})
	return err
}

// Delete removes a node. lockID may be empty.
func (c *Client) Delete(ctx context.Context, key string, lockID id.LockID) error {
	_, err := c.call(ctx, types.APIDeleteNode, types.StorageData{Key: key, LockID: lockID})
	return err
}

// List returns the keys starting with prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	resp, err := c.call(ctx, types.APIListKeysWithPrefix, types.StorageData{Key: prefix})
	return resp.Keys, err
}

// Lock waits for the node lock and returns its id.
func (c *Client) Lock(ctx context.Context, key string) (id.LockID, error) {
	resp, err := c.call(ctx, types.APILockNode, types.StorageData{Key: key})
	return resp.LockID, err
}

// Unlock releases a node lock.
func (c *Client) Unlock(ctx context.Context, key string, lockID id.LockID) error {
	_, err := c.call(ctx, types.APIUnlockNode, types.StorageData{Key: key, LockID: lockID})
	return err
}

// WithLock runs fn while holding the node lock.
func (c *Client) WithLock(ctx context.Context, key string, fn func(lockID id.LockID) error) (err error) {
	lockID, err := c.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		// The caller's ctx may already be done; the lock must still go.
		if uerr := c.Unlock(context.WithoutCancel(ctx), key, lockID); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(lockID)
}

// Load reads a node and decodes it as JSON into a T.
func Load[T any](ctx context.Context, c *Client, key string, lockID id.LockID) (T, bool, error) {
	var v T
	node, found, err := c.Get(ctx, key, lockID)
	if err != nil || !found {
		return v, found, err
	}
	if err := sonic.Unmarshal(node, &v); err != nil {
		return v, true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return v, true, nil
}

// Store encodes v as JSON and writes it.
func Store(ctx context.Context, c *Client, key string, v any, lockID id.LockID) error {
	node, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return c.Set(ctx, key, node, lockID)
}
