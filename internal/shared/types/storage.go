package types

import "github.com/nnoitra/terminal/internal/shared/id"

// Storage backends addressed by StorageRequest.StorageName.
const (
	StorageSession = "SESSION"
	StorageLocal   = "LOCAL"
	StorageRemote  = "REMOTE"
)

// Storage API names.
const (
	APIGetNode            = "getNode"
	APISetNode            = "setNode"
	APIDeleteNode         = "deleteNode"
	APIListKeysWithPrefix = "listKeysWithPrefix"
	APILockNode           = "lockNode"
	APIUnlockNode         = "unlockNode"
)

// StorageRequest is routed to the backend whose name matches StorageName.
// Every other backend ignores it.
type StorageRequest struct {
	StorageName string      `json:"storageName"`
	API         string      `json:"api"`
	Data        StorageData `json:"data"`
}

// StorageData holds the arguments of every storage API. ID scopes the key
// space to one terminal instance; LockID, when set, must hold Key.
type StorageData struct {
	ID     string    `json:"id"`
	Key    string    `json:"key"`
	Node   []byte    `json:"node,omitempty"`
	LockID id.LockID `json:"lockId,omitempty"`
}

// StorageResponse answers a storage request. Failures are delivered as
// error responses instead.
type StorageResponse struct {
	Node   []byte    `json:"node,omitempty"`
	Found  bool      `json:"found"`
	Keys   []string  `json:"keys,omitempty"`
	LockID id.LockID `json:"lockId,omitempty"`
}
