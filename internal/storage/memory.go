package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Memory keeps nodes in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, instance, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.data[instance][key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(node), true, nil
}

func (m *Memory) Set(_ context.Context, instance, key string, node []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	nodes, ok := m.data[instance]
	if !ok {
		nodes = make(map[string][]byte)
		m.data[instance] = nodes
	}
	nodes[key] = slices.Clone(node)
	return nil
}

func (m *Memory) Delete(_ context.Context, instance, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[instance], key)
	return nil
}

// ListKeys returns matching keys in lexical order.
func (m *Memory) ListKeys(_ context.Context, instance, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data[instance]))
	for k := range m.data[instance] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
