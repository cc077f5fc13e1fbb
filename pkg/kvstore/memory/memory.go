// Package memory 内存键值后端，用于测试与本地开发
// Package memory is the in-memory backend for tests and local development
package memory

import (
	"context"
	"io/fs"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type Memory struct {
	mu      sync.RWMutex
	records map[string]string
	closed  bool
}

func NewClient() (*Memory, error) {
	return &Memory{
		records: make(map[string]string),
	}, nil
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	if !ok {
		return "", errors.Wrap(fs.ErrNotExist, "memory")
	}
	return value, nil
}

func (m *Memory) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("memory: store closed")
	}
	m.records[key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len 当前记录数，供测试断言
// Len reports the record count for test assertions
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
