// Package storage holds the key-value backends and the session/cart stores
// built on top of them.
package storage

import (
	"context"
	"sync"

	"github.com/tablebook/reservation-client/internal/core/domain"
	"github.com/tablebook/reservation-client/internal/core/ports"
)

const watchBuffer = 64

// Memory is an in-process key-value store. A single instance shared by
// several session managers behaves like browser storage shared by tabs.
type Memory struct {
	mu       sync.Mutex
	data     map[string]string
	watchers map[chan domain.StorageEvent]struct{}
}

var _ ports.KeyValueStore = (*Memory)(nil)
var _ ports.StorageWatcher = (*Memory)(nil)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string]string),
		watchers: make(map[chan domain.StorageEvent]struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.notifyLocked(key)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if _, ok := m.data[k]; !ok {
			continue
		}
		delete(m.data, k)
		m.notifyLocked(k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Watch delivers an event for every write or removal until ctx is done.
// Slow watchers drop events; they re-read full values so a later event
// still converges them.
func (m *Memory) Watch(ctx context.Context) (<-chan domain.StorageEvent, error) {
	ch := make(chan domain.StorageEvent, watchBuffer)

	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}

func (m *Memory) notifyLocked(key string) {
	for ch := range m.watchers {
		select {
		case ch <- domain.StorageEvent{Key: key}:
		default:
		}
	}
}
