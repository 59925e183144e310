package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryPersister keeps carts in process memory, encoded the same way the
// durable stores encode them. Used for local runs and tests.
type MemoryPersister struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{carts: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) (State, error) {
	m.mu.Lock()
	b, ok := m.carts[key]
	m.mu.Unlock()
	if !ok {
		return State{}, ErrNotFound
	}

	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return st, nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[key] = b
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, key)
	return nil
}
