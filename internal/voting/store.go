package voting

import (
	"context"
	"sync"
)

// Store persists the ledger State. Save replaces the stored State as a whole;
// Load reports found=false when nothing was stored yet.
type Store interface {
	Load(ctx context.Context) (state State, found bool, err error)
	Save(ctx context.Context, state State) error
}

// MemoryStore keeps the State in process memory. It does not survive restarts
// and is meant for tests and local experiments.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return State{}, false, nil
	}
	return m.state.Clone(), true, nil
}

func (m *MemoryStore) Save(ctx context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := state.Clone()
	m.state = &clone
	return nil
}
