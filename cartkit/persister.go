package cartkit

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
)

// ErrKeyNotFound is returned by Persister implementations when the
// storage key has never been written or was deleted. Rehydration
// treats it as an empty collection, not a failure.
var ErrKeyNotFound = stderrors.New("storage key not found")

// ErrPersisterClosed is returned for any operation after Close, so a
// late persist from a lingering store degrades to a logged error.
var ErrPersisterClosed = stderrors.New("persister is closed")

// Persister durably stores collection values under fixed string keys.
// Implementations can use any storage backend (SQLite, flat files,
// browser storage bridges).
type Persister interface {
	// Save persists value under key, replacing any previous value
	Save(ctx context.Context, key string, value any) error

	// Load reads the value stored under key into out.
	// Returns ErrKeyNotFound if the key has no value.
	Load(ctx context.Context, key string, out any) error

	// Delete removes the key and its value entirely
	Delete(ctx context.Context, key string) error

	// Close closes the persister and releases resources
	Close() error
}

// MemoryPersister is an in-memory Persister for anonymous sessions and
// tests. Values are stored as JSON so Load round-trips through the
// same serialization as durable backends.
type MemoryPersister struct {
	mu     sync.RWMutex
	closed bool
	values map[string]json.RawMessage
}

var _ Persister = (*MemoryPersister)(nil)

// NewMemoryPersister creates an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{values: make(map[string]json.RawMessage)}
}

func (p *MemoryPersister) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPersisterClosed
	}
	p.values[key] = data
	return nil
}

func (p *MemoryPersister) Load(ctx context.Context, key string, out any) error {
	p.mu.RLock()
	closed := p.closed
	data, ok := p.values[key]
	p.mu.RUnlock()

	if closed {
		return ErrPersisterClosed
	}
	if !ok {
		return ErrKeyNotFound
	}
	return json.Unmarshal(data, out)
}

func (p *MemoryPersister) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPersisterClosed
	}
	delete(p.values, key)
	return nil
}

func (p *MemoryPersister) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.values = nil
	return nil
}
