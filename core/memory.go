package core

import "sync"

// Memory stores conversation history.
// Implementations must be safe for concurrent use.
type Memory interface {
	// AddMessage appends messages to the history.
	AddMessage(msgs ...Message)

	// GetHistory returns a copy of all messages in order.
	GetHistory() []Message

	// Clear removes all messages.
	Clear()

	// Len returns the number of stored messages.
	Len() int
}

// InMemoryStore is a thread-safe, process-local Memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages []Message
}

// NewInMemoryStore creates a new in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// AddMessage appends messages to the history.
func (m *InMemoryStore) AddMessage(msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
}

// GetHistory returns a copy of all messages in order.
func (m *InMemoryStore) GetHistory() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Clear removes all messages.
func (m *InMemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// Len returns the number of stored messages.
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

var _ Memory = (*InMemoryStore)(nil)
