// Package journal records lifecycle events of a cortex engine.
//
// Backends:
// - Memory: bounded in-process ring, the default
// - redis.Journal: JSON entries in a capped Redis list
//
// Journal failures never affect the lifecycle; callers log and continue.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrClosed = errors.New("journal: closed")

// Kind classifies a journal entry.
type Kind string

const (
	KindTransition Kind = "transition"
	KindDiagnostic Kind = "diagnostic"
	KindHandshake  Kind = "handshake"
	KindShutdown   Kind = "shutdown"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	Seq     uint64            `json:"seq"`
	At      time.Time         `json:"at"`
	Kind    Kind              `json:"kind"`
	From    string            `json:"from,omitempty"`
	To      string            `json:"to,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Journal is the append-only lifecycle event sink.
type Journal interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// DefaultCapacity bounds the memory journal.
const DefaultCapacity = 256

// Memory keeps the most recent entries in process memory.
type Memory struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	seq      uint64
	closed   bool
}

// NewMemory creates a memory journal; capacity <= 0 uses DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append stamps e with the next sequence number and stores it, evicting
// the oldest entry when full.
func (m *Memory) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.seq++
	e.Seq = m.seq
	e.Fields = copyFields(e.Fields)
	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, e)
	return nil
}

// List returns entries oldest first.
func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		e.Fields = copyFields(e.Fields)
		out[i] = e
	}
	return out, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func copyFields(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
