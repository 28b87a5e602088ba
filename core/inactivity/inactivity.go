// Package inactivity exposes the hint sink that tells the sleep-management
// collaborator whether the vehicle should be allowed to doze off.
package inactivity

import "sync"

// Mode is the requested inactivity behavior.
type Mode int

const (
	ModeAwake Mode = iota
	ModeSleep
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	if m == ModeSleep {
		return "sleep"
	}
	return "awake"
}

// Sink receives inactivity mode hints. Setting a mode never fails; the sink is
// advisory and a separate collaborator acts on it.
type Sink interface {
	SetMode(Mode)
}

// MemorySink is a thread-safe in-memory Sink, injected where the application
// has no external sleep manager.
type MemorySink struct {
	mu   sync.RWMutex
	mode Mode
}

// NewMemorySink returns a sink starting in awake mode.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Mode returns the last hint received.
func (s *MemorySink) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}
