package status

import (
	"sync"
	"time"

	"github.com/adamwoolhether/ecoalbridge/ecoal"
)

// Store keeps the outcome of the latest poll. It satisfies the poller's
// sink and is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	started   time.Time
	registers ecoal.Registers
	updatedAt time.Time
	lastErr   error
	failedAt  time.Time
}

// NewStore returns an empty Store; started is reported as the start of
// the uptime.
func NewStore(started time.Time) *Store {
	return &Store{started: started}
}

// Publish replaces the registers with a fresh successful poll.
func (s *Store) Publish(regs ecoal.Registers, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registers = regs
	s.updatedAt = at
}

// Fail records a failed poll. Registers from the last success are kept.
func (s *Store) Fail(err error, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = err
	s.failedAt = at
}

// Snapshot is a consistent copy of the Store.
type Snapshot struct {
	Started   time.Time
	Registers ecoal.Registers
	UpdatedAt time.Time
	LastErr   error
	FailedAt  time.Time
}

// Stale reports whether the latest poll failed or none has succeeded yet.
func (s Snapshot) Stale() bool {
	return s.UpdatedAt.IsZero() || s.FailedAt.After(s.UpdatedAt)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Started:   s.started,
		Registers: s.registers,
		UpdatedAt: s.updatedAt,
		LastErr:   s.lastErr,
		FailedAt:  s.failedAt,
	}
}
