package history

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultSettleDelay is the quiet period after which a burst of edits is
// recorded as one history entry.
const DefaultSettleDelay = 500 * time.Millisecond

// Settler runs a capture once changes have stopped arriving for the settle
// delay. Each Schedule call restarts the wait.
type Settler struct {
	mu        sync.Mutex
	debounced func(f func())
	pending   bool
}

// NewSettler returns a settler with the given delay.
func NewSettler(delay time.Duration) *Settler {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Settler{debounced: debounce.New(delay)}
}

// Schedule arranges for fn to run after the settle delay, replacing any
// pending function.
func (s *Settler) Schedule(fn func()) {
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
	s.debounced(func() {
		s.mu.Lock()
		if !s.pending {
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending function, if any.
func (s *Settler) Cancel() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

// Pending reports whether a function is waiting to run.
func (s *Settler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
