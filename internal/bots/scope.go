package bots

import (
	"sync"
	"time"
)

// Scope is a cancellation scope for delayed bot tasks. Every timer a
// round's bots own is registered here; Cancel stops them all atomically
// and guarantees that a task which has already fired but not yet run will
// never execute. That guarantee is what keeps bot actions from landing on
// a round that has ended.
type Scope struct {
	mu        sync.Mutex
	timers    map[int]*time.Timer
	nextID    int
	cancelled bool
}

func NewScope() *Scope {
	return &Scope{timers: make(map[int]*time.Timer)}
}

// Schedule runs fn after d, unless the scope is cancelled first. After
// cancellation Schedule is a no-op, so self-rescheduling loops terminate
// on their next tick.
func (sc *Scope) Schedule(d time.Duration, fn func()) {
	sc.mu.Lock()
	if sc.cancelled {
		sc.mu.Unlock()
		return
	}
	id := sc.nextID
	sc.nextID++

	timer := time.AfterFunc(d, func() {
		// A timer that fires while Cancel holds the lock parks here and
		// then sees cancelled; its side effect never happens.
		sc.mu.Lock()
		if sc.cancelled {
			sc.mu.Unlock()
			return
		}
		delete(sc.timers, id)
		sc.mu.Unlock()
		fn()
	})
	sc.timers[id] = timer
	sc.mu.Unlock()
}

// Cancel stops every pending timer and marks the scope dead.
func (sc *Scope) Cancel() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cancelled = true
	for id, t := range sc.timers {
		t.Stop()
		delete(sc.timers, id)
	}
}

// Cancelled reports whether Cancel has been called.
func (sc *Scope) Cancelled() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.cancelled
}

// Pending returns the number of timers not yet fired or cancelled.
func (sc *Scope) Pending() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.timers)
}
