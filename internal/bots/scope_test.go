package bots

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScopeRunsScheduledTask(t *testing.T) {
	sc := NewScope()
	done := make(chan struct{})

	sc.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never ran")
	}
}

func TestScopeCancelPreventsExecution(t *testing.T) {
	sc := NewScope()
	var fired atomic.Bool

	sc.Schedule(100*time.Millisecond, func() { fired.Store(true) })
	time.Sleep(20 * time.Millisecond)
	sc.Cancel()

	time.Sleep(200 * time.Millisecond)
	if fired.Load() {
		t.Fatal("task ran after scope was cancelled")
	}
	if sc.Pending() != 0 {
		t.Errorf("expected no pending timers after cancel, got %d", sc.Pending())
	}
}

func TestScopeScheduleAfterCancelIsNoop(t *testing.T) {
	sc := NewScope()
	sc.Cancel()

	var fired atomic.Bool
	sc.Schedule(1*time.Millisecond, func() { fired.Store(true) })

	time.Sleep(50 * time.Millisecond)
	if fired.Load() {
		t.Fatal("task scheduled after cancel must not run")
	}
	if !sc.Cancelled() {
		t.Error("scope should report cancelled")
	}
}

func TestScopeSelfReschedulingChainStops(t *testing.T) {
	sc := NewScope()
	var ticks atomic.Int64

	var loop func()
	loop = func() {
		sc.Schedule(5*time.Millisecond, func() {
			ticks.Add(1)
			loop()
		})
	}
	loop()

	time.Sleep(60 * time.Millisecond)
	sc.Cancel()
	settled := ticks.Load()

	time.Sleep(60 * time.Millisecond)
	if got := ticks.Load(); got != settled {
		t.Fatalf("chain kept ticking after cancel: %d then %d", settled, got)
	}
}
