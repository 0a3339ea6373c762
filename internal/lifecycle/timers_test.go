package lifecycle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/draftkeep/draftkeep/internal/draft"
)

func TestTimerTable_ScheduleFires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := newTimerTable(clock)
	key := draft.NewContextKey("c1")

	var fired atomic.Int32
	table.Schedule(purposeFlush, key, 500*time.Millisecond, func() {
		fired.Add(1)
	})

	if !table.Active(purposeFlush, key) {
		t.Fatal("timer should be armed after Schedule")
	}

	clock.Advance(600 * time.Millisecond)
	waitFor(t, "timer to fire", func() bool { return fired.Load() == 1 })

	if table.Active(purposeFlush, key) {
		t.Error("fired timer should leave the table")
	}
}

func TestTimerTable_ScheduleReplacesPrior(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := newTimerTable(clock)
	key := draft.NewContextKey("c1")

	var first, second atomic.Int32
	table.Schedule(purposeFlush, key, 500*time.Millisecond, func() { first.Add(1) })
	table.Schedule(purposeFlush, key, 500*time.Millisecond, func() { second.Add(1) })

	if table.Len() != 1 {
		t.Fatalf("Len = %d, want the slot replaced, not duplicated", table.Len())
	}

	clock.Advance(time.Second)
	waitFor(t, "replacement to fire", func() bool { return second.Load() == 1 })

	if first.Load() != 0 {
		t.Error("superseded timer must never run")
	}
}

func TestTimerTable_CancelPreventsFiring(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := newTimerTable(clock)
	key := draft.NewContextKey("c1")

	var fired atomic.Int32
	table.Schedule(purposeFlush, key, 500*time.Millisecond, func() { fired.Add(1) })
	table.Cancel(purposeFlush, key)

	clock.Advance(time.Second)

	if fired.Load() != 0 {
		t.Error("cancelled timer must never run")
	}
	if table.Active(purposeFlush, key) {
		t.Error("cancelled timer should leave the table")
	}
}

func TestTimerTable_SlotsAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := newTimerTable(clock)
	k1 := draft.NewContextKey("c1")
	k2 := draft.NewContextKey("c2")

	var fromK1, fromK2, restoreK1 atomic.Int32
	table.Schedule(purposeFlush, k1, 500*time.Millisecond, func() { fromK1.Add(1) })
	table.Schedule(purposeFlush, k2, 500*time.Millisecond, func() { fromK2.Add(1) })
	table.Schedule(purposeRestore, k1, 500*time.Millisecond, func() { restoreK1.Add(1) })

	if table.Len() != 3 {
		t.Fatalf("Len = %d, want 3 independent slots", table.Len())
	}

	table.Cancel(purposeFlush, k1)
	clock.Advance(time.Second)

	waitFor(t, "other slots to fire", func() bool {
		return fromK2.Load() == 1 && restoreK1.Load() == 1
	})
	if fromK1.Load() != 0 {
		t.Error("cancel must only affect its own slot")
	}
}

func TestTimerTable_CancelAll(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := newTimerTable(clock)

	var fired atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		table.Schedule(purposeFlush, draft.NewContextKey(id), 500*time.Millisecond, func() {
			fired.Add(1)
		})
	}
	table.CancelAll()

	clock.Advance(time.Second)

	if fired.Load() != 0 {
		t.Errorf("fired = %d, want 0 after CancelAll", fired.Load())
	}
	if table.Len() != 0 {
		t.Errorf("Len = %d, want empty table", table.Len())
	}
}

func TestTimerTable_ReschedulingFromCallback(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := newTimerTable(clock)

	// Repeating loops reschedule themselves from inside the callback
	var ticks atomic.Int32
	var tick func()
	tick = func() {
		if ticks.Load() < 2 {
			table.Schedule(purposeIdleCheck, draft.ContextKey{}, 500*time.Millisecond, tick)
		}
		ticks.Add(1)
	}
	table.Schedule(purposeIdleCheck, draft.ContextKey{}, 500*time.Millisecond, tick)

	for i := 0; i < 3; i++ {
		clock.Advance(500 * time.Millisecond)
		want := int32(i + 1)
		waitFor(t, "tick", func() bool { return ticks.Load() == want })
	}
}

func TestSessionState_JustSentWindow(t *testing.T) {
	var s sessionState
	base := time.UnixMilli(1_700_000_000_000)

	if s.JustSent(base) {
		t.Error("no window should be open initially")
	}

	s.MarkJustSent(base.Add(500 * time.Millisecond))
	if !s.JustSent(base.Add(499 * time.Millisecond)) {
		t.Error("window should be open before the deadline")
	}
	if s.JustSent(base.Add(500 * time.Millisecond)) {
		t.Error("window should be closed at the deadline")
	}

	s.ClearJustSent()
	if s.JustSent(base) {
		t.Error("window should be closed after clearing")
	}
}

func TestSessionState_ArmDisarm(t *testing.T) {
	var s sessionState
	now := time.UnixMilli(1_700_000_000_000)

	if s.Armed() {
		t.Error("detector should start idle")
	}
	s.Arm(now)
	if !s.Armed() {
		t.Error("detector should be armed")
	}
	s.Disarm()
	if s.Armed() {
		t.Error("detector should be idle after disarm")
	}
}

func TestSessionState_Transition(t *testing.T) {
	var s sessionState

	s.BeginTransition()
	if !s.Transitioning() {
		t.Error("transition flag should be set")
	}
	s.EndTransition()
	if s.Transitioning() {
		t.Error("transition flag should be cleared")
	}
}
