package lifecycle

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/draftkeep/draftkeep/internal/draft"
)

// timerPurpose names the scheduled action a timer performs.
type timerPurpose string

const (
	purposeFlush      timerPurpose = "flush"
	purposeRestore    timerPurpose = "restore"
	purposeDisarm     timerPurpose = "disarm"
	purposeProcessing timerPurpose = "processing"
	purposeTransition timerPurpose = "transition"
	purposeIdleCheck  timerPurpose = "idleCheck"
	purposeSweep      timerPurpose = "sweep"
)

// timerKey identifies one scheduling slot. Global loops use the zero
// ContextKey.
type timerKey struct {
	purpose timerPurpose
	context draft.ContextKey
}

// timerTable owns every scheduled action. Scheduling a timer for a key
// implicitly cancels any prior timer for that exact key, and each armed
// timer carries a generation token checked before its body runs, so a
// late-firing superseded timer is a guaranteed no-op.
type timerTable struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[timerKey]*timerEntry
}

type timerEntry struct {
	gen   uint64
	timer clockwork.Timer
}

func newTimerTable(clock clockwork.Clock) *timerTable {
	return &timerTable{
		clock:   clock,
		entries: make(map[timerKey]*timerEntry),
	}
}

// Schedule arms fn to run after d, replacing any timer already armed for
// (purpose, context).
func (t *timerTable) Schedule(purpose timerPurpose, context draft.ContextKey, d time.Duration, fn func()) {
	k := timerKey{purpose: purpose, context: context}

	t.mu.Lock()
	defer t.mu.Unlock()

	var gen uint64 = 1
	if prev, ok := t.entries[k]; ok {
		prev.timer.Stop()
		gen = prev.gen + 1
	}

	entry := &timerEntry{gen: gen}
	entry.timer = t.clock.AfterFunc(d, func() {
		if !t.claim(k, gen) {
			return
		}
		fn()
	})
	t.entries[k] = entry
}

// claim removes the table entry if it still belongs to the firing timer.
// A false return means the timer was superseded or cancelled after firing
// was already committed.
func (t *timerTable) claim(k timerKey, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[k]
	if !ok || entry.gen != gen {
		return false
	}
	delete(t.entries, k)
	return true
}

// Cancel discards the timer for (purpose, context) without running it.
func (t *timerTable) Cancel(purpose timerPurpose, context draft.ContextKey) {
	k := timerKey{purpose: purpose, context: context}

	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.entries[k]; ok {
		entry.timer.Stop()
		delete(t.entries, k)
	}
}

// CancelAll discards every armed timer.
func (t *timerTable) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, k)
	}
}

// Active reports whether a timer is armed for (purpose, context).
func (t *timerTable) Active(purpose timerPurpose, context draft.ContextKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[timerKey{purpose: purpose, context: context}]
	return ok
}

// Len returns the number of armed timers (for tests).
func (t *timerTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
