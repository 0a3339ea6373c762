package lifecycle

import (
	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/draft"
)

// scheduleSweepLocked runs the periodic reconciliation pass that permanently
// deletes records whose deletion grace period has expired. The sweep knows
// nothing about in-flight disambiguation; it only compares deadlines against
// the clock.
func (m *Manager) scheduleSweepLocked() {
	m.timers.Schedule(purposeSweep, draft.ContextKey{}, m.cfg.SweepInterval(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			return
		}

		m.sweepLocked()
		m.scheduleSweepLocked()
	})
}

// sweepLocked performs one reconciliation pass.
func (m *Manager) sweepLocked() {
	purged, err := db.PurgeExpired(m.store, m.nowMs())
	if err != nil {
		m.log.WithError(err).Warn("pending-deletion sweep failed")
		return
	}
	if purged > 0 {
		m.log.WithField("purged", purged).Info("expired drafts swept")
		m.notifyCountLocked()
	}
}
