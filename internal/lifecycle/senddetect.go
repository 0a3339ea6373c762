package lifecycle

import (
	"strings"

	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/draft"
)

// MessageSent correlates a delivery-confirmation signal with the tracked
// draft and, on a match, treats the draft as delivered: the cache and the
// persisted record for the active context are cleared and a short
// suppression window absorbs any already-in-flight captures.
//
// The signal is honored whether or not the detector is armed; confirmation
// signals outrank the arming heuristic. Any of several independent sources
// may call this, and a second call is a no-op because the first already
// cleared everything. An empty sentText means the source had no message body
// to offer; the draft is cleared unconditionally.
func (m *Manager) MessageSent(sentText string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.current.Zero() {
		return
	}

	key := m.current
	now := m.clock.Now()

	if sentText != "" && m.cache != nil && m.cache.key == key && strings.TrimSpace(m.cache.plain) != "" {
		score := draft.Similarity(m.cache.plain, sentText)
		if score < m.cfg.SimilarityThreshold {
			// The sent message does not correspond to the tracked draft;
			// leave unrelated content alone.
			m.log.WithFields(map[string]any{
				"context":    key.String(),
				"similarity": score,
			}).Debug("sent text did not match tracked draft")
			return
		}
	}

	m.session.MarkJustSent(now.Add(m.cfg.JustSentSuppress()))

	if m.cache != nil {
		m.timers.Cancel(purposeFlush, m.cache.key)
		m.cache = nil
	}
	m.timers.Cancel(purposeFlush, key)

	if err := db.Delete(m.store, key); err != nil {
		m.log.WithError(err).WithField("context", key.String()).Warn("post-send draft delete failed")
	}

	m.disarmLocked()
	m.finalizeLocked(key, markerSent)

	m.log.WithField("context", key.String()).Info("draft cleared after send")
	m.notifyCountLocked()
}

// armLocked transitions the send detector to ARMED when the editor empties
// through ordinary typing. Without a confirmation within the arm window the
// detector reverts to idle: the user deleted everything by hand.
func (m *Manager) armLocked() {
	m.session.Arm(m.clock.Now())
	m.timers.Schedule(purposeDisarm, draft.ContextKey{}, m.cfg.SendArmTimeout(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.session.Disarm()
	})
}

// disarmLocked reverts the detector to IDLE and discards the arm timeout.
func (m *Manager) disarmLocked() {
	m.session.Disarm()
	m.timers.Cancel(purposeDisarm, draft.ContextKey{})
}
