package lifecycle

import (
	"context"
	"strings"

	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/draft"
	"github.com/draftkeep/draftkeep/internal/errors"
)

// SwitchContext moves the manager to a new conversation context: it resolves
// any pending empty-editor entry for the old context, flushes the old
// context's unsent content, and schedules a restore attempt for the new one.
// Switching to the already-active context is a no-op.
func (m *Manager) SwitchContext(newKey draft.ContextKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || newKey == m.current {
		return
	}

	old := m.current
	now := m.clock.Now()

	m.session.BeginTransition()
	m.timers.Cancel(purposeTransition, draft.ContextKey{})

	// The old context's abandoned empty-editor entry persists, never deletes.
	m.finalizeLocked(old, markerContextChange)

	if m.cache != nil && m.cache.key == old && !m.session.JustSent(now) {
		m.flushNowLocked(old)
	}
	m.cache = nil
	m.timers.Cancel(purposeFlush, old)
	m.timers.Cancel(purposeRestore, old)

	m.current = newKey
	m.log.WithFields(map[string]any{
		"from": old.String(),
		"to":   newKey.String(),
	}).Debug("context switched")

	if newKey.Zero() {
		// No destination surface; nothing to restore.
		m.session.EndTransition()
		return
	}

	// A rapid second switch supersedes this timer; the stale restore never runs.
	m.timers.Schedule(purposeRestore, newKey, m.cfg.RestoreDelay(), func() {
		m.restore(newKey)
	})
}

// restore writes the persisted draft for key back into the editor surface,
// unless the surface already holds content: presence always wins over
// restoration. Runs without the manager lock across editor calls, and
// re-validates the active context after every await.
func (m *Manager) restore(key draft.ContextKey) {
	log := m.log.WithField("context", key.String())

	state, err := m.surface.ReadState(context.Background())
	if err != nil {
		log.WithError(err).Warn("editor read failed, restore skipped")
		m.endTransitionNow(key)
		return
	}
	if !state.Empty() {
		// The user already typed something; never overwrite it.
		log.Debug("editor has live content, restore skipped")
		m.endTransitionNow(key)
		return
	}

	m.mu.Lock()
	if m.closed || m.current != key {
		m.mu.Unlock()
		return
	}
	rec, err := db.Get(m.store, key)
	m.mu.Unlock()

	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			log.WithError(err).Warn("draft read failed, restore skipped")
		}
		m.endTransitionNow(key)
		return
	}
	if rec.PendingDeletion() || strings.TrimSpace(rec.PlainText) == "" {
		// Grace-period drafts were cleared on purpose until proven otherwise.
		m.endTransitionNow(key)
		return
	}

	if err := m.surface.WriteState(context.Background(), rec.RichContent); err != nil {
		log.WithError(err).Warn("editor write failed, restore abandoned")
		m.endTransitionNow(key)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.current != key {
		return
	}

	// Capture the restored content back so a sudden switch away flushes it.
	m.cache = &cacheEntry{
		key:        key,
		plain:      rec.PlainText,
		rich:       rec.RichContent,
		capturedAt: m.clock.Now(),
	}
	log.Info("draft restored into editor")

	m.timers.Schedule(purposeTransition, draft.ContextKey{}, m.cfg.TransitionClear(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.session.EndTransition()
	})
}

// endTransitionNow clears the transitioning flag immediately; used when a
// restore attempt ends without writing anything. The flag belongs to the
// most recent switch: a stale restore whose context is no longer active must
// leave it alone.
func (m *Manager) endTransitionNow(key draft.ContextKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.current != key {
		return
	}
	m.timers.Cancel(purposeTransition, draft.ContextKey{})
	m.session.EndTransition()
}
