package lifecycle

import (
	"context"
	"strings"

	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/draft"
)

// ContentChanged captures the current editor content for the active context.
// The capture itself is never delayed; only the store flush is debounced.
// Empty content is routed to the disambiguator instead of being persisted.
func (m *Manager) ContentChanged(plainText, richContent string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.current.Zero() {
		return
	}

	now := m.clock.Now()
	if m.session.Transitioning() {
		// Mid-switch content belongs to neither context reliably.
		return
	}
	if m.session.JustSent(now) {
		// In-flight events from a confirmed send must not resurrect the draft.
		return
	}

	key := m.current

	if strings.TrimSpace(plainText) == "" {
		m.contentBecameEmptyLocked(key)
		return
	}

	// Typing again while the empty-editor decision is pending discards the
	// pending entry without action.
	m.discardProcessingLocked(key)

	m.cache = &cacheEntry{
		key:        key,
		plain:      plainText,
		rich:       richContent,
		capturedAt: now,
	}
	m.scheduleFlushLocked(key)
}

// contentBecameEmptyLocked handles the non-empty-to-empty transition: the
// held content moves into a processing entry and the send detector arms.
func (m *Manager) contentBecameEmptyLocked(key draft.ContextKey) {
	if m.cache == nil || m.cache.key != key || strings.TrimSpace(m.cache.plain) == "" {
		// No tracked content emptied; nothing to disambiguate.
		return
	}

	entry := m.cache
	m.cache = nil
	m.timers.Cancel(purposeFlush, key)

	m.enterProcessingLocked(key, entry.plain, entry.rich)
	m.armLocked()
}

// FlushNow synchronously writes the cache entry for the active context, if
// any. Returns whether a write occurred. Exposed for host shutdown paths.
func (m *Manager) FlushNow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		return false
	}
	return m.flushNowLocked(m.cache.key)
}

// flushNowLocked writes the cache entry for key to the persistent store.
// Empty content is never flushed; emptiness is handled exclusively by the
// disambiguator. Store failures are logged and swallowed so the next capture
// can try again.
func (m *Manager) flushNowLocked(key draft.ContextKey) bool {
	m.timers.Cancel(purposeFlush, key)

	if m.cache == nil || m.cache.key != key || strings.TrimSpace(m.cache.plain) == "" {
		return false
	}

	rec := &draft.Record{
		Key:                    key,
		RichContent:            m.cache.rich,
		PlainText:              m.cache.plain,
		Timestamp:              m.cache.capturedAt.UnixMilli(),
		ParentMessageTimestamp: m.parentTimestampLocked(key),
	}

	if err := db.Upsert(m.store, rec); err != nil {
		m.log.WithError(err).WithField("context", key.String()).Warn("draft flush failed")
		return false
	}

	m.log.WithField("context", key.String()).Debug("draft flushed")
	m.notifyCountLocked()
	return true
}

// scheduleFlushLocked arms the debounced flush. A subsequent capture or
// direct flush for the same context cancels and replaces it.
func (m *Manager) scheduleFlushLocked(key draft.ContextKey) {
	m.timers.Schedule(purposeFlush, key, m.cfg.SaveDebounce(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			return
		}
		m.flushNowLocked(key)
	})
}

// parentTimestampLocked resolves the parent-message timestamp for threaded
// contexts, best effort. Hits are cached per thread; misses store absent and
// never fail the flush.
func (m *Manager) parentTimestampLocked(key draft.ContextKey) *int64 {
	if !key.IsThread() {
		return nil
	}
	if ts, ok := m.parentTS[key.ThreadID]; ok {
		return &ts
	}
	if m.lookup == nil {
		return nil
	}

	ts, err := m.lookup(context.Background(), key.ThreadID)
	if err != nil || ts == 0 {
		if err != nil {
			m.log.WithError(err).WithField("thread", key.ThreadID).Debug("parent timestamp lookup missed")
		}
		return nil
	}

	m.parentTS[key.ThreadID] = ts
	return &ts
}
