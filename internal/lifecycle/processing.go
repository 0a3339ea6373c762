package lifecycle

import (
	"time"

	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/draft"
)

// marker is the reason code that resolves a processing entry.
type marker string

const (
	markerSent          marker = "sent"
	markerManualDelete  marker = "manualDelete"
	markerContextChange marker = "contextChange"
	markerIdle          marker = "idle"
	markerTimeout       marker = "timeout"
)

// processingEntry defers the delete-or-keep decision for a context whose
// editor content became empty. It holds the content as captured at entry;
// the live surface may already show a different context by the time the
// entry resolves.
type processingEntry struct {
	key       draft.ContextKey
	plain     string
	rich      string
	enteredAt time.Time
}

// enterProcessingLocked records the emptied content and starts the hard
// resolution deadline. The idle-check loop may resolve it sooner.
func (m *Manager) enterProcessingLocked(key draft.ContextKey, plain, rich string) {
	m.processing[key] = &processingEntry{
		key:       key,
		plain:     plain,
		rich:      rich,
		enteredAt: m.clock.Now(),
	}

	m.timers.Schedule(purposeProcessing, key, m.cfg.ProcessingTimeout(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			return
		}
		m.finalizeLocked(key, markerTimeout)
	})

	m.log.WithField("context", key.String()).Debug("editor emptied, resolution deferred")
}

// discardProcessingLocked drops the pending entry without resolving it.
// Used when the user resumes typing before any decision was due.
func (m *Manager) discardProcessingLocked(key draft.ContextKey) {
	if _, ok := m.processing[key]; !ok {
		return
	}
	delete(m.processing, key)
	m.timers.Cancel(purposeProcessing, key)
	m.log.WithField("context", key.String()).Debug("empty-editor entry discarded, typing resumed")
}

// finalizeLocked resolves a pending entry in strict priority order:
//
//  1. a confirmed send deletes the record, regardless of anything else;
//  2. a manual delete already removed the record, nothing to do;
//  3. a context change means the content was abandoned mid-edit, not
//     deleted on purpose, so it persists as a normal draft;
//  4. otherwise the emptiness stands: grace-persist when accidental-deletion
//     assistance is enabled, delete immediately when it is not.
//
// Finalizing a key with no pending entry is a no-op.
func (m *Manager) finalizeLocked(key draft.ContextKey, reason marker) {
	entry, ok := m.processing[key]
	if !ok {
		return
	}
	delete(m.processing, key)
	m.timers.Cancel(purposeProcessing, key)

	now := m.clock.Now()
	log := m.log.WithFields(map[string]any{"context": key.String(), "marker": string(reason)})

	switch {
	case reason == markerSent || m.session.JustSent(now):
		if err := db.Delete(m.store, key); err != nil {
			log.WithError(err).Warn("post-send draft delete failed")
		} else {
			log.Info("empty editor resolved: message sent, draft deleted")
		}
		m.notifyCountLocked()

	case reason == markerManualDelete:
		// Caller already removed the record explicitly.
		log.Debug("empty editor resolved: manual delete")

	case reason == markerContextChange || m.current != key:
		// Content from entry time, not a live re-read: the surface now
		// belongs to the new context.
		rec := &draft.Record{
			Key:                    key,
			RichContent:            entry.rich,
			PlainText:              entry.plain,
			Timestamp:              now.UnixMilli(),
			ParentMessageTimestamp: m.parentTimestampLocked(key),
		}
		if err := db.Upsert(m.store, rec); err != nil {
			log.WithError(err).Warn("abandoned draft persist failed")
		} else {
			log.Info("empty editor resolved: context changed, draft kept")
		}
		m.notifyCountLocked()

	default:
		if m.assistance != nil && m.assistance() {
			deleteAt := now.UnixMilli() + int64(m.cfg.PendingDeletionGraceMs)

			// When the debounce already flushed this exact content, keep the
			// record and its capture timestamp and only arm the deadline. A
			// missing or stale row gets the held content written instead.
			var err error
			if existing, getErr := db.Get(m.store, key); getErr == nil && existing.PlainText == entry.plain {
				err = db.MarkPendingDeletion(m.store, key, deleteAt)
			} else {
				err = db.Upsert(m.store, &draft.Record{
					Key:                    key,
					RichContent:            entry.rich,
					PlainText:              entry.plain,
					Timestamp:              now.UnixMilli(),
					ParentMessageTimestamp: m.parentTimestampLocked(key),
					PendingDeletionAt:      &deleteAt,
				})
			}
			if err != nil {
				log.WithError(err).Warn("grace-period persist failed")
			} else {
				log.Info("empty editor resolved: draft kept under deletion grace")
			}
		} else {
			if err := db.Delete(m.store, key); err != nil {
				log.WithError(err).Warn("cleared draft delete failed")
			} else {
				log.Info("empty editor resolved: draft deleted")
			}
		}
		m.notifyCountLocked()
	}
}

// scheduleIdleCheckLocked runs the periodic idle resolution pass. An entry
// resolves via idle once it has sat past the idle threshold with its context
// still active; navigating away leaves resolution to the context-change or
// timeout paths.
func (m *Manager) scheduleIdleCheckLocked() {
	m.timers.Schedule(purposeIdleCheck, draft.ContextKey{}, m.cfg.IdleCheckInterval(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			return
		}

		now := m.clock.Now()
		var due []draft.ContextKey
		for key, entry := range m.processing {
			if now.Sub(entry.enteredAt) > m.cfg.IdleThreshold() && m.current == key {
				due = append(due, key)
			}
		}
		for _, key := range due {
			m.finalizeLocked(key, markerIdle)
		}

		m.scheduleIdleCheckLocked()
	})
}
