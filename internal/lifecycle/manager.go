// Package lifecycle implements the draft lifecycle manager: it tracks the
// active conversation context, captures and debounces draft persistence,
// disambiguates editor-became-empty events, correlates independent
// message-sent signals with the tracked draft, and sweeps expired
// grace-period records.
//
// The concurrency model is cooperative: one mutex guards all manager state,
// every inbound signal and timer callback takes it, and cross-boundary
// editor calls never happen while it is held. Timers live in a table keyed
// by (purpose, context); scheduling replaces, and superseded timers are
// guaranteed no-ops.
package lifecycle

import (
	"context"
	"crypto/rand"
	"database/sql"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/draftkeep/draftkeep/internal/config"
	"github.com/draftkeep/draftkeep/internal/db"
	"github.com/draftkeep/draftkeep/internal/draft"
	"github.com/draftkeep/draftkeep/internal/editor"
)

// ParentTimestampFunc is a best-effort lookup of a thread's parent-message
// timestamp (epoch ms). Implementations must not panic; any failure is
// reported as an error and stored as absent.
type ParentTimestampFunc func(ctx context.Context, threadID string) (int64, error)

// Options configures a Manager. DB, Config, Clock, and Surface are required;
// everything else is optional.
type Options struct {
	DB      *sql.DB
	Config  *config.Config
	Clock   clockwork.Clock
	Surface editor.Surface
	Logger  logrus.FieldLogger

	// AssistanceEnabled reports the accidental-deletion assistance setting.
	// Nil means disabled.
	AssistanceEnabled func() bool

	// ParentLookup resolves a thread's parent-message timestamp. Nil means
	// the timestamp is always stored as absent.
	ParentLookup ParentTimestampFunc

	// NotifyDraftCount is a fire-and-forget UI hook invoked after store
	// mutations with the count of non-pending records. It must return
	// quickly and must not call back into the Manager.
	NotifyDraftCount func(count int)
}

// cacheEntry is the single most recent capture for the context that was
// active at capture time. It is not debounced; only its flush is.
type cacheEntry struct {
	key        draft.ContextKey
	plain      string
	rich       string
	capturedAt time.Time
}

// Manager owns the draft lifecycle for one host session.
type Manager struct {
	store      *sql.DB
	cfg        *config.Config
	clock      clockwork.Clock
	surface    editor.Surface
	log        logrus.FieldLogger
	assistance func() bool
	lookup     ParentTimestampFunc
	notify     func(count int)
	sessionID  string

	mu         sync.Mutex
	current    draft.ContextKey
	cache      *cacheEntry
	processing map[draft.ContextKey]*processingEntry
	parentTS   map[string]int64 // threadID -> resolved parent timestamp
	session    sessionState
	timers     *timerTable
	closed     bool
}

// New creates a Manager. Call Start to begin the idle-check and sweep loops.
func New(opts Options) *Manager {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	sessionID := newSessionID(clock)

	return &Manager{
		store:      opts.DB,
		cfg:        cfg,
		clock:      clock,
		surface:    opts.Surface,
		log:        logger.WithFields(logrus.Fields{"component": "lifecycle", "session": sessionID}),
		assistance: opts.AssistanceEnabled,
		lookup:     opts.ParentLookup,
		notify:     opts.NotifyDraftCount,
		sessionID:  sessionID,
		processing: make(map[draft.ContextKey]*processingEntry),
		parentTS:   make(map[string]int64),
		timers:     newTimerTable(clock),
	}
}

// Start launches the background idle-check and sweep loops.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.scheduleIdleCheckLocked()
	m.scheduleSweepLocked()
	m.log.Info("draft lifecycle manager started")
}

// Close flushes the current cache entry and stops all timers. The Manager
// must not be used afterward.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.cache != nil && !m.session.JustSent(m.clock.Now()) {
		m.flushNowLocked(m.cache.key)
	}
	m.timers.CancelAll()
	m.closed = true
	m.log.Info("draft lifecycle manager stopped")
}

// SessionID returns the ULID identifying this manager instance in logs.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// CurrentContext returns the active context key.
func (m *Manager) CurrentContext() draft.ContextKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CachedText returns the memory-cached plain text and whether a cache entry
// exists.
func (m *Manager) CachedText() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil {
		return "", false
	}
	return m.cache.plain, true
}

// Transitioning reports whether a context switch is in progress.
func (m *Manager) Transitioning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Transitioning()
}

// Armed reports whether the send detector is armed.
func (m *Manager) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Armed()
}

// JustSent reports whether the post-send suppression window is active.
func (m *Manager) JustSent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.JustSent(m.clock.Now())
}

// HasProcessing reports whether the context has an unresolved
// editor-became-empty entry.
func (m *Manager) HasProcessing(key draft.ContextKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.processing[key]
	return ok
}

// ManualDelete removes a draft explicitly, on behalf of a management
// surface. The record, any cache entry, and any pending empty-editor
// resolution for the key are all discarded.
func (m *Manager) ManualDelete(key draft.ContextKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := db.Delete(m.store, key); err != nil {
		m.log.WithError(err).WithField("context", key.String()).Warn("manual delete failed")
		return err
	}

	if m.cache != nil && m.cache.key == key {
		m.cache = nil
		m.timers.Cancel(purposeFlush, key)
	}
	m.finalizeLocked(key, markerManualDelete)

	m.log.WithField("context", key.String()).Info("draft manually deleted")
	m.notifyCountLocked()
	return nil
}

// notifyCountLocked invokes the draft-count hook with the current number of
// non-pending records. Failures to count are logged and swallowed.
func (m *Manager) notifyCountLocked() {
	if m.notify == nil {
		return
	}
	count, err := db.Count(m.store, false)
	if err != nil {
		m.log.WithError(err).Warn("draft count query failed")
		return
	}
	m.notify(count)
}

// nowMs returns the current clock time in epoch milliseconds.
func (m *Manager) nowMs() int64 {
	return m.clock.Now().UnixMilli()
}

// newSessionID generates a ULID from the manager's clock.
func newSessionID(clock clockwork.Clock) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(clock.Now()), entropy)
	if err != nil {
		// rand.Reader never fails in practice; fall back to a zero ULID
		return ulid.ULID{}.String()
	}
	return id.String()
}
