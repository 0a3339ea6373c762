package lifecycle

import "time"

// sessionState holds the ambient flags of the lifecycle state machine as
// named, timestamped fields. Expiry is encapsulated here so call sites never
// compare deadlines themselves. Guarded by Manager.mu.
type sessionState struct {
	transitioning bool
	justSentUntil time.Time // zero means no suppression window
	armed         bool
	armedAt       time.Time
}

// BeginTransition sets the exclusive context-switch flag.
func (s *sessionState) BeginTransition() {
	s.transitioning = true
}

// EndTransition clears the context-switch flag.
func (s *sessionState) EndTransition() {
	s.transitioning = false
}

// Transitioning reports whether a context switch is in progress.
func (s *sessionState) Transitioning() bool {
	return s.transitioning
}

// MarkJustSent opens the post-send suppression window.
func (s *sessionState) MarkJustSent(until time.Time) {
	s.justSentUntil = until
}

// JustSent reports whether the suppression window is still open.
func (s *sessionState) JustSent(now time.Time) bool {
	return !s.justSentUntil.IsZero() && now.Before(s.justSentUntil)
}

// ClearJustSent closes the suppression window.
func (s *sessionState) ClearJustSent() {
	s.justSentUntil = time.Time{}
}

// Arm transitions the send detector to ARMED.
func (s *sessionState) Arm(now time.Time) {
	s.armed = true
	s.armedAt = now
}

// Disarm transitions the send detector back to IDLE.
func (s *sessionState) Disarm() {
	s.armed = false
	s.armedAt = time.Time{}
}

// Armed reports whether the send detector is armed.
func (s *sessionState) Armed() bool {
	return s.armed
}
