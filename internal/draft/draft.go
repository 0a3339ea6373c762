// Package draft defines the core draft data model: context keys, persisted
// records, text normalization, and the similarity matcher used to correlate
// sent-message signals with tracked drafts.
package draft

import (
	"regexp"
	"strings"
)

// ContextKey identifies the conversation (plus optional thread) a draft
// belongs to. An empty ThreadID means the top-level conversation. Two keys
// are equal iff both components match exactly.
type ContextKey struct {
	ConversationID string
	ThreadID       string
}

// NewContextKey builds a key for a top-level conversation.
func NewContextKey(conversationID string) ContextKey {
	return ContextKey{ConversationID: conversationID}
}

// NewThreadKey builds a key for a thread within a conversation.
func NewThreadKey(conversationID, threadID string) ContextKey {
	return ContextKey{ConversationID: conversationID, ThreadID: threadID}
}

// Zero reports whether the key is the zero value (no active context).
func (k ContextKey) Zero() bool {
	return k.ConversationID == "" && k.ThreadID == ""
}

// IsThread reports whether the key addresses a thread rather than the
// top-level conversation.
func (k ContextKey) IsThread() bool {
	return k.ThreadID != ""
}

// String renders the composite key, "conv" or "conv:thread".
func (k ContextKey) String() string {
	if k.ThreadID == "" {
		return k.ConversationID
	}
	return k.ConversationID + ":" + k.ThreadID
}

// ParseContextKey is the inverse of String. Input with more than one
// separator keeps everything after the first colon as the thread id.
func ParseContextKey(s string) ContextKey {
	conv, thread, _ := strings.Cut(s, ":")
	return ContextKey{ConversationID: conv, ThreadID: thread}
}

// Record is the durable representation of one unsent message for one
// ContextKey. RichContent is opaque to this module; PlainText is what
// similarity matching and emptiness checks operate on.
type Record struct {
	Key                    ContextKey
	RichContent            string
	PlainText              string
	Timestamp              int64  // epoch ms of the capture this record reflects
	ParentMessageTimestamp *int64 // epoch ms, best-effort thread anchor
	PendingDeletionAt      *int64 // epoch ms; non-nil means deletion grace period
}

// PendingDeletion reports whether the record is inside a deletion grace period.
func (r *Record) PendingDeletion() bool {
	return r.PendingDeletionAt != nil
}

// Empty reports whether the record carries no user text.
func (r *Record) Empty() bool {
	return strings.TrimSpace(r.PlainText) == ""
}

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize prepares text for similarity comparison:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}
