// Package ops implements the operator-facing operations over the draft
// store: list, inspect, delete, purge, and stats. Each operation takes an
// Input struct and returns an Output struct suitable for JSON rendering.
package ops

import (
	"strings"

	"github.com/draftkeep/draftkeep/internal/draft"
	"github.com/draftkeep/draftkeep/internal/errors"
)

// RecordView is the JSON rendering of one draft record.
type RecordView struct {
	ContextKey             string `json:"context_key"`
	ConversationID         string `json:"conversation_id"`
	ThreadID               string `json:"thread_id,omitempty"`
	PlainText              string `json:"plain_text"`
	RichContent            string `json:"rich_content,omitempty"`
	Timestamp              int64  `json:"timestamp"`
	ParentMessageTimestamp *int64 `json:"parent_message_timestamp,omitempty"`
	PendingDeletionAt      *int64 `json:"pending_deletion_at,omitempty"`
}

// NewRecordView converts a record. includeRich controls whether the opaque
// rich form is carried along (list output omits it for brevity).
func NewRecordView(r *draft.Record, includeRich bool) RecordView {
	v := RecordView{
		ContextKey:             r.Key.String(),
		ConversationID:         r.Key.ConversationID,
		ThreadID:               r.Key.ThreadID,
		PlainText:              r.PlainText,
		Timestamp:              r.Timestamp,
		ParentMessageTimestamp: r.ParentMessageTimestamp,
		PendingDeletionAt:      r.PendingDeletionAt,
	}
	if includeRich {
		v.RichContent = r.RichContent
	}
	return v
}

// ParseKey validates and parses a composite context key argument.
func ParseKey(s string) (draft.ContextKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return draft.ContextKey{}, errors.NewInvalidContext("context key is required")
	}
	key := draft.ParseContextKey(s)
	if key.ConversationID == "" {
		return draft.ContextKey{}, errors.NewInvalidContext("context key must start with a conversation id")
	}
	return key, nil
}
