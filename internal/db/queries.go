package db

import (
	"database/sql"

	"github.com/draftkeep/draftkeep/internal/draft"
	"github.com/draftkeep/draftkeep/internal/errors"
)

// Upsert stores a draft record, replacing any existing record for the same
// context key. Writes are always whole-record replacements; there is no
// partial-merge path that could leave an inconsistent row.
func Upsert(db *sql.DB, r *draft.Record) error {
	if r.Key.ConversationID == "" {
		return errors.NewInvalidContext("conversation id is required")
	}

	query := `
		INSERT INTO drafts (
			conversation_id, thread_id, rich_content, plain_text,
			timestamp, parent_message_ts, pending_deletion_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, thread_id) DO UPDATE SET
			rich_content = excluded.rich_content,
			plain_text = excluded.plain_text,
			timestamp = excluded.timestamp,
			parent_message_ts = excluded.parent_message_ts,
			pending_deletion_at = excluded.pending_deletion_at
	`

	_, err := db.Exec(query,
		r.Key.ConversationID, r.Key.ThreadID, r.RichContent, r.PlainText,
		r.Timestamp, toNullInt64(r.ParentMessageTimestamp), toNullInt64(r.PendingDeletionAt),
	)
	if err != nil {
		return errors.NewStoreFailure(err)
	}

	return nil
}

// Get retrieves the draft record for a context key.
func Get(db *sql.DB, key draft.ContextKey) (*draft.Record, error) {
	query := `
		SELECT conversation_id, thread_id, rich_content, plain_text,
			timestamp, parent_message_ts, pending_deletion_at
		FROM drafts
		WHERE conversation_id = ? AND thread_id = ?
	`

	row := db.QueryRow(query, key.ConversationID, key.ThreadID)
	r, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(key.String())
	}
	if err != nil {
		return nil, errors.NewStoreFailure(err)
	}

	return r, nil
}

// GetAll retrieves every draft record, newest capture first.
// If includePending is false, records in a deletion grace period are excluded.
func GetAll(db *sql.DB, includePending bool) ([]*draft.Record, error) {
	query := `
		SELECT conversation_id, thread_id, rich_content, plain_text,
			timestamp, parent_message_ts, pending_deletion_at
		FROM drafts
	`
	if !includePending {
		query += " WHERE pending_deletion_at IS NULL"
	}
	query += " ORDER BY timestamp DESC"

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewStoreFailure(err)
	}
	defer rows.Close()

	var records []*draft.Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, errors.NewStoreFailure(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailure(err)
	}

	return records, nil
}

// Delete permanently removes the draft record for a context key.
// Deleting a missing record is not an error; the caller only cares that the
// record is gone.
func Delete(db *sql.DB, key draft.ContextKey) error {
	query := `DELETE FROM drafts WHERE conversation_id = ? AND thread_id = ?`

	if _, err := db.Exec(query, key.ConversationID, key.ThreadID); err != nil {
		return errors.NewStoreFailure(err)
	}

	return nil
}

// MarkPendingDeletion sets the deletion grace deadline on an existing record.
func MarkPendingDeletion(db *sql.DB, key draft.ContextKey, deleteAt int64) error {
	query := `
		UPDATE drafts
		SET pending_deletion_at = ?
		WHERE conversation_id = ? AND thread_id = ?
	`

	result, err := db.Exec(query, deleteAt, key.ConversationID, key.ThreadID)
	if err != nil {
		return errors.NewStoreFailure(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStoreFailure(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(key.String())
	}

	return nil
}

// PurgeExpired permanently deletes records whose deletion grace period has
// elapsed. Returns the number of records removed.
func PurgeExpired(db *sql.DB, now int64) (int, error) {
	query := `
		DELETE FROM drafts
		WHERE pending_deletion_at IS NOT NULL AND pending_deletion_at <= ?
	`

	result, err := db.Exec(query, now)
	if err != nil {
		return 0, errors.NewStoreFailure(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewStoreFailure(err)
	}

	return int(rowsAffected), nil
}

// Count returns the number of draft records.
// If includePending is false, records in a deletion grace period are excluded.
func Count(db *sql.DB, includePending bool) (int, error) {
	query := `SELECT COUNT(*) FROM drafts`
	if !includePending {
		query += " WHERE pending_deletion_at IS NULL"
	}

	var count int
	if err := db.QueryRow(query).Scan(&count); err != nil {
		return 0, errors.NewStoreFailure(err)
	}

	return count, nil
}

// CountByConversation returns per-conversation record counts, including
// grace-period records.
func CountByConversation(db *sql.DB) (map[string]int, error) {
	query := `
		SELECT conversation_id, COUNT(*)
		FROM drafts
		GROUP BY conversation_id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewStoreFailure(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var conv string
		var n int
		if err := rows.Scan(&conv, &n); err != nil {
			return nil, errors.NewStoreFailure(err)
		}
		counts[conv] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreFailure(err)
	}

	return counts, nil
}

// scanRecord scans a single row into a Record. The scan argument lets it
// serve both sql.Row and sql.Rows.
func scanRecord(scan func(dest ...any) error) (*draft.Record, error) {
	var (
		r         draft.Record
		parentTS  sql.NullInt64
		pendingAt sql.NullInt64
	)

	err := scan(
		&r.Key.ConversationID, &r.Key.ThreadID, &r.RichContent, &r.PlainText,
		&r.Timestamp, &parentTS, &pendingAt,
	)
	if err != nil {
		return nil, err
	}

	r.ParentMessageTimestamp = fromNullInt64(parentTS)
	r.PendingDeletionAt = fromNullInt64(pendingAt)

	return &r, nil
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

// fromNullInt64 converts a sql.NullInt64 to *int64.
func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
