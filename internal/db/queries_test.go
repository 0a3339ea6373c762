package db

import (
	"database/sql"
	"testing"

	"github.com/draftkeep/draftkeep/internal/draft"
	"github.com/draftkeep/draftkeep/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testRecord(key draft.ContextKey, plain string, ts int64) *draft.Record {
	return &draft.Record{
		Key:         key,
		RichContent: `{"blocks":[{"text":"` + plain + `"}]}`,
		PlainText:   plain,
		Timestamp:   ts,
	}
}

func TestUpsert_InsertAndGet(t *testing.T) {
	database := testDB(t)
	key := draft.NewContextKey("conv-1")

	if err := Upsert(database, testRecord(key, "hello", 1000)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := Get(database, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PlainText != "hello" {
		t.Errorf("PlainText = %q, want %q", got.PlainText, "hello")
	}
	if got.Timestamp != 1000 {
		t.Errorf("Timestamp = %d, want 1000", got.Timestamp)
	}
	if got.ParentMessageTimestamp != nil {
		t.Errorf("ParentMessageTimestamp = %v, want nil", *got.ParentMessageTimestamp)
	}
	if got.PendingDeletion() {
		t.Error("fresh record should not be pending deletion")
	}
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	database := testDB(t)
	key := draft.NewContextKey("conv-1")

	if err := Upsert(database, testRecord(key, "first", 1000)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(key, "second", 2000)); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := Get(database, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PlainText != "second" {
		t.Errorf("PlainText = %q, want %q (last writer wins)", got.PlainText, "second")
	}

	// Invariant: at most one record per context key
	count, err := Count(database, true)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestUpsert_MissingConversationID(t *testing.T) {
	database := testDB(t)

	err := Upsert(database, testRecord(draft.ContextKey{}, "x", 1))
	if !errors.Is(err, errors.ErrInvalidContext) {
		t.Errorf("Upsert with empty key should return ErrInvalidContext, got %v", err)
	}
}

func TestGet_ThreadAndTopLevelAreDistinct(t *testing.T) {
	database := testDB(t)
	topKey := draft.NewContextKey("conv-1")
	threadKey := draft.NewThreadKey("conv-1", "th-1")

	if err := Upsert(database, testRecord(topKey, "top", 1)); err != nil {
		t.Fatalf("Upsert top failed: %v", err)
	}
	if err := Upsert(database, testRecord(threadKey, "thread", 2)); err != nil {
		t.Fatalf("Upsert thread failed: %v", err)
	}

	top, err := Get(database, topKey)
	if err != nil {
		t.Fatalf("Get top failed: %v", err)
	}
	if top.PlainText != "top" {
		t.Errorf("top PlainText = %q, want %q", top.PlainText, "top")
	}

	thread, err := Get(database, threadKey)
	if err != nil {
		t.Fatalf("Get thread failed: %v", err)
	}
	if thread.PlainText != "thread" {
		t.Errorf("thread PlainText = %q, want %q", thread.PlainText, "thread")
	}
}

func TestGet_NotFound(t *testing.T) {
	database := testDB(t)

	_, err := Get(database, draft.NewContextKey("missing"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get missing should return ErrNotFound, got %v", err)
	}
}

func TestDelete_RemovesRecord(t *testing.T) {
	database := testDB(t)
	key := draft.NewContextKey("conv-1")

	if err := Upsert(database, testRecord(key, "hello", 1)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Delete(database, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := Get(database, key)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after delete should return ErrNotFound, got %v", err)
	}
}

func TestDelete_MissingIsNoop(t *testing.T) {
	database := testDB(t)

	if err := Delete(database, draft.NewContextKey("missing")); err != nil {
		t.Errorf("Delete of missing record should be a no-op, got %v", err)
	}
}

func TestMarkPendingDeletion(t *testing.T) {
	database := testDB(t)
	key := draft.NewContextKey("conv-1")

	if err := Upsert(database, testRecord(key, "hello", 1)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := MarkPendingDeletion(database, key, 99999); err != nil {
		t.Fatalf("MarkPendingDeletion failed: %v", err)
	}

	got, err := Get(database, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.PendingDeletion() || *got.PendingDeletionAt != 99999 {
		t.Errorf("PendingDeletionAt = %v, want 99999", got.PendingDeletionAt)
	}
}

func TestMarkPendingDeletion_NotFound(t *testing.T) {
	database := testDB(t)

	err := MarkPendingDeletion(database, draft.NewContextKey("missing"), 1)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	database := testDB(t)
	expired := draft.NewContextKey("conv-expired")
	future := draft.NewContextKey("conv-future")
	normal := draft.NewContextKey("conv-normal")

	if err := Upsert(database, testRecord(expired, "a", 1)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(future, "b", 2)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(normal, "c", 3)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	now := int64(50000)
	if err := MarkPendingDeletion(database, expired, now-1); err != nil {
		t.Fatalf("MarkPendingDeletion failed: %v", err)
	}
	if err := MarkPendingDeletion(database, future, now+100000); err != nil {
		t.Fatalf("MarkPendingDeletion failed: %v", err)
	}

	purged, err := PurgeExpired(database, now)
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := Get(database, expired); !errors.Is(err, errors.ErrNotFound) {
		t.Error("expired record should be gone")
	}
	if _, err := Get(database, future); err != nil {
		t.Errorf("future grace record should survive: %v", err)
	}
	if _, err := Get(database, normal); err != nil {
		t.Errorf("normal record should survive: %v", err)
	}

	// Repeated sweeps leave untouched records alone
	for i := 0; i < 10; i++ {
		n, err := PurgeExpired(database, now)
		if err != nil {
			t.Fatalf("PurgeExpired tick %d failed: %v", i, err)
		}
		if n != 0 {
			t.Errorf("tick %d purged %d records, want 0", i, n)
		}
	}
}

func TestGetAll_ExcludesPendingByDefault(t *testing.T) {
	database := testDB(t)
	normal := draft.NewContextKey("conv-1")
	pending := draft.NewContextKey("conv-2")

	if err := Upsert(database, testRecord(normal, "keep", 10)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(pending, "grace", 20)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := MarkPendingDeletion(database, pending, 99999); err != nil {
		t.Fatalf("MarkPendingDeletion failed: %v", err)
	}

	records, err := GetAll(database, false)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(records) != 1 || records[0].Key != normal {
		t.Errorf("GetAll(false) = %d records, want only %v", len(records), normal)
	}

	all, err := GetAll(database, true)
	if err != nil {
		t.Fatalf("GetAll(true) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("GetAll(true) = %d records, want 2", len(all))
	}
	// Newest capture first
	if all[0].Key != pending {
		t.Errorf("GetAll order: first = %v, want %v", all[0].Key, pending)
	}
}

func TestCount(t *testing.T) {
	database := testDB(t)

	if err := Upsert(database, testRecord(draft.NewContextKey("a"), "1", 1)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(draft.NewContextKey("b"), "2", 2)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := MarkPendingDeletion(database, draft.NewContextKey("b"), 10); err != nil {
		t.Fatalf("MarkPendingDeletion failed: %v", err)
	}

	n, err := Count(database, false)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count(false) = %d, want 1", n)
	}

	n, err = Count(database, true)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count(true) = %d, want 2", n)
	}
}

func TestCountByConversation(t *testing.T) {
	database := testDB(t)

	if err := Upsert(database, testRecord(draft.NewContextKey("conv-1"), "a", 1)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(draft.NewThreadKey("conv-1", "th"), "b", 2)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := Upsert(database, testRecord(draft.NewContextKey("conv-2"), "c", 3)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	counts, err := CountByConversation(database)
	if err != nil {
		t.Fatalf("CountByConversation failed: %v", err)
	}
	if counts["conv-1"] != 2 || counts["conv-2"] != 1 {
		t.Errorf("counts = %v, want conv-1:2 conv-2:1", counts)
	}
}

func TestParentMessageTimestamp_RoundTrip(t *testing.T) {
	database := testDB(t)
	key := draft.NewThreadKey("conv-1", "th-1")

	parent := int64(1234567890123)
	rec := testRecord(key, "threaded", 1)
	rec.ParentMessageTimestamp = &parent

	if err := Upsert(database, rec); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := Get(database, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ParentMessageTimestamp == nil || *got.ParentMessageTimestamp != parent {
		t.Errorf("ParentMessageTimestamp = %v, want %d", got.ParentMessageTimestamp, parent)
	}
}
