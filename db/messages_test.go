package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestLastMessageFrom(t *testing.T) {
	database := openTestDB(t)

	last, err := database.LastMessageFrom("foo", "alice")
	if err != nil {
		t.Fatalf("LastMessageFrom: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no message, got %+v", last)
	}

	mustInsert(t, database, "m1", "foo", "alice", "one", false)
	mustInsert(t, database, "m2", "foo", "bob", "two", false)
	mustInsert(t, database, "m3", "foo", "alice", "waves", true)
	mustInsert(t, database, "m4", "bar", "alice", "elsewhere", false)

	last, err = database.LastMessageFrom("foo", "alice")
	if err != nil {
		t.Fatalf("LastMessageFrom: %v", err)
	}
	if last == nil || last.ID != "m3" {
		t.Fatalf("last = %+v, want m3", last)
	}
	if !last.Action || last.Text != "waves" {
		t.Errorf("last = %+v, want action %q", last, "waves")
	}
	if time.Since(last.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v, want recent", last.CreatedAt)
	}
}

func TestGetMessagesChronological(t *testing.T) {
	database := openTestDB(t)
	for i := 0; i < 5; i++ {
		mustInsert(t, database, fmt.Sprintf("m%d", i), "foo", "alice", fmt.Sprintf("msg %d", i), false)
	}
	mustInsert(t, database, "other", "bar", "alice", "x", false)

	messages, err := database.GetMessages("foo", nil, 3)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	want := []string{"m2", "m3", "m4"}
	for i, m := range messages {
		if m.ID != want[i] {
			t.Errorf("messages[%d] = %s, want %s", i, m.ID, want[i])
		}
	}
}

func TestGetMessagesBefore(t *testing.T) {
	database := openTestDB(t)
	mustInsert(t, database, "m1", "foo", "alice", "one", false)

	past := time.Now().Add(-time.Hour)
	messages, err := database.GetMessages("foo", &past, 10)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages before %v, want 0", len(messages), past)
	}
}

func mustInsert(t *testing.T, database *DB, id, channel, sender, text string, action bool) {
	t.Helper()
	if _, err := database.InsertMessage(id, channel, sender, text, action); err != nil {
		t.Fatalf("InsertMessage(%s): %v", id, err)
	}
}
