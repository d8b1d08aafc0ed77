package localstate

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	db := testDB(t)

	type item struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	in := []item{{ID: "p1", Quantity: 2}, {ID: "p2", Quantity: 1}}
	if err := db.SetJSON(KeyCart, in); err != nil {
		t.Fatal(err)
	}

	var out []item
	found, err := db.GetJSON(KeyCart, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("snapshot not found after SetJSON")
	}
	if len(out) != 2 || out[0].ID != "p1" || out[1].Quantity != 1 {
		t.Errorf("roundtrip mismatch: %#v", out)
	}
}

func TestSnapshotOverwrite(t *testing.T) {
	db := testDB(t)

	if err := db.SetJSON(KeyLastActiveTab, "menu"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetJSON(KeyLastActiveTab, "chat"); err != nil {
		t.Fatal(err)
	}

	var tab string
	if _, err := db.GetJSON(KeyLastActiveTab, &tab); err != nil {
		t.Fatal(err)
	}
	if tab != "chat" {
		t.Errorf("tab = %q, want chat", tab)
	}
}

func TestSnapshotMissing(t *testing.T) {
	db := testDB(t)

	var v string
	found, err := db.GetJSON("nope", &v)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("missing key should report found=false")
	}
}

func TestSnapshotDelete(t *testing.T) {
	db := testDB(t)

	if err := db.SetJSON(KeyCurrentUser, map[string]string{"phone": "5511999999999"}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteKey(KeyCurrentUser); err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	found, _ := db.GetJSON(KeyCurrentUser, &v)
	if found {
		t.Error("snapshot should be gone after DeleteKey")
	}
}

func TestOutboxLifecycle(t *testing.T) {
	db := testDB(t)

	if err := db.QueueOutbox("c1", "table-1", "text", `{"text":"hi"}`); err != nil {
		t.Fatal(err)
	}
	if err := db.QueueOutbox("c2", "table-1", "gift", `{"text":"sent a gift"}`); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ClientMsgID != "c1" {
		t.Errorf("oldest first violated: got %q", pending[0].ClientMsgID)
	}

	if err := db.MarkOutboxSending("c1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxSent("c1", "srv-1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxFailed("c2", "remote unavailable"); err != nil {
		t.Fatal(err)
	}

	pending, err = db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after processing = %d, want 0", len(pending))
	}

	var status, serverID string
	if err := db.QueryRow(`SELECT status, server_msg_id FROM outbox WHERE client_msg_id = 'c1'`).Scan(&status, &serverID); err != nil {
		t.Fatal(err)
	}
	if status != "sent" || serverID != "srv-1" {
		t.Errorf("c1 status=%q server=%q, want sent/srv-1", status, serverID)
	}
}

func TestOutboxDuplicateClientIDRejected(t *testing.T) {
	db := testDB(t)

	if err := db.QueueOutbox("c1", "table-1", "text", `{}`); err != nil {
		t.Fatal(err)
	}
	if err := db.QueueOutbox("c1", "table-1", "text", `{}`); err == nil {
		t.Error("duplicate client_msg_id should be rejected")
	}
}
