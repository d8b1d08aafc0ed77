package localstate

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Well-known snapshot keys.
const (
	KeyCurrentUser   = "currentUser"
	KeyLastActiveTab = "lastActiveTab"
	KeyCart          = "cart"
	KeyWishlist      = "wishlist"
)

// SetJSON stores v under key as a JSON snapshot, replacing any previous value.
func (db *DB) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot %q: %w", key, err)
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), now)
	return err
}

// GetJSON loads the snapshot under key into out. Returns false when no
// snapshot exists.
func (db *DB) GetJSON(key string, out any) (bool, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM snapshots WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("unmarshal snapshot %q: %w", key, err)
	}
	return true, nil
}

// DeleteKey removes a snapshot.
func (db *DB) DeleteKey(key string) error {
	_, err := db.Exec(`DELETE FROM snapshots WHERE key = ?`, key)
	return err
}
