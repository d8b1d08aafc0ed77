// Package presence derives and publishes "who is typing" state from the
// shared per-table presence document.
package presence

import (
	"sort"
	"time"

	"github.com/matheus3301/mesa/internal/docstore"
)

// liveness bounds how old a typing entry may be and still count.
const liveness = 5 * time.Second

// Entry is one diner's slot in the presence document.
type Entry struct {
	IsTyping  bool      `json:"isTyping"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Table     string    `json:"tableNumber"`
}

// FromDocument decodes the presence document into per-phone entries. A nil
// document decodes to an empty map.
func FromDocument(doc *docstore.Document) map[string]Entry {
	out := make(map[string]Entry)
	if doc == nil {
		return out
	}
	for phone, raw := range doc.Data {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		e := Entry{}
		e.IsTyping, _ = fields["isTyping"].(bool)
		e.Timestamp, _ = fields["timestamp"].(time.Time)
		e.Name, _ = fields["name"].(string)
		e.Table, _ = fields["tableNumber"].(string)
		out[phone] = e
	}
	return out
}

// Live returns the display names of everyone currently typing, excluding the
// user. An entry counts only while isTyping is set and its timestamp is
// younger than five seconds.
func Live(entries map[string]Entry, selfPhone string, now time.Time) []string {
	var names []string
	for phone, e := range entries {
		if phone == selfPhone {
			continue
		}
		if !e.IsTyping {
			continue
		}
		if now.Sub(e.Timestamp) >= liveness {
			continue
		}
		name := e.Name
		if name == "" {
			name = phone
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
