// Package docstore abstracts the hosted document database behind query,
// mutation and change-subscription primitives. Persistence, real-time
// fan-out and ordering are the backend's job; callers only consume
// snapshots and issue CRUD calls.
package docstore

import "context"

// Document is a single record in a collection. Data holds the raw field map;
// domain packages decode it into their own types.
type Document struct {
	ID   string
	Data map[string]any
}

// Where is a single field filter. Op uses the backend's comparison
// operators; "==" is the only one the daemon needs today.
type Where struct {
	Field string
	Op    string
	Value any
}

// Query describes a filtered, ordered collection read or subscription.
type Query struct {
	Wheres  []Where
	OrderBy string
	Desc    bool
	Limit   int
}

// Snapshot is the full materialized result set of a subscribed query,
// delivered on every relevant change. Delivery order across writes is not
// guaranteed to match write order.
type Snapshot []Document

// serverTimestamp is the sentinel type for ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp marks a field to be filled with the backend's
// server-assigned time. Persisted message, order and gift timestamps must
// use it, never client clocks.
var ServerTimestamp = serverTimestamp{}

// Store is the document-database capability the daemon consumes. GetOne
// returns (nil, nil) for an absent document. Subscribe and SubscribeDoc
// return a cancel func that must be invoked when the owning component is
// torn down or its user changes; the channel closes after cancellation.
type Store interface {
	GetOne(ctx context.Context, collection, id string) (*Document, error)
	CreateOne(ctx context.Context, collection string, data map[string]any) (string, error)
	UpdateOne(ctx context.Context, collection, id string, patch map[string]any) error
	MergeOne(ctx context.Context, collection, id string, data map[string]any) error
	DeleteOne(ctx context.Context, collection, id string) error
	QueryMany(ctx context.Context, collection string, q Query) ([]Document, error)
	Subscribe(ctx context.Context, collection string, q Query) (<-chan Snapshot, func(), error)
	SubscribeDoc(ctx context.Context, collection, id string) (<-chan *Document, func(), error)
	Close() error
}

// Collection names used by the daemon. Table-scoped collections are derived
// with MessagesCollection and TypingDoc.
const (
	CollectionUsers    = "users"
	CollectionProducts = "products"
	CollectionGifts    = "gifts"
	CollectionOrders   = "orders"
	CollectionMessages = "messages"
	CollectionTyping   = "typing"
)

// MessagesCollection returns the chat collection for a table session.
func MessagesCollection(table string) string {
	if table == "" {
		return CollectionMessages
	}
	return CollectionMessages + "-" + table
}

// TypingDoc returns the shared presence document id for a table session.
func TypingDoc(table string) string {
	if table == "" {
		return "chat"
	}
	return table
}
