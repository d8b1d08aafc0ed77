package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the daemon. Subscribers filter by prefix,
// e.g. "remote." catches every remote snapshot kind.
const (
	KindRemoteGifts    = "remote.gifts"
	KindRemoteMessages = "remote.messages"
	KindRemoteTyping   = "remote.typing"
	KindRemoteOrders   = "remote.orders"

	KindCartUpdated     = "cart.updated"
	KindWishlistUpdated = "wishlist.updated"

	KindChatQueued     = "chat.queued"
	KindChatSent       = "chat.sent"
	KindChatSendFailed = "chat.send_failed"
	KindChatUnread     = "chat.unread"

	KindToastEmitted = "toast.emitted"

	KindTypingChanged = "typing.changed"

	KindSessionStatus = "session.status_changed"
	KindSessionLogin  = "session.login"
	KindSessionLogout = "session.logout"
)
