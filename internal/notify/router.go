package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// freshnessWindow bounds how old a message may be and still count as new.
const freshnessWindow = 2 * time.Second

// Incoming is the slice of a chat message the router needs.
type Incoming struct {
	SenderPhone string
	Text        string
	Kind        string // text, gift, recommendation
	Timestamp   time.Time
	FromSelf    bool
	ItemName    string
	ItemPrice   float64
	TargetName  string
}

// NameLookup resolves a phone number to a display name.
type NameLookup interface {
	DisplayName(ctx context.Context, phone string) string
}

// Router classifies incoming chat snapshots into toasts. Gift and
// recommendation messages toast immediately; ordinary messages bump the
// unread counter and go through the grouper. Nothing fires while the user is
// viewing the chat surface.
type Router struct {
	notifier Notifier
	grouper  *Grouper
	names    NameLookup
	now      func() time.Time

	unread      atomic.Int64
	viewingChat atomic.Bool

	mu sync.Mutex
}

func NewRouter(notifier Notifier, grouper *Grouper, names NameLookup) *Router {
	return &Router{
		notifier: notifier,
		grouper:  grouper,
		names:    names,
		now:      time.Now,
	}
}

// SetClock overrides the freshness clock, for tests.
func (r *Router) SetClock(now func() time.Time) { r.now = now }

// SetViewingChat marks whether the chat surface is in front. Entering chat
// resets the unread counter.
func (r *Router) SetViewingChat(viewing bool) {
	r.viewingChat.Store(viewing)
	if viewing {
		r.unread.Store(0)
	}
}

// Unread returns the count of messages observed off the chat surface.
func (r *Router) Unread() int {
	return int(r.unread.Load())
}

// ObserveSnapshot inspects one snapshot batch. Only the most recent fresh
// message from another diner triggers notification; older history replayed in
// the same batch stays silent.
func (r *Router) ObserveSnapshot(ctx context.Context, msgs []Incoming) {
	var latest *Incoming
	now := r.now()
	for i := range msgs {
		m := &msgs[i]
		if m.FromSelf {
			continue
		}
		if now.Sub(m.Timestamp) >= freshnessWindow {
			continue
		}
		latest = m
	}
	if latest == nil || r.viewingChat.Load() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch latest.Kind {
	case "recommendation":
		r.notifier.Notify(Toast{
			Title:    fmt.Sprintf("%s recommended %q%s to %s", r.name(ctx, latest), latest.ItemName, priceText(latest.ItemPrice), latest.TargetName),
			Kind:     KindRecommendation,
			Duration: DefaultDuration(KindRecommendation),
		})
	case "gift":
		r.notifier.Notify(Toast{
			Title:    fmt.Sprintf("%s gifted %q%s to %s", r.name(ctx, latest), latest.ItemName, priceText(latest.ItemPrice), latest.TargetName),
			Kind:     KindGift,
			Duration: DefaultDuration(KindGift),
		})
	default:
		r.unread.Add(1)
		r.grouper.Observe(latest.SenderPhone, r.name(ctx, latest), latest.Text)
	}
}

func (r *Router) name(ctx context.Context, m *Incoming) string {
	if r.names == nil {
		return m.SenderPhone
	}
	if name := r.names.DisplayName(ctx, m.SenderPhone); name != "" {
		return name
	}
	return m.SenderPhone
}

func priceText(price float64) string {
	if price == 0 {
		return ""
	}
	return fmt.Sprintf(" ($%.2f)", price)
}
