package notify

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is the quiet period before a grouped toast flushes.
const DefaultWindow = time.Second

// group tracks one sender's pending burst. At most one group and one timer
// exist per sender.
type group struct {
	senderName  string
	lastMessage string
	count       int
	gen         int
	timer       *time.Timer
}

// Grouper coalesces message bursts per sender into a single toast emitted
// after a sliding quiet window.
type Grouper struct {
	mu       sync.Mutex
	window   time.Duration
	notifier Notifier
	groups   map[string]*group
	closed   bool
}

func NewGrouper(window time.Duration, notifier Notifier) *Grouper {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Grouper{
		window:   window,
		notifier: notifier,
		groups:   make(map[string]*group),
	}
}

// Observe records a message from a sender. The sender's flush timer restarts
// on every call, so a burst quieter than the window flushes exactly once.
func (g *Grouper) Observe(senderPhone, senderName, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}

	grp, ok := g.groups[senderPhone]
	if ok {
		grp.count++
		grp.lastMessage = message
		grp.timer.Stop()
	} else {
		grp = &group{senderName: senderName, lastMessage: message, count: 1}
		g.groups[senderPhone] = grp
	}
	// Stop can miss a timer that already fired and is waiting on the mutex.
	// The generation bump makes that stale flush a no-op, so the window
	// still slides past this message.
	grp.gen++
	gen := grp.gen
	grp.timer = time.AfterFunc(g.window, func() { g.flush(senderPhone, gen) })
}

// Pending reports how many senders currently have an unflushed group.
func (g *Grouper) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.groups)
}

// Close cancels every pending timer without emitting.
func (g *Grouper) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for key, grp := range g.groups {
		grp.timer.Stop()
		delete(g.groups, key)
	}
}

func (g *Grouper) flush(senderPhone string, gen int) {
	g.mu.Lock()
	grp, ok := g.groups[senderPhone]
	if ok && grp.gen != gen {
		// A newer Observe rescheduled the flush; this timer is stale.
		g.mu.Unlock()
		return
	}
	if ok {
		delete(g.groups, senderPhone)
	}
	closed := g.closed
	g.mu.Unlock()
	if !ok || closed {
		return
	}

	body := grp.lastMessage
	if grp.count > 1 {
		body = fmt.Sprintf("%d new messages", grp.count)
	}
	g.notifier.Notify(Toast{
		Title:    grp.senderName,
		Body:     body,
		Kind:     KindMessage,
		Duration: DefaultDuration(KindMessage),
	})
}
