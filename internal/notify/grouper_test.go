package notify

import (
	"sync"
	"testing"
	"time"
)

// recorder collects emitted toasts and signals on each one.
type recorder struct {
	mu     sync.Mutex
	toasts []Toast
	ch     chan Toast
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Toast, 16)}
}

func (r *recorder) Notify(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
	r.ch <- t
}

func (r *recorder) all() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast{}, r.toasts...)
}

func waitToast(t *testing.T, r *recorder) Toast {
	t.Helper()
	select {
	case toast := <-r.ch:
		return toast
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for toast")
		return Toast{}
	}
}

func TestBurstCoalescesToOneToast(t *testing.T) {
	rec := newRecorder()
	g := NewGrouper(80*time.Millisecond, rec)
	defer g.Close()

	g.Observe("5511999990000", "Ana", "oi")
	time.Sleep(30 * time.Millisecond)
	g.Observe("5511999990000", "Ana", "tudo bem?")
	time.Sleep(30 * time.Millisecond)
	g.Observe("5511999990000", "Ana", "cadê você")

	toast := waitToast(t, rec)
	if toast.Title != "Ana" {
		t.Errorf("title = %q, want Ana", toast.Title)
	}
	if toast.Body != "3 new messages" {
		t.Errorf("body = %q, want \"3 new messages\"", toast.Body)
	}
	if toast.Kind != KindMessage {
		t.Errorf("kind = %q, want message", toast.Kind)
	}

	// The window must have slid past the last message, not the first.
	time.Sleep(150 * time.Millisecond)
	if n := len(rec.all()); n != 1 {
		t.Errorf("toasts = %d, want exactly 1", n)
	}
}

func TestSingleMessageKeepsText(t *testing.T) {
	rec := newRecorder()
	g := NewGrouper(40*time.Millisecond, rec)
	defer g.Close()

	g.Observe("5511999990000", "Ana", "oi")
	toast := waitToast(t, rec)
	if toast.Body != "oi" {
		t.Errorf("body = %q, want original text for count=1", toast.Body)
	}
}

func TestSendersGroupIndependently(t *testing.T) {
	rec := newRecorder()
	g := NewGrouper(60*time.Millisecond, rec)
	defer g.Close()

	g.Observe("5511999990000", "Ana", "a1")
	g.Observe("5511888880000", "Bruno", "b1")
	g.Observe("5511999990000", "Ana", "a2")

	first := waitToast(t, rec)
	second := waitToast(t, rec)

	byTitle := map[string]Toast{first.Title: first, second.Title: second}
	if byTitle["Bruno"].Body != "b1" {
		t.Errorf("Bruno toast = %+v", byTitle["Bruno"])
	}
	if byTitle["Ana"].Body != "2 new messages" {
		t.Errorf("Ana toast = %+v", byTitle["Ana"])
	}
}

func TestStaleTimerDoesNotFlushEarly(t *testing.T) {
	rec := newRecorder()
	g := NewGrouper(60*time.Millisecond, rec)
	defer g.Close()

	// A timer that fired just as Observe rescheduled carries the old
	// generation; it must leave the group pending for the new timer.
	g.Observe("5511999990000", "Ana", "oi")
	g.Observe("5511999990000", "Ana", "tudo bem?")
	g.flush("5511999990000", 1)

	if n := len(rec.all()); n != 0 {
		t.Fatalf("stale flush emitted %d toasts, want 0", n)
	}
	if g.Pending() != 1 {
		t.Fatalf("pending groups = %d, want 1", g.Pending())
	}

	toast := waitToast(t, rec)
	if toast.Body != "2 new messages" {
		t.Errorf("body = %q, want \"2 new messages\"", toast.Body)
	}
}

func TestCloseCancelsWithoutEmission(t *testing.T) {
	rec := newRecorder()
	g := NewGrouper(40*time.Millisecond, rec)

	g.Observe("5511999990000", "Ana", "oi")
	g.Close()

	time.Sleep(100 * time.Millisecond)
	if n := len(rec.all()); n != 0 {
		t.Errorf("toasts after Close = %d, want 0", n)
	}
	if g.Pending() != 0 {
		t.Errorf("pending groups after Close = %d", g.Pending())
	}

	// Observes after Close are ignored.
	g.Observe("5511999990000", "Ana", "oi de novo")
	time.Sleep(100 * time.Millisecond)
	if n := len(rec.all()); n != 0 {
		t.Errorf("toast emitted after Close: %d", n)
	}
}
