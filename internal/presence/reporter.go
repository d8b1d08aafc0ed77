package presence

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/matheus3301/mesa/internal/docstore"
)

// Timer defaults for the local typing state machine.
const (
	idleTimeout = 1500 * time.Millisecond
	blurTimeout = 1000 * time.Millisecond
	hardTimeout = 5 * time.Second
)

// Reporter tracks the local user's typing state and mirrors transitions into
// the shared presence document. At most one stop timer is armed at a time;
// every keystroke re-arms it.
type Reporter struct {
	mu      sync.Mutex
	write   func(typing bool)
	idle    time.Duration
	blur    time.Duration
	ceiling time.Duration

	typing       bool
	text         string
	stopTimer    *time.Timer
	ceilingTimer *time.Timer
	closed       bool
}

// NewReporter builds a reporter around a write function. Writes happen
// synchronously on the calling or timer goroutine, outside the lock.
func NewReporter(write func(typing bool)) *Reporter {
	return &Reporter{
		write:   write,
		idle:    idleTimeout,
		blur:    blurTimeout,
		ceiling: hardTimeout,
	}
}

// SetTimeouts overrides the timer durations, for tests.
func (r *Reporter) SetTimeouts(idle, blur, ceiling time.Duration) {
	r.mu.Lock()
	r.idle, r.blur, r.ceiling = idle, blur, ceiling
	r.mu.Unlock()
}

// InputChanged reports the current composer text after a keystroke.
func (r *Reporter) InputChanged(text string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.text = text
	r.cancelStopTimer()

	var transition, typing bool
	trimmed := strings.TrimSpace(text)
	switch {
	case !r.typing && trimmed != "":
		r.startTypingLocked()
		transition, typing = true, true
	case r.typing && trimmed == "":
		r.stopTypingLocked()
		transition, typing = true, false
	case r.typing:
		r.stopTimer = time.AfterFunc(r.idle, r.timerStop)
	}
	r.mu.Unlock()
	if transition {
		r.write(typing)
	}
}

// Blur reports that the composer lost focus. A shorter grace applies.
func (r *Reporter) Blur() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.cancelStopTimer()
	if r.typing {
		r.stopTimer = time.AfterFunc(r.blur, r.timerStop)
	}
}

// Focus reports that the composer regained focus with its current text.
func (r *Reporter) Focus() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.cancelStopTimer()
	started := false
	if !r.typing && strings.TrimSpace(r.text) != "" {
		r.startTypingLocked()
		started = true
	}
	r.mu.Unlock()
	if started {
		r.write(true)
	}
}

// MessageSent clears the composer and typing state after a send.
func (r *Reporter) MessageSent() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.text = ""
	r.cancelStopTimer()
	wasTyping := r.typing
	if wasTyping {
		r.stopTypingLocked()
	}
	r.mu.Unlock()
	if wasTyping {
		r.write(false)
	}
}

// Typing reports the current local typing state.
func (r *Reporter) Typing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typing
}

// Close cancels all timers and, when still marked typing, issues the final
// stop write before returning.
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancelStopTimer()
	if r.ceilingTimer != nil {
		r.ceilingTimer.Stop()
		r.ceilingTimer = nil
	}
	wasTyping := r.typing
	r.typing = false
	r.mu.Unlock()
	if wasTyping {
		r.write(false)
	}
}

func (r *Reporter) timerStop() {
	r.mu.Lock()
	if r.closed || !r.typing {
		r.mu.Unlock()
		return
	}
	r.stopTypingLocked()
	r.mu.Unlock()
	r.write(false)
}

// startTypingLocked flips to typing and arms the hard ceiling. The ceiling
// runs from the transition, not from the last keystroke.
func (r *Reporter) startTypingLocked() {
	r.typing = true
	if r.ceilingTimer != nil {
		r.ceilingTimer.Stop()
	}
	r.ceilingTimer = time.AfterFunc(r.ceiling, r.timerStop)
}

func (r *Reporter) stopTypingLocked() {
	r.typing = false
	if r.ceilingTimer != nil {
		r.ceilingTimer.Stop()
		r.ceilingTimer = nil
	}
}

func (r *Reporter) cancelStopTimer() {
	if r.stopTimer != nil {
		r.stopTimer.Stop()
		r.stopTimer = nil
	}
}

// StoreWriter persists typing transitions into the shared presence document,
// merged so other diners' slots survive.
type StoreWriter struct {
	Store docstore.Store
	Table string
	Phone string
	Name  string
}

func (w *StoreWriter) SetTyping(ctx context.Context, typing bool) error {
	var slot any
	if typing {
		slot = map[string]any{
			"isTyping":    true,
			"timestamp":   docstore.ServerTimestamp,
			"name":        w.Name,
			"tableNumber": w.Table,
		}
	}
	return w.Store.MergeOne(ctx, docstore.CollectionTyping, docstore.TypingDoc(w.Table), map[string]any{
		w.Phone: slot,
	})
}
