// Package notify delivers toasts over the event bus: classification of
// incoming chat traffic, per-sender burst grouping, and the emit path.
package notify

import "time"

// Kind classifies a toast.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindError          Kind = "error"
	KindWarning        Kind = "warning"
	KindInfo           Kind = "info"
	KindMessage        Kind = "message"
	KindGift           Kind = "gift"
	KindRecommendation Kind = "recommendation"
)

// Toast is a single user-facing notification.
type Toast struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Body     string        `json:"body,omitempty"`
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"duration"`
}

// DefaultDuration returns how long a toast of the given kind stays visible.
func DefaultDuration(kind Kind) time.Duration {
	switch kind {
	case KindGift, KindRecommendation:
		return 6 * time.Second
	case KindMessage:
		return 5 * time.Second
	default:
		return 3 * time.Second
	}
}
