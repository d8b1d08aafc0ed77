package notify

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/metrics"
)

// Notifier is the emit side of the toast system. Everything that wants to
// show a toast takes one of these; there is no global dispatcher.
type Notifier interface {
	Notify(t Toast)
}

// Center publishes toasts on the event bus for connected clients.
type Center struct {
	bus     *bus.Bus
	log     *zap.Logger
	metrics *metrics.Set
}

func NewCenter(b *bus.Bus, log *zap.Logger, m *metrics.Set) *Center {
	return &Center{bus: b, log: log.Named("notify"), metrics: m}
}

func (c *Center) Notify(t Toast) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Duration == 0 {
		t.Duration = DefaultDuration(t.Kind)
	}
	c.metrics.ToastsEmitted.WithLabelValues(string(t.Kind)).Inc()
	c.log.Debug("toast", zap.String("kind", string(t.Kind)), zap.String("title", t.Title))
	c.bus.Publish(bus.Event{
		Kind:      bus.KindToastEmitted,
		Timestamp: time.Now(),
		Payload:   t,
	})
}
