// Package sync consumes remote snapshots off the bus and derives local
// state: cart reconciliation, notification routing, live typing.
package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/cart"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/gift"
	"github.com/matheus3301/mesa/internal/metrics"
	"github.com/matheus3301/mesa/internal/notify"
	"github.com/matheus3301/mesa/internal/presence"
)

// Engine subscribes to "remote." events and runs the derivation passes.
type Engine struct {
	bus     *bus.Bus
	cart    *cart.State
	router  *notify.Router
	log     *zap.Logger
	metrics *metrics.Set
	phone   string
	cancel  context.CancelFunc
}

func NewEngine(b *bus.Bus, cartState *cart.State, router *notify.Router, log *zap.Logger, m *metrics.Set, phone string) *Engine {
	return &Engine{
		bus:     b,
		cart:    cartState,
		router:  router,
		log:     log.Named("sync"),
		metrics: m,
		phone:   phone,
	}
}

// Start subscribes to remote snapshot events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("remote.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case bus.KindRemoteGifts:
		gifts, ok := evt.Payload.([]gift.Record)
		if !ok {
			return
		}
		e.ReconcileGifts(gifts)
	case bus.KindRemoteMessages:
		snap, ok := evt.Payload.(docstore.Snapshot)
		if !ok {
			return
		}
		e.RouteMessages(ctx, snap)
	case bus.KindRemoteTyping:
		entries, ok := evt.Payload.(map[string]presence.Entry)
		if !ok {
			return
		}
		e.PublishTyping(entries)
	}
}

// ReconcileGifts runs one reconciliation pass against the current cart and
// publishes a single cart update when anything changed.
func (e *Engine) ReconcileGifts(gifts []gift.Record) {
	e.metrics.ReconcileRuns.Inc()
	next := cart.Reconcile(e.cart.Items(), gifts, e.phone)
	if !e.cart.Replace(next) {
		return
	}
	e.log.Debug("cart reconciled", zap.Int("items", len(next)), zap.Int("gifts", len(gifts)))
	e.bus.Publish(bus.Event{
		Kind:      bus.KindCartUpdated,
		Timestamp: time.Now(),
		Payload:   next,
	})
}

// RouteMessages feeds one message snapshot through the notification router.
func (e *Engine) RouteMessages(ctx context.Context, snap docstore.Snapshot) {
	e.metrics.MessagesIngested.Add(float64(len(snap)))
	incoming := make([]notify.Incoming, 0, len(snap))
	for _, doc := range snap {
		m := decodeIncoming(doc)
		m.FromSelf = m.SenderPhone == e.phone
		incoming = append(incoming, m)
	}
	e.router.ObserveSnapshot(ctx, incoming)
	if n := e.router.Unread(); n > 0 {
		e.bus.Publish(bus.Event{
			Kind:      bus.KindChatUnread,
			Timestamp: time.Now(),
			Payload:   n,
		})
	}
}

// PublishTyping derives the live typing set and republishes it for clients.
func (e *Engine) PublishTyping(entries map[string]presence.Entry) {
	live := presence.Live(entries, e.phone, time.Now())
	e.bus.Publish(bus.Event{
		Kind:      bus.KindTypingChanged,
		Timestamp: time.Now(),
		Payload:   live,
	})
}

func decodeIncoming(doc docstore.Document) notify.Incoming {
	m := notify.Incoming{Kind: "text"}
	m.SenderPhone, _ = doc.Data["phoneNumber"].(string)
	m.Text, _ = doc.Data["text"].(string)
	if kind, _ := doc.Data["type"].(string); kind != "" {
		m.Kind = kind
	}
	m.Timestamp, _ = doc.Data["timestamp"].(time.Time)
	switch m.Kind {
	case "gift":
		m.ItemName, _ = doc.Data["giftedItem"].(string)
		m.ItemPrice = num(doc.Data["giftedItemPrice"])
		m.TargetName, _ = doc.Data["giftedTo"].(string)
	case "recommendation":
		m.ItemName, _ = doc.Data["recommendedItem"].(string)
		m.ItemPrice = num(doc.Data["recommendedItemPrice"])
		m.TargetName, _ = doc.Data["recommendedTo"].(string)
	}
	return m
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
