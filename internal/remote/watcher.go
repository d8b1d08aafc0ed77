// Package remote bridges the hosted store's change streams onto the event
// bus. One watcher runs per logged-in user and table session.
package remote

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/cart"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/gift"
	"github.com/matheus3301/mesa/internal/presence"
)

// Watcher subscribes to gifts, messages, typing and orders and republishes
// each snapshot as a bus event. Stop tears down every subscription; leaked
// subscriptions would keep stale callbacks alive across user changes.
type Watcher struct {
	store  docstore.Store
	bus    *bus.Bus
	log    *zap.Logger
	table  string
	phone  string
	cancel context.CancelFunc
}

func NewWatcher(store docstore.Store, b *bus.Bus, log *zap.Logger, table, phone string) *Watcher {
	return &Watcher{store: store, bus: b, log: log.Named("remote"), table: table, phone: phone}
}

// Start opens all subscriptions. It returns after the subscriptions are
// established; delivery runs on background goroutines until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	if err := w.watchGifts(ctx); err != nil {
		return err
	}
	if err := w.watchMessages(ctx); err != nil {
		return err
	}
	if err := w.watchTyping(ctx); err != nil {
		return err
	}
	return w.watchOrders(ctx)
}

// Stop cancels every subscription.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// watchGifts follows active gift records, newest first, and republishes the
// slice visible to this user (as sender or recipient).
func (w *Watcher) watchGifts(ctx context.Context) error {
	ch, cancel, err := w.store.Subscribe(ctx, docstore.CollectionGifts, docstore.Query{
		Wheres:  []docstore.Where{{Field: "status", Op: "==", Value: "active"}},
		OrderBy: "timestamp",
		Desc:    true,
	})
	if err != nil {
		return err
	}
	self := cart.NormalizePhone(w.phone)

	go func() {
		defer cancel()
		for {
			select {
			case snap, ok := <-ch:
				if !ok {
					return
				}
				var visible []gift.Record
				for _, doc := range snap {
					rec := gift.FromDocument(doc)
					sender := cart.NormalizePhone(rec.SenderPhone)
					recipient := cart.NormalizePhone(rec.RecipientPhone)
					if sender == self || recipient == self {
						visible = append(visible, rec)
					}
				}
				w.publish(bus.KindRemoteGifts, visible)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) watchMessages(ctx context.Context) error {
	ch, cancel, err := w.store.Subscribe(ctx, docstore.MessagesCollection(w.table), docstore.Query{
		OrderBy: "timestamp",
	})
	if err != nil {
		return err
	}

	go func() {
		defer cancel()
		for {
			select {
			case snap, ok := <-ch:
				if !ok {
					return
				}
				w.publish(bus.KindRemoteMessages, snap)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) watchTyping(ctx context.Context) error {
	ch, cancel, err := w.store.SubscribeDoc(ctx, docstore.CollectionTyping, docstore.TypingDoc(w.table))
	if err != nil {
		return err
	}

	go func() {
		defer cancel()
		for {
			select {
			case doc, ok := <-ch:
				if !ok {
					return
				}
				w.publish(bus.KindRemoteTyping, presence.FromDocument(doc))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) watchOrders(ctx context.Context) error {
	ch, cancel, err := w.store.Subscribe(ctx, docstore.CollectionOrders, docstore.Query{
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return err
	}

	go func() {
		defer cancel()
		for {
			select {
			case snap, ok := <-ch:
				if !ok {
					return
				}
				w.publish(bus.KindRemoteOrders, snap)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (w *Watcher) publish(kind string, payload any) {
	w.log.Debug("snapshot", zap.String("kind", kind))
	w.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
