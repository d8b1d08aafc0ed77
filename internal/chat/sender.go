package chat

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/localstate"
	"github.com/matheus3301/mesa/internal/metrics"
)

// Sender drains the outbox into the remote message collection.
type Sender struct {
	db      *localstate.DB
	store   docstore.Store
	bus     *bus.Bus
	log     *zap.Logger
	metrics *metrics.Set
	cancel  context.CancelFunc
}

func NewSender(db *localstate.DB, store docstore.Store, b *bus.Bus, log *zap.Logger, m *metrics.Set) *Sender {
	return &Sender{db: db, store: store, bus: b, log: log.Named("chat.sender"), metrics: m}
}

// Start begins polling the outbox for pending messages.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ProcessPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessPending pushes every queued entry to the remote store. Exported so
// tests and the HTTP flush endpoint can drive it without the ticker.
func (s *Sender) ProcessPending(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.log.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.log.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		var m Message
		if err := json.Unmarshal([]byte(entry.Payload), &m); err != nil {
			s.log.Error("corrupt outbox payload", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			continue
		}

		serverID, err := s.store.CreateOne(ctx, docstore.MessagesCollection(entry.Table), m.data())
		if err != nil {
			s.log.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			s.metrics.OutboxFailed.Inc()
			s.bus.Publish(bus.Event{
				Kind:      bus.KindChatSendFailed,
				Timestamp: time.Now(),
				Payload: map[string]string{
					"client_msg_id": entry.ClientMsgID,
					"error":         err.Error(),
				},
			})
			continue
		}

		if err := s.db.MarkOutboxSent(entry.ClientMsgID, serverID); err != nil {
			s.log.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		}
		s.metrics.OutboxSent.Inc()
		s.log.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID), zap.String("server_msg_id", serverID))
		s.bus.Publish(bus.Event{
			Kind:      bus.KindChatSent,
			Timestamp: time.Now(),
			Payload: map[string]string{
				"client_msg_id": entry.ClientMsgID,
				"server_msg_id": serverID,
			},
		})
	}
}
