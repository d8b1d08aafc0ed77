package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/localstate"
)

// Service queues outgoing messages and reads history for one table session.
type Service struct {
	db    *localstate.DB
	store docstore.Store
	bus   *bus.Bus
	log   *zap.Logger
	table string
}

func NewService(db *localstate.DB, store docstore.Store, b *bus.Bus, log *zap.Logger, table string) *Service {
	return &Service{db: db, store: store, bus: b, log: log.Named("chat"), table: table}
}

// Send queues a plain text message. Empty text is dropped silently.
func (s *Service) Send(user, displayName, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return s.queue(Message{
		Text:        text,
		Kind:        KindText,
		Phone:       user,
		DisplayName: displayName,
		Table:       s.table,
	})
}

// SendGiftMessage queues the companion chat message for a completed gift.
func (s *Service) SendGiftMessage(user, senderName, itemName string, itemPrice float64, recipientName, recipientPhone string) (string, error) {
	return s.queue(Message{
		Text:            fmt.Sprintf("%s gifted %q ($%.2f) to %s", senderName, itemName, itemPrice, recipientName),
		Kind:            KindGift,
		Phone:           user,
		DisplayName:     senderName,
		Table:           s.table,
		GiftedItem:      itemName,
		GiftedItemPrice: itemPrice,
		GiftedTo:        recipientName,
		GiftedToPhone:   recipientPhone,
	})
}

// SendRecommendation queues the companion chat message for a recommendation.
func (s *Service) SendRecommendation(user, senderName, itemName string, itemPrice float64, recipientName string) (string, error) {
	return s.queue(Message{
		Text:                 fmt.Sprintf("%s recommended %q ($%.2f) to %s", senderName, itemName, itemPrice, recipientName),
		Kind:                 KindRecommendation,
		Phone:                user,
		DisplayName:          senderName,
		Table:                s.table,
		RecommendedItem:      itemName,
		RecommendedItemPrice: itemPrice,
		RecommendedTo:        recipientName,
	})
}

// History returns the table's messages ordered oldest first.
func (s *Service) History(ctx context.Context) ([]Message, error) {
	docs, err := s.store.QueryMany(ctx, docstore.MessagesCollection(s.table), docstore.Query{
		OrderBy: "timestamp",
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msgs := make([]Message, 0, len(docs))
	for _, doc := range docs {
		msgs = append(msgs, FromDocument(doc))
	}
	return msgs, nil
}

func (s *Service) queue(m Message) (string, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	clientID := uuid.New().String()
	if err := s.db.QueueOutbox(clientID, s.table, m.Kind, string(payload)); err != nil {
		return "", fmt.Errorf("queue message: %w", err)
	}
	s.log.Debug("message queued", zap.String("client_msg_id", clientID), zap.String("kind", m.Kind))
	s.bus.Publish(bus.Event{
		Kind:      bus.KindChatQueued,
		Timestamp: time.Now(),
		Payload:   map[string]string{"client_msg_id": clientID, "kind": m.Kind},
	})
	return clientID, nil
}
