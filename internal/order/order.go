// Package order handles checkout and the admin view over table orders.
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/cache"
	"github.com/matheus3301/mesa/internal/cart"
	"github.com/matheus3301/mesa/internal/docstore"
)

// tablesTTL bounds how stale the admin overview may be.
const tablesTTL = 2 * time.Minute

const tablesCacheKey = "tables"

// Order statuses.
const (
	StatusPending   = "pending"
	StatusReady     = "ready"
	StatusCompleted = "completed"
)

// ErrEmptyCart rejects checkout of an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// Line is one ordered item.
type Line struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	ID           string    `json:"id"`
	Table        string    `json:"tableNumber"`
	CustomerName string    `json:"customerName"`
	Phone        string    `json:"phoneNumber"`
	Items        []Line    `json:"items"`
	Total        float64   `json:"total"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableSummary aggregates one table's open orders for the back office.
type TableSummary struct {
	Table  string  `json:"tableNumber"`
	Orders []Order `json:"orders"`
	Total  float64 `json:"total"`
}

// Service places orders and drives the admin status transitions.
type Service struct {
	store  docstore.Store
	log    *zap.Logger
	tables *cache.Cache[[]TableSummary]
}

func NewService(store docstore.Store, log *zap.Logger) *Service {
	return &Service{
		store:  store,
		log:    log.Named("order"),
		tables: cache.New[[]TableSummary](tablesTTL),
	}
}

// Checkout places the cart as a pending order and returns its id.
func (s *Service) Checkout(ctx context.Context, table, customerName, phone string, items []cart.Item, totals cart.Totals) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyCart
	}
	lines := make([]any, 0, len(items))
	for _, it := range items {
		lines = append(lines, map[string]any{
			"name":     it.Name,
			"price":    it.Price,
			"quantity": it.Quantity,
		})
	}
	id, err := s.store.CreateOne(ctx, docstore.CollectionOrders, map[string]any{
		"tableNumber":  table,
		"customerName": customerName,
		"phoneNumber":  phone,
		"items":        lines,
		"total":        totals.Total,
		"status":       StatusPending,
		"createdAt":    docstore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	s.tables.InvalidateAll()
	s.log.Info("order placed", zap.String("id", id), zap.String("table", table), zap.Float64("total", totals.Total))
	return id, nil
}

// ByTable groups every order by table with per-table totals, newest table
// activity first inside each group.
func (s *Service) ByTable(ctx context.Context) ([]TableSummary, error) {
	if cached, ok := s.tables.Get(tablesCacheKey); ok {
		return cached, nil
	}
	docs, err := s.store.QueryMany(ctx, docstore.CollectionOrders, docstore.Query{
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	grouped := make(map[string][]Order)
	for _, doc := range docs {
		o := fromDocument(doc)
		grouped[o.Table] = append(grouped[o.Table], o)
	}

	summaries := make([]TableSummary, 0, len(grouped))
	for table, orders := range grouped {
		var total float64
		for _, o := range orders {
			total += o.Total
		}
		summaries = append(summaries, TableSummary{Table: table, Orders: orders, Total: total})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Table < summaries[j].Table })
	s.tables.Set(tablesCacheKey, summaries)
	return summaries, nil
}

// MarkTableReady moves every order of the table to ready.
func (s *Service) MarkTableReady(ctx context.Context, table string) (int, error) {
	return s.transition(ctx, table, StatusReady)
}

// ClearTable moves every order of the table to completed.
func (s *Service) ClearTable(ctx context.Context, table string) (int, error) {
	return s.transition(ctx, table, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, table, status string) (int, error) {
	docs, err := s.store.QueryMany(ctx, docstore.CollectionOrders, docstore.Query{
		Wheres: []docstore.Where{{Field: "tableNumber", Op: "==", Value: table}},
	})
	if err != nil {
		return 0, fmt.Errorf("list table orders: %w", err)
	}
	updated := 0
	for _, doc := range docs {
		err := s.store.UpdateOne(ctx, docstore.CollectionOrders, doc.ID, map[string]any{
			"status":    status,
			"updatedAt": docstore.ServerTimestamp,
		})
		if err != nil {
			return updated, fmt.Errorf("update order %s: %w", doc.ID, err)
		}
		updated++
	}
	s.tables.InvalidateAll()
	s.log.Info("table transition", zap.String("table", table), zap.String("status", status), zap.Int("orders", updated))
	return updated, nil
}

func fromDocument(doc docstore.Document) Order {
	o := Order{ID: doc.ID, Status: StatusPending}
	o.Table, _ = doc.Data["tableNumber"].(string)
	if o.Table == "" {
		o.Table = "table-1"
	}
	o.CustomerName, _ = doc.Data["customerName"].(string)
	o.Phone, _ = doc.Data["phoneNumber"].(string)
	if status, _ := doc.Data["status"].(string); status != "" {
		o.Status = status
	}
	o.Total = num(doc.Data["total"])
	o.CreatedAt, _ = doc.Data["createdAt"].(time.Time)
	if raw, ok := doc.Data["items"].([]any); ok {
		for _, entry := range raw {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			line := Line{Quantity: int(num(fields["quantity"])), Price: num(fields["price"])}
			line.Name, _ = fields["name"].(string)
			o.Items = append(o.Items, line)
		}
	}
	return o
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
