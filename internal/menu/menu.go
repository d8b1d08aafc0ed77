// Package menu serves the product catalog backed by the remote store.
package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/cache"
	"github.com/matheus3301/mesa/internal/docstore"
)

// listTTL bounds how long the catalog listing stays cached.
const listTTL = 5 * time.Minute

const listCacheKey = "all"

// ErrMissingID is returned when an update or delete lacks a product id.
var ErrMissingID = errors.New("product id required")

// Categories the menu groups products into.
var Categories = map[string]string{
	"main-course": "Main Course",
	"appetizers":  "Appetizers",
	"drinks":      "Drinks",
	"desserts":    "Desserts",
}

// Product is a catalog entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
	OrderCount  int     `json:"orderCount,omitempty"`
	ChefSpecial bool    `json:"chefSpecial,omitempty"`
	IsPopular   bool    `json:"isPopular,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

// Service reads and administers the product catalog.
type Service struct {
	store docstore.Store
	log   *zap.Logger
	list  *cache.Cache[[]Product]
}

func NewService(store docstore.Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   log.Named("menu"),
		list:  cache.New[[]Product](listTTL),
	}
}

// List returns every product grouped by category, most ordered first within
// each group. The listing is cached; admin writes invalidate it.
func (s *Service) List(ctx context.Context) (map[string][]Product, error) {
	products, ok := s.list.Get(listCacheKey)
	if !ok {
		docs, err := s.store.QueryMany(ctx, docstore.CollectionProducts, docstore.Query{})
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		products = make([]Product, 0, len(docs))
		for _, doc := range docs {
			products = append(products, fromDocument(doc))
		}
		s.list.Set(listCacheKey, products)
	}

	grouped := make(map[string][]Product)
	for _, p := range products {
		cat := p.Category
		if cat == "" {
			cat = "main-course"
		}
		grouped[cat] = append(grouped[cat], p)
	}
	for _, group := range grouped {
		sort.SliceStable(group, func(i, j int) bool { return group[i].OrderCount > group[j].OrderCount })
	}
	return grouped, nil
}

// Get returns one product or nil when absent.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	doc, err := s.store.GetOne(ctx, docstore.CollectionProducts, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	p := fromDocument(*doc)
	return &p, nil
}

// Create adds a product and returns its id.
func (s *Service) Create(ctx context.Context, p Product) (string, error) {
	data := toData(p)
	data["createdAt"] = docstore.ServerTimestamp
	data["updatedAt"] = docstore.ServerTimestamp
	id, err := s.store.CreateOne(ctx, docstore.CollectionProducts, data)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	s.list.InvalidateAll()
	s.log.Info("product created", zap.String("id", id), zap.String("name", p.Name))
	return id, nil
}

// Update patches an existing product.
func (s *Service) Update(ctx context.Context, p Product) error {
	if p.ID == "" {
		return ErrMissingID
	}
	data := toData(p)
	data["updatedAt"] = docstore.ServerTimestamp
	if err := s.store.UpdateOne(ctx, docstore.CollectionProducts, p.ID, data); err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	s.list.InvalidateAll()
	return nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if err := s.store.DeleteOne(ctx, docstore.CollectionProducts, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.list.InvalidateAll()
	s.log.Info("product deleted", zap.String("id", id))
	return nil
}

func fromDocument(doc docstore.Document) Product {
	p := Product{ID: doc.ID, IsAvailable: true}
	p.Name, _ = doc.Data["name"].(string)
	p.Price = num(doc.Data["price"])
	p.Description, _ = doc.Data["description"].(string)
	p.Image, _ = doc.Data["image"].(string)
	p.Category, _ = doc.Data["category"].(string)
	p.Rating = num(doc.Data["rating"])
	p.ReviewCount = int(num(doc.Data["reviewCount"]))
	p.OrderCount = int(num(doc.Data["orderCount"]))
	p.ChefSpecial, _ = doc.Data["chefSpecial"].(bool)
	p.IsPopular, _ = doc.Data["isPopular"].(bool)
	if avail, ok := doc.Data["isAvailable"].(bool); ok {
		p.IsAvailable = avail
	}
	return p
}

func toData(p Product) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"price":       p.Price,
		"description": p.Description,
		"image":       p.Image,
		"category":    p.Category,
		"rating":      p.Rating,
		"reviewCount": p.ReviewCount,
		"orderCount":  p.OrderCount,
		"chefSpecial": p.ChefSpecial,
		"isPopular":   p.IsPopular,
		"isAvailable": p.IsAvailable,
	}
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
