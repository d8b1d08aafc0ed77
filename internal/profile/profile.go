// Package profile handles phone-based login and display name resolution.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/cache"
	"github.com/matheus3301/mesa/internal/docstore"
)

// nameTTL bounds how long a resolved display name stays cached.
const nameTTL = 10 * time.Minute

// ErrNameRequired signals that the phone number is unknown and registration
// needs a display name.
var ErrNameRequired = errors.New("new phone number, display name required")

// User is a diner's session identity.
type User struct {
	Phone       string `json:"phoneNumber"`
	DisplayName string `json:"displayName"`
}

// Service looks up and registers users against the remote store.
type Service struct {
	store docstore.Store
	log   *zap.Logger
	names *cache.Cache[string]
}

func NewService(store docstore.Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   log.Named("profile"),
		names: cache.New[string](nameTTL),
	}
}

// Login resolves a phone number to a session user. Unknown numbers return
// ErrNameRequired so the caller can prompt for a name and call Register.
func (s *Service) Login(ctx context.Context, phone string) (User, error) {
	doc, err := s.store.GetOne(ctx, docstore.CollectionUsers, phone)
	if err != nil {
		return User{}, fmt.Errorf("look up user: %w", err)
	}
	if doc == nil {
		return User{}, ErrNameRequired
	}
	name, _ := doc.Data["name"].(string)
	if name == "" {
		name = phone
	}
	if err := s.store.MergeOne(ctx, docstore.CollectionUsers, phone, map[string]any{
		"lastLogin": docstore.ServerTimestamp,
	}); err != nil {
		s.log.Warn("last login update failed", zap.String("phone", phone), zap.Error(err))
	}
	s.log.Info("login", zap.String("phone", phone))
	return User{Phone: phone, DisplayName: name}, nil
}

// Register creates the user document and returns the session user.
func (s *Service) Register(ctx context.Context, phone, name string) (User, error) {
	if name == "" {
		return User{}, ErrNameRequired
	}
	err := s.store.MergeOne(ctx, docstore.CollectionUsers, phone, map[string]any{
		"name":        name,
		"phoneNumber": phone,
		"createdAt":   docstore.ServerTimestamp,
		"lastLogin":   docstore.ServerTimestamp,
	})
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("registered", zap.String("phone", phone))
	return User{Phone: phone, DisplayName: name}, nil
}

// DisplayName resolves a phone number to a name, falling back to the phone
// number itself when the profile is missing or the lookup fails. Results are
// cached.
func (s *Service) DisplayName(ctx context.Context, phone string) string {
	if name, ok := s.names.Get(phone); ok {
		return name
	}
	doc, err := s.store.GetOne(ctx, docstore.CollectionUsers, phone)
	if err != nil {
		s.log.Warn("name lookup failed", zap.String("phone", phone), zap.Error(err))
		return phone
	}
	name := phone
	if doc != nil {
		if n, _ := doc.Data["name"].(string); n != "" {
			name = n
		} else if n, _ := doc.Data["displayName"].(string); n != "" {
			name = n
		}
	}
	s.names.Set(phone, name)
	return name
}

// InvalidateName drops a cached display name, used after profile edits.
func (s *Service) InvalidateName(phone string) {
	s.names.Invalidate(phone)
}
