// Package app composes the daemon: providers for every subsystem and the
// lifecycle hooks that start and stop them in order.
package app

import (
	"context"
	"fmt"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/cart"
	"github.com/matheus3301/mesa/internal/chat"
	"github.com/matheus3301/mesa/internal/config"
	"github.com/matheus3301/mesa/internal/docstore"
	dsfirestore "github.com/matheus3301/mesa/internal/docstore/firestore"
	dsmemory "github.com/matheus3301/mesa/internal/docstore/memory"
	"github.com/matheus3301/mesa/internal/gift"
	"github.com/matheus3301/mesa/internal/localstate"
	"github.com/matheus3301/mesa/internal/lock"
	"github.com/matheus3301/mesa/internal/logging"
	"github.com/matheus3301/mesa/internal/menu"
	"github.com/matheus3301/mesa/internal/metrics"
	"github.com/matheus3301/mesa/internal/notify"
	"github.com/matheus3301/mesa/internal/order"
	"github.com/matheus3301/mesa/internal/profile"
	"github.com/matheus3301/mesa/internal/session"
	"github.com/matheus3301/mesa/internal/status"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Listen      string
	Backend     string // "firestore" or "memory"
	Firestore   config.Firestore
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideLocalState,
			provideDocstore,
			provideMetrics,
			provideCart,
			provideCenter,
			provideProfileService,
			provideMenuService,
			provideGiftService,
			provideOrderService,
			provideChatService,
			provideSender,
			provideRuntime,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideLocalState(p Params, logger *zap.Logger) (*localstate.DB, error) {
	dbPath := session.StateDBPath(p.SessionName)
	db, err := localstate.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("local state initialized", zap.String("path", dbPath))
	return db, nil
}

func provideDocstore(p Params, logger *zap.Logger) (docstore.Store, error) {
	switch p.Backend {
	case "memory":
		logger.Info("using in-memory document store")
		return dsmemory.New(), nil
	case "firestore", "":
		logger.Info("connecting to firestore", zap.String("project", p.Firestore.ProjectID))
		return dsfirestore.Open(context.Background(), p.Firestore.ProjectID, p.Firestore.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown backend %q", p.Backend)
	}
}

func provideMetrics() *metrics.Set {
	return metrics.New()
}

func provideCart(db *localstate.DB, logger *zap.Logger) (*cart.State, error) {
	var items []cart.Item
	if _, err := db.GetJSON(localstate.KeyCart, &items); err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	logger.Info("cart loaded", zap.Int("items", len(items)))
	return cart.NewState(items, func(items []cart.Item) error {
		return db.SetJSON(localstate.KeyCart, items)
	}), nil
}

func provideCenter(b *bus.Bus, logger *zap.Logger, m *metrics.Set) *notify.Center {
	return notify.NewCenter(b, logger, m)
}

func provideProfileService(store docstore.Store, logger *zap.Logger) *profile.Service {
	return profile.NewService(store, logger)
}

func provideMenuService(store docstore.Store, logger *zap.Logger) *menu.Service {
	return menu.NewService(store, logger)
}

func provideGiftService(store docstore.Store, logger *zap.Logger) *gift.Service {
	return gift.NewService(store, logger)
}

func provideOrderService(store docstore.Store, logger *zap.Logger) *order.Service {
	return order.NewService(store, logger)
}

func provideChatService(p Params, db *localstate.DB, store docstore.Store, b *bus.Bus, logger *zap.Logger) *chat.Service {
	return chat.NewService(db, store, b, logger, p.SessionName)
}

func provideSender(db *localstate.DB, store docstore.Store, b *bus.Bus, logger *zap.Logger, m *metrics.Set) *chat.Sender {
	return chat.NewSender(db, store, b, logger, m)
}

func provideRuntime(p Params, db *localstate.DB, store docstore.Store, b *bus.Bus, logger *zap.Logger, m *metrics.Set, machine *status.Machine, profiles *profile.Service, cartState *cart.State, center *notify.Center) *Runtime {
	return NewRuntime(db, store, b, logger, m, machine, profiles, cartState, center, p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, sender *chat.Sender, runtime *Runtime, machine *status.Machine, db *localstate.DB, store docstore.Store, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sender.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()

			// Restore a saved login if one exists; otherwise wait for one.
			if err := runtime.Restore(context.Background()); err != nil {
				logger.Warn("session restore failed", zap.Error(err))
			}
			if runtime.CurrentUser() == nil && machine.Current() == status.Booting {
				_ = machine.Transition(status.LoggedOut)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			runtime.Stop()
			sender.Stop()
			srv.Stop(ctx)
			if err := store.Close(); err != nil {
				logger.Warn("error closing document store", zap.Error(err))
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing local state", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
