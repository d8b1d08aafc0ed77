package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/cart"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/localstate"
	"github.com/matheus3301/mesa/internal/metrics"
	"github.com/matheus3301/mesa/internal/notify"
	"github.com/matheus3301/mesa/internal/presence"
	"github.com/matheus3301/mesa/internal/profile"
	"github.com/matheus3301/mesa/internal/remote"
	"github.com/matheus3301/mesa/internal/status"
	intsync "github.com/matheus3301/mesa/internal/sync"
	"go.uber.org/zap"
)

// ErrNotLoggedIn is returned by operations that need a diner identity.
var ErrNotLoggedIn = fmt.Errorf("no user logged in")

// Runtime owns the per-diner half of the daemon: remote watchers, the
// reconciliation engine, notification routing and typing presence. It is
// built once at boot and started/stopped as users log in and out, so every
// subscription and timer is scoped to exactly one identity at a time.
type Runtime struct {
	db       *localstate.DB
	store    docstore.Store
	bus      *bus.Bus
	log      *zap.Logger
	metrics  *metrics.Set
	machine  *status.Machine
	profiles *profile.Service
	cart     *cart.State
	center   *notify.Center
	table    string

	mu       sync.Mutex
	user     *profile.User
	watcher  *remote.Watcher
	engine   *intsync.Engine
	router   *notify.Router
	grouper  *notify.Grouper
	reporter *presence.Reporter
}

// NewRuntime wires the runtime's static dependencies. No subscriptions are
// opened until a user logs in.
func NewRuntime(db *localstate.DB, store docstore.Store, b *bus.Bus, log *zap.Logger, m *metrics.Set, machine *status.Machine, profiles *profile.Service, cartState *cart.State, center *notify.Center, table string) *Runtime {
	return &Runtime{
		db:       db,
		store:    store,
		bus:      b,
		log:      log.Named("runtime"),
		metrics:  m,
		machine:  machine,
		profiles: profiles,
		cart:     cartState,
		center:   center,
		table:    table,
	}
}

// Login resolves the phone number against the remote user collection and
// starts the per-user stack. profile.ErrNameRequired passes through when the
// phone is unknown; callers then retry with Register.
func (r *Runtime) Login(ctx context.Context, phone string) (profile.User, error) {
	u, err := r.profiles.Login(ctx, phone)
	if err != nil {
		return profile.User{}, err
	}
	if err := r.start(ctx, u); err != nil {
		return profile.User{}, err
	}
	return u, nil
}

// Register creates the user remotely and starts the per-user stack.
func (r *Runtime) Register(ctx context.Context, phone, name string) (profile.User, error) {
	u, err := r.profiles.Register(ctx, phone, name)
	if err != nil {
		return profile.User{}, err
	}
	if err := r.start(ctx, u); err != nil {
		return profile.User{}, err
	}
	return u, nil
}

// Restore re-establishes a previous login from the local snapshot, if any.
// Used at boot so a daemon restart does not log the diner out.
func (r *Runtime) Restore(ctx context.Context) error {
	var u profile.User
	found, err := r.db.GetJSON(localstate.KeyCurrentUser, &u)
	if err != nil || !found {
		return err
	}
	r.log.Info("restoring saved session", zap.String("phone", u.Phone))
	u2, err := r.profiles.Login(ctx, u.Phone)
	if err != nil {
		// The saved user may have been deleted remotely; drop the snapshot.
		_ = r.db.DeleteKey(localstate.KeyCurrentUser)
		return err
	}
	return r.start(ctx, u2)
}

// Logout tears down the per-user stack and clears the saved identity.
func (r *Runtime) Logout() {
	r.mu.Lock()
	if r.user == nil {
		r.mu.Unlock()
		return
	}
	user := *r.user
	r.stopLocked()
	r.mu.Unlock()

	_ = r.db.DeleteKey(localstate.KeyCurrentUser)
	r.bus.Publish(bus.Event{Kind: bus.KindSessionLogout, Timestamp: time.Now(), Payload: user})
	_ = r.machine.Transition(status.LoggedOut)
	r.log.Info("user logged out", zap.String("phone", user.Phone))
}

// Stop tears everything down without touching the saved identity, so the
// next boot restores the session.
func (r *Runtime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// CurrentUser returns the logged-in user, or nil.
func (r *Runtime) CurrentUser() *profile.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user == nil {
		return nil
	}
	u := *r.user
	return &u
}

// Reporter returns the typing reporter for the active user, or nil.
func (r *Runtime) Reporter() *presence.Reporter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reporter
}

// Router returns the notification router for the active user, or nil.
func (r *Runtime) Router() *notify.Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.router
}

// Notify emits a toast through the shared notification center.
func (r *Runtime) Notify(t notify.Toast) {
	r.center.Notify(t)
}

func (r *Runtime) start(ctx context.Context, u profile.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A second login replaces the first; the old subscriptions must not
	// outlive their user.
	r.stopLocked()

	_ = r.machine.Transition(status.Connecting)

	grouper := notify.NewGrouper(notify.DefaultWindow, r.center)
	router := notify.NewRouter(r.center, grouper, r.profiles)

	engine := intsync.NewEngine(r.bus, r.cart, router, r.log, r.metrics, u.Phone)
	engine.Start(ctx)

	watcher := remote.NewWatcher(r.store, r.bus, r.log, r.table, u.Phone)
	if err := watcher.Start(ctx); err != nil {
		engine.Stop()
		grouper.Close()
		_ = r.machine.Transition(status.Error)
		return fmt.Errorf("start watchers: %w", err)
	}

	writer := &presence.StoreWriter{Store: r.store, Table: r.table, Phone: cart.NormalizePhone(u.Phone), Name: u.DisplayName}
	reporter := presence.NewReporter(func(typing bool) {
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := writer.SetTyping(wctx, typing); err != nil {
			r.log.Warn("typing write failed", zap.Error(err))
		}
	})

	r.user = &u
	r.grouper = grouper
	r.router = router
	r.engine = engine
	r.watcher = watcher
	r.reporter = reporter

	if err := r.db.SetJSON(localstate.KeyCurrentUser, u); err != nil {
		r.log.Warn("persisting current user failed", zap.Error(err))
	}

	_ = r.machine.Transition(status.Syncing)
	_ = r.machine.Transition(status.Ready)
	r.bus.Publish(bus.Event{Kind: bus.KindSessionLogin, Timestamp: time.Now(), Payload: u})
	r.log.Info("user logged in", zap.String("phone", u.Phone), zap.String("name", u.DisplayName))
	return nil
}

func (r *Runtime) stopLocked() {
	if r.user == nil {
		return
	}
	r.reporter.Close()
	r.watcher.Stop()
	r.engine.Stop()
	r.grouper.Close()
	r.user = nil
	r.watcher = nil
	r.engine = nil
	r.router = nil
	r.grouper = nil
	r.reporter = nil
}
