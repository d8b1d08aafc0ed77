package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/cart"
	"github.com/matheus3301/mesa/internal/chat"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/gift"
	"github.com/matheus3301/mesa/internal/localstate"
	"github.com/matheus3301/mesa/internal/menu"
	"github.com/matheus3301/mesa/internal/metrics"
	"github.com/matheus3301/mesa/internal/notify"
	"github.com/matheus3301/mesa/internal/order"
	"github.com/matheus3301/mesa/internal/presence"
	"github.com/matheus3301/mesa/internal/profile"
	"github.com/matheus3301/mesa/internal/status"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// envelope is the JSON body of every API response.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server is the daemon's HTTP surface: the diner API, the admin API, the
// SSE event stream and the metrics endpoint.
type Server struct {
	listen     string
	table      string
	httpServer *http.Server
	listener   net.Listener
	router     *chi.Mux
	log        *zap.Logger

	bus      *bus.Bus
	machine  *status.Machine
	metrics  *metrics.Set
	db       *localstate.DB
	store    docstore.Store
	cart     *cart.State
	profiles *profile.Service
	menu     *menu.Service
	gifts    *gift.Service
	orders   *order.Service
	chat     *chat.Service
	runtime  *Runtime

	started time.Time
}

// NewServer builds the router and binds the listen address.
func NewServer(
	p Params,
	logger *zap.Logger,
	b *bus.Bus,
	machine *status.Machine,
	m *metrics.Set,
	db *localstate.DB,
	store docstore.Store,
	cartState *cart.State,
	profiles *profile.Service,
	menuSvc *menu.Service,
	gifts *gift.Service,
	orders *order.Service,
	chatSvc *chat.Service,
	runtime *Runtime,
) (*Server, error) {
	listener, err := net.Listen("tcp", p.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", p.Listen, err)
	}

	s := &Server{
		listen:   p.Listen,
		table:    p.SessionName,
		listener: listener,
		router:   chi.NewRouter(),
		log:      logger.Named("http"),
		bus:      b,
		machine:  machine,
		metrics:  m,
		db:       db,
		store:    store,
		cart:     cartState,
		profiles: profiles,
		menu:     menuSvc,
		gifts:    gifts,
		orders:   orders,
		chat:     chatSvc,
		runtime:  runtime,
		started:  time.Now(),
	}
	s.routes()
	s.httpServer = &http.Server{Handler: s.router}
	return s, nil
}

// Addr returns the bound listen address, useful when the port was 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins serving requests. Blocks until stopped.
func (s *Server) Start() error {
	s.log.Info("http server starting", zap.String("addr", s.Addr()))
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop performs a graceful shutdown.
func (s *Server) Stop(ctx context.Context) {
	s.log.Info("http server stopping")
	_ = s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	s.router.Get("/v1/events", s.handleEvents)

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSessionStatus)
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/tabs", func(r chi.Router) {
			r.Get("/last", s.handleGetLastTab)
			r.Put("/last", s.handleSetLastTab)
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", s.handleMenuList)
			r.Get("/{id}", s.handleMenuGet)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", s.handleWishlistGet)
			r.Post("/", s.handleWishlistAdd)
			r.Delete("/{id}", s.handleWishlistRemove)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleCartGet)
			r.Post("/items", s.handleCartAdd)
			r.Delete("/items/{id}", s.handleCartRemove)
			r.Put("/items/{id}/quantity", s.handleCartQuantity)
			r.Post("/clear", s.handleCartClear)
			r.Post("/totals", s.handleCartTotals)
		})

		r.Post("/checkout", s.handleCheckout)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/messages", s.handleChatHistory)
			r.Post("/messages", s.handleChatSend)
			r.Post("/viewing", s.handleChatViewing)
			r.Get("/unread", s.handleChatUnread)
		})

		r.Route("/typing", func(r chi.Router) {
			r.Get("/", s.handleTypingLive)
			r.Post("/input", s.handleTypingInput)
			r.Post("/blur", s.handleTypingBlur)
			r.Post("/focus", s.handleTypingFocus)
		})

		r.Post("/gifts", s.handleGiftSend)
		r.Post("/recommendations", s.handleRecommend)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/products", s.handleMenuList)
			r.Post("/products", s.handleProductCreate)
			r.Put("/products/{id}", s.handleProductUpdate)
			r.Delete("/products/{id}", s.handleProductDelete)
			r.Get("/tables", s.handleTables)
			r.Post("/tables/{table}/ready", s.handleTableReady)
			r.Post("/tables/{table}/clear", s.handleTableClear)
		})
	})
}

func (s *Server) respond(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(envelope{OK: code < 400, Data: data}); err != nil {
		s.log.Error("encoding response failed", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{OK: false, Error: msg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// requireUser resolves the logged-in user or writes a 401.
func (s *Server) requireUser(w http.ResponseWriter) *profile.User {
	u := s.runtime.CurrentUser()
	if u == nil {
		s.fail(w, http.StatusUnauthorized, "login required")
	}
	return u
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"session":  s.table,
		"status":   s.machine.Current(),
		"uptimeMs": time.Since(s.started).Milliseconds(),
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, _ *http.Request) {
	unread := 0
	if router := s.runtime.Router(); router != nil {
		unread = router.Unread()
	}
	s.respond(w, http.StatusOK, map[string]any{
		"session": s.table,
		"status":  s.machine.Current(),
		"user":    s.runtime.CurrentUser(),
		"unread":  unread,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phoneNumber"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.runtime.Login(r.Context(), req.Phone)
	if errors.Is(err, profile.ErrNameRequired) {
		s.fail(w, http.StatusUnprocessableEntity, "display name required")
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phoneNumber"`
		Name  string `json:"displayName"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.runtime.Register(r.Context(), req.Phone, req.Name)
	if errors.Is(err, profile.ErrNameRequired) {
		s.fail(w, http.StatusBadRequest, "display name required")
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusCreated, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.runtime.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLastTab(w http.ResponseWriter, _ *http.Request) {
	tab := "menu"
	if _, err := s.db.GetJSON(localstate.KeyLastActiveTab, &tab); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"tab": tab})
}

func (s *Server) handleSetLastTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.db.SetJSON(localstate.KeyLastActiveTab, req.Tab); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMenuList(w http.ResponseWriter, r *http.Request) {
	grouped, err := s.menu.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, grouped)
}

func (s *Server) handleMenuGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.menu.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		s.fail(w, http.StatusNotFound, "product not found")
		return
	}
	s.respond(w, http.StatusOK, p)
}

func (s *Server) wishlist() ([]menu.Product, error) {
	var items []menu.Product
	_, err := s.db.GetJSON(localstate.KeyWishlist, &items)
	return items, err
}

func (s *Server) handleWishlistGet(w http.ResponseWriter, _ *http.Request) {
	items, err := s.wishlist()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, items)
}

func (s *Server) handleWishlistAdd(w http.ResponseWriter, r *http.Request) {
	var p menu.Product
	if !s.decode(w, r, &p) {
		return
	}
	if p.ID == "" {
		s.fail(w, http.StatusBadRequest, "product id required")
		return
	}
	items, err := s.wishlist()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, it := range items {
		if it.ID == p.ID {
			s.respond(w, http.StatusOK, items)
			return
		}
	}
	items = append(items, p)
	if err := s.db.SetJSON(localstate.KeyWishlist, items); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.bus.Publish(bus.Event{Kind: bus.KindWishlistUpdated, Timestamp: time.Now(), Payload: items})
	s.respond(w, http.StatusOK, items)
}

func (s *Server) handleWishlistRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := s.wishlist()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if err := s.db.SetJSON(localstate.KeyWishlist, kept); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.bus.Publish(bus.Event{Kind: bus.KindWishlistUpdated, Timestamp: time.Now(), Payload: kept})
	s.respond(w, http.StatusOK, kept)
}

func (s *Server) handleCartGet(w http.ResponseWriter, _ *http.Request) {
	items := s.cart.Items()
	s.respond(w, http.StatusOK, map[string]any{
		"items":  items,
		"count":  s.cart.Count(),
		"totals": cart.Price(items, 0, 0),
	})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item     cart.Item `json:"item"`
		Quantity int       `json:"quantity"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Item.ID == "" {
		s.fail(w, http.StatusBadRequest, "item id required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	s.cart.Add(req.Item, req.Quantity)
	s.publishCart()
	s.respond(w, http.StatusOK, s.cart.Items())
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	removed, ok := s.cart.Remove(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, http.StatusNotFound, "item not in cart")
		return
	}
	// Any gift item, sent or received, has a backing record that must go
	// too, or the next gifts snapshot re-synthesizes the item. The local
	// removal stands even if the remote delete fails.
	if removed.GiftDocID != "" {
		if err := s.gifts.Remove(r.Context(), removed.GiftDocID); err != nil {
			s.log.Warn("remote gift delete failed", zap.String("doc", removed.GiftDocID), zap.Error(err))
			s.runtime.Notify(notify.Toast{Title: "Failed to remove gift", Body: err.Error(), Kind: notify.KindError})
		}
	}
	s.publishCart()
	s.respond(w, http.StatusOK, removed)
}

func (s *Server) handleCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	item, ok := s.cart.SetQuantity(chi.URLParam(r, "id"), req.Quantity)
	if !ok {
		s.fail(w, http.StatusNotFound, "item not in cart")
		return
	}
	s.publishCart()
	s.respond(w, http.StatusOK, item)
}

func (s *Server) handleCartClear(w http.ResponseWriter, _ *http.Request) {
	s.cart.Clear()
	s.publishCart()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) priceCart(w http.ResponseWriter, discountCode string, giftAmount float64) (cart.Totals, bool) {
	items := s.cart.Items()
	discount := 0.0
	if discountCode != "" {
		base := cart.Price(items, 0, 0)
		d, err := cart.ApplyDiscount(discountCode, base.Subtotal)
		if err != nil {
			s.fail(w, http.StatusBadRequest, err.Error())
			return cart.Totals{}, false
		}
		discount = d
	}
	return cart.Price(items, discount, giftAmount), true
}

func (s *Server) handleCartTotals(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DiscountCode string  `json:"discountCode"`
		GiftAmount   float64 `json:"giftAmount"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	totals, ok := s.priceCart(w, req.DiscountCode, req.GiftAmount)
	if !ok {
		return
	}
	s.respond(w, http.StatusOK, totals)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w)
	if u == nil {
		return
	}
	var req struct {
		CustomerName string  `json:"customerName"`
		DiscountCode string  `json:"discountCode"`
		GiftAmount   float64 `json:"giftAmount"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.CustomerName == "" {
		req.CustomerName = u.DisplayName
	}
	totals, ok := s.priceCart(w, req.DiscountCode, req.GiftAmount)
	if !ok {
		return
	}
	id, err := s.orders.Checkout(r.Context(), s.table, req.CustomerName, u.Phone, s.cart.Items(), totals)
	if errors.Is(err, order.ErrEmptyCart) {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.cart.Clear()
	s.publishCart()
	s.runtime.Notify(notify.Toast{Title: "Order placed!", Kind: notify.KindSuccess})
	s.respond(w, http.StatusCreated, map[string]any{"orderId": id, "totals": totals})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chat.History(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, msgs)
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w)
	if u == nil {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.chat.Send(u.Phone, u.DisplayName, req.Text)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if id == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if rep := s.runtime.Reporter(); rep != nil {
		rep.MessageSent()
	}
	s.respond(w, http.StatusAccepted, map[string]string{"clientMsgId": id})
}

func (s *Server) handleChatViewing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Viewing bool `json:"viewing"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if router := s.runtime.Router(); router != nil {
		router.SetViewingChat(req.Viewing)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatUnread(w http.ResponseWriter, _ *http.Request) {
	unread := 0
	if router := s.runtime.Router(); router != nil {
		unread = router.Unread()
	}
	s.respond(w, http.StatusOK, map[string]int{"unread": unread})
}

func (s *Server) handleTypingLive(w http.ResponseWriter, r *http.Request) {
	self := ""
	if u := s.runtime.CurrentUser(); u != nil {
		self = u.Phone
	}
	doc, err := s.store.GetOne(r.Context(), docstore.CollectionTyping, docstore.TypingDoc(s.table))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	live := presence.Live(presence.FromDocument(doc), self, time.Now())
	s.respond(w, http.StatusOK, map[string][]string{"typing": live})
}

func (s *Server) withReporter(w http.ResponseWriter, fn func(rep *presence.Reporter)) {
	rep := s.runtime.Reporter()
	if rep == nil {
		s.fail(w, http.StatusUnauthorized, "login required")
		return
	}
	fn(rep)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTypingInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.withReporter(w, func(rep *presence.Reporter) { rep.InputChanged(req.Text) })
}

func (s *Server) handleTypingBlur(w http.ResponseWriter, _ *http.Request) {
	s.withReporter(w, func(rep *presence.Reporter) { rep.Blur() })
}

func (s *Server) handleTypingFocus(w http.ResponseWriter, _ *http.Request) {
	s.withReporter(w, func(rep *presence.Reporter) { rep.Focus() })
}

func (s *Server) handleGiftSend(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w)
	if u == nil {
		return
	}
	var req struct {
		ItemID         string `json:"itemId"`
		RecipientPhone string `json:"recipientPhone"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.menu.Get(r.Context(), req.ItemID)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		s.fail(w, http.StatusNotFound, "product not found")
		return
	}
	recipientName := s.profiles.DisplayName(r.Context(), req.RecipientPhone)

	rec := gift.Record{
		ItemID:          p.ID,
		ItemName:        p.Name,
		ItemPrice:       p.Price,
		ItemImage:       p.Image,
		ItemDescription: p.Description,
		ItemRating:      p.Rating,
		ItemReviewCount: p.ReviewCount,
		SenderPhone:     u.Phone,
		SenderName:      u.DisplayName,
		RecipientPhone:  req.RecipientPhone,
		RecipientName:   recipientName,
	}
	id, err := s.gifts.Send(r.Context(), rec)
	if errors.Is(err, gift.ErrDuplicate) {
		s.fail(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Optimistic local insert; the next gifts snapshot reconciles to the
	// same item, so no flicker and no duplicate.
	rec.ID = id
	s.cart.AddGift(cart.SynthesizeSent(rec))
	s.publishCart()

	// The companion chat message rides the outbox; a queue failure does
	// not undo the gift.
	if _, err := s.chat.SendGiftMessage(u.Phone, u.DisplayName, p.Name, p.Price, recipientName, req.RecipientPhone); err != nil {
		s.log.Warn("gift chat message not queued", zap.Error(err))
	}
	s.runtime.Notify(notify.Toast{
		Title: fmt.Sprintf("Gifted %s to %s!", p.Name, recipientName),
		Kind:  notify.KindSuccess,
	})
	s.respond(w, http.StatusCreated, map[string]string{"giftId": id})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w)
	if u == nil {
		return
	}
	var req struct {
		ItemID         string `json:"itemId"`
		RecipientPhone string `json:"recipientPhone"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.menu.Get(r.Context(), req.ItemID)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		s.fail(w, http.StatusNotFound, "product not found")
		return
	}
	recipientName := s.profiles.DisplayName(r.Context(), req.RecipientPhone)
	id, err := s.chat.SendRecommendation(u.Phone, u.DisplayName, p.Name, p.Price, recipientName)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.runtime.Notify(notify.Toast{
		Title: fmt.Sprintf("Recommended %s to %s!", p.Name, recipientName),
		Kind:  notify.KindSuccess,
	})
	s.respond(w, http.StatusAccepted, map[string]string{"clientMsgId": id})
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var p menu.Product
	if !s.decode(w, r, &p) {
		return
	}
	id, err := s.menu.Create(r.Context(), p)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	var p menu.Product
	if !s.decode(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := s.menu.Update(r.Context(), p); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.menu.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.orders.ByTable(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, tables)
}

func (s *Server) handleTableReady(w http.ResponseWriter, r *http.Request) {
	n, err := s.orders.MarkTableReady(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleTableClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.orders.ClearTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respond(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) publishCart() {
	s.bus.Publish(bus.Event{Kind: bus.KindCartUpdated, Timestamp: time.Now(), Payload: s.cart.Items()})
}
