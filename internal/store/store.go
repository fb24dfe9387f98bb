// Package store owns the client's shared application state: the cart, the
// session, the catalog snapshot, and the orchestration between them. All
// mutation goes through its command methods; nothing else touches the state
// directly.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RiyaSaju106/QuickIT/internal/api"
	"github.com/RiyaSaju106/QuickIT/internal/domain/cart"
	"github.com/RiyaSaju106/QuickIT/internal/domain/order"
	"github.com/RiyaSaju106/QuickIT/internal/domain/product"
	"github.com/RiyaSaju106/QuickIT/internal/localstate"
	"github.com/RiyaSaju106/QuickIT/internal/session"
)

// Backend is the slice of the REST client the store depends on.
// *api.Client satisfies it.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.User, error)
	Register(ctx context.Context, name, email, password, phone string) (*api.User, error)
	Logout(ctx context.Context) error
	FetchCart(ctx context.Context) ([]cart.Line, error)
	AddCartItem(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
	SubmitOrder(ctx context.Context, sub *order.Submission) (*order.Order, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
}

// Store is the single application-state object behind the client. Local
// mutations are synchronous and persisted immediately; remote mirroring is
// fire-and-forget and never blocks a local mutation.
type Store struct {
	backend Backend
	tokens  *session.Manager
	state   localstate.Store
	lg      *zap.Logger

	mu         sync.Mutex
	items      cart.Items
	catalog    product.MapCatalog
	user       *api.User
	reconciled bool

	mirrors sync.WaitGroup
}

// New constructs a Store. Call Start to load persisted state and run startup
// reconciliation.
func New(backend Backend, tokens *session.Manager, state localstate.Store, lg *zap.Logger) *Store {
	return &Store{
		backend: backend,
		tokens:  tokens,
		state:   state,
		lg:      lg,
		items:   cart.Items{},
		catalog: product.MapCatalog{},
	}
}

// Start rebuilds the cart from persisted storage, loads any persisted
// session, refreshes the catalog, and reconciles the cart when a session is
// already active. Catalog and reconciliation failures are logged, not fatal:
// the client works offline with its local cart.
func (s *Store) Start(ctx context.Context) error {
	if err := s.loadCart(ctx); err != nil {
		return errors.Wrap(err, "load cart")
	}
	if _, err := s.tokens.Load(ctx); err != nil {
		return errors.Wrap(err, "load session")
	}

	if err := s.RefreshCatalog(ctx); err != nil {
		s.lg.Warn("Catalog refresh failed", zap.Error(err))
	}
	if s.tokens.Active() {
		s.reconcile(ctx)
	}
	return nil
}

// Wait blocks until all in-flight background mirror calls have finished.
func (s *Store) Wait() {
	s.mirrors.Wait()
}

// --- Derived reads ---

// Items returns a copy of the current cart mapping.
func (s *Store) Items() cart.Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// TotalItems returns the sum of all cart quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalItems()
}

// TotalAmount returns the cart total against the current catalog snapshot.
// Products missing from the catalog are skipped.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalAmount(s.catalog)
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	return s.tokens.Active()
}

// CurrentUser returns the logged-in user profile, or nil.
func (s *Store) CurrentUser() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Catalog returns the current catalog snapshot.
func (s *Store) Catalog() product.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Products returns the catalog snapshot as a list sorted by name.
func (s *Store) Products() []product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]product.Product, 0, len(s.catalog))
	for _, p := range s.catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Cart commands ---

// AddItem adds one unit of a product to the cart. The local mutation is
// synchronous and persisted before returning; the remote add is mirrored in
// the background when a session is active.
func (s *Store) AddItem(ctx context.Context, productID string) {
	s.mu.Lock()
	s.items.Add(productID)
	s.persistCartLocked(ctx)
	s.mu.Unlock()

	s.mirror(ctx, "add", func(ctx context.Context) error {
		return s.backend.AddCartItem(ctx, productID, 1)
	})
}

// RemoveItem removes one unit of a product, or the whole line when removeAll
// is set. The mirrored remote call matches the local outcome: a delete when
// the line is gone, an absolute quantity update otherwise.
func (s *Store) RemoveItem(ctx context.Context, productID string, removeAll bool) {
	s.mu.Lock()
	remaining, ok := s.items.Remove(productID, removeAll)
	if ok {
		s.persistCartLocked(ctx)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	if remaining == 0 {
		s.mirror(ctx, "remove", func(ctx context.Context) error {
			return s.backend.RemoveCartItem(ctx, productID)
		})
		return
	}
	s.mirror(ctx, "update", func(ctx context.Context) error {
		return s.backend.UpdateCartItem(ctx, productID, remaining)
	})
}

// Clear empties the cart locally and mirrors a remote clear.
func (s *Store) Clear(ctx context.Context) {
	s.clearCartLocal(ctx)
	s.mirror(ctx, "clear", func(ctx context.Context) error {
		return s.backend.ClearCart(ctx)
	})
}

// --- Session commands ---

// Login authenticates and, on success, reconciles the local cart with the
// remote one.
func (s *Store) Login(ctx context.Context, email, password string) error {
	user, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = user
	s.reconciled = false
	s.mu.Unlock()

	s.reconcile(ctx)
	return nil
}

// Register creates an account. The backend auto-logs new users in, so a
// successful registration also triggers reconciliation.
func (s *Store) Register(ctx context.Context, name, email, password, phone string) error {
	user, err := s.backend.Register(ctx, name, email, password, phone)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.user = user
	s.reconciled = false
	s.mu.Unlock()

	if s.tokens.Active() {
		s.reconcile(ctx)
	}
	return nil
}

// Logout tells the backend to invalidate the session (best effort) and
// clears session and cart locally regardless of the outcome. Requests already
// in flight are not cancelled.
func (s *Store) Logout(ctx context.Context) {
	if s.tokens.Active() {
		if err := s.backend.Logout(ctx); err != nil {
			s.lg.Warn("Backend logout failed", zap.Error(err))
		}
	}
	if err := s.tokens.Clear(ctx); err != nil {
		s.lg.Error("Failed to clear session", zap.Error(err))
	}
	s.clearCartLocal(ctx)
	s.mu.Lock()
	s.user = nil
	s.reconciled = false
	s.mu.Unlock()
}

// HandleSessionExpired is wired as the API client's OnSessionExpired hook.
// The client has already cleared the tokens; this drops the dependent state.
func (s *Store) HandleSessionExpired(ctx context.Context) {
	s.clearCartLocal(ctx)
	s.mu.Lock()
	s.user = nil
	s.reconciled = false
	s.mu.Unlock()
}

// --- Catalog ---

// RefreshCatalog replaces the price-lookup snapshot with the current remote
// catalog.
func (s *Store) RefreshCatalog(ctx context.Context) error {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.catalog = product.NewMapCatalog(products)
	s.mu.Unlock()
	return nil
}

// --- Orders ---

// PlaceOrderResult pairs the created order with assembly diagnostics.
type PlaceOrderResult struct {
	Order *order.Order
	// Dropped counts cart entries excluded from the order because their
	// product could not be resolved.
	Dropped int
}

// PlaceOrder assembles the current cart into an order and submits it. The
// cart is cleared, locally and remotely, only after the backend confirms the
// order; any failure leaves it untouched.
func (s *Store) PlaceOrder(ctx context.Context, addr order.Address, paymentMethod, notes string) (*PlaceOrderResult, error) {
	s.mu.Lock()
	items := s.items.Clone()
	catalog := s.catalog
	s.mu.Unlock()

	res, err := order.Assemble(order.AssembleRequest{
		Items:           items,
		Catalog:         catalog,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		Notes:           notes,
	})
	if err != nil {
		return nil, err
	}

	placed, err := s.backend.SubmitOrder(ctx, res.Submission)
	if err != nil {
		return nil, err
	}

	s.Clear(ctx)
	return &PlaceOrderResult{Order: placed, Dropped: res.Dropped}, nil
}

// --- Internal ---

// mirror runs a remote cart call in the background. Mirroring is skipped
// without a session, failures are logged and never rolled back, and the
// call outlives the originating action's cancellation.
func (s *Store) mirror(ctx context.Context, op string, fn func(context.Context) error) {
	if !s.tokens.Active() {
		return
	}
	bg := context.WithoutCancel(ctx)
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		if err := fn(bg); err != nil {
			s.lg.Warn("Cart mirror failed", zap.String("op", op), zap.Error(err))
		}
	}()
}

// clearCartLocal empties and persists the local cart without mirroring.
func (s *Store) clearCartLocal(ctx context.Context) {
	s.mu.Lock()
	s.items = cart.Items{}
	s.persistCartLocked(ctx)
	s.mu.Unlock()
}

// loadCart rebuilds the cart mapping from persisted storage. A corrupt entry
// is dropped rather than wedging startup.
func (s *Store) loadCart(ctx context.Context) error {
	data, ok, err := s.state.Get(ctx, localstate.KeyCartItems)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	items := cart.Items{}
	if err := json.Unmarshal(data, &items); err != nil {
		s.lg.Warn("Discarding corrupt persisted cart", zap.Error(err))
		return s.state.Delete(ctx, localstate.KeyCartItems)
	}
	items.Normalize()
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// persistCartLocked writes the cart mapping to durable storage. Callers hold
// s.mu.
func (s *Store) persistCartLocked(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.lg.Error("Failed to encode cart", zap.Error(err))
		return
	}
	if err := s.state.Set(ctx, localstate.KeyCartItems, data); err != nil {
		s.lg.Error("Failed to persist cart", zap.Error(err))
	}
}
