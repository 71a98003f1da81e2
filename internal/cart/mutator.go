package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/metrics"
	"github.com/angelmondragon/qkart/pkg/types"
)

const (
	MsgLoginRequired = "Login to add an item to the Cart"
	MsgAlreadyInCart = "Item already in cart. Use the cart sidebar to update quantity or remove item."
	MsgUpdatePending = "An update for this item is already in progress"
	MsgBackendFailed = "Something went wrong. Check that the backend is running, reachable and returns valid JSON."
)

// Store is the quantity-authoritative cart backend.
type Store interface {
	UpdateCart(ctx context.Context, token, productID string, qty int) ([]types.CartEntry, error)
}

// Identity exposes the bearer token of the current user. An empty token means unauthenticated.
type Identity interface {
	Token() string
}

// Policy controls duplicate handling. The product card's "Add to Cart" uses
// PreventDuplicate=false; the cart's own +/- controls use true.
type Policy struct {
	PreventDuplicate bool
}

// UpdateRequest describes one absolute quantity change.
type UpdateRequest struct {
	Current   []LineItem
	Catalog   []types.Product
	ProductID string
	Qty       int
	Policy    Policy
}

// Mutator issues guarded cart updates and re-derives the cart from the response.
type Mutator struct {
	store   Store
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
}

// MutatorOption configures optional Mutator behavior.
type MutatorOption func(*Mutator)

func WithLogger(logg *logger.Logger) MutatorOption {
	return func(m *Mutator) {
		if logg != nil {
			m.logg = logg
		}
	}
}

func WithMetrics(cm *metrics.CartMetrics) MutatorOption {
	return func(m *Mutator) {
		m.metrics = cm
	}
}

// NewMutator builds a Mutator backed by store.
func NewMutator(store Store, opts ...MutatorOption) (*Mutator, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	m := &Mutator{
		store:   store,
		logg:    logger.Nop(),
		now:     time.Now,
		pending: map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// SetQuantity sets the absolute quantity of req.ProductID and returns the
// reconciled cart built from the backend's response. Rejected calls never
// reach the network and leave the caller's state untouched.
func (m *Mutator) SetQuantity(ctx context.Context, identity Identity, req UpdateRequest) ([]LineItem, error) {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"product_id":        req.ProductID,
		"qty":               req.Qty,
		"prevent_duplicate": req.Policy.PreventDuplicate,
	})

	token := tokenOf(identity)
	if token == "" {
		m.metrics.IncMutation(metrics.OutcomeUnauthorized)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, MsgLoginRequired)
	}
	if strings.TrimSpace(req.ProductID) == "" {
		m.metrics.IncMutation(metrics.OutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if req.Qty < 0 {
		m.metrics.IncMutation(metrics.OutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative").
			WithDetails(map[string]any{"qty": req.Qty})
	}
	if !req.Policy.PreventDuplicate && Contains(req.Current, req.ProductID) {
		m.metrics.IncMutation(metrics.OutcomeDuplicate)
		return nil, pkgerrors.New(pkgerrors.CodeConflict, MsgAlreadyInCart)
	}

	if !m.acquire(req.ProductID) {
		m.metrics.IncMutation(metrics.OutcomePending)
		m.logg.Warn(ctx, "cart.update.pending")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, MsgUpdatePending).
			WithDetails(map[string]any{"product_id": req.ProductID})
	}
	defer m.release(req.ProductID)

	start := m.now()
	entries, err := m.store.UpdateCart(ctx, token, req.ProductID, req.Qty)
	m.metrics.ObserveUpdate(m.now().Sub(start))
	if err != nil {
		return nil, m.fail(ctx, err)
	}

	if entries == nil {
		entries = []types.CartEntry{}
	}
	result := Join(entries, req.Catalog)
	if len(result.Dropped) > 0 {
		m.metrics.AddDropped(len(result.Dropped))
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{
			"dropped":             len(result.Dropped),
			"dropped_product_ids": result.Dropped,
		}), "cart.reconcile.dropped")
	}

	m.metrics.IncMutation(metrics.OutcomeSuccess)
	m.logg.Debug(ctx, "cart.update.applied")
	return result.Items, nil
}

// Pending reports whether an update for productID is in flight.
func (m *Mutator) Pending(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[productID]
	return ok
}

func (m *Mutator) acquire(productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.pending[productID]; busy {
		return false
	}
	m.pending[productID] = struct{}{}
	return true
}

func (m *Mutator) release(productID string) {
	m.mu.Lock()
	delete(m.pending, productID)
	m.mu.Unlock()
}

func (m *Mutator) fail(ctx context.Context, err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgBackendFailed)
	}

	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeConflict:
		m.metrics.IncMutation(metrics.OutcomeRejected)
		m.logg.Warn(m.logg.WithField(ctx, "reason", typed.Message()), "cart.update.rejected")
	case pkgerrors.CodeUnauthorized:
		m.metrics.IncMutation(metrics.OutcomeUnauthorized)
		m.logg.Warn(ctx, "cart.update.unauthorized")
	default:
		m.metrics.IncMutation(metrics.OutcomeFailed)
		m.logg.Error(ctx, "cart.update.failed", err)
	}
	return typed
}

// SignedIn reports whether identity carries a bearer token.
func SignedIn(identity Identity) bool {
	return tokenOf(identity) != ""
}

func tokenOf(identity Identity) string {
	if identity == nil {
		return ""
	}
	return strings.TrimSpace(identity.Token())
}
