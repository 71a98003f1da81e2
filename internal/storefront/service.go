package storefront

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/qkart/internal/cart"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Backend is the product and cart surface of the API client.
type Backend interface {
	ListProducts(ctx context.Context) ([]types.Product, error)
	SearchProducts(ctx context.Context, text string) ([]types.Product, error)
	FetchCart(ctx context.Context, token string) ([]types.CartEntry, error)
	cart.Store
}

// View is an immutable snapshot of the storefront state.
type View struct {
	Products   []types.Product
	Items      []cart.LineItem
	Summary    cart.Aggregate
	NoProducts bool
}

// HasCart reports whether cart membership is known.
func (v View) HasCart() bool {
	return v.Items != nil
}

type state struct {
	catalog    []types.Product
	visible    []types.Product
	items      []cart.LineItem
	noProducts bool
}

// Service holds the catalog and reconciled cart of one storefront session.
type Service struct {
	backend Backend
	mutator *cart.Mutator
	logg    *logger.Logger

	mu    sync.RWMutex
	state state
}

func NewService(backend Backend, mutator *cart.Mutator, logg *logger.Logger) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("storefront backend required")
	}
	if mutator == nil {
		return nil, fmt.Errorf("cart mutator required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{backend: backend, mutator: mutator, logg: logg}, nil
}

// Load fetches the catalog and, when identity is authenticated, the cart in parallel.
// A cart failure is returned after the catalog has been installed.
func (s *Service) Load(ctx context.Context, identity cart.Identity) error {
	token := ""
	if identity != nil {
		token = strings.TrimSpace(identity.Token())
	}

	var (
		catalog    []types.Product
		membership []types.CartEntry
		cartErr    error
		noProducts bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.backend.ListProducts(gctx)
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			noProducts = true
			catalog = []types.Product{}
			return nil
		}
		if err != nil {
			return err
		}
		catalog = products
		noProducts = len(products) == 0
		return nil
	})
	if token != "" {
		g.Go(func() error {
			entries, err := s.backend.FetchCart(gctx, token)
			if err != nil {
				cartErr = err
				return nil
			}
			membership = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logg.Error(ctx, "storefront.load.catalog_failed", err)
		return err
	}

	result := cart.Join(membership, catalog)
	if len(result.Dropped) > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "dropped_product_ids", result.Dropped), "storefront.load.dropped")
	}

	s.mu.Lock()
	s.state = state{
		catalog:    catalog,
		visible:    catalog,
		items:      result.Items,
		noProducts: noProducts,
	}
	s.mu.Unlock()

	if cartErr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", cartErr.Error()), "storefront.load.cart_failed")
		return cartErr
	}
	return nil
}

// Search filters the visible products. The catalog used for reconciliation is left untouched.
func (s *Service) Search(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		s.mu.Lock()
		s.state.visible = s.state.catalog
		s.state.noProducts = len(s.state.catalog) == 0
		s.mu.Unlock()
		return nil
	}

	products, err := s.backend.SearchProducts(ctx, text)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		products, err = []types.Product{}, nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.visible = products
	s.state.noProducts = len(products) == 0
	s.mu.Unlock()
	return nil
}

// AddToCart adds one unit of productID. A product already in the cart is rejected.
func (s *Service) AddToCart(ctx context.Context, identity cart.Identity, productID string) error {
	return s.apply(ctx, identity, productID, func(int) int { return 1 }, cart.Policy{PreventDuplicate: false})
}

// Increment raises the quantity of productID by one.
func (s *Service) Increment(ctx context.Context, identity cart.Identity, productID string) error {
	return s.apply(ctx, identity, productID, func(current int) int { return current + 1 }, cart.Policy{PreventDuplicate: true})
}

// Decrement lowers the quantity of productID by one; reaching zero removes it.
// Anonymous callers get the login prompt before any membership check.
func (s *Service) Decrement(ctx context.Context, identity cart.Identity, productID string) error {
	if !cart.SignedIn(identity) {
		return s.apply(ctx, identity, productID, func(current int) int { return current - 1 }, cart.Policy{PreventDuplicate: true})
	}
	s.mu.RLock()
	_, ok := cart.Find(s.state.items, productID)
	s.mu.RUnlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not in the cart").
			WithDetails(map[string]any{"product_id": productID})
	}
	return s.apply(ctx, identity, productID, func(current int) int { return current - 1 }, cart.Policy{PreventDuplicate: true})
}

func (s *Service) apply(ctx context.Context, identity cart.Identity, productID string, next func(int) int, policy cart.Policy) error {
	s.mu.RLock()
	current := s.state.items
	catalog := s.state.catalog
	s.mu.RUnlock()

	qty := 0
	if item, ok := cart.Find(current, productID); ok {
		qty = item.Qty
	}

	items, err := s.mutator.SetQuantity(ctx, identity, cart.UpdateRequest{
		Current:   current,
		Catalog:   catalog,
		ProductID: productID,
		Qty:       next(qty),
		Policy:    policy,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.items = items
	s.mu.Unlock()
	return nil
}

// View returns the current snapshot.
func (s *Service) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Products:   s.state.visible,
		Items:      s.state.items,
		Summary:    cart.Summarize(s.state.items),
		NoProducts: s.state.noProducts,
	}
}
