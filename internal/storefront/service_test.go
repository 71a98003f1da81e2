package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/qkart/internal/cart"
	"github.com/angelmondragon/qkart/internal/session"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/shopspring/decimal"
)

type stubBackend struct {
	mu sync.Mutex

	products   []types.Product
	listErr    error
	searchRes  []types.Product
	searchErr  error
	membership []types.CartEntry
	fetchErr   error

	updates []types.CartEntry
}

func (s *stubBackend) ListProducts(ctx context.Context) ([]types.Product, error) {
	return s.products, s.listErr
}

func (s *stubBackend) SearchProducts(ctx context.Context, text string) ([]types.Product, error) {
	return s.searchRes, s.searchErr
}

func (s *stubBackend) FetchCart(ctx context.Context, token string) ([]types.CartEntry, error) {
	return s.membership, s.fetchErr
}

func (s *stubBackend) UpdateCart(ctx context.Context, token, productID string, qty int) ([]types.CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, types.CartEntry{ProductID: productID, Qty: qty})

	next := make([]types.CartEntry, 0, len(s.membership)+1)
	found := false
	for _, entry := range s.membership {
		if entry.ProductID == productID {
			found = true
			if qty > 0 {
				next = append(next, types.CartEntry{ProductID: productID, Qty: qty})
			}
			continue
		}
		next = append(next, entry)
	}
	if !found && qty > 0 {
		next = append(next, types.CartEntry{ProductID: productID, Qty: qty})
	}
	s.membership = next
	return next, nil
}

func catalog() []types.Product {
	return []types.Product{
		{ID: "A", Name: "Duffle", Category: "Fashion", Cost: decimal.NewFromInt(100)},
		{ID: "B", Name: "Headphones", Category: "Electronics", Cost: decimal.NewFromInt(50)},
	}
}

func newTestService(t *testing.T, backend *stubBackend) *Service {
	t.Helper()
	mutator, err := cart.NewMutator(backend)
	if err != nil {
		t.Fatalf("new mutator: %v", err)
	}
	svc, err := NewService(backend, mutator, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func user() *session.Session {
	return session.New("jwt", "crio.do", decimal.NewFromInt(5000))
}

func TestLoadReconcilesCart(t *testing.T) {
	backend := &stubBackend{products: catalog(), membership: []types.CartEntry{{ProductID: "A", Qty: 2}}}
	svc := newTestService(t, backend)

	if err := svc.Load(context.Background(), user()); err != nil {
		t.Fatalf("load: %v", err)
	}
	view := svc.View()
	if len(view.Products) != 2 || !view.HasCart() || len(view.Items) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Summary.ItemCount != 2 || !view.Summary.TotalValue.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected summary %+v", view.Summary)
	}
}

func TestLoadAnonymousHasNoCart(t *testing.T) {
	backend := &stubBackend{products: catalog(), membership: []types.CartEntry{{ProductID: "A", Qty: 2}}}
	svc := newTestService(t, backend)

	if err := svc.Load(context.Background(), (*session.Session)(nil)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if view := svc.View(); view.HasCart() {
		t.Fatalf("expected no cart for anonymous user, got %+v", view.Items)
	}
}

func TestLoadCartFailureKeepsCatalog(t *testing.T) {
	backend := &stubBackend{products: catalog(), fetchErr: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	svc := newTestService(t, backend)

	err := svc.Load(context.Background(), user())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected cart error, got %v", err)
	}
	view := svc.View()
	if len(view.Products) != 2 || view.HasCart() {
		t.Fatalf("expected catalog without cart, got %+v", view)
	}
}

func TestLoadCatalogNotFound(t *testing.T) {
	backend := &stubBackend{listErr: pkgerrors.New(pkgerrors.CodeNotFound, "No products found")}
	svc := newTestService(t, backend)

	if err := svc.Load(context.Background(), nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if view := svc.View(); !view.NoProducts || len(view.Products) != 0 {
		t.Fatalf("expected empty catalog flag, got %+v", view)
	}
}

func TestLoadCatalogFailure(t *testing.T) {
	backend := &stubBackend{listErr: errors.New("boom")}
	svc := newTestService(t, backend)

	if err := svc.Load(context.Background(), user()); err == nil {
		t.Fatal("expected catalog failure")
	}
}

func TestSearchKeepsFullCatalogForReconciliation(t *testing.T) {
	backend := &stubBackend{products: catalog(), membership: []types.CartEntry{}, searchRes: []types.Product{catalog()[1]}}
	svc := newTestService(t, backend)
	if err := svc.Load(context.Background(), user()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := svc.Search(context.Background(), "head"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if view := svc.View(); len(view.Products) != 1 || view.Products[0].ID != "B" {
		t.Fatalf("expected filtered view, got %+v", view.Products)
	}

	if err := svc.AddToCart(context.Background(), user(), "A"); err != nil {
		t.Fatalf("add: %v", err)
	}
	view := svc.View()
	if len(view.Items) != 1 || view.Items[0].Name != "Duffle" {
		t.Fatalf("expected A to reconcile against full catalog, got %+v", view.Items)
	}

	if err := svc.Search(context.Background(), ""); err != nil {
		t.Fatalf("reset search: %v", err)
	}
	if view := svc.View(); len(view.Products) != 2 {
		t.Fatalf("expected full catalog after reset, got %d", len(view.Products))
	}
}

func TestSearchNotFound(t *testing.T) {
	backend := &stubBackend{products: catalog(), searchErr: pkgerrors.New(pkgerrors.CodeNotFound, "No products found")}
	svc := newTestService(t, backend)
	if err := svc.Load(context.Background(), nil); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := svc.Search(context.Background(), "zzz"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if view := svc.View(); !view.NoProducts || len(view.Products) != 0 {
		t.Fatalf("expected no products, got %+v", view)
	}
}

func TestAddIncrementDecrement(t *testing.T) {
	backend := &stubBackend{products: catalog(), membership: []types.CartEntry{}}
	svc := newTestService(t, backend)
	ctx := context.Background()
	if err := svc.Load(ctx, user()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := svc.AddToCart(ctx, user(), "A"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.AddToCart(ctx, user(), "A"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if err := svc.Increment(ctx, user(), "A"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if view := svc.View(); view.Summary.ItemCount != 2 || !view.Summary.TotalValue.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected summary after increment %+v", view.Summary)
	}

	if err := svc.Decrement(ctx, user(), "A"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := svc.Decrement(ctx, user(), "A"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if view := svc.View(); len(view.Items) != 0 || !view.HasCart() {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}
	if err := svc.Decrement(ctx, user(), "A"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for absent product, got %v", err)
	}

	want := []int{1, 2, 1, 0}
	if len(backend.updates) != len(want) {
		t.Fatalf("expected %d updates, got %+v", len(want), backend.updates)
	}
	for i, qty := range want {
		if backend.updates[i].Qty != qty {
			t.Fatalf("update %d: expected qty %d, got %d", i, qty, backend.updates[i].Qty)
		}
	}
}

func TestAddToCartRequiresLogin(t *testing.T) {
	backend := &stubBackend{products: catalog()}
	svc := newTestService(t, backend)
	if err := svc.Load(context.Background(), nil); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := svc.AddToCart(context.Background(), (*session.Session)(nil), "A")
	if typed := pkgerrors.As(err); typed == nil || typed.Message() != cart.MsgLoginRequired {
		t.Fatalf("expected login prompt, got %v", err)
	}
	if len(backend.updates) != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestDecrementRequiresLoginBeforeMembership(t *testing.T) {
	backend := &stubBackend{products: catalog()}
	svc := newTestService(t, backend)
	if err := svc.Load(context.Background(), nil); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := svc.Decrement(context.Background(), (*session.Session)(nil), "A")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != cart.MsgLoginRequired {
		t.Fatalf("expected login prompt, got %v", err)
	}
	if len(backend.updates) != 0 {
		t.Fatal("expected no backend call")
	}
}
