package cart

import (
	"errors"
	"sync"
	"testing"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
	"github.com/phamduchai/agrimart-backend/internal/product"
)

func seedProducts() *product.InMemoryRepository {
	return product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Jasmine Rice 5kg", Price: 100000, CountInStock: 10, IsActive: true},
		{ID: 2, Name: "Fish Sauce 500ml", Price: 60000, CountInStock: 3, IsActive: true},
	})
}

func TestAddItem_SnapshotsUnitPrice(t *testing.T) {
	products := seedProducts()
	svc := NewService(NewInMemoryRepository(), products)

	if _, err := svc.AddItem(7, 1, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	// a later catalog price change must not touch the line snapshot
	p, _ := products.GetByID(1)
	p.Price = 120000
	if _, err := products.Update(1, p); err != nil {
		t.Fatalf("update product: %v", err)
	}

	view, err := svc.AddItem(7, 1, 1)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("lines = %d, want 1", len(view.Items))
	}
	it := view.Items[0]
	if it.Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", it.Quantity)
	}
	if it.UnitPrice != 100000 {
		t.Fatalf("unitPrice = %d, want the 100000 snapshot", it.UnitPrice)
	}
	if it.CurrentPrice != 120000 {
		t.Fatalf("currentPrice = %d, want 120000", it.CurrentPrice)
	}
	if view.TotalPrice != 300000 {
		t.Fatalf("totalPrice = %d, want 300000 from the snapshot", view.TotalPrice)
	}
}

func TestAddItem_InsufficientStock(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), seedProducts())

	if _, err := svc.AddItem(7, 2, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	_, err := svc.AddItem(7, 2, 2)
	var ise *apperr.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ise.ProductID != 2 || ise.Available != 3 {
		t.Fatalf("got product %d available %d, want product 2 available 3", ise.ProductID, ise.Available)
	}

	view, _ := svc.Get(7)
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("cart changed on failed add: %+v", view.Items)
	}
}

func TestAddItem_UnknownOrInactiveProduct(t *testing.T) {
	products := seedProducts()
	svc := NewService(NewInMemoryRepository(), products)

	if _, err := svc.AddItem(7, 99, 1); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found for unknown product, got %v", err)
	}

	p, _ := products.GetByID(1)
	p.IsActive = false
	products.Update(1, p)
	if _, err := svc.AddItem(7, 1, 1); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found for inactive product, got %v", err)
	}
}

func TestSetItemQuantity(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), seedProducts())

	if _, err := svc.AddItem(7, 1, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	view, err := svc.SetItemQuantity(7, 1, 5)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if view.Items[0].Quantity != 5 || view.TotalPrice != 500000 {
		t.Fatalf("got qty %d total %d, want 5 and 500000", view.Items[0].Quantity, view.TotalPrice)
	}

	// zero removes the line
	view, err = svc.SetItemQuantity(7, 1, 0)
	if err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if len(view.Items) != 0 || view.TotalPrice != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}

	if _, err := svc.SetItemQuantity(7, 2, 1); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found for line not in cart, got %v", err)
	}
	if _, err := svc.SetItemQuantity(7, 2, -1); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for negative quantity, got %v", err)
	}
}

func TestGet_PrunesDeadLines(t *testing.T) {
	products := seedProducts()
	repo := NewInMemoryRepository()
	svc := NewService(repo, products)

	if _, err := svc.AddItem(7, 1, 1); err != nil {
		t.Fatalf("add item 1: %v", err)
	}
	if _, err := svc.AddItem(7, 2, 1); err != nil {
		t.Fatalf("add item 2: %v", err)
	}

	p, _ := products.GetByID(2)
	p.IsActive = false
	products.Update(2, p)

	view, err := svc.Get(7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != 1 {
		t.Fatalf("expected only product 1 to survive, got %+v", view.Items)
	}
	if view.TotalPrice != 100000 {
		t.Fatalf("totalPrice = %d, want 100000", view.TotalPrice)
	}

	// the pruned form was persisted, not just rendered
	stored, err := repo.Get(7)
	if err != nil {
		t.Fatalf("load stored cart: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("stored cart still has %d lines", len(stored.Items))
	}
}

// conflictOnceRepo simulates one concurrent writer winning the first Update.
type conflictOnceRepo struct {
	*InMemoryRepository
	mu    sync.Mutex
	fired bool
}

func (r *conflictOnceRepo) Update(c Cart) (Cart, error) {
	r.mu.Lock()
	first := !r.fired
	r.fired = true
	r.mu.Unlock()
	if first {
		return Cart{}, apperr.Conflict("cart was modified concurrently")
	}
	return r.InMemoryRepository.Update(c)
}

func TestMutate_RetriesOnVersionConflict(t *testing.T) {
	repo := &conflictOnceRepo{InMemoryRepository: NewInMemoryRepository()}
	svc := NewService(repo, seedProducts())

	view, err := svc.AddItem(7, 1, 1)
	if err != nil {
		t.Fatalf("add item should survive one conflict: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 1 {
		t.Fatalf("unexpected view after retry: %+v", view.Items)
	}
}

func TestClear(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), seedProducts())

	if _, err := svc.AddItem(7, 1, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.Clear(7); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := svc.Get(7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Items) != 0 || view.TotalPrice != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestTotal(t *testing.T) {
	items := []Item{
		{ProductID: 1, Quantity: 2, UnitPrice: 100000},
		{ProductID: 2, Quantity: 3, UnitPrice: 60000},
	}
	if got := Total(items); got != 380000 {
		t.Fatalf("Total = %d, want 380000", got)
	}
	if got := Total(nil); got != 0 {
		t.Fatalf("Total(nil) = %d, want 0", got)
	}
}
