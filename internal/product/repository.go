package product

import (
	"sort"
	"sync"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// Repository provides access to the product catalog.
type Repository interface {
	List() ([]Product, error)
	GetByID(id int) (Product, error)
	// ListByIDs returns products in the same order as the ids argument,
	// silently skipping ids that no longer exist.
	ListByIDs(ids []int) ([]Product, error)
	Create(p Product) (Product, error)
	Update(id int, p Product) (Product, error)
}

// InMemoryRepository backs tests and local scenarios. It also carries the
// inventory side of the product row (stock and sold counters) so it can stand
// in for the ledger the same way the products table does.
type InMemoryRepository struct {
	mu       sync.Mutex
	products map[int]Product
	nextID   int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{products: make(map[int]Product, len(seed)), nextID: 1}
	for _, p := range seed {
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *InMemoryRepository) List() ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) GetByID(id int) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

func (r *InMemoryRepository) ListByIDs(ids []int) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Create(p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	r.products[p.ID] = p
	return p, nil
}

func (r *InMemoryRepository) Update(id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return Product{}, apperr.NotFound("product not found")
	}
	p.ID = id
	r.products[id] = p
	return p, nil
}

// The methods below satisfy the inventory ledger contract; the mutex makes
// check-and-decrement a single serialized step per repository, mirroring the
// conditional UPDATE used against Postgres.

func (r *InMemoryRepository) CheckAvailability(productID, qty int) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return false, 0, apperr.NotFound("product not found")
	}
	return p.CountInStock >= qty, p.CountInStock, nil
}

func (r *InMemoryRepository) Decrement(productID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperr.NotFound("product not found")
	}
	if p.CountInStock < qty {
		return apperr.InsufficientStock(productID, p.CountInStock)
	}
	p.CountInStock -= qty
	r.products[productID] = p
	return nil
}

func (r *InMemoryRepository) Increment(productID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperr.NotFound("product not found")
	}
	p.CountInStock += qty
	r.products[productID] = p
	return nil
}

func (r *InMemoryRepository) RecordSale(productID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperr.NotFound("product not found")
	}
	p.Sold += qty
	r.products[productID] = p
	return nil
}
