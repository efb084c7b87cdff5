package cart

import (
	"sync"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// Repository persists carts with optimistic locking. Update compares the
// stored version against the one carried by the argument and bumps it on
// success; a mismatch fails with a conflict error and no write.
type Repository interface {
	Get(userID int) (Cart, error)
	Create(c Cart) (Cart, error)
	Update(c Cart) (Cart, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[int]Cart
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]Cart)}
}

func (r *InMemoryRepository) Get(userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return Cart{}, apperr.NotFound("cart not found")
	}
	return cloneCart(c), nil
}

func (r *InMemoryRepository) Create(c Cart) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[c.UserID]; ok {
		return Cart{}, apperr.Conflict("cart already exists")
	}
	c.Version = 1
	r.carts[c.UserID] = cloneCart(c)
	return c, nil
}

func (r *InMemoryRepository) Update(c Cart) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.carts[c.UserID]
	if !ok {
		return Cart{}, apperr.NotFound("cart not found")
	}
	if stored.Version != c.Version {
		return Cart{}, apperr.Conflict("cart was modified concurrently")
	}
	c.Version++
	r.carts[c.UserID] = cloneCart(c)
	return c, nil
}

func cloneCart(c Cart) Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}
