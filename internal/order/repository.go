package order

import (
	"sort"
	"sync"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// Repository persists orders. Save is conditional on the status the caller
// read, so two collaborators racing on the same lifecycle step cannot both
// win; the loser gets a conflict and re-reads.
type Repository interface {
	Create(o Order) (Order, error)
	GetByID(id string) (Order, error)
	ListByUser(userID int) ([]Order, error)
	Save(o Order, expected Status) (Order, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.Mutex
	orders map[string]Order
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[string]Order)}
}

func (r *InMemoryRepository) Create(o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return Order{}, apperr.Conflict("order already exists")
	}
	r.orders[o.ID] = cloneOrder(o)
	return o, nil
}

func (r *InMemoryRepository) GetByID(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, apperr.NotFound("order not found")
	}
	return cloneOrder(o), nil
}

func (r *InMemoryRepository) ListByUser(userID int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) Save(o Order, expected Status) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return Order{}, apperr.NotFound("order not found")
	}
	if stored.Status != expected {
		return Order{}, apperr.Conflict("order status changed concurrently")
	}
	r.orders[o.ID] = cloneOrder(o)
	return o, nil
}

func cloneOrder(o Order) Order {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
