package cart

import (
	"log"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
	"github.com/phamduchai/agrimart-backend/internal/product"
)

// ProductReader is the slice of the catalog the cart needs: existence, name,
// current price and stock for validation and enrichment.
type ProductReader interface {
	GetByID(id int) (product.Product, error)
	ListByIDs(ids []int) ([]product.Product, error)
}

// Service owns all cart mutations. Each mutation re-reads the latest
// persisted state, applies the change, recomputes the total and writes back
// under the version token, retrying a bounded number of times on conflict.
type Service struct {
	repo     Repository
	products ProductReader
}

const maxConflictRetries = 3

func NewService(repo Repository, products ProductReader) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the user's cart enriched with current product data. The cart is
// created lazily on first access. Lines whose product no longer exists (or
// was deactivated) are pruned and the pruned cart persisted.
func (s *Service) Get(userID int) (View, error) {
	c, err := s.loadOrCreate(userID)
	if err != nil {
		return View{}, err
	}
	return s.enrich(c, true)
}

type mutateFunc func(items []Item) ([]Item, error)

func (s *Service) mutate(userID int, fn mutateFunc) (View, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		c, err := s.loadOrCreate(userID)
		if err != nil {
			return View{}, err
		}

		items, err := fn(c.Items)
		if err != nil {
			return View{}, err
		}
		c.Items = items
		c.TotalPrice = Total(items)

		updated, err := s.repo.Update(c)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindConflict {
				lastErr = err
				continue
			}
			return View{}, err
		}
		return s.enrich(updated, false)
	}
	return View{}, lastErr
}

// AddItem adds qty units of a product, incrementing an existing line. The
// unit price is snapshotted from the catalog when the line first appears.
func (s *Service) AddItem(userID, productID, qty int) (View, error) {
	if qty < 1 {
		return View{}, apperr.Validation("quantity must be at least 1")
	}
	return s.mutate(userID, func(items []Item) ([]Item, error) {
		p, err := s.buyableProduct(productID)
		if err != nil {
			return nil, err
		}

		idx := indexOf(items, productID)
		resulting := qty
		if idx >= 0 {
			resulting += items[idx].Quantity
		}
		if resulting > p.CountInStock {
			return nil, apperr.InsufficientStock(productID, p.CountInStock)
		}

		if idx >= 0 {
			items[idx].Quantity = resulting
			return items, nil
		}
		return append(items, Item{ProductID: productID, Quantity: qty, UnitPrice: p.Price}), nil
	})
}

// SetItemQuantity replaces a line's quantity. Zero removes the line.
func (s *Service) SetItemQuantity(userID, productID, qty int) (View, error) {
	if qty < 0 {
		return View{}, apperr.Validation("quantity must not be negative")
	}
	if qty == 0 {
		return s.RemoveItem(userID, productID)
	}
	return s.mutate(userID, func(items []Item) ([]Item, error) {
		p, err := s.buyableProduct(productID)
		if err != nil {
			return nil, err
		}
		if qty > p.CountInStock {
			return nil, apperr.InsufficientStock(productID, p.CountInStock)
		}

		idx := indexOf(items, productID)
		if idx < 0 {
			return nil, apperr.NotFound("product not in cart")
		}
		items[idx].Quantity = qty
		return items, nil
	})
}

func (s *Service) RemoveItem(userID, productID int) (View, error) {
	return s.mutate(userID, func(items []Item) ([]Item, error) {
		idx := indexOf(items, productID)
		if idx < 0 {
			return nil, apperr.NotFound("product not in cart")
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
}

// Clear empties the cart (the row stays). Used by checkout after the order
// committed and by clients directly.
func (s *Service) Clear(userID int) error {
	_, err := s.mutate(userID, func([]Item) ([]Item, error) {
		return []Item{}, nil
	})
	return err
}

func (s *Service) loadOrCreate(userID int) (Cart, error) {
	c, err := s.repo.Get(userID)
	if err == nil {
		return c, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return Cart{}, err
	}

	created, err := s.repo.Create(Cart{UserID: userID, Items: []Item{}})
	if err != nil {
		// a concurrent first access may have created it already
		if apperr.KindOf(err) == apperr.KindConflict {
			return s.repo.Get(userID)
		}
		return Cart{}, err
	}
	return created, nil
}

func (s *Service) buyableProduct(productID int) (product.Product, error) {
	p, err := s.products.GetByID(productID)
	if err != nil {
		return product.Product{}, err
	}
	if !p.IsActive {
		return product.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

// enrich joins the persisted lines with current product data. With prune set,
// lines that no longer resolve to a live product are dropped and the cart is
// written back in pruned form.
func (s *Service) enrich(c Cart, prune bool) (View, error) {
	ids := make([]int, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}

	prods, err := s.products.ListByIDs(ids)
	if err != nil {
		return View{}, err
	}
	byID := make(map[int]product.Product, len(prods))
	for _, p := range prods {
		if p.IsActive {
			byID[p.ID] = p
		}
	}

	enriched := make([]EnrichedItem, 0, len(c.Items))
	kept := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		kept = append(kept, it)
		enriched = append(enriched, EnrichedItem{
			Item:         it,
			Name:         p.Name,
			Image:        p.Image,
			CurrentPrice: p.Price,
			CountInStock: p.CountInStock,
		})
	}

	if prune && len(kept) < len(c.Items) {
		c.Items = kept
		c.TotalPrice = Total(kept)
		if updated, err := s.repo.Update(c); err != nil {
			// a conflicting writer will re-prune on its own read
			log.Printf("cart prune for user %d not persisted: %v", c.UserID, err)
		} else {
			c = updated
		}
	}

	return View{
		UserID:     c.UserID,
		Items:      enriched,
		TotalPrice: Total(kept),
		Version:    c.Version,
	}, nil
}

func indexOf(items []Item, productID int) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
