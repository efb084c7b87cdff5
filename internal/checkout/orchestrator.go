// Package checkout converts a cart into a confirmed order. Cart, inventory
// and orders live in independently written aggregates with no shared
// transaction, so the conversion runs as a saga. A durable intent record (the
// pending order) is written before any inventory mutation and every applied
// decrement is tracked; on partial failure the saga reverses exactly what was
// applied and cancels the intent.
package checkout

import (
	"fmt"
	"log"
	"time"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
	"github.com/phamduchai/agrimart-backend/internal/cart"
	"github.com/phamduchai/agrimart-backend/internal/events"
	"github.com/phamduchai/agrimart-backend/internal/inventory"
	"github.com/phamduchai/agrimart-backend/internal/order"
)

// PlaceOrderRequest is the caller's checkout input. Prices are never part of
// it; they are recomputed server-side.
type PlaceOrderRequest struct {
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	Expedited       bool                  `json:"expedited"`

	// IdempotencyKey comes from the Idempotency-Key header; when absent one
	// is derived from the user and the cart version read in step 1.
	IdempotencyKey string `json:"-"`
}

// Orchestrator is the only entry point allowed to create an order from a
// cart.
type Orchestrator struct {
	carts     *cart.Service
	orders    *order.Service
	ledger    inventory.Ledger
	idem      IdempotencyStore
	publisher events.Publisher
	recorder  ReconciliationRecorder
	pricing   PricingConfig

	clearRetries    int
	clearRetryDelay time.Duration
}

func NewOrchestrator(carts *cart.Service, orders *order.Service, ledger inventory.Ledger,
	idem IdempotencyStore, publisher events.Publisher, recorder ReconciliationRecorder,
	pricing PricingConfig) *Orchestrator {
	return &Orchestrator{
		carts:           carts,
		orders:          orders,
		ledger:          ledger,
		idem:            idem,
		publisher:       publisher,
		recorder:        recorder,
		pricing:         pricing,
		clearRetries:    5,
		clearRetryDelay: 2 * time.Second,
	}
}

// PlaceOrder runs the checkout saga. Once the pending order exists the saga
// finishes server-side regardless of the caller's connection; the order is
// the unit of durability, not the request.
func (o *Orchestrator) PlaceOrder(userID int, req PlaceOrderRequest) (order.Order, error) {
	// reject bad input before anything durable happens
	if missing := req.ShippingAddress.MissingFields(); len(missing) > 0 {
		return order.Order{}, apperr.Validation("shipping address is incomplete", missing...)
	}
	if req.PaymentMethod == "" {
		return order.Order{}, apperr.Validation("payment method is required")
	}

	// A caller-supplied key is checked before anything else so that a retry
	// after a committed checkout finds its order even though the cart is
	// already empty.
	var key string
	if req.IdempotencyKey != "" {
		key = req.IdempotencyKey
		if existing, done, err := o.claim(key, userID); done {
			return existing, err
		}
	}

	// release frees the key after a failure that created no order, so the
	// client can retry once the problem is fixed.
	release := func() {
		if key == "" {
			return
		}
		if err := o.idem.Release(key); err != nil {
			log.Printf("could not release idempotency key %q: %v", key, err)
		}
	}

	// step 1: load the cart enriched with live product data
	view, err := o.carts.Get(userID)
	if err != nil {
		release()
		return order.Order{}, err
	}
	if len(view.Items) == 0 {
		release()
		return order.Order{}, apperr.EmptyCart()
	}
	for _, it := range view.Items {
		if it.Quantity > it.CountInStock {
			release()
			return order.Order{}, apperr.InsufficientStock(it.ProductID, it.CountInStock)
		}
	}

	// without a caller key, derive one from the cart version read above: a
	// blind network-level retry sees the same version and cannot double-book
	if key == "" {
		key = fmt.Sprintf("user:%d:cart:%d", userID, view.Version)
		if existing, done, err := o.claim(key, userID); done {
			return existing, err
		}
	}

	// step 2: price computation, pure function of the recomputed cart total
	quote := o.pricing.QuoteFor(view.TotalPrice, req.Expedited)

	// step 3: durable intent, the pending order with the cart snapshot
	items := snapshotItems(view.Items)
	ord, err := o.orders.Create(userID, items, req.ShippingAddress, req.PaymentMethod,
		quote.ItemsPrice, quote.ShippingPrice)
	if err != nil {
		release()
		return order.Order{}, err
	}
	if err := o.idem.Bind(key, ord.ID); err != nil {
		// the order exists; a retry would duplicate it, so escalate
		o.recorder.Record(ReconciliationEntry{
			Op: "bind_idempotency_key", OrderID: ord.ID, UserID: userID,
			Detail: fmt.Sprintf("key %q: %v", key, err),
		})
	}

	// step 4: inventory commit, compensating on partial failure
	decremented := make([]order.LineItem, 0, len(items))
	for _, li := range items {
		if err := o.ledger.Decrement(li.ProductID, li.Quantity); err != nil {
			if compErr := o.compensate(ord, decremented, err); compErr != nil {
				return order.Order{}, compErr
			}
			return order.Order{}, err
		}
		decremented = append(decremented, li)
	}

	// sold counters are best effort
	for _, li := range items {
		if err := o.ledger.RecordSale(li.ProductID, li.Quantity); err != nil {
			log.Printf("could not record sale for product %d: %v", li.ProductID, err)
		}
	}

	if err := o.publisher.PublishOrderCreated(events.NewOrderCreated(ord)); err != nil {
		log.Printf("could not publish order.created for %s: %v", ord.ID, err)
	}

	// step 5: clear the cart. The order is already the authoritative outcome;
	// a clear failure is retried in the background and never rolls it back.
	if err := o.carts.Clear(userID); err != nil {
		log.Printf("could not clear cart for user %d after order %s: %v", userID, ord.ID, err)
		go o.retryClear(userID, ord.ID)
	}

	return ord, nil
}

// claim tries to register the key for this attempt. done is true when the
// caller should stop: either the key is already bound to an order (returned),
// a concurrent attempt holds it, or the store itself failed.
func (o *Orchestrator) claim(key string, userID int) (order.Order, bool, error) {
	claimed, existingID, err := o.idem.Claim(key, userID)
	if err != nil {
		return order.Order{}, true, err
	}
	if claimed {
		return order.Order{}, false, nil
	}
	if existingID == "" {
		return order.Order{}, true, apperr.Conflict("checkout already in progress")
	}
	ord, err := o.orders.GetForUser(existingID, userID)
	return ord, true, err
}

// compensate reverses the decrements already applied in this pass and cancels
// the pending order. A failure here is the one case the saga cannot repair
// inline: it is recorded for reconciliation and surfaced as internal.
func (o *Orchestrator) compensate(ord order.Order, decremented []order.LineItem, cause error) error {
	var failed bool
	for _, li := range decremented {
		if err := o.ledger.Increment(li.ProductID, li.Quantity); err != nil {
			failed = true
			o.recorder.Record(ReconciliationEntry{
				Op: "restore_stock", OrderID: ord.ID, UserID: ord.UserID,
				Detail: fmt.Sprintf("product %d qty %d: %v", li.ProductID, li.Quantity, err),
			})
		}
	}

	reason := fmt.Sprintf("inventory commit failed: %v", cause)
	if _, err := o.orders.Cancel(ord.ID, reason); err != nil {
		failed = true
		o.recorder.Record(ReconciliationEntry{
			Op: "cancel_order", OrderID: ord.ID, UserID: ord.UserID,
			Detail: err.Error(),
		})
	}

	if failed {
		return apperr.Internal("checkout failed and could not be fully compensated", cause)
	}
	return nil
}

func (o *Orchestrator) retryClear(userID int, orderID string) {
	for i := 0; i < o.clearRetries; i++ {
		time.Sleep(o.clearRetryDelay)
		if err := o.carts.Clear(userID); err == nil {
			return
		} else {
			log.Printf("cart clear retry %d/%d for user %d: %v", i+1, o.clearRetries, userID, err)
		}
	}
	o.recorder.Record(ReconciliationEntry{
		Op: "clear_cart", OrderID: orderID, UserID: userID,
		Detail: "cart still not cleared after retries",
	})
}

func snapshotItems(items []cart.EnrichedItem) []order.LineItem {
	out := make([]order.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, order.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	return out
}
