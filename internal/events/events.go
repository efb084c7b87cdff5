// Package events carries the fire-and-forget notifications the core emits
// for downstream collaborators (notification, fulfillment). Publishing never
// fails a checkout; errors are logged and dropped.
package events

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/phamduchai/agrimart-backend/internal/order"
)

// OrderCreated is emitted once the checkout saga has committed inventory.
type OrderCreated struct {
	EventID    string           `json:"eventId"`
	OrderID    string           `json:"orderId"`
	UserID     int              `json:"userId"`
	LineItems  []order.LineItem `json:"lineItems"`
	TotalPrice int64            `json:"totalPrice"`
	OccurredAt time.Time        `json:"occurredAt"`
}

func NewOrderCreated(o order.Order) OrderCreated {
	return OrderCreated{
		EventID:    uuid.NewString(),
		OrderID:    o.ID,
		UserID:     o.UserID,
		LineItems:  o.Items,
		TotalPrice: o.TotalPrice,
		OccurredAt: time.Now(),
	}
}

type Publisher interface {
	PublishOrderCreated(ev OrderCreated) error
}

// LogPublisher is the fallback when no broker is configured, and the
// publisher used in tests.
type LogPublisher struct{}

func (LogPublisher) PublishOrderCreated(ev OrderCreated) error {
	log.Printf("event order.created: order=%s user=%d total=%d", ev.OrderID, ev.UserID, ev.TotalPrice)
	return nil
}
