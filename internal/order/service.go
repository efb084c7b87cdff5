package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// Service provides business logic for orders. Only the checkout orchestrator
// calls Create; everything else operates on existing orders.
type Service struct {
	repo    Repository
	nowFunc func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, nowFunc: time.Now}
}

// Create persists a new order in pending state. The line items are the
// caller's snapshot; the service copies the slice so later mutation of the
// source cannot leak into the stored order.
func (s *Service) Create(userID int, items []LineItem, addr ShippingAddress, paymentMethod string, itemsPrice, shippingPrice int64) (Order, error) {
	if userID <= 0 {
		return Order{}, apperr.Validation("invalid user")
	}
	if len(items) == 0 {
		return Order{}, apperr.Validation("order must contain at least one item")
	}
	if missing := addr.MissingFields(); len(missing) > 0 {
		return Order{}, apperr.Validation("shipping address is incomplete", missing...)
	}
	if paymentMethod == "" {
		return Order{}, apperr.Validation("payment method is required")
	}
	if itemsPrice < 0 || shippingPrice < 0 {
		return Order{}, apperr.Validation("prices must be non-negative")
	}

	snapshot := make([]LineItem, len(items))
	copy(snapshot, items)

	now := s.nowFunc()
	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           snapshot,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   shippingPrice,
		TotalPrice:      itemsPrice + shippingPrice,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.repo.Create(o)
}

// GetForUser loads an order and checks ownership.
func (s *Service) GetForUser(orderID string, userID int) (Order, error) {
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if o.UserID != userID {
		return Order{}, apperr.NotFound("order not found")
	}
	return o, nil
}

func (s *Service) ListByUser(userID int) ([]Order, error) {
	return s.repo.ListByUser(userID)
}

// TransitionStatus moves the order along its lifecycle. Delivered and
// cancelled are terminal; any move out of them is rejected.
func (s *Service) TransitionStatus(orderID string, next Status) (Order, error) {
	if !next.Valid() {
		return Order{}, apperr.Validation(fmt.Sprintf("unknown status %q", next))
	}
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if !o.Status.CanTransitionTo(next) {
		return Order{}, apperr.InvalidStateTransition(
			fmt.Sprintf("cannot move order from %s to %s", o.Status, next))
	}

	expected := o.Status
	now := s.nowFunc()
	o.Status = next
	o.UpdatedAt = now
	if next == StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	return s.repo.Save(o, expected)
}

// Cancel transitions to cancelled recording why. Used by the checkout saga's
// compensation path and by support tooling.
func (s *Service) Cancel(orderID, reason string) (Order, error) {
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return Order{}, apperr.InvalidStateTransition(
			fmt.Sprintf("cannot cancel order in state %s", o.Status))
	}

	expected := o.Status
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.UpdatedAt = s.nowFunc()
	return s.repo.Save(o, expected)
}

// MarkPaid stamps the payment flags. Paid state is orthogonal to lifecycle
// status, but a cancelled order cannot be paid.
func (s *Service) MarkPaid(orderID, paymentRef string) (Order, error) {
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if o.Status == StatusCancelled {
		return Order{}, apperr.InvalidStateTransition("cannot pay a cancelled order")
	}
	if o.IsPaid {
		return o, nil
	}

	expected := o.Status
	now := s.nowFunc()
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentRef = paymentRef
	o.UpdatedAt = now
	return s.repo.Save(o, expected)
}

// MarkDelivered is the fulfillment collaborator's shortcut: it transitions to
// delivered, which also forces the delivered flag.
func (s *Service) MarkDelivered(orderID string) (Order, error) {
	return s.TransitionStatus(orderID, StatusDelivered)
}
