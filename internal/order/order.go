package order

import (
	"time"
)

// Status is the order lifecycle state. Paid/delivered flags are orthogonal
// booleans, except that reaching delivered forces the delivered flag.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// CanTransitionTo encodes the forward-only lifecycle:
// pending -> processing -> shipped -> delivered, with cancellation allowed
// from pending and processing. Delivered and cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// LineItem is the snapshot of one cart line at submission time. It never
// changes after the order is created, even if the catalog product does.
type LineItem struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

// ShippingAddress is the required delivery sub-record. PostalCode is the only
// optional field.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Ward       string `json:"ward"`
	District   string `json:"district"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
}

// MissingFields lists the mandatory address fields that are blank.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if isBlank(value) {
			missing = append(missing, name)
		}
	}
	check("fullName", a.FullName)
	check("phone", a.Phone)
	check("address", a.Address)
	check("ward", a.Ward)
	check("district", a.District)
	check("city", a.City)
	check("country", a.Country)
	return missing
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}

// Order is the immutable record of a purchase request. Created once by the
// checkout orchestrator in pending state and never deleted; cancellation is a
// status transition.
type Order struct {
	ID              string          `json:"orderId"`
	UserID          int             `json:"userId"`
	Items           []LineItem      `json:"lineItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      int64           `json:"itemsPrice"`
	ShippingPrice   int64           `json:"shippingPrice"`
	TotalPrice      int64           `json:"totalPrice"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	PaymentRef      string          `json:"paymentRef,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
