package order

import (
	"errors"
	"testing"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

func testAddress() ShippingAddress {
	return ShippingAddress{
		FullName: "Nguyen Van An",
		Phone:    "0901234567",
		Address:  "12 Le Loi",
		Ward:     "Ben Nghe",
		District: "District 1",
		City:     "Ho Chi Minh City",
		Country:  "Vietnam",
	}
}

func testItems() []LineItem {
	return []LineItem{
		{ProductID: 1, Name: "Jasmine Rice 5kg", UnitPrice: 100000, Quantity: 2},
	}
}

func newTestService() *Service {
	return NewService(NewInMemoryRepository())
}

func TestCreate(t *testing.T) {
	svc := newTestService()

	o, err := svc.Create(7, testItems(), testAddress(), "cod", 200000, 30000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID == "" {
		t.Fatalf("order should get an id")
	}
	if o.Status != StatusPending {
		t.Fatalf("status = %s, want pending", o.Status)
	}
	if o.TotalPrice != 230000 {
		t.Fatalf("totalPrice = %d, want 230000", o.TotalPrice)
	}
	if o.IsPaid || o.IsDelivered {
		t.Fatalf("new order must not be paid or delivered")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Create(0, testItems(), testAddress(), "cod", 1, 1); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for bad user, got %v", err)
	}
	if _, err := svc.Create(7, nil, testAddress(), "cod", 1, 1); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for no items, got %v", err)
	}
	if _, err := svc.Create(7, testItems(), testAddress(), "", 1, 1); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for no payment method, got %v", err)
	}
	if _, err := svc.Create(7, testItems(), testAddress(), "cod", -1, 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for negative price, got %v", err)
	}

	addr := testAddress()
	addr.City = ""
	_, err := svc.Create(7, testItems(), addr, "cod", 1, 1)
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected validation for bad address, got %v", err)
	}
	if len(ae.Fields) != 1 || ae.Fields[0] != "city" {
		t.Fatalf("fields = %v, want [city]", ae.Fields)
	}
}

func TestCreate_SnapshotIsCopied(t *testing.T) {
	svc := newTestService()

	items := testItems()
	o, err := svc.Create(7, items, testAddress(), "cod", 200000, 30000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// mutating the caller's slice must not leak into the stored order
	items[0].Quantity = 99
	stored, err := svc.GetForUser(o.ID, 7)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Items[0].Quantity != 2 {
		t.Fatalf("stored quantity = %d, want 2", stored.Items[0].Quantity)
	}
}

func TestGetForUser_Ownership(t *testing.T) {
	svc := newTestService()

	o, err := svc.Create(7, testItems(), testAddress(), "cod", 200000, 30000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetForUser(o.ID, 8); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("another user's order must look like not_found, got %v", err)
	}
}

func TestTransitionStatus(t *testing.T) {
	svc := newTestService()
	o, _ := svc.Create(7, testItems(), testAddress(), "cod", 200000, 30000)

	o, err := svc.TransitionStatus(o.ID, StatusProcessing)
	if err != nil {
		t.Fatalf("to processing: %v", err)
	}
	o, err = svc.TransitionStatus(o.ID, StatusShipped)
	if err != nil {
		t.Fatalf("to shipped: %v", err)
	}
	o, err = svc.TransitionStatus(o.ID, StatusDelivered)
	if err != nil {
		t.Fatalf("to delivered: %v", err)
	}
	if !o.IsDelivered || o.DeliveredAt == nil {
		t.Fatalf("delivered transition must stamp the flags: %+v", o)
	}

	// delivered is terminal
	if _, err := svc.TransitionStatus(o.ID, StatusProcessing); apperr.KindOf(err) != apperr.KindInvalidStateTransition {
		t.Fatalf("expected invalid_state_transition, got %v", err)
	}

	if _, err := svc.TransitionStatus(o.ID, Status("shipping")); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for unknown status, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc := newTestService()
	o, _ := svc.Create(7, testItems(), testAddress(), "cod", 200000, 30000)

	cancelled, err := svc.Cancel(o.ID, "changed my mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelReason != "changed my mind" {
		t.Fatalf("unexpected cancelled order: %+v", cancelled)
	}

	// cancelled is terminal
	if _, err := svc.Cancel(o.ID, "again"); apperr.KindOf(err) != apperr.KindInvalidStateTransition {
		t.Fatalf("expected invalid_state_transition, got %v", err)
	}
	if _, err := svc.MarkPaid(o.ID, "ref"); apperr.KindOf(err) != apperr.KindInvalidStateTransition {
		t.Fatalf("cancelled order must not accept payment, got %v", err)
	}
}

func TestMarkPaid_Idempotent(t *testing.T) {
	svc := newTestService()
	o, _ := svc.Create(7, testItems(), testAddress(), "cod", 200000, 30000)

	paid, err := svc.MarkPaid(o.ID, "txn-1")
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if !paid.IsPaid || paid.PaidAt == nil || paid.PaymentRef != "txn-1" {
		t.Fatalf("unexpected paid order: %+v", paid)
	}

	again, err := svc.MarkPaid(o.ID, "txn-2")
	if err != nil {
		t.Fatalf("second mark paid: %v", err)
	}
	if again.PaymentRef != "txn-1" {
		t.Fatalf("repeated payment must not overwrite the ref, got %q", again.PaymentRef)
	}
}
