package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is the stable machine-readable error classification returned to clients.
type Kind string

const (
	KindValidation             Kind = "validation_error"
	KindNotFound               Kind = "not_found"
	KindEmptyCart              Kind = "empty_cart"
	KindInsufficientStock      Kind = "insufficient_stock"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindConflict               Kind = "conflict"
	KindInternal               Kind = "internal_error"
)

// Error is the application error carried between services and handlers.
// Message is safe to show to clients; storage details stay in the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string // missing/invalid field names for validation errors
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

func InvalidStateTransition(message string) *Error {
	return &Error{Kind: KindInvalidStateTransition, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Internal wraps a storage/infra fault. The cause is kept for logs and never
// serialized to the client.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// InsufficientStockError names the offending product and how many units are
// still available so clients can adjust the requested quantity.
type InsufficientStockError struct {
	ProductID int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: %d available", e.ProductID, e.Available)
}

func InsufficientStock(productID, available int) *InsufficientStockError {
	return &InsufficientStockError{ProductID: productID, Available: available}
}

// KindOf classifies any error into a Kind. Unrecognized errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	var se *InsufficientStockError
	if errors.As(err, &se) {
		return KindInsufficientStock
	}
	return KindInternal
}

func statusOf(kind Kind) int {
	switch kind {
	case KindValidation, KindEmptyCart, KindInsufficientStock:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidStateTransition, KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes the error as a JSON body with the mapped HTTP status.
// Internal causes are collapsed to a generic message.
func Respond(c *fiber.Ctx, err error) error {
	kind := KindOf(err)

	body := fiber.Map{"error": string(kind)}
	switch kind {
	case KindInternal:
		body["message"] = "internal error"
	default:
		var ae *Error
		if errors.As(err, &ae) {
			body["message"] = ae.Message
			if len(ae.Fields) > 0 {
				body["missingFields"] = ae.Fields
			}
		} else {
			var se *InsufficientStockError
			if errors.As(err, &se) {
				body["message"] = se.Error()
				body["productId"] = se.ProductID
				body["available"] = se.Available
			}
		}
	}

	return c.Status(statusOf(kind)).JSON(body)
}
