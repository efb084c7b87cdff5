// Package inventory owns per-product available quantity. The ledger is the
// only resource mutated by concurrent checkout flows, so the check-then-
// decrement must be one serialized step per product, never a read followed by
// a write in the caller.
package inventory

// Ledger exposes the reserve/commit/release surface over product stock.
type Ledger interface {
	// CheckAvailability reports whether qty units can currently be taken and
	// how many units are available either way.
	CheckAvailability(productID, qty int) (bool, int, error)
	// Decrement takes qty units atomically, failing with an
	// InsufficientStockError when fewer than qty remain. Stock never goes
	// negative, even under concurrent callers.
	Decrement(productID, qty int) error
	// Increment returns units taken by a failed checkout. Callers reverse
	// exactly the amount they decremented, never more.
	Increment(productID, qty int) error
	// RecordSale bumps the sold counter. Best effort; callers only log errors.
	RecordSale(productID, qty int) error
}
