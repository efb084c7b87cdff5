package inventory

import (
	"database/sql"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// PostgresLedger implements Ledger over the products table. The conditional
// UPDATE makes check-and-decrement one atomic statement; the row lock inside
// Postgres serializes concurrent decrements per product.
type PostgresLedger struct {
	db *sql.DB
	// onChange is invoked after a stock mutation, e.g. to drop a cached
	// product row. May be nil.
	onChange func(productID int)
}

func NewPostgresLedger(db *sql.DB, onChange func(productID int)) *PostgresLedger {
	return &PostgresLedger{db: db, onChange: onChange}
}

func (l *PostgresLedger) notify(productID int) {
	if l.onChange != nil {
		l.onChange(productID)
	}
}

func (l *PostgresLedger) CheckAvailability(productID, qty int) (bool, int, error) {
	var available int
	err := l.db.QueryRow(`SELECT count_in_stock FROM products WHERE product_id = $1`, productID).Scan(&available)
	if err == sql.ErrNoRows {
		return false, 0, apperr.NotFound("product not found")
	}
	if err != nil {
		return false, 0, apperr.Internal("could not read stock", err)
	}
	return available >= qty, available, nil
}

func (l *PostgresLedger) Decrement(productID, qty int) error {
	res, err := l.db.Exec(`UPDATE products
		SET count_in_stock = count_in_stock - $1, updated_at = now()::text
		WHERE product_id = $2 AND count_in_stock >= $1`, qty, productID)
	if err != nil {
		return apperr.Internal("could not decrement stock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("could not decrement stock", err)
	}
	if affected == 0 {
		// either the product is gone or stock ran out; report whichever
		ok, available, checkErr := l.CheckAvailability(productID, qty)
		if checkErr != nil {
			return checkErr
		}
		if !ok {
			return apperr.InsufficientStock(productID, available)
		}
		// a concurrent restock made the retry viable; surface as conflict
		return apperr.Conflict("stock changed, retry")
	}
	l.notify(productID)
	return nil
}

func (l *PostgresLedger) Increment(productID, qty int) error {
	res, err := l.db.Exec(`UPDATE products
		SET count_in_stock = count_in_stock + $1, updated_at = now()::text
		WHERE product_id = $2`, qty, productID)
	if err != nil {
		return apperr.Internal("could not restore stock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("could not restore stock", err)
	}
	if affected == 0 {
		return apperr.NotFound("product not found")
	}
	l.notify(productID)
	return nil
}

func (l *PostgresLedger) RecordSale(productID, qty int) error {
	_, err := l.db.Exec(`UPDATE products SET sold = sold + $1 WHERE product_id = $2`, qty, productID)
	if err != nil {
		return apperr.Internal("could not record sale", err)
	}
	return nil
}
