package order

import (
	"database/sql"
	"encoding/json"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `order_id, user_id, items, shipping_address, payment_method,
	items_price, shipping_price, total_price, status,
	is_paid, paid_at, payment_ref, is_delivered, delivered_at,
	cancel_reason, created_at, updated_at`

func (r *PostgresRepository) Create(o Order) (Order, error) {
	itemsRaw, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, apperr.Internal("could not encode line items", err)
	}
	addrRaw, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return Order{}, apperr.Internal("could not encode shipping address", err)
	}

	_, err = r.db.Exec(`INSERT INTO orders
		(order_id, user_id, items, shipping_address, payment_method,
		 items_price, shipping_price, total_price, status,
		 is_paid, is_delivered, cancel_reason, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.UserID, itemsRaw, addrRaw, o.PaymentMethod,
		o.ItemsPrice, o.ShippingPrice, o.TotalPrice, string(o.Status),
		o.IsPaid, o.IsDelivered, o.CancelReason, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return Order{}, apperr.Internal("could not create order", err)
	}
	return o, nil
}

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var (
		o        Order
		itemsRaw []byte
		addrRaw  []byte
		status   string
	)
	err := row.Scan(&o.ID, &o.UserID, &itemsRaw, &addrRaw, &o.PaymentMethod,
		&o.ItemsPrice, &o.ShippingPrice, &o.TotalPrice, &status,
		&o.IsPaid, &o.PaidAt, &o.PaymentRef, &o.IsDelivered, &o.DeliveredAt,
		&o.CancelReason, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(addrRaw, &o.ShippingAddress); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) GetByID(id string) (Order, error) {
	row := r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return Order{}, apperr.NotFound("order not found")
	}
	if err != nil {
		return Order{}, apperr.Internal("could not load order", err)
	}
	return o, nil
}

func (r *PostgresRepository) ListByUser(userID int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, apperr.Internal("could not list orders", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperr.Internal("could not scan order", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save writes lifecycle fields only when the stored status still matches what
// the caller read. Line items and address are immutable after Create and are
// deliberately not part of the update.
func (r *PostgresRepository) Save(o Order, expected Status) (Order, error) {
	res, err := r.db.Exec(`UPDATE orders
		SET status = $1, is_paid = $2, paid_at = $3, payment_ref = $4,
		    is_delivered = $5, delivered_at = $6, cancel_reason = $7, updated_at = $8
		WHERE order_id = $9 AND status = $10`,
		string(o.Status), o.IsPaid, o.PaidAt, o.PaymentRef,
		o.IsDelivered, o.DeliveredAt, o.CancelReason, o.UpdatedAt,
		o.ID, string(expected))
	if err != nil {
		return Order{}, apperr.Internal("could not update order", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Order{}, apperr.Internal("could not update order", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(o.ID); getErr != nil {
			return Order{}, getErr
		}
		return Order{}, apperr.Conflict("order status changed concurrently")
	}
	return o, nil
}
