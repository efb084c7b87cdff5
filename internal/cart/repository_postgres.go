package cart

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// uniqueViolation is the Postgres error code for a duplicate primary key.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(userID int) (Cart, error) {
	var (
		c        Cart
		itemsRaw []byte
	)
	err := r.db.QueryRow(`SELECT user_id, items, total_price, version, created_at, updated_at
		FROM carts WHERE user_id = $1`, userID).
		Scan(&c.UserID, &itemsRaw, &c.TotalPrice, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Cart{}, apperr.NotFound("cart not found")
	}
	if err != nil {
		return Cart{}, apperr.Internal("could not load cart", err)
	}
	if err := json.Unmarshal(itemsRaw, &c.Items); err != nil {
		return Cart{}, apperr.Internal("could not decode cart items", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

func (r *PostgresRepository) Create(c Cart) (Cart, error) {
	itemsRaw, err := json.Marshal(c.Items)
	if err != nil {
		return Cart{}, apperr.Internal("could not encode cart items", err)
	}

	err = r.db.QueryRow(`INSERT INTO carts (user_id, items, total_price, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, now()::text, now()::text)
		RETURNING version, created_at, updated_at`,
		c.UserID, itemsRaw, c.TotalPrice).
		Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		// two requests can race on the first lazy creation; user_id is the
		// primary key, so the loser must see a conflict and re-read
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Cart{}, apperr.Conflict("cart already exists")
		}
		return Cart{}, apperr.Internal("could not create cart", err)
	}
	return c, nil
}

// Update writes the cart only when the stored version still matches; zero
// affected rows means another writer got there first.
func (r *PostgresRepository) Update(c Cart) (Cart, error) {
	itemsRaw, err := json.Marshal(c.Items)
	if err != nil {
		return Cart{}, apperr.Internal("could not encode cart items", err)
	}

	res, err := r.db.Exec(`UPDATE carts
		SET items = $1, total_price = $2, version = version + 1, updated_at = now()::text
		WHERE user_id = $3 AND version = $4`,
		itemsRaw, c.TotalPrice, c.UserID, c.Version)
	if err != nil {
		return Cart{}, apperr.Internal("could not update cart", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Cart{}, apperr.Internal("could not update cart", err)
	}
	if affected == 0 {
		return Cart{}, apperr.Conflict("cart was modified concurrently")
	}
	c.Version++
	return c, nil
}
