package product

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

type PostgresRepository struct {
	db *sql.DB
}

const productColumns = `product_id, name, description, image, category, origin, price, count_in_stock, sold, is_active, created_at, updated_at`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Category, &p.Origin,
		&p.Price, &p.CountInStock, &p.Sold, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) List() ([]Product, error) {
	rows, err := r.db.Query(`SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY product_id`)
	if err != nil {
		return nil, apperr.Internal("could not list products", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Internal("could not scan product", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	row := r.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE product_id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return Product{}, apperr.Internal("could not load product", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	rows, err := r.db.Query(`SELECT `+productColumns+` FROM products
		WHERE product_id = ANY($1::int[])
		ORDER BY array_position($1::int[], product_id)`, pq.Array(ids))
	if err != nil {
		return nil, apperr.Internal("could not list products", err)
	}
	defer rows.Close()

	out := make([]Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Internal("could not scan product", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	row := r.db.QueryRow(`INSERT INTO products (name, description, image, category, origin, price, count_in_stock, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now()::text, now()::text)
		RETURNING `+productColumns,
		p.Name, p.Description, p.Image, p.Category, p.Origin, p.Price, p.CountInStock, p.IsActive)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, apperr.Internal("could not create product", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(id int, p Product) (Product, error) {
	row := r.db.QueryRow(`UPDATE products
		SET name=$1, description=$2, image=$3, category=$4, origin=$5, price=$6, count_in_stock=$7, is_active=$8, updated_at=now()::text
		WHERE product_id=$9
		RETURNING `+productColumns,
		p.Name, p.Description, p.Image, p.Category, p.Origin, p.Price, p.CountInStock, p.IsActive, id)
	updated, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return Product{}, apperr.Internal("could not update product", err)
	}
	return updated, nil
}
