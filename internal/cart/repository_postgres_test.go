package cart

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows([]string{"user_id", "items", "total_price", "version", "created_at", "updated_at"}).
		AddRow(7, []byte(`[{"productId":1,"quantity":2,"unitPrice":100000}]`), 200000, 4, "t", "u")
	mock.ExpectQuery("FROM carts").WithArgs(7).WillReturnRows(rows)

	c, err := repo.Get(7)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if c.Version != 4 || len(c.Items) != 1 || c.Items[0].UnitPrice != 100000 {
		t.Fatalf("unexpected cart %+v", c)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM carts").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "items", "total_price", "version", "created_at", "updated_at"}))

	if _, err := repo.Get(7); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestPostgresCreate_DuplicateUserIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// a concurrent first access already inserted this user's cart
	mock.ExpectQuery("INSERT INTO carts").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "carts_pkey"})

	_, err = repo.Create(Cart{UserID: 7, Items: []Item{}})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for duplicate cart, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_OtherErrorStaysInternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO carts").WillReturnError(errors.New("connection reset"))

	_, err = repo.Create(Cart{UserID: 7, Items: []Item{}})
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestPostgresUpdate_VersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	// stale version matches no row
	mock.ExpectExec("UPDATE carts").WillReturnResult(sqlmock.NewResult(0, 0))

	c := Cart{UserID: 7, Items: []Item{{ProductID: 1, Quantity: 1, UnitPrice: 50000}}, TotalPrice: 50000, Version: 3}
	if _, err := repo.Update(c); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_BumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE carts").WillReturnResult(sqlmock.NewResult(0, 1))

	c := Cart{UserID: 7, Items: []Item{}, Version: 3}
	updated, err := repo.Update(c)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if updated.Version != 4 {
		t.Fatalf("version = %d, want 4", updated.Version)
	}
}
