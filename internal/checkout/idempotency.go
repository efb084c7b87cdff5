package checkout

import (
	"database/sql"
	"sync"
	"time"

	"github.com/phamduchai/agrimart-backend/internal/apperr"
)

// staleClaimWindow bounds how long an unbound claim blocks retries. A process
// that crashes between Claim and Bind/Release leaves the key claimed with no
// order; once the window passes, the same user's retry may take the claim over
// instead of being stuck on "checkout already in progress" forever.
const staleClaimWindow = time.Minute

// IdempotencyStore is the durable key registry that makes checkout retries
// safe. Claiming a key is a single conditional insert; the first caller wins
// and later callers are pointed at whatever order the winner created.
type IdempotencyStore interface {
	// Claim registers the key for this user if it is unused. When claimed is
	// false, orderID carries the bound order ("" while the winning attempt is
	// still in flight).
	Claim(key string, userID int) (claimed bool, orderID string, err error)
	// Bind attaches the created order to a previously claimed key.
	Bind(key, orderID string) error
	// Release frees a claimed key after an attempt that created no order, so
	// the client can retry once the underlying problem is fixed.
	Release(key string) error
}

// InMemoryIdempotencyStore is used for tests and local scenarios.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	keys      map[string]string // key -> orderID ("" while in flight)
	owners    map[string]int
	claimedAt map[string]time.Time
	nowFunc   func() time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		keys:      make(map[string]string),
		owners:    make(map[string]int),
		claimedAt: make(map[string]time.Time),
		nowFunc:   time.Now,
	}
}

func (s *InMemoryIdempotencyStore) Claim(key string, userID int) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	if orderID, ok := s.keys[key]; ok {
		if s.owners[key] != userID {
			return false, "", apperr.Conflict("idempotency key belongs to another user")
		}
		if orderID != "" {
			return false, orderID, nil
		}
		// unbound claim: take it over only once it has gone stale
		if now.Sub(s.claimedAt[key]) < staleClaimWindow {
			return false, "", nil
		}
	}
	s.keys[key] = ""
	s.owners[key] = userID
	s.claimedAt[key] = now
	return true, "", nil
}

func (s *InMemoryIdempotencyStore) Bind(key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; !ok {
		return apperr.NotFound("idempotency key not claimed")
	}
	s.keys[key] = orderID
	return nil
}

func (s *InMemoryIdempotencyStore) Release(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	delete(s.owners, key)
	delete(s.claimedAt, key)
	return nil
}

// PostgresIdempotencyStore persists keys in the idempotency_keys table. The
// ON CONFLICT DO NOTHING insert is the atomic claim.
type PostgresIdempotencyStore struct {
	db *sql.DB
}

func NewPostgresIdempotencyStore(db *sql.DB) *PostgresIdempotencyStore {
	return &PostgresIdempotencyStore{db: db}
}

func (s *PostgresIdempotencyStore) Claim(key string, userID int) (bool, string, error) {
	res, err := s.db.Exec(`INSERT INTO idempotency_keys (key, user_id, order_id, created_at)
		VALUES ($1, $2, '', now())
		ON CONFLICT (key) DO NOTHING`, key, userID)
	if err != nil {
		return false, "", apperr.Internal("could not claim idempotency key", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, "", apperr.Internal("could not claim idempotency key", err)
	}
	if affected == 1 {
		return true, "", nil
	}

	var (
		orderID string
		owner   int
	)
	err = s.db.QueryRow(`SELECT order_id, user_id FROM idempotency_keys WHERE key = $1`, key).
		Scan(&orderID, &owner)
	if err != nil {
		return false, "", apperr.Internal("could not read idempotency key", err)
	}
	if owner != userID {
		return false, "", apperr.Conflict("idempotency key belongs to another user")
	}
	if orderID != "" {
		return false, orderID, nil
	}

	// unbound claim, likely a crashed attempt; the conditional update takes it
	// over only once stale, so a live in-flight checkout still wins
	res, err = s.db.Exec(`UPDATE idempotency_keys SET created_at = now()
		WHERE key = $1 AND order_id = '' AND created_at < now() - make_interval(secs => $2)`,
		key, int(staleClaimWindow.Seconds()))
	if err != nil {
		return false, "", apperr.Internal("could not reclaim idempotency key", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return false, "", apperr.Internal("could not reclaim idempotency key", err)
	}
	if affected == 1 {
		return true, "", nil
	}
	return false, "", nil
}

func (s *PostgresIdempotencyStore) Bind(key, orderID string) error {
	res, err := s.db.Exec(`UPDATE idempotency_keys SET order_id = $1 WHERE key = $2`, orderID, key)
	if err != nil {
		return apperr.Internal("could not bind idempotency key", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("could not bind idempotency key", err)
	}
	if affected == 0 {
		return apperr.NotFound("idempotency key not claimed")
	}
	return nil
}

func (s *PostgresIdempotencyStore) Release(key string) error {
	if _, err := s.db.Exec(`DELETE FROM idempotency_keys WHERE key = $1`, key); err != nil {
		return apperr.Internal("could not release idempotency key", err)
	}
	return nil
}
