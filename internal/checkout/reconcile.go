package checkout

import (
	"database/sql"
	"log"
	"sync"
)

// ReconciliationEntry records an inconsistency the saga could not repair in
// the request path: a failed stock restore, a failed cancel, or a cart that
// would not clear. Entries are worked off manually or by an async job; they
// are never retried indefinitely inline.
type ReconciliationEntry struct {
	Op      string
	OrderID string
	UserID  int
	Detail  string
}

type ReconciliationRecorder interface {
	Record(entry ReconciliationEntry)
}

// LogRecorder is the fallback recorder and the one used in tests.
type LogRecorder struct {
	mu      sync.Mutex
	Entries []ReconciliationEntry
}

func (r *LogRecorder) Record(entry ReconciliationEntry) {
	r.mu.Lock()
	r.Entries = append(r.Entries, entry)
	r.mu.Unlock()
	log.Printf("reconciliation needed: op=%s order=%s user=%d: %s",
		entry.Op, entry.OrderID, entry.UserID, entry.Detail)
}

// Snapshot copies the recorded entries for inspection.
func (r *LogRecorder) Snapshot() []ReconciliationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ReconciliationEntry, len(r.Entries))
	copy(out, r.Entries)
	return out
}

// PostgresRecorder appends entries to the reconciliation_log table. A failed
// insert still logs; losing the durable record must not mask the original
// fault.
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) Record(entry ReconciliationEntry) {
	log.Printf("reconciliation needed: op=%s order=%s user=%d: %s",
		entry.Op, entry.OrderID, entry.UserID, entry.Detail)
	_, err := r.db.Exec(`INSERT INTO reconciliation_log (op, order_id, user_id, detail, created_at)
		VALUES ($1, $2, $3, $4, now()::text)`,
		entry.Op, entry.OrderID, entry.UserID, entry.Detail)
	if err != nil {
		log.Printf("could not persist reconciliation entry: %v", err)
	}
}
