/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements engine.Store and engine.TxStore on database/sql + SQLite. The
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  events:             one row per staffing engagement
  event_obligations:  per-event, per-worker due/paid/settled records
  workers:            one row per staffing resource, with cached balance
  worker_payments:    append-only payment history, ordered by application

ATOMICITY:
  WithTx maps one logical engine operation to one sql.Tx. Every write made
  through the transactional view lands in that transaction, so a failed
  create/delete/settle/reset leaves both tables exactly as they were. A
  commit failure after the writes is surfaced as an engine consistency error
  because the on-disk state is no longer known.

CONCURRENCY:
  Uses sync.RWMutex on top of WAL mode. Holding the write lock across WithTx
  is also what serializes two settlements racing on the same worker.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/banquet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: interface definitions
  - engine/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/banquet/staffing-engine/engine"
)

// Store implements engine.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Events (one staffing engagement each)
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		requester_name TEXT NOT NULL,
		category TEXT NOT NULL,
		caterer TEXT NOT NULL,
		billed_party TEXT NOT NULL,
		event_date TEXT NOT NULL,
		location TEXT,
		worker_count INTEGER NOT NULL,
		unit_bill_rate TEXT NOT NULL,
		unit_pay_rate TEXT NOT NULL,
		billed_total TEXT NOT NULL,
		operator_commission TEXT NOT NULL,
		worker_payout_total TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);
	CREATE INDEX IF NOT EXISTS idx_events_caterer ON events(caterer);
	CREATE INDEX IF NOT EXISTS idx_events_requester ON events(requester_name);

	-- Obligations (one per assigned worker per event; position preserves
	-- the assignment order)
	CREATE TABLE IF NOT EXISTS event_obligations (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		worker_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		amount_due TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		settled BOOLEAN NOT NULL DEFAULT FALSE,
		settled_at TEXT,
		method TEXT,
		notes TEXT,
		PRIMARY KEY (event_id, worker_id)
	);

	CREATE INDEX IF NOT EXISTS idx_obligations_worker ON event_obligations(worker_id);

	-- Workers (cached running balance plus assignment counter)
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contact TEXT,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		accrued_balance TEXT NOT NULL,
		total_events_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Payment history (append-only; seq is the application order, which is
	-- authoritative even when paid_at is back-dated)
	CREATE TABLE IF NOT EXISTS worker_payments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		worker_id TEXT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		paid_at TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		related_event_id TEXT,
		method TEXT,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payments_worker ON worker_payments(worker_id, seq);
	CREATE INDEX IF NOT EXISTS idx_payments_event
		ON worker_payments(related_event_id) WHERE related_event_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is the subset of *sql.DB / *sql.Tx the store needs, so every method
// can run either standalone or inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EVENTS
// =============================================================================

// SaveEvent upserts the event row and rewrites its obligation set in one
// transaction.
func (s *Store) SaveEvent(ctx context.Context, ev engine.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit()
}

func saveEvent(ctx context.Context, q dbtx, ev engine.Event) error {
	query := `
		INSERT INTO events
		(id, requester_name, category, caterer, billed_party, event_date, location,
		 worker_count, unit_bill_rate, unit_pay_rate,
		 billed_total, operator_commission, worker_payout_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			requester_name = excluded.requester_name,
			category = excluded.category,
			caterer = excluded.caterer,
			billed_party = excluded.billed_party,
			event_date = excluded.event_date,
			location = excluded.location,
			worker_count = excluded.worker_count,
			unit_bill_rate = excluded.unit_bill_rate,
			unit_pay_rate = excluded.unit_pay_rate,
			billed_total = excluded.billed_total,
			operator_commission = excluded.operator_commission,
			worker_payout_total = excluded.worker_payout_total
	`

	_, err := q.ExecContext(ctx, query,
		ev.ID,
		ev.RequesterName,
		ev.Category,
		ev.Caterer,
		ev.BilledParty,
		ev.Date.UTC().Format(time.RFC3339),
		ev.Location,
		ev.WorkerCount,
		ev.UnitBillRate.String(),
		ev.UnitPayRate.String(),
		ev.BilledTotal.String(),
		ev.OperatorCommission.String(),
		ev.WorkerPayoutTotal.String(),
		ev.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	// Rewrite obligations wholesale; the set is small (one per worker).
	if _, err := q.ExecContext(ctx, "DELETE FROM event_obligations WHERE event_id = ?", ev.ID); err != nil {
		return fmt.Errorf("failed to clear obligations: %w", err)
	}
	for i, ob := range ev.Obligations {
		var settledAt *string
		if ob.SettledAt != nil {
			t := ob.SettledAt.UTC().Format(time.RFC3339)
			settledAt = &t
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO event_obligations
			(event_id, worker_id, position, amount_due, amount_paid, settled, settled_at, method, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ob.WorkerID, i,
			ob.AmountDue.String(), ob.AmountPaid.String(),
			ob.Settled, settledAt,
			nullString(string(ob.Method)), nullString(ob.Notes),
		)
		if err != nil {
			return fmt.Errorf("failed to save obligation: %w", err)
		}
	}
	return nil
}

// GetEvent returns an event with its obligations, or nil when unknown.
func (s *Store) GetEvent(ctx context.Context, id engine.EventID) (*engine.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEvent(ctx, s.db, id)
}

func getEvent(ctx context.Context, q dbtx, id engine.EventID) (*engine.Event, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, requester_name, category, caterer, billed_party, event_date, location,
		       worker_count, unit_bill_rate, unit_pay_rate,
		       billed_total, operator_commission, worker_payout_total, created_at
		FROM events WHERE id = ?`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := loadObligations(ctx, q, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListEvents returns all events, newest first.
func (s *Store) ListEvents(ctx context.Context) ([]engine.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEvents(ctx, s.db)
}

func listEvents(ctx context.Context, q dbtx) ([]engine.Event, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, requester_name, category, caterer, billed_party, event_date, location,
		       worker_count, unit_bill_rate, unit_pay_rate,
		       billed_total, operator_commission, worker_payout_total, created_at
		FROM events
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range events {
		if err := loadObligations(ctx, q, &events[i]); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// DeleteEvent removes the event; obligations cascade.
func (s *Store) DeleteEvent(ctx context.Context, id engine.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteEvent(ctx, s.db, id)
}

func deleteEvent(ctx context.Context, q dbtx, id engine.EventID) error {
	_, err := q.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*engine.Event, error) {
	var (
		ev                 engine.Event
		location           sql.NullString
		eventDate          string
		billRate, payRate  string
		billed, commission string
		payout             string
		createdAt          string
	)
	err := r.Scan(
		&ev.ID, &ev.RequesterName, &ev.Category, &ev.Caterer, &ev.BilledParty,
		&eventDate, &location, &ev.WorkerCount, &billRate, &payRate,
		&billed, &commission, &payout, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	ev.Location = location.String
	ev.Date, _ = time.Parse(time.RFC3339, eventDate)
	ev.UnitBillRate = engine.MustParseDecimal(billRate)
	ev.UnitPayRate = engine.MustParseDecimal(payRate)
	ev.BilledTotal = engine.MustParseDecimal(billed)
	ev.OperatorCommission = engine.MustParseDecimal(commission)
	ev.WorkerPayoutTotal = engine.MustParseDecimal(payout)
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &ev, nil
}

func loadObligations(ctx context.Context, q dbtx, ev *engine.Event) error {
	rows, err := q.QueryContext(ctx, `
		SELECT worker_id, amount_due, amount_paid, settled, settled_at, method, notes
		FROM event_obligations
		WHERE event_id = ?
		ORDER BY position ASC`, ev.ID)
	if err != nil {
		return fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	ev.AssignedWorkers = nil
	ev.Obligations = nil
	for rows.Next() {
		var (
			ob            engine.Obligation
			due, paid     string
			settledAt     sql.NullString
			method, notes sql.NullString
		)
		if err := rows.Scan(&ob.WorkerID, &due, &paid, &ob.Settled, &settledAt, &method, &notes); err != nil {
			return err
		}
		ob.AmountDue = engine.MustParseDecimal(due)
		ob.AmountPaid = engine.MustParseDecimal(paid)
		if settledAt.Valid {
			t, _ := time.Parse(time.RFC3339, settledAt.String)
			ob.SettledAt = &t
		}
		ob.Method = engine.PaymentMethod(method.String)
		ob.Notes = notes.String

		ev.AssignedWorkers = append(ev.AssignedWorkers, ob.WorkerID)
		ev.Obligations = append(ev.Obligations, ob)
	}
	return rows.Err()
}

// =============================================================================
// WORKERS
// =============================================================================

// SaveWorker upserts the worker's scalar fields. Payment history is written
// through AppendPayment only.
func (s *Store) SaveWorker(ctx context.Context, w engine.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveWorker(ctx, s.db, w)
}

func saveWorker(ctx context.Context, q dbtx, w engine.Worker) error {
	query := `
		INSERT INTO workers (id, name, contact, available, accrued_balance, total_events_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			contact = excluded.contact,
			available = excluded.available,
			accrued_balance = excluded.accrued_balance,
			total_events_count = excluded.total_events_count
	`
	_, err := q.ExecContext(ctx, query,
		w.ID, w.Name, nullString(w.Contact), w.Available,
		w.AccruedBalance.String(), w.TotalEventsCount,
		w.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save worker: %w", err)
	}
	return nil
}

// GetWorker returns a worker with full payment history, or nil when unknown.
func (s *Store) GetWorker(ctx context.Context, id engine.WorkerID) (*engine.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getWorker(ctx, s.db, id)
}

func getWorker(ctx context.Context, q dbtx, id engine.WorkerID) (*engine.Worker, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, contact, available, accrued_balance, total_events_count, created_at
		FROM workers WHERE id = ?`, id)

	w, err := scanWorker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if w.PaymentHistory, err = loadPayments(ctx, q, id); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWorkers returns all workers with history, oldest registration first.
func (s *Store) ListWorkers(ctx context.Context) ([]engine.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listWorkers(ctx, s.db)
}

func listWorkers(ctx context.Context, q dbtx) ([]engine.Worker, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, contact, available, accrued_balance, total_events_count, created_at
		FROM workers
		ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []engine.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range workers {
		var err error
		if workers[i].PaymentHistory, err = loadPayments(ctx, q, workers[i].ID); err != nil {
			return nil, err
		}
	}
	return workers, nil
}

// DeleteWorker removes the worker; payment rows cascade.
func (s *Store) DeleteWorker(ctx context.Context, id engine.WorkerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteWorker(ctx, s.db, id)
}

func deleteWorker(ctx context.Context, q dbtx, id engine.WorkerID) error {
	_, err := q.ExecContext(ctx, "DELETE FROM workers WHERE id = ?", id)
	return err
}

func scanWorker(r rowScanner) (*engine.Worker, error) {
	var (
		w         engine.Worker
		contact   sql.NullString
		balance   string
		createdAt string
	)
	err := r.Scan(&w.ID, &w.Name, &contact, &w.Available, &balance, &w.TotalEventsCount, &createdAt)
	if err != nil {
		return nil, err
	}
	w.Contact = contact.String
	w.AccruedBalance = engine.MustParseDecimal(balance)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}

// =============================================================================
// PAYMENT HISTORY
// =============================================================================

// AppendPayment appends one history row. Application order is the
// autoincrement seq, independent of the (possibly back-dated) paid_at.
func (s *Store) AppendPayment(ctx context.Context, workerID engine.WorkerID, p engine.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPayment(ctx, s.db, workerID, p)
}

func appendPayment(ctx context.Context, q dbtx, workerID engine.WorkerID, p engine.PaymentRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO worker_payments
		(id, worker_id, amount, paid_at, balance_after, related_event_id, method, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, workerID,
		p.Amount.String(),
		p.Date.UTC().Format(time.RFC3339),
		p.BalanceAfter.String(),
		nullString(string(p.RelatedEventID)),
		nullString(string(p.Method)),
		nullString(p.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

// ClearPayments deletes all payment history. Exists only for the global
// financial reset.
func (s *Store) ClearPayments(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clearPayments(ctx, s.db)
}

func clearPayments(ctx context.Context, q dbtx) error {
	_, err := q.ExecContext(ctx, "DELETE FROM worker_payments")
	return err
}

func loadPayments(ctx context.Context, q dbtx, workerID engine.WorkerID) ([]engine.PaymentRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, amount, paid_at, balance_after, related_event_id, method, notes
		FROM worker_payments
		WHERE worker_id = ?
		ORDER BY seq ASC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []engine.PaymentRecord
	for rows.Next() {
		var (
			p                     engine.PaymentRecord
			amount, paidAt, after string
			eventID               sql.NullString
			method, notes         sql.NullString
		)
		if err := rows.Scan(&p.ID, &amount, &paidAt, &after, &eventID, &method, &notes); err != nil {
			return nil, err
		}
		p.Amount = engine.MustParseDecimal(amount)
		p.Date, _ = time.Parse(time.RFC3339, paidAt)
		p.BalanceAfter = engine.MustParseDecimal(after)
		p.RelatedEventID = engine.EventID(eventID.String)
		p.Method = engine.PaymentMethod(method.String)
		p.Notes = notes.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// TRANSACTIONS (engine.TxStore interface)
// =============================================================================

// WithTx executes fn within a single database transaction. The store write
// lock is held for the duration, which also serializes concurrent
// settlements against the same worker.
func (s *Store) WithTx(ctx context.Context, fn func(store engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		// Writes were issued but the commit outcome is unknown.
		return &engine.ConsistencyError{Op: "commit", Cause: err}
	}
	return nil
}

// txStore routes every Store method through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveEvent(ctx context.Context, ev engine.Event) error {
	return saveEvent(ctx, ts.tx, ev)
}

func (ts *txStore) GetEvent(ctx context.Context, id engine.EventID) (*engine.Event, error) {
	return getEvent(ctx, ts.tx, id)
}

func (ts *txStore) ListEvents(ctx context.Context) ([]engine.Event, error) {
	return listEvents(ctx, ts.tx)
}

func (ts *txStore) DeleteEvent(ctx context.Context, id engine.EventID) error {
	return deleteEvent(ctx, ts.tx, id)
}

func (ts *txStore) SaveWorker(ctx context.Context, w engine.Worker) error {
	return saveWorker(ctx, ts.tx, w)
}

func (ts *txStore) GetWorker(ctx context.Context, id engine.WorkerID) (*engine.Worker, error) {
	return getWorker(ctx, ts.tx, id)
}

func (ts *txStore) ListWorkers(ctx context.Context) ([]engine.Worker, error) {
	return listWorkers(ctx, ts.tx)
}

func (ts *txStore) DeleteWorker(ctx context.Context, id engine.WorkerID) error {
	return deleteWorker(ctx, ts.tx, id)
}

func (ts *txStore) AppendPayment(ctx context.Context, workerID engine.WorkerID, p engine.PaymentRecord) error {
	return appendPayment(ctx, ts.tx, workerID, p)
}

func (ts *txStore) ClearPayments(ctx context.Context) error {
	return clearPayments(ctx, ts.tx)
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
