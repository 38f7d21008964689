/*
store.go - Persistence interfaces for events and workers

PURPOSE:
  Defines the boundary between the reconciliation logic and the database.
  Two collections only, Event and Worker, related by id references. There is
  no enforced referential integrity between a worker's accrued balance and
  the sum of its outstanding obligations; the Coordinator keeps the two sides
  consistent procedurally, which is why every cross-entity mutation must run
  inside WithTx.

ATOMICITY CONTRACT:
  WithTx(fn) applies every write made by fn, or none of them. On the create
  path that means "event persisted but balances untouched" can never be
  observed; on delete, reassign and reset the same holds in reverse. A store
  that cannot honor this must not claim the TxStore interface.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store (single sql.Tx per WithTx)
  - engine/store: in-memory store for tests and dev

SEE ALSO:
  - coordinator.go: the only caller of the write methods
*/
package engine

import "context"

// Store is the flat persistence surface for both collections. GetWorker and
// ListWorkers return workers with their full payment history attached, in
// application order.
type Store interface {
	// Events
	SaveEvent(ctx context.Context, ev Event) error
	GetEvent(ctx context.Context, id EventID) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id EventID) error

	// Workers
	SaveWorker(ctx context.Context, w Worker) error
	GetWorker(ctx context.Context, id WorkerID) (*Worker, error)
	ListWorkers(ctx context.Context) ([]Worker, error)
	DeleteWorker(ctx context.Context, id WorkerID) error

	// Payment history. Append-only: there is no update or single delete.
	// ClearPayments exists solely for the global financial reset.
	AppendPayment(ctx context.Context, workerID WorkerID, p PaymentRecord) error
	ClearPayments(ctx context.Context) error
}

// TxStore wraps Store with transaction support.
//
// WithTx executes fn against a transactional view of the store. If fn returns
// an error the transaction is rolled back; otherwise it is committed. WithTx
// also provides mutual exclusion: two settlements racing on the same worker
// see each other's committed balance, never an interleaved read-modify-write.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
