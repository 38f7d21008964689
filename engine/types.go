/*
Package engine is the earnings ledger and reconciliation core.

PURPOSE:
  This package owns every invariant worth protecting in the booking system:
  the financial split computed when a staffing event is created, the per-event
  per-worker obligation records, each worker's running accrued balance with its
  payment history, and the reconciliation logic that keeps the event side and
  the worker side from drifting apart on create, settle, reassign, delete and
  reset.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: one staffing engagement with its financial split and obligations
  - Worker: a staffing resource with a running balance and payment history
  - Obligation: the due/paid/settled record for one worker on one event
  - PaymentRecord: one applied settlement, carrying balance-after

DESIGN PRINCIPLES:
  1. Precision: all money is decimal.Decimal, never float64
  2. Closed enums: category, billed party and payment method are typed with
     explicit validity checks, not open strings
  3. Dual views: obligations live on the Event, balances live on the Worker;
     only the Coordinator is allowed to mutate either

SEE ALSO:
  - arithmetic.go: the pure split computation
  - coordinator.go: the only write path through this package
  - store.go: persistence interfaces
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EventID string
type WorkerID string

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Category classifies the occasion being staffed.
type Category string

const (
	CategoryWedding    Category = "wedding"
	CategoryEngagement Category = "engagement"
	CategoryBirthday   Category = "birthday"
	CategoryOther      Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWedding, CategoryEngagement, CategoryBirthday, CategoryOther:
		return true
	}
	return false
}

// BilledParty says who the bill is conceptually addressed to. Both branches
// use identical arithmetic; the flag only changes the addressee.
type BilledParty string

const (
	BillRequester BilledParty = "requester"
	BillCaterer   BilledParty = "caterer"
)

func (p BilledParty) Valid() bool {
	return p == BillRequester || p == BillCaterer
}

// Caterer names the catering business an event runs under. CatererPrivate is
// the "no caterer" case for private functions. Actual caterer names are data,
// not code, so this stays a newtype rather than a closed set.
type Caterer string

const CatererPrivate Caterer = "private"

// PaymentMethod is how a settlement was paid out.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayTransfer PaymentMethod = "bank_transfer"
	PayCheck    PaymentMethod = "check"
	PayOther    PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayTransfer, PayCheck, PayOther:
		return true
	}
	return false
}

// =============================================================================
// EVENT - One staffing engagement
// =============================================================================

// Event is one booked engagement. The three derived fields (BilledTotal,
// OperatorCommission, WorkerPayoutTotal) are computed exactly once at
// creation from (WorkerCount, UnitBillRate, UnitPayRate) and never edited;
// the only supported mutations after creation are obligation settlement and
// worker reassignment, both through the Coordinator.
type Event struct {
	ID            EventID
	RequesterName string
	Category      Category
	Caterer       Caterer
	BilledParty   BilledParty
	Date          time.Time
	Location      string

	// Financial inputs, user supplied.
	WorkerCount  int
	UnitBillRate decimal.Decimal // billed per worker
	UnitPayRate  decimal.Decimal // paid to each worker, strictly < UnitBillRate

	// Financial split, derived at creation.
	BilledTotal        decimal.Decimal
	OperatorCommission decimal.Decimal
	WorkerPayoutTotal  decimal.Decimal

	// AssignedWorkers is an ordered set; its size always equals WorkerCount.
	AssignedWorkers []WorkerID

	// Obligations holds one entry per assigned worker.
	Obligations []Obligation

	CreatedAt time.Time
}

// Obligation is the due/paid/settled record for one worker on one event.
// AmountDue equals the event's UnitPayRate at creation. A settled obligation's
// AmountPaid is authoritative even when it is short of AmountDue.
type Obligation struct {
	WorkerID   WorkerID
	AmountDue  decimal.Decimal
	AmountPaid decimal.Decimal
	Settled    bool
	SettledAt  *time.Time
	Method     PaymentMethod
	Notes      string
}

// ObligationFor returns the obligation entry for a worker, or nil.
func (e *Event) ObligationFor(id WorkerID) *Obligation {
	for i := range e.Obligations {
		if e.Obligations[i].WorkerID == id {
			return &e.Obligations[i]
		}
	}
	return nil
}

// IsAssigned reports whether a worker is in the assigned set.
func (e *Event) IsAssigned(id WorkerID) bool {
	for _, w := range e.AssignedWorkers {
		if w == id {
			return true
		}
	}
	return false
}

// =============================================================================
// WORKER - One staffing resource
// =============================================================================

// Worker is one staffing resource. AccruedBalance is the amount still owed:
// it goes up when the worker is assigned to a new event and down through
// settlements, and may be corrected by deletion reversal. TotalEventsCount
// tracks assignment, not settlement.
type Worker struct {
	ID        WorkerID
	Name      string
	Contact   string
	Available bool

	AccruedBalance   decimal.Decimal
	TotalEventsCount int

	// PaymentHistory is append-only, in application order. Entries may be
	// back-dated, so the sequence is NOT sorted by Date; BalanceAfter always
	// reflects the order payments were applied, never the Date order.
	PaymentHistory []PaymentRecord

	CreatedAt time.Time
}

// PaymentRecord is one applied settlement against a worker's balance.
type PaymentRecord struct {
	ID             string
	Amount         decimal.Decimal
	Date           time.Time
	BalanceAfter   decimal.Decimal
	RelatedEventID EventID // empty for ad-hoc payments
	Method         PaymentMethod
	Notes          string
}

// HasPaymentForEvent reports whether any history entry references the event.
// This is the double-settlement guard used by the settle path.
func (w *Worker) HasPaymentForEvent(id EventID) bool {
	for _, p := range w.PaymentHistory {
		if p.RelatedEventID == id {
			return true
		}
	}
	return false
}

// MustParseDecimal parses s, returning zero on malformed input. Used when
// rehydrating amounts that were serialized by this package.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
