/*
coordinator.go - Reconciliation between the event side and the worker side

PURPOSE:
  The Coordinator is the only write path through the engine. Every operation
  that touches both an Event and one or more Workers runs inside a single
  store transaction, so "event persisted but balances not updated" (and its
  inverses) cannot be observed. Validation happens before any mutation:
  nothing is partially applied on a rejected input.

OPERATIONS:
  CreateEvent        validate, compute split, init obligations, accrue balances
  DeleteEvent        reverse balances from obligation due amounts, drop event
  ReassignWorkers    swap the assigned set, reversing and accruing as needed
  SettleWorkerPayment mark one obligation settled, decrement one balance once
  PayWorkerDirectly  ad-hoc settlement with no event linkage
  ResetAllFinancials zero both stores in one transaction

  Plus the read surface the admin UI needs: event/worker registry lookups and
  the aggregations in stats.go.

CONCURRENCY:
  Request-driven, no background work. The one place real mutual exclusion is
  required is the settlement read-modify-write against a single worker; the
  store's WithTx provides it (see store.go).

SEE ALSO:
  - arithmetic.go, obligation.go, balance.go: the leaves this orchestrates
  - stats.go: the read-only folds
*/
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coordinator orchestrates all writes across the two stores.
type Coordinator struct {
	store TxStore

	// Now and NewID are injection points for tests.
	Now   func() time.Time
	NewID func() string
}

func NewCoordinator(store TxStore) *Coordinator {
	return &Coordinator{
		store: store,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// =============================================================================
// INPUTS
// =============================================================================

// CreateEventInput carries the user-supplied fields for a new event.
type CreateEventInput struct {
	RequesterName string
	Category      Category
	Caterer       Caterer
	BilledParty   BilledParty
	Date          time.Time
	Location      string

	WorkerCount     int
	UnitBillRate    decimal.Decimal
	UnitPayRate     decimal.Decimal
	AssignedWorkers []WorkerID
}

// SettlementInput marks one obligation paid. SettledAt may be back-dated;
// when nil it defaults to now. AmountPaid below the due amount is a
// short-payment and still settles the obligation.
type SettlementInput struct {
	AmountPaid decimal.Decimal
	Method     PaymentMethod
	Notes      string
	SettledAt  *time.Time
}

// DirectPaymentInput is an ad-hoc payment with no related event.
type DirectPaymentInput struct {
	Amount decimal.Decimal
	Method PaymentMethod
	Notes  string
}

// CreateWorkerInput carries the user-supplied fields for a new worker.
type CreateWorkerInput struct {
	Name      string
	Contact   string
	Available bool
}

// ResetResult reports how many records the global reset touched.
type ResetResult struct {
	EventsAffected  int
	WorkersAffected int
}

// =============================================================================
// EVENT LIFECYCLE
// =============================================================================

// CreateEvent validates the input, derives the financial split, and persists
// the event together with each assigned worker's balance accrual as one
// atomic unit.
func (c *Coordinator) CreateEvent(ctx context.Context, in CreateEventInput) (*Event, error) {
	if strings.TrimSpace(in.RequesterName) == "" {
		return nil, invalidf("requesterName", "must not be empty")
	}
	if !in.Category.Valid() {
		return nil, invalidf("category", "unknown category %q", in.Category)
	}
	if in.BilledParty == "" {
		in.BilledParty = BillRequester
	}
	if !in.BilledParty.Valid() {
		return nil, invalidf("billedParty", "must be %q or %q, got %q",
			BillRequester, BillCaterer, in.BilledParty)
	}
	if in.Caterer == "" {
		in.Caterer = CatererPrivate
	}
	if in.Date.IsZero() {
		return nil, invalidf("date", "must be set")
	}
	if err := ValidateFinancials(in.WorkerCount, in.UnitBillRate, in.UnitPayRate); err != nil {
		return nil, err
	}

	split := ComputeSplit(in.WorkerCount, in.UnitBillRate, in.UnitPayRate)
	ev := Event{
		ID:                 EventID(c.NewID()),
		RequesterName:      in.RequesterName,
		Category:           in.Category,
		Caterer:            in.Caterer,
		BilledParty:        in.BilledParty,
		Date:               in.Date,
		Location:           in.Location,
		WorkerCount:        in.WorkerCount,
		UnitBillRate:       in.UnitBillRate,
		UnitPayRate:        in.UnitPayRate,
		BilledTotal:        split.BilledTotal,
		OperatorCommission: split.OperatorCommission,
		WorkerPayoutTotal:  split.WorkerPayoutTotal,
		AssignedWorkers:    append([]WorkerID(nil), in.AssignedWorkers...),
		CreatedAt:          c.Now(),
	}
	if err := initObligations(&ev); err != nil {
		return nil, err
	}

	err := c.store.WithTx(ctx, func(s Store) error {
		// Resolve every referenced worker before mutating any of them.
		workers := make([]*Worker, 0, len(ev.AssignedWorkers))
		for _, id := range ev.AssignedWorkers {
			w, err := s.GetWorker(ctx, id)
			if err != nil {
				return err
			}
			if w == nil {
				return ErrWorkerNotFound
			}
			workers = append(workers, w)
		}

		for _, w := range workers {
			applyAssignment(w, ev.UnitPayRate)
			if err := s.SaveWorker(ctx, *w); err != nil {
				return err
			}
		}
		return s.SaveEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// DeleteEvent reverses each assigned worker's accrual and removes the event,
// obligations included. The reversal subtracts the obligation's original due
// amount (falling back to the event's unit pay rate) regardless of settlement
// state - see reverseAssignment for why that asymmetry is preserved.
func (c *Coordinator) DeleteEvent(ctx context.Context, id EventID) error {
	return c.store.WithTx(ctx, func(s Store) error {
		ev, err := s.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if ev == nil {
			return ErrEventNotFound
		}

		for _, workerID := range ev.AssignedWorkers {
			w, err := s.GetWorker(ctx, workerID)
			if err != nil {
				return err
			}
			if w == nil {
				// The worker record is gone; nothing to reverse.
				continue
			}
			due := ev.UnitPayRate
			if ob := ev.ObligationFor(workerID); ob != nil {
				due = ob.AmountDue
			}
			reverseAssignment(w, due)
			if err := s.SaveWorker(ctx, *w); err != nil {
				return err
			}
		}
		return s.DeleteEvent(ctx, id)
	})
}

// ReassignWorkers replaces the event's assigned set with another set of the
// same size. Removed workers are reversed with the deletion rules, added
// workers accrue as on creation, and obligations follow the new order.
func (c *Coordinator) ReassignWorkers(ctx context.Context, id EventID, assigned []WorkerID) (*Event, error) {
	seen := make(map[WorkerID]bool, len(assigned))
	for _, w := range assigned {
		if seen[w] {
			return nil, invalidf("assignedWorkers", "worker %s assigned twice", w)
		}
		seen[w] = true
	}

	var result *Event
	err := c.store.WithTx(ctx, func(s Store) error {
		ev, err := s.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if ev == nil {
			return ErrEventNotFound
		}
		if len(assigned) != ev.WorkerCount {
			return invalidf("assignedWorkers", "expected %d workers, got %d",
				ev.WorkerCount, len(assigned))
		}

		var added, removed []WorkerID
		for _, w := range assigned {
			if !ev.IsAssigned(w) {
				added = append(added, w)
			}
		}
		for _, w := range ev.AssignedWorkers {
			if !seen[w] {
				removed = append(removed, w)
			}
		}

		// Resolve added workers before mutating anything.
		addedWorkers := make([]*Worker, 0, len(added))
		for _, workerID := range added {
			w, err := s.GetWorker(ctx, workerID)
			if err != nil {
				return err
			}
			if w == nil {
				return ErrWorkerNotFound
			}
			addedWorkers = append(addedWorkers, w)
		}

		for _, workerID := range removed {
			w, err := s.GetWorker(ctx, workerID)
			if err != nil {
				return err
			}
			if w != nil {
				due := ev.UnitPayRate
				if ob := ev.ObligationFor(workerID); ob != nil {
					due = ob.AmountDue
				}
				reverseAssignment(w, due)
				if err := s.SaveWorker(ctx, *w); err != nil {
					return err
				}
			}
			removeObligation(ev, workerID)
		}

		for _, w := range addedWorkers {
			applyAssignment(w, ev.UnitPayRate)
			if err := s.SaveWorker(ctx, *w); err != nil {
				return err
			}
			ev.Obligations = append(ev.Obligations, newObligation(ev, w.ID))
		}

		ev.AssignedWorkers = append([]WorkerID(nil), assigned...)
		reorderObligations(ev)

		if err := s.SaveEvent(ctx, *ev); err != nil {
			return err
		}
		result = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reorderObligations puts the obligation slice in assigned-worker order.
func reorderObligations(ev *Event) {
	ordered := make([]Obligation, 0, len(ev.Obligations))
	for _, id := range ev.AssignedWorkers {
		if ob := ev.ObligationFor(id); ob != nil {
			ordered = append(ordered, *ob)
		}
	}
	ev.Obligations = ordered
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// SettleWorkerPayment marks one worker's obligation on one event as settled
// and, when this call is the false -> true transition and the worker's
// history has no entry for the event yet, decrements the worker's balance by
// the paid amount. Repeating the call updates the obligation's metadata but
// never double-counts the balance. A paid amount above the worker's accrued
// balance fails the whole operation: the obligation is left untouched.
func (c *Coordinator) SettleWorkerPayment(ctx context.Context, eventID EventID, workerID WorkerID, in SettlementInput) (*Event, error) {
	if in.AmountPaid.IsNegative() {
		return nil, invalidf("amountPaid", "must not be negative, got %s", in.AmountPaid)
	}
	if in.Method == "" {
		in.Method = PayCash
	}
	if !in.Method.Valid() {
		return nil, invalidf("method", "unknown payment method %q", in.Method)
	}

	settledAt := c.Now()
	if in.SettledAt != nil {
		settledAt = *in.SettledAt
	}

	var result *Event
	err := c.store.WithTx(ctx, func(s Store) error {
		ev, err := s.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if ev == nil {
			return ErrEventNotFound
		}
		if !ev.IsAssigned(workerID) {
			return invalidf("workerId", "worker %s is not assigned to event %s", workerID, eventID)
		}
		w, err := s.GetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrWorkerNotFound
		}

		ob := obligationOrCreate(ev, workerID)
		transitioned := markSettled(ob, in, settledAt)

		// Balance effect exactly once: only on the settling transition, only
		// when no history entry references this event, and only for a
		// positive amount (a zero short-payment has nothing to move).
		if transitioned && !w.HasPaymentForEvent(eventID) && in.AmountPaid.IsPositive() {
			rec, err := applyPayment(w, c.NewID(), in.AmountPaid, settledAt,
				eventID, in.Method, in.Notes)
			if err != nil {
				return err
			}
			if err := s.AppendPayment(ctx, w.ID, rec); err != nil {
				return err
			}
			if err := s.SaveWorker(ctx, *w); err != nil {
				return err
			}
		}

		if err := s.SaveEvent(ctx, *ev); err != nil {
			return err
		}
		result = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PayWorkerDirectly applies an ad-hoc payment with no event linkage. Subject
// to the same balance precondition as event settlements.
func (c *Coordinator) PayWorkerDirectly(ctx context.Context, workerID WorkerID, in DirectPaymentInput) (*Worker, error) {
	if in.Method == "" {
		in.Method = PayCash
	}
	if !in.Method.Valid() {
		return nil, invalidf("method", "unknown payment method %q", in.Method)
	}

	var result *Worker
	err := c.store.WithTx(ctx, func(s Store) error {
		w, err := s.GetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrWorkerNotFound
		}

		rec, err := applyPayment(w, c.NewID(), in.Amount, c.Now(), "", in.Method, in.Notes)
		if err != nil {
			return err
		}
		if err := s.AppendPayment(ctx, w.ID, rec); err != nil {
			return err
		}
		if err := s.SaveWorker(ctx, *w); err != nil {
			return err
		}
		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// =============================================================================
// GLOBAL RESET
// =============================================================================

// ResetAllFinancials zeroes every worker's balance, event count and payment
// history, and every event's derived financial fields and obligation due
// amounts, in a single transaction. Destructive and irreversible; any
// confirmation step belongs to the caller. Idempotent.
func (c *Coordinator) ResetAllFinancials(ctx context.Context) (ResetResult, error) {
	var res ResetResult
	err := c.store.WithTx(ctx, func(s Store) error {
		workers, err := s.ListWorkers(ctx)
		if err != nil {
			return err
		}
		for i := range workers {
			resetWorkerFinancials(&workers[i])
			if err := s.SaveWorker(ctx, workers[i]); err != nil {
				return err
			}
		}
		if err := s.ClearPayments(ctx); err != nil {
			return err
		}

		events, err := s.ListEvents(ctx)
		if err != nil {
			return err
		}
		for i := range events {
			ev := &events[i]
			ev.BilledTotal = decimalZero()
			ev.OperatorCommission = decimalZero()
			ev.WorkerPayoutTotal = decimalZero()
			for j := range ev.Obligations {
				ev.Obligations[j].AmountDue = decimalZero()
			}
			if err := s.SaveEvent(ctx, *ev); err != nil {
				return err
			}
		}

		res = ResetResult{EventsAffected: len(events), WorkersAffected: len(workers)}
		return nil
	})
	if err != nil {
		return ResetResult{}, err
	}
	return res, nil
}

// =============================================================================
// WORKER REGISTRY
// =============================================================================

// CreateWorker registers a new staffing resource with a zero balance.
func (c *Coordinator) CreateWorker(ctx context.Context, in CreateWorkerInput) (*Worker, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidf("name", "must not be empty")
	}
	w := Worker{
		ID:             WorkerID(c.NewID()),
		Name:           in.Name,
		Contact:        in.Contact,
		Available:      in.Available,
		AccruedBalance: decimalZero(),
		CreatedAt:      c.Now(),
	}
	if err := c.store.SaveWorker(ctx, w); err != nil {
		return nil, err
	}
	return &w, nil
}

// SetWorkerAvailability toggles the availability flag.
func (c *Coordinator) SetWorkerAvailability(ctx context.Context, id WorkerID, available bool) (*Worker, error) {
	var result *Worker
	err := c.store.WithTx(ctx, func(s Store) error {
		w, err := s.GetWorker(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrWorkerNotFound
		}
		w.Available = available
		if err := s.SaveWorker(ctx, *w); err != nil {
			return err
		}
		result = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteWorker removes a worker. Rejected while the worker is still assigned
// to any event, since deleting would strand that event's obligations.
func (c *Coordinator) DeleteWorker(ctx context.Context, id WorkerID) error {
	return c.store.WithTx(ctx, func(s Store) error {
		w, err := s.GetWorker(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrWorkerNotFound
		}
		events, err := s.ListEvents(ctx)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if ev.IsAssigned(id) {
				return invalidf("workerId", "worker %s is still assigned to event %s", id, ev.ID)
			}
		}
		return s.DeleteWorker(ctx, id)
	})
}

// =============================================================================
// READS
// =============================================================================

func (c *Coordinator) GetEvent(ctx context.Context, id EventID) (*Event, error) {
	ev, err := c.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func (c *Coordinator) ListEvents(ctx context.Context) ([]Event, error) {
	return c.store.ListEvents(ctx)
}

func (c *Coordinator) GetWorker(ctx context.Context, id WorkerID) (*Worker, error) {
	w, err := c.store.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWorkerNotFound
	}
	return w, nil
}

func (c *Coordinator) ListWorkers(ctx context.Context) ([]Worker, error) {
	return c.store.ListWorkers(ctx)
}
