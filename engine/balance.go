/*
balance.go - Per-worker running balance and payment history

PURPOSE:
  The worker-side view of what is owed. The accrued balance rises when the
  worker is assigned to an event, falls through settlements, and is corrected
  (approximately - see reverseAssignment) when an event is deleted. The
  payment history is append-only and records BalanceAfter in application
  order, which is the authoritative ordering even when entries are
  back-dated.

SEE ALSO:
  - coordinator.go: wraps these mutations in store transactions
  - obligation.go: the event-side counterpart
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

func decimalZero() decimal.Decimal { return decimal.Zero }

// applyAssignment accrues one event's pay onto the worker. Paired with
// SaveWorker inside the create and reassign transactions.
func applyAssignment(w *Worker, unitPayRate decimal.Decimal) {
	w.AccruedBalance = w.AccruedBalance.Add(unitPayRate)
	w.TotalEventsCount++
}

// reverseAssignment undoes an assignment using the obligation's ORIGINAL due
// amount, not the settlement state. When the worker was already settled for
// the event this over-subtracts and can drive the balance negative; that is
// the system's historical behavior and callers depend on it, so it is kept
// rather than silently fixed. The divergence is pinned by a test.
func reverseAssignment(w *Worker, amountDue decimal.Decimal) {
	w.AccruedBalance = w.AccruedBalance.Sub(amountDue)
	w.TotalEventsCount--
}

// applyPayment is the sole path by which an accrued balance decreases from a
// positive amount. Precondition: 0 < amount <= balance, enforced here as one
// read-modify-write (callers hold the store transaction for exclusion).
// Returns the history record with BalanceAfter already stamped.
func applyPayment(w *Worker, id string, amount decimal.Decimal, date time.Time,
	eventID EventID, method PaymentMethod, notes string) (PaymentRecord, error) {

	if !amount.IsPositive() {
		return PaymentRecord{}, invalidf("amount", "must be positive, got %s", amount)
	}
	if amount.GreaterThan(w.AccruedBalance) {
		return PaymentRecord{}, &InsufficientBalanceError{
			WorkerID:  w.ID,
			Available: w.AccruedBalance,
			Requested: amount,
		}
	}

	w.AccruedBalance = w.AccruedBalance.Sub(amount)
	rec := PaymentRecord{
		ID:             id,
		Amount:         amount,
		Date:           date,
		BalanceAfter:   w.AccruedBalance,
		RelatedEventID: eventID,
		Method:         method,
		Notes:          notes,
	}
	w.PaymentHistory = append(w.PaymentHistory, rec)
	return rec, nil
}

// resetWorkerFinancials zeroes the worker's financial state for the global
// reset. The caller clears the persisted payment rows separately.
func resetWorkerFinancials(w *Worker) {
	w.AccruedBalance = decimalZero()
	w.TotalEventsCount = 0
	w.PaymentHistory = nil
}
