/*
obligation.go - Per-event, per-worker obligation records

PURPOSE:
  The event-side view of what is owed. One obligation per assigned worker,
  created in full at event creation, marked settled exactly once. The
  worker-side view (the accrued balance) is mutated separately by the
  Coordinator; these helpers never touch a Worker.

LAZY CREATION:
  SettleObligation may encounter an event whose obligation set predates this
  mechanism. In that case the entry is created on the fly with AmountDue
  defaulting to the event's unit pay rate.

SEE ALSO:
  - coordinator.go: pairs obligation settlement with the balance decrement
*/
package engine

import "time"

// initObligations builds the full obligation set for a freshly created event.
// Called exactly once, at creation. Fails when the assigned set does not
// match WorkerCount or contains duplicates.
func initObligations(ev *Event) error {
	if len(ev.AssignedWorkers) != ev.WorkerCount {
		return invalidf("assignedWorkers", "expected %d workers, got %d",
			ev.WorkerCount, len(ev.AssignedWorkers))
	}
	seen := make(map[WorkerID]bool, len(ev.AssignedWorkers))
	for _, id := range ev.AssignedWorkers {
		if seen[id] {
			return invalidf("assignedWorkers", "worker %s assigned twice", id)
		}
		seen[id] = true
	}

	ev.Obligations = make([]Obligation, 0, len(ev.AssignedWorkers))
	for _, id := range ev.AssignedWorkers {
		ev.Obligations = append(ev.Obligations, newObligation(ev, id))
	}
	return nil
}

func newObligation(ev *Event, id WorkerID) Obligation {
	return Obligation{
		WorkerID:   id,
		AmountDue:  ev.UnitPayRate,
		AmountPaid: decimalZero(),
		Settled:    false,
	}
}

// obligationOrCreate returns the obligation for a worker, lazily creating it
// when the event predates obligation tracking.
func obligationOrCreate(ev *Event, id WorkerID) *Obligation {
	if ob := ev.ObligationFor(id); ob != nil {
		return ob
	}
	ev.Obligations = append(ev.Obligations, newObligation(ev, id))
	return &ev.Obligations[len(ev.Obligations)-1]
}

// markSettled records the settlement metadata on the obligation and reports
// whether this call transitioned it false -> true. AmountPaid is taken as
// given: short-payments still mark the obligation settled, and the engine
// deliberately does not check amountPaid against amountDue here (the balance
// side has its own precondition).
func markSettled(ob *Obligation, in SettlementInput, at time.Time) (transitioned bool) {
	transitioned = !ob.Settled
	ob.AmountPaid = in.AmountPaid
	ob.Settled = true
	ob.SettledAt = &at
	ob.Method = in.Method
	ob.Notes = in.Notes
	return transitioned
}

// removeObligation drops the entry for a worker, preserving order. Used by
// reassignment; plain deletion removes the whole event instead.
func removeObligation(ev *Event, id WorkerID) {
	for i := range ev.Obligations {
		if ev.Obligations[i].WorkerID == id {
			ev.Obligations = append(ev.Obligations[:i], ev.Obligations[i+1:]...)
			return
		}
	}
}
