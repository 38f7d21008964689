/*
coordinator_test.go - Reconciliation behavior across the event and worker sides

PURPOSE:
  Exercises the full write surface of the Coordinator against the in-memory
  store: event creation with balance accrual, deletion reversal, settlement
  (including the double-settlement guard and the insufficient-balance
  rejection), reassignment, direct payments, and the global reset.
*/
package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banquet/staffing-engine/engine"
	"github.com/banquet/staffing-engine/engine/store"
)

var testClock = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *engine.Coordinator {
	t.Helper()
	c := engine.NewCoordinator(store.NewMemory())
	c.Now = func() time.Time { return testClock }
	return c
}

func mustCreateWorker(t *testing.T, c *engine.Coordinator, name string) *engine.Worker {
	t.Helper()
	w, err := c.CreateWorker(context.Background(), engine.CreateWorkerInput{
		Name:      name,
		Contact:   name + "@example.com",
		Available: true,
	})
	require.NoError(t, err)
	return w
}

func mustCreateEvent(t *testing.T, c *engine.Coordinator, billRate, payRate string, workers ...engine.WorkerID) *engine.Event {
	t.Helper()
	ev, err := c.CreateEvent(context.Background(), engine.CreateEventInput{
		RequesterName:   "Marwa H.",
		Category:        engine.CategoryWedding,
		Date:            time.Date(2026, 3, 21, 18, 0, 0, 0, time.UTC),
		Location:        "Grand Hall",
		WorkerCount:     len(workers),
		UnitBillRate:    dec(billRate),
		UnitPayRate:     dec(payRate),
		AssignedWorkers: workers,
	})
	require.NoError(t, err)
	return ev
}

func assertBalance(t *testing.T, c *engine.Coordinator, id engine.WorkerID, want string) {
	t.Helper()
	w, err := c.GetWorker(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, w.AccruedBalance.Equal(dec(want)),
		"balance of %s: want %s, got %s", w.Name, want, w.AccruedBalance)
}

// =============================================================================
// EVENT CREATION
// =============================================================================

func TestCreateEvent_SplitsAndAccrues(t *testing.T) {
	// GIVEN three registered workers
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	w3 := mustCreateWorker(t, c, "carim")

	// WHEN an event books all three at 100 billed / 80 paid per worker
	ev := mustCreateEvent(t, c, "100", "80", w1.ID, w2.ID, w3.ID)

	// THEN the split is exact
	assert.True(t, ev.BilledTotal.Equal(dec("300")))
	assert.True(t, ev.WorkerPayoutTotal.Equal(dec("240")))
	assert.True(t, ev.OperatorCommission.Equal(dec("60")))

	// AND each worker gained one unsettled obligation at the unit pay rate
	require.Len(t, ev.Obligations, 3)
	for _, ob := range ev.Obligations {
		assert.True(t, ob.AmountDue.Equal(dec("80")))
		assert.False(t, ob.Settled)
		assert.Nil(t, ob.SettledAt)
	}

	// AND each worker's balance and event count moved in step
	for _, id := range []engine.WorkerID{w1.ID, w2.ID, w3.ID} {
		assertBalance(t, c, id, "80")
		w, err := c.GetWorker(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 1, w.TotalEventsCount)
	}
}

func TestCreateEvent_UnknownWorkerLeavesNothingBehind(t *testing.T) {
	// GIVEN one real worker and one unknown id
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")

	// WHEN creation references the unknown worker
	_, err := c.CreateEvent(context.Background(), engine.CreateEventInput{
		RequesterName:   "Marwa H.",
		Category:        engine.CategoryBirthday,
		Date:            testClock,
		WorkerCount:     2,
		UnitBillRate:    dec("100"),
		UnitPayRate:     dec("80"),
		AssignedWorkers: []engine.WorkerID{w1.ID, "no-such-worker"},
	})

	// THEN the operation is rejected whole
	require.ErrorIs(t, err, engine.ErrWorkerNotFound)

	// AND the real worker's balance never moved
	assertBalance(t, c, w1.ID, "0")
	events, err := c.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateEvent_WorkerListMustMatchCount(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")

	_, err := c.CreateEvent(context.Background(), engine.CreateEventInput{
		RequesterName:   "Marwa H.",
		Category:        engine.CategoryOther,
		Date:            testClock,
		WorkerCount:     3,
		UnitBillRate:    dec("100"),
		UnitPayRate:     dec("80"),
		AssignedWorkers: []engine.WorkerID{w1.ID},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestCreateEvent_RejectsDuplicateAssignment(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")

	_, err := c.CreateEvent(context.Background(), engine.CreateEventInput{
		RequesterName:   "Marwa H.",
		Category:        engine.CategoryWedding,
		Date:            testClock,
		WorkerCount:     2,
		UnitBillRate:    dec("100"),
		UnitPayRate:     dec("80"),
		AssignedWorkers: []engine.WorkerID{w1.ID, w1.ID},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
	assertBalance(t, c, w1.ID, "0")
}

func TestCreateEvent_DefaultsBilledPartyAndCaterer(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")

	ev := mustCreateEvent(t, c, "50", "30", w1.ID)
	assert.Equal(t, engine.BillRequester, ev.BilledParty)
	assert.Equal(t, engine.CatererPrivate, ev.Caterer)
}

// =============================================================================
// DELETION REVERSAL
// =============================================================================

func TestDeleteEvent_RestoresBalances(t *testing.T) {
	// GIVEN an event that accrued balances for two workers
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID, w2.ID)

	// WHEN the event is deleted before any settlement
	require.NoError(t, c.DeleteEvent(context.Background(), ev.ID))

	// THEN both workers are back where they started
	for _, id := range []engine.WorkerID{w1.ID, w2.ID} {
		assertBalance(t, c, id, "0")
		w, err := c.GetWorker(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 0, w.TotalEventsCount)
	}

	// AND the event is gone
	_, err := c.GetEvent(context.Background(), ev.ID)
	assert.ErrorIs(t, err, engine.ErrEventNotFound)
}

func TestDeleteEvent_AfterSettlementSubtractsFullDue(t *testing.T) {
	// Deleting an event always reverses the obligation's original due amount,
	// even when a settlement already took the paid amount off the balance. The
	// two subtractions overlap and the balance can go negative. This pins the
	// current reconciliation behavior so a future correction shows up as a
	// deliberate test change, not a silent one.

	// GIVEN a settled obligation: accrue 80, then pay 80 down to 0
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)
	_, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
	})
	require.NoError(t, err)
	assertBalance(t, c, w1.ID, "0")

	// WHEN the event is deleted
	require.NoError(t, c.DeleteEvent(context.Background(), ev.ID))

	// THEN the reversal subtracted the full due again
	assertBalance(t, c, w1.ID, "-80")
}

func TestDeleteEvent_UnknownID(t *testing.T) {
	c := newTestEngine(t)
	err := c.DeleteEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrEventNotFound)
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func TestSettleWorkerPayment_FullCycle(t *testing.T) {
	// GIVEN a worker owed 80 from one event
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	// WHEN the obligation is settled in full by bank transfer
	got, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
		Method:     engine.PayTransfer,
		Notes:      "march payout",
	})
	require.NoError(t, err)

	// THEN the obligation carries the settlement metadata
	ob := got.ObligationFor(w1.ID)
	require.NotNil(t, ob)
	assert.True(t, ob.Settled)
	assert.True(t, ob.AmountPaid.Equal(dec("80")))
	require.NotNil(t, ob.SettledAt)
	assert.Equal(t, testClock, *ob.SettledAt)
	assert.Equal(t, engine.PayTransfer, ob.Method)
	assert.Equal(t, "march payout", ob.Notes)

	// AND the balance dropped with one linked history entry
	w, err := c.GetWorker(context.Background(), w1.ID)
	require.NoError(t, err)
	assert.True(t, w.AccruedBalance.Equal(dec("0")))
	require.Len(t, w.PaymentHistory, 1)
	rec := w.PaymentHistory[0]
	assert.True(t, rec.Amount.Equal(dec("80")))
	assert.True(t, rec.BalanceAfter.Equal(dec("0")))
	assert.Equal(t, ev.ID, rec.RelatedEventID)
	assert.Equal(t, engine.PayTransfer, rec.Method)
}

func TestSettleWorkerPayment_RepeatDoesNotDoubleCount(t *testing.T) {
	// GIVEN a worker owed 160 across two events, one already settled
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev1 := mustCreateEvent(t, c, "100", "80", w1.ID)
	mustCreateEvent(t, c, "100", "80", w1.ID)

	_, err := c.SettleWorkerPayment(context.Background(), ev1.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
	})
	require.NoError(t, err)
	assertBalance(t, c, w1.ID, "80")

	// WHEN the same settlement is submitted again with different notes
	got, err := c.SettleWorkerPayment(context.Background(), ev1.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
		Notes:      "resubmitted",
	})
	require.NoError(t, err)

	// THEN the metadata updated but the balance and history did not move
	assert.Equal(t, "resubmitted", got.ObligationFor(w1.ID).Notes)
	assertBalance(t, c, w1.ID, "80")
	w, err := c.GetWorker(context.Background(), w1.ID)
	require.NoError(t, err)
	assert.Len(t, w.PaymentHistory, 1)
}

func TestSettleWorkerPayment_ShortPaymentIsFinal(t *testing.T) {
	// GIVEN a worker owed 80
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	// WHEN only 50 of the 80 due is paid
	got, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("50"),
	})
	require.NoError(t, err)

	// THEN the obligation is settled at the paid amount, and only the paid
	// amount left the balance
	ob := got.ObligationFor(w1.ID)
	assert.True(t, ob.Settled)
	assert.True(t, ob.AmountPaid.Equal(dec("50")))
	assertBalance(t, c, w1.ID, "30")
}

func TestSettleWorkerPayment_ZeroAmountSettlesWithoutBalanceMove(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	got, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("0"),
		Notes:      "written off",
	})
	require.NoError(t, err)

	assert.True(t, got.ObligationFor(w1.ID).Settled)
	assertBalance(t, c, w1.ID, "80")
	w, err := c.GetWorker(context.Background(), w1.ID)
	require.NoError(t, err)
	assert.Empty(t, w.PaymentHistory)
}

func TestSettleWorkerPayment_OverBalanceFailsAtomically(t *testing.T) {
	// GIVEN a worker owed exactly 80
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	// WHEN a settlement above the accrued balance is attempted
	_, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("100"),
	})

	// THEN the whole operation fails
	require.ErrorIs(t, err, engine.ErrInsufficientBalance)
	var berr *engine.InsufficientBalanceError
	require.ErrorAs(t, err, &berr)
	assert.True(t, berr.Available.Equal(dec("80")))
	assert.True(t, berr.Requested.Equal(dec("100")))

	// AND neither side mutated: the obligation is still open
	got, err := c.GetEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.False(t, got.ObligationFor(w1.ID).Settled)
	assertBalance(t, c, w1.ID, "80")
}

func TestSettleWorkerPayment_BackDatedSettlement(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	backDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	got, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
		SettledAt:  &backDate,
	})
	require.NoError(t, err)

	require.NotNil(t, got.ObligationFor(w1.ID).SettledAt)
	assert.Equal(t, backDate, *got.ObligationFor(w1.ID).SettledAt)

	w, err := c.GetWorker(context.Background(), w1.ID)
	require.NoError(t, err)
	require.Len(t, w.PaymentHistory, 1)
	assert.Equal(t, backDate, w.PaymentHistory[0].Date)
}

func TestSettleWorkerPayment_RejectsUnassignedWorker(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	_, err := c.SettleWorkerPayment(context.Background(), ev.ID, w2.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestSettleWorkerPayment_SequentialBalanceTrail(t *testing.T) {
	// GIVEN a worker accrued over four events
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	var events []*engine.Event
	for i := 0; i < 4; i++ {
		events = append(events, mustCreateEvent(t, c, "100", "80", w1.ID))
	}
	assertBalance(t, c, w1.ID, "320")

	// WHEN each obligation is settled in turn
	for _, ev := range events {
		_, err := c.SettleWorkerPayment(context.Background(), ev.ID, w1.ID, engine.SettlementInput{
			AmountPaid: dec("80"),
		})
		require.NoError(t, err)
	}

	// THEN the history's balance-after trail steps down 80 at a time
	w, err := c.GetWorker(context.Background(), w1.ID)
	require.NoError(t, err)
	require.Len(t, w.PaymentHistory, 4)
	want := dec("320")
	for i, rec := range w.PaymentHistory {
		want = want.Sub(dec("80"))
		assert.True(t, rec.BalanceAfter.Equal(want),
			"entry %d: want balance-after %s, got %s", i, want, rec.BalanceAfter)
		assert.Equal(t, events[i].ID, rec.RelatedEventID)
	}
	assertBalance(t, c, w1.ID, "0")
}

// =============================================================================
// DIRECT PAYMENTS
// =============================================================================

func TestPayWorkerDirectly_NoEventLinkage(t *testing.T) {
	// GIVEN a worker with an accrued balance
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	mustCreateEvent(t, c, "100", "80", w1.ID)

	// WHEN an ad-hoc payment of 30 is applied
	got, err := c.PayWorkerDirectly(context.Background(), w1.ID, engine.DirectPaymentInput{
		Amount: dec("30"),
		Method: engine.PayCheck,
		Notes:  "advance",
	})
	require.NoError(t, err)

	// THEN the balance dropped and the entry has no related event
	assert.True(t, got.AccruedBalance.Equal(dec("50")))
	require.Len(t, got.PaymentHistory, 1)
	assert.Equal(t, engine.EventID(""), got.PaymentHistory[0].RelatedEventID)
	assert.Equal(t, engine.PayCheck, got.PaymentHistory[0].Method)
}

func TestPayWorkerDirectly_OverdraftRejected(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	mustCreateEvent(t, c, "100", "80", w1.ID)

	_, err := c.PayWorkerDirectly(context.Background(), w1.ID, engine.DirectPaymentInput{
		Amount: dec("80.01"),
	})
	require.ErrorIs(t, err, engine.ErrInsufficientBalance)
	assertBalance(t, c, w1.ID, "80")
}

func TestPayWorkerDirectly_RejectsNonPositiveAmount(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	mustCreateEvent(t, c, "100", "80", w1.ID)

	_, err := c.PayWorkerDirectly(context.Background(), w1.ID, engine.DirectPaymentInput{
		Amount: dec("0"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

// =============================================================================
// REASSIGNMENT
// =============================================================================

func TestReassignWorkers_SwapsBalancesAndObligations(t *testing.T) {
	// GIVEN an event staffed by amira and bilal
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	w3 := mustCreateWorker(t, c, "carim")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID, w2.ID)

	// WHEN bilal is swapped out for carim
	got, err := c.ReassignWorkers(context.Background(), ev.ID, []engine.WorkerID{w1.ID, w3.ID})
	require.NoError(t, err)

	// THEN the balances followed the swap
	assertBalance(t, c, w1.ID, "80")
	assertBalance(t, c, w2.ID, "0")
	assertBalance(t, c, w3.ID, "80")

	// AND the obligations track the new assigned order
	require.Len(t, got.Obligations, 2)
	assert.Equal(t, w1.ID, got.Obligations[0].WorkerID)
	assert.Equal(t, w3.ID, got.Obligations[1].WorkerID)
	assert.Nil(t, got.ObligationFor(w2.ID))
}

func TestReassignWorkers_SizeMustMatchWorkerCount(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID, w2.ID)

	_, err := c.ReassignWorkers(context.Background(), ev.ID, []engine.WorkerID{w1.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
	assertBalance(t, c, w2.ID, "80")
}

func TestReassignWorkers_UnknownAddedWorkerRollsBack(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID, w2.ID)

	_, err := c.ReassignWorkers(context.Background(), ev.ID, []engine.WorkerID{w1.ID, "ghost"})
	require.ErrorIs(t, err, engine.ErrWorkerNotFound)

	// Nothing moved: bilal stays assigned with his accrual intact.
	assertBalance(t, c, w2.ID, "80")
	got, err2 := c.GetEvent(context.Background(), ev.ID)
	require.NoError(t, err2)
	assert.True(t, got.IsAssigned(w2.ID))
}

// =============================================================================
// WORKER REGISTRY
// =============================================================================

func TestCreateWorker_StartsAtZero(t *testing.T) {
	c := newTestEngine(t)
	w := mustCreateWorker(t, c, "amira")

	assert.True(t, w.AccruedBalance.IsZero())
	assert.Equal(t, 0, w.TotalEventsCount)
	assert.True(t, w.Available)
	assert.Empty(t, w.PaymentHistory)
}

func TestCreateWorker_RejectsBlankName(t *testing.T) {
	c := newTestEngine(t)
	_, err := c.CreateWorker(context.Background(), engine.CreateWorkerInput{Name: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestSetWorkerAvailability(t *testing.T) {
	c := newTestEngine(t)
	w := mustCreateWorker(t, c, "amira")

	got, err := c.SetWorkerAvailability(context.Background(), w.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Available)

	got, err = c.SetWorkerAvailability(context.Background(), w.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestDeleteWorker_BlockedWhileAssigned(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	ev := mustCreateEvent(t, c, "100", "80", w1.ID)

	err := c.DeleteWorker(context.Background(), w1.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)

	// After the event goes away the worker can be removed.
	require.NoError(t, c.DeleteEvent(context.Background(), ev.ID))
	require.NoError(t, c.DeleteWorker(context.Background(), w1.ID))
	_, err = c.GetWorker(context.Background(), w1.ID)
	assert.ErrorIs(t, err, engine.ErrWorkerNotFound)
}

// =============================================================================
// GLOBAL RESET
// =============================================================================

func TestResetAllFinancials_ZeroesBothSides(t *testing.T) {
	// GIVEN events, balances, settlements and history
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	w2 := mustCreateWorker(t, c, "bilal")
	ev1 := mustCreateEvent(t, c, "100", "80", w1.ID, w2.ID)
	mustCreateEvent(t, c, "50", "30", w1.ID)
	_, err := c.SettleWorkerPayment(context.Background(), ev1.ID, w1.ID, engine.SettlementInput{
		AmountPaid: dec("80"),
	})
	require.NoError(t, err)

	// WHEN everything is reset
	res, err := c.ResetAllFinancials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.EventsAffected)
	assert.Equal(t, 2, res.WorkersAffected)

	// THEN workers are zeroed with empty histories
	for _, id := range []engine.WorkerID{w1.ID, w2.ID} {
		w, err := c.GetWorker(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, w.AccruedBalance.IsZero())
		assert.Equal(t, 0, w.TotalEventsCount)
		assert.Empty(t, w.PaymentHistory)
	}

	// AND events keep their records but carry zero money
	events, err := c.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.True(t, ev.BilledTotal.IsZero())
		assert.True(t, ev.OperatorCommission.IsZero())
		assert.True(t, ev.WorkerPayoutTotal.IsZero())
		for _, ob := range ev.Obligations {
			assert.True(t, ob.AmountDue.IsZero())
		}
	}
}

func TestResetAllFinancials_Idempotent(t *testing.T) {
	c := newTestEngine(t)
	w1 := mustCreateWorker(t, c, "amira")
	mustCreateEvent(t, c, "100", "80", w1.ID)

	first, err := c.ResetAllFinancials(context.Background())
	require.NoError(t, err)
	second, err := c.ResetAllFinancials(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assertBalance(t, c, w1.ID, "0")
}

func TestResetAllFinancials_EmptyStores(t *testing.T) {
	c := newTestEngine(t)
	res, err := c.ResetAllFinancials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.ResetResult{}, res)
}
