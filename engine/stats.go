/*
stats.go - Read-only aggregations over the event collection

PURPOSE:
  Derives revenue totals, monthly revenue, per-caterer and per-requester
  statistics, and per-worker payment summaries by folding over events. No
  state of its own and no invariants beyond correct folding: every total can
  be re-derived independently from the raw event fields.
*/
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EventStats is the global revenue fold.
type EventStats struct {
	TotalEvents        int
	TotalBilled        decimal.Decimal
	TotalCommission    decimal.Decimal
	TotalWorkerPayouts decimal.Decimal
}

// MonthlyRevenue is one month's slice of the revenue fold.
type MonthlyRevenue struct {
	Month  time.Time // first day of the month, UTC
	Label  string    // e.g. "March 2026"
	Events int
	Billed decimal.Decimal
	Commission decimal.Decimal
}

// CatererStats is the revenue fold restricted to one caterer.
type CatererStats struct {
	Caterer            Caterer
	TotalEvents        int
	TotalBilled        decimal.Decimal
	TotalCommission    decimal.Decimal
	TotalWorkerPayouts decimal.Decimal
}

// RequesterStats is the revenue fold grouped by requesting party.
type RequesterStats struct {
	RequesterName   string
	TotalEvents     int
	TotalBilled     decimal.Decimal
	TotalCommission decimal.Decimal
}

// WorkerPaymentSummary folds one worker's obligations over an optional event
// date range. TotalPending counts only unsettled obligations: a settled
// short-payment is final, not pending.
type WorkerPaymentSummary struct {
	WorkerID     WorkerID
	EventsCount  int
	SettledCount int
	TotalDue     decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalPending decimal.Decimal
}

// GetEventStats folds every event. An empty collection yields zeros, not an
// error.
func (c *Coordinator) GetEventStats(ctx context.Context) (EventStats, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return EventStats{}, err
	}
	stats := EventStats{
		TotalBilled:        decimalZero(),
		TotalCommission:    decimalZero(),
		TotalWorkerPayouts: decimalZero(),
	}
	for _, ev := range events {
		stats.TotalEvents++
		stats.TotalBilled = stats.TotalBilled.Add(ev.BilledTotal)
		stats.TotalCommission = stats.TotalCommission.Add(ev.OperatorCommission)
		stats.TotalWorkerPayouts = stats.TotalWorkerPayouts.Add(ev.WorkerPayoutTotal)
	}
	return stats, nil
}

// GetMonthlyRevenue groups the revenue fold by event month, oldest first.
func (c *Coordinator) GetMonthlyRevenue(ctx context.Context) ([]MonthlyRevenue, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[time.Time]*MonthlyRevenue)
	for _, ev := range events {
		month := time.Date(ev.Date.Year(), ev.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		m, ok := byMonth[month]
		if !ok {
			m = &MonthlyRevenue{
				Month:      month,
				Label:      month.Format("January 2006"),
				Billed:     decimalZero(),
				Commission: decimalZero(),
			}
			byMonth[month] = m
		}
		m.Events++
		m.Billed = m.Billed.Add(ev.BilledTotal)
		m.Commission = m.Commission.Add(ev.OperatorCommission)
	}

	months := make([]MonthlyRevenue, 0, len(byMonth))
	for _, m := range byMonth {
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month.Before(months[j].Month) })
	return months, nil
}

// GetCatererStats folds only the events run under one caterer.
func (c *Coordinator) GetCatererStats(ctx context.Context, caterer Caterer) (CatererStats, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return CatererStats{}, err
	}
	stats := CatererStats{
		Caterer:            caterer,
		TotalBilled:        decimalZero(),
		TotalCommission:    decimalZero(),
		TotalWorkerPayouts: decimalZero(),
	}
	for _, ev := range events {
		if ev.Caterer != caterer {
			continue
		}
		stats.TotalEvents++
		stats.TotalBilled = stats.TotalBilled.Add(ev.BilledTotal)
		stats.TotalCommission = stats.TotalCommission.Add(ev.OperatorCommission)
		stats.TotalWorkerPayouts = stats.TotalWorkerPayouts.Add(ev.WorkerPayoutTotal)
	}
	return stats, nil
}

// GetRequesterStats folds events per requesting party, sorted by name.
func (c *Coordinator) GetRequesterStats(ctx context.Context) ([]RequesterStats, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*RequesterStats)
	for _, ev := range events {
		r, ok := byName[ev.RequesterName]
		if !ok {
			r = &RequesterStats{
				RequesterName:   ev.RequesterName,
				TotalBilled:     decimalZero(),
				TotalCommission: decimalZero(),
			}
			byName[ev.RequesterName] = r
		}
		r.TotalEvents++
		r.TotalBilled = r.TotalBilled.Add(ev.BilledTotal)
		r.TotalCommission = r.TotalCommission.Add(ev.OperatorCommission)
	}

	out := make([]RequesterStats, 0, len(byName))
	for _, r := range byName {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequesterName < out[j].RequesterName })
	return out, nil
}

// GetWorkerPaymentSummary folds one worker's obligations, optionally
// restricted to events dated in [from, to]. Nil bounds are open.
func (c *Coordinator) GetWorkerPaymentSummary(ctx context.Context, workerID WorkerID, from, to *time.Time) (WorkerPaymentSummary, error) {
	w, err := c.store.GetWorker(ctx, workerID)
	if err != nil {
		return WorkerPaymentSummary{}, err
	}
	if w == nil {
		return WorkerPaymentSummary{}, ErrWorkerNotFound
	}
	if from != nil && to != nil && to.Before(*from) {
		return WorkerPaymentSummary{}, invalidf("range", "to %s is before from %s", to, from)
	}

	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return WorkerPaymentSummary{}, err
	}

	sum := WorkerPaymentSummary{
		WorkerID:     workerID,
		TotalDue:     decimalZero(),
		TotalPaid:    decimalZero(),
		TotalPending: decimalZero(),
	}
	for _, ev := range events {
		if from != nil && ev.Date.Before(*from) {
			continue
		}
		if to != nil && ev.Date.After(*to) {
			continue
		}
		ob := ev.ObligationFor(workerID)
		if ob == nil {
			continue
		}
		sum.EventsCount++
		sum.TotalDue = sum.TotalDue.Add(ob.AmountDue)
		sum.TotalPaid = sum.TotalPaid.Add(ob.AmountPaid)
		if ob.Settled {
			sum.SettledCount++
		} else {
			sum.TotalPending = sum.TotalPending.Add(ob.AmountDue.Sub(ob.AmountPaid))
		}
	}
	return sum, nil
}
