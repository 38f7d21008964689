/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract. Money crosses
  the wire as decimal strings ("80", "123.50"), never as floats.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/banquet/staffing-engine/engine"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO represents an event in API responses.
type EventDTO struct {
	ID            string `json:"id"`
	RequesterName string `json:"requester_name"`
	Category      string `json:"category"`
	Caterer       string `json:"caterer"`
	BilledParty   string `json:"billed_party"`
	Date          string `json:"date"`
	Location      string `json:"location,omitempty"`

	WorkerCount  int    `json:"worker_count"`
	UnitBillRate string `json:"unit_bill_rate"`
	UnitPayRate  string `json:"unit_pay_rate"`

	BilledTotal        string `json:"billed_total"`
	OperatorCommission string `json:"operator_commission"`
	WorkerPayoutTotal  string `json:"worker_payout_total"`

	AssignedWorkers []string        `json:"assigned_workers"`
	Obligations     []ObligationDTO `json:"obligations"`

	CreatedAt string `json:"created_at,omitempty"`
}

// ObligationDTO is one worker's due/paid/settled record on an event.
type ObligationDTO struct {
	WorkerID   string  `json:"worker_id"`
	AmountDue  string  `json:"amount_due"`
	AmountPaid string  `json:"amount_paid"`
	Settled    bool    `json:"settled"`
	SettledAt  *string `json:"settled_at,omitempty"`
	Method     string  `json:"method,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// CreateEventRequest is the request to book an event.
type CreateEventRequest struct {
	RequesterName   string   `json:"requester_name"`
	Category        string   `json:"category"`
	Caterer         string   `json:"caterer"`
	BilledParty     string   `json:"billed_party"`
	Date            string   `json:"date"` // YYYY-MM-DD
	Location        string   `json:"location"`
	WorkerCount     int      `json:"worker_count"`
	UnitBillRate    string   `json:"unit_bill_rate"`
	UnitPayRate     string   `json:"unit_pay_rate"`
	AssignedWorkers []string `json:"assigned_workers"`
}

// ReassignWorkersRequest replaces an event's assigned worker set.
type ReassignWorkersRequest struct {
	AssignedWorkers []string `json:"assigned_workers"`
}

// SettleRequest marks one worker's obligation on an event as paid.
type SettleRequest struct {
	AmountPaid string  `json:"amount_paid"`
	Method     string  `json:"method"`
	Notes      string  `json:"notes"`
	SettledAt  *string `json:"settled_at,omitempty"` // RFC3339, may be back-dated
}

// =============================================================================
// WORKERS
// =============================================================================

// WorkerDTO represents a worker in API responses. Payment history is served
// by the payments endpoint, not inlined here.
type WorkerDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Contact          string `json:"contact,omitempty"`
	Available        bool   `json:"available"`
	AccruedBalance   string `json:"accrued_balance"`
	TotalEventsCount int    `json:"total_events_count"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// CreateWorkerRequest is the request to register a worker.
type CreateWorkerRequest struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Available *bool  `json:"available,omitempty"` // defaults to true
}

// AvailabilityRequest toggles a worker's availability.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// DirectPaymentRequest is an ad-hoc payment with no event linkage.
type DirectPaymentRequest struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
	Notes  string `json:"notes"`
}

// PaymentDTO is one applied payment in a worker's history.
type PaymentDTO struct {
	ID             string `json:"id"`
	Amount         string `json:"amount"`
	Date           string `json:"date"`
	BalanceAfter   string `json:"balance_after"`
	RelatedEventID string `json:"related_event_id,omitempty"`
	Method         string `json:"method,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// =============================================================================
// STATS
// =============================================================================

// EventStatsDTO is the global revenue fold.
type EventStatsDTO struct {
	TotalEvents        int    `json:"total_events"`
	TotalRevenue       string `json:"total_revenue"`
	TotalCommission    string `json:"total_commission"`
	TotalWorkerPayouts string `json:"total_worker_payouts"`
}

// MonthlyRevenueDTO is one month's revenue slice.
type MonthlyRevenueDTO struct {
	Month      string `json:"month"` // YYYY-MM
	Label      string `json:"label"`
	Events     int    `json:"events"`
	Billed     string `json:"billed"`
	Commission string `json:"commission"`
}

// CatererStatsDTO is the revenue fold for one caterer.
type CatererStatsDTO struct {
	Caterer            string `json:"caterer"`
	TotalEvents        int    `json:"total_events"`
	TotalBilled        string `json:"total_billed"`
	TotalCommission    string `json:"total_commission"`
	TotalWorkerPayouts string `json:"total_worker_payouts"`
}

// RequesterStatsDTO is the revenue fold for one requesting party.
type RequesterStatsDTO struct {
	RequesterName   string `json:"requester_name"`
	TotalEvents     int    `json:"total_events"`
	TotalBilled     string `json:"total_billed"`
	TotalCommission string `json:"total_commission"`
}

// WorkerSummaryDTO is the per-worker obligation fold.
type WorkerSummaryDTO struct {
	WorkerID     string `json:"worker_id"`
	EventsCount  int    `json:"events_count"`
	SettledCount int    `json:"settled_count"`
	TotalDue     string `json:"total_due"`
	TotalPaid    string `json:"total_paid"`
	TotalPending string `json:"total_pending"`
}

// ResetResponse reports what the global financial reset touched.
type ResetResponse struct {
	EventsAffected  int `json:"events_affected"`
	WorkersAffected int `json:"workers_affected"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func eventDTO(ev *engine.Event) EventDTO {
	workers := make([]string, len(ev.AssignedWorkers))
	for i, w := range ev.AssignedWorkers {
		workers[i] = string(w)
	}
	obligations := make([]ObligationDTO, len(ev.Obligations))
	for i, ob := range ev.Obligations {
		obligations[i] = obligationDTO(ob)
	}
	return EventDTO{
		ID:                 string(ev.ID),
		RequesterName:      ev.RequesterName,
		Category:           string(ev.Category),
		Caterer:            string(ev.Caterer),
		BilledParty:        string(ev.BilledParty),
		Date:               ev.Date.Format("2006-01-02"),
		Location:           ev.Location,
		WorkerCount:        ev.WorkerCount,
		UnitBillRate:       ev.UnitBillRate.String(),
		UnitPayRate:        ev.UnitPayRate.String(),
		BilledTotal:        ev.BilledTotal.String(),
		OperatorCommission: ev.OperatorCommission.String(),
		WorkerPayoutTotal:  ev.WorkerPayoutTotal.String(),
		AssignedWorkers:    workers,
		Obligations:        obligations,
		CreatedAt:          ev.CreatedAt.Format(time.RFC3339),
	}
}

func obligationDTO(ob engine.Obligation) ObligationDTO {
	dto := ObligationDTO{
		WorkerID:   string(ob.WorkerID),
		AmountDue:  ob.AmountDue.String(),
		AmountPaid: ob.AmountPaid.String(),
		Settled:    ob.Settled,
		Method:     string(ob.Method),
		Notes:      ob.Notes,
	}
	if ob.SettledAt != nil {
		s := ob.SettledAt.Format(time.RFC3339)
		dto.SettledAt = &s
	}
	return dto
}

func workerDTO(w *engine.Worker) WorkerDTO {
	return WorkerDTO{
		ID:               string(w.ID),
		Name:             w.Name,
		Contact:          w.Contact,
		Available:        w.Available,
		AccruedBalance:   w.AccruedBalance.String(),
		TotalEventsCount: w.TotalEventsCount,
		CreatedAt:        w.CreatedAt.Format(time.RFC3339),
	}
}

func paymentDTO(p engine.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ID:             p.ID,
		Amount:         p.Amount.String(),
		Date:           p.Date.Format(time.RFC3339),
		BalanceAfter:   p.BalanceAfter.String(),
		RelatedEventID: string(p.RelatedEventID),
		Method:         string(p.Method),
		Notes:          p.Notes,
	}
}
