/*
handlers.go - HTTP API handlers for the staffing engine

PURPOSE:
  Exposes the earnings ledger and reconciliation engine via REST. Handles
  HTTP request/response and JSON (de)serialization, then delegates to the
  engine Coordinator. No business rules here: parsing and status mapping
  only.

ERROR HANDLING:
  Engine errors map to HTTP status:
  - 400: validation errors (bad split, wrong worker count, bad enum)
  - 404: unknown event or worker
  - 409: insufficient balance
  - 500: internal and consistency errors

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
  - engine/coordinator.go: the logic being exposed
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/banquet/staffing-engine/engine"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Coordinator
}

// NewHandler creates a new handler backed by the given coordinator.
func NewHandler(eng *engine.Coordinator) *Handler {
	return &Handler{Engine: eng}
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

// CreateEvent books a new staffing event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	billRate, err := decimal.NewFromString(req.UnitBillRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_bill_rate", err)
		return
	}
	payRate, err := decimal.NewFromString(req.UnitPayRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_pay_rate", err)
		return
	}

	ev, err := h.Engine.CreateEvent(r.Context(), engine.CreateEventInput{
		RequesterName:   req.RequesterName,
		Category:        engine.Category(req.Category),
		Caterer:         engine.Caterer(req.Caterer),
		BilledParty:     engine.BilledParty(req.BilledParty),
		Date:            date,
		Location:        req.Location,
		WorkerCount:     req.WorkerCount,
		UnitBillRate:    billRate,
		UnitPayRate:     payRate,
		AssignedWorkers: workerIDs(req.AssignedWorkers),
	})
	if err != nil {
		writeEngineError(w, "Failed to create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, eventDTO(ev))
}

// ListEvents returns all events, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Engine.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	dtos := make([]EventDTO, len(events))
	for i := range events {
		dtos[i] = eventDTO(&events[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEvent returns a single event with its obligations.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Engine.GetEvent(r.Context(), engine.EventID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get event", err)
		return
	}
	writeJSON(w, http.StatusOK, eventDTO(ev))
}

// DeleteEvent reverses the event's balance effects and removes it.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteEvent(r.Context(), engine.EventID(chi.URLParam(r, "id"))); err != nil {
		writeEngineError(w, "Failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReassignWorkers replaces the event's assigned worker set.
func (h *Handler) ReassignWorkers(w http.ResponseWriter, r *http.Request) {
	var req ReassignWorkersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, err := h.Engine.ReassignWorkers(r.Context(),
		engine.EventID(chi.URLParam(r, "id")), workerIDs(req.AssignedWorkers))
	if err != nil {
		writeEngineError(w, "Failed to reassign workers", err)
		return
	}
	writeJSON(w, http.StatusOK, eventDTO(ev))
}

// SettleWorkerPayment marks one worker's obligation on the event as paid.
func (h *Handler) SettleWorkerPayment(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.AmountPaid)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount_paid", err)
		return
	}
	in := engine.SettlementInput{
		AmountPaid: amount,
		Method:     engine.PaymentMethod(req.Method),
		Notes:      req.Notes,
	}
	if req.SettledAt != nil {
		t, err := time.Parse(time.RFC3339, *req.SettledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid settled_at (use RFC3339)", err)
			return
		}
		in.SettledAt = &t
	}

	ev, err := h.Engine.SettleWorkerPayment(r.Context(),
		engine.EventID(chi.URLParam(r, "id")),
		engine.WorkerID(chi.URLParam(r, "workerID")), in)
	if err != nil {
		writeEngineError(w, "Failed to settle payment", err)
		return
	}
	writeJSON(w, http.StatusOK, eventDTO(ev))
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// CreateWorker registers a new worker.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	worker, err := h.Engine.CreateWorker(r.Context(), engine.CreateWorkerInput{
		Name:      req.Name,
		Contact:   req.Contact,
		Available: available,
	})
	if err != nil {
		writeEngineError(w, "Failed to create worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, workerDTO(worker))
}

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Engine.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	dtos := make([]WorkerDTO, len(workers))
	for i := range workers {
		dtos[i] = workerDTO(&workers[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Engine.GetWorker(r.Context(), engine.WorkerID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, workerDTO(worker))
}

// SetAvailability toggles a worker's availability flag.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	worker, err := h.Engine.SetWorkerAvailability(r.Context(),
		engine.WorkerID(chi.URLParam(r, "id")), req.Available)
	if err != nil {
		writeEngineError(w, "Failed to update availability", err)
		return
	}
	writeJSON(w, http.StatusOK, workerDTO(worker))
}

// DeleteWorker removes a worker not assigned to any event.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteWorker(r.Context(), engine.WorkerID(chi.URLParam(r, "id"))); err != nil {
		writeEngineError(w, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayWorker applies an ad-hoc payment with no event linkage.
func (h *Handler) PayWorker(w http.ResponseWriter, r *http.Request) {
	var req DirectPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	worker, err := h.Engine.PayWorkerDirectly(r.Context(),
		engine.WorkerID(chi.URLParam(r, "id")),
		engine.DirectPaymentInput{
			Amount: amount,
			Method: engine.PaymentMethod(req.Method),
			Notes:  req.Notes,
		})
	if err != nil {
		writeEngineError(w, "Failed to pay worker", err)
		return
	}
	writeJSON(w, http.StatusOK, workerDTO(worker))
}

// GetPaymentHistory returns a worker's payment history in application order.
func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Engine.GetWorker(r.Context(), engine.WorkerID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get worker", err)
		return
	}
	dtos := make([]PaymentDTO, len(worker.PaymentHistory))
	for i, p := range worker.PaymentHistory {
		dtos[i] = paymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorkerSummary returns the per-worker obligation fold, optionally
// restricted with ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) GetWorkerSummary(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		to = &t
	}

	sum, err := h.Engine.GetWorkerPaymentSummary(r.Context(),
		engine.WorkerID(chi.URLParam(r, "id")), from, to)
	if err != nil {
		writeEngineError(w, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, WorkerSummaryDTO{
		WorkerID:     string(sum.WorkerID),
		EventsCount:  sum.EventsCount,
		SettledCount: sum.SettledCount,
		TotalDue:     sum.TotalDue.String(),
		TotalPaid:    sum.TotalPaid.String(),
		TotalPending: sum.TotalPending.String(),
	})
}

// =============================================================================
// STATS HANDLERS
// =============================================================================

// GetEventStats returns the global revenue fold.
func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.GetEventStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, EventStatsDTO{
		TotalEvents:        stats.TotalEvents,
		TotalRevenue:       stats.TotalBilled.String(),
		TotalCommission:    stats.TotalCommission.String(),
		TotalWorkerPayouts: stats.TotalWorkerPayouts.String(),
	})
}

// GetMonthlyRevenue returns the month-by-month revenue fold, oldest first.
func (h *Handler) GetMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	months, err := h.Engine.GetMonthlyRevenue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute monthly revenue", err)
		return
	}
	dtos := make([]MonthlyRevenueDTO, len(months))
	for i, m := range months {
		dtos[i] = MonthlyRevenueDTO{
			Month:      m.Month.Format("2006-01"),
			Label:      m.Label,
			Events:     m.Events,
			Billed:     m.Billed.String(),
			Commission: m.Commission.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCatererStats returns the revenue fold for one caterer.
func (h *Handler) GetCatererStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.GetCatererStats(r.Context(),
		engine.Caterer(chi.URLParam(r, "caterer")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute caterer stats", err)
		return
	}
	writeJSON(w, http.StatusOK, CatererStatsDTO{
		Caterer:            string(stats.Caterer),
		TotalEvents:        stats.TotalEvents,
		TotalBilled:        stats.TotalBilled.String(),
		TotalCommission:    stats.TotalCommission.String(),
		TotalWorkerPayouts: stats.TotalWorkerPayouts.String(),
	})
}

// GetRequesterStats returns the revenue fold per requesting party.
func (h *Handler) GetRequesterStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Engine.GetRequesterStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute requester stats", err)
		return
	}
	dtos := make([]RequesterStatsDTO, len(stats))
	for i, s := range stats {
		dtos[i] = RequesterStatsDTO{
			RequesterName:   s.RequesterName,
			TotalEvents:     s.TotalEvents,
			TotalBilled:     s.TotalBilled.String(),
			TotalCommission: s.TotalCommission.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetFinancials zeroes all financial state. Destructive; any confirmation
// dialog is the frontend's job.
func (h *Handler) ResetFinancials(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.ResetAllFinancials(r.Context())
	if err != nil {
		writeEngineError(w, "Failed to reset financials", err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{
		EventsAffected:  res.EventsAffected,
		WorkersAffected: res.WorkersAffected,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func workerIDs(ids []string) []engine.WorkerID {
	out := make([]engine.WorkerID, len(ids))
	for i, id := range ids {
		out[i] = engine.WorkerID(id)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error kinds onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, engine.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
