// Package store provides an in-memory TxStore implementation for tests/dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/banquet/staffing-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps events, workers and payment history in maps. Reads return deep
// copies so callers can never alias internal state. WithTx snapshots the
// whole store and restores it when fn fails, which gives the same
// all-or-nothing behavior the SQLite store gets from a sql.Tx.
type Memory struct {
	mu       sync.Mutex
	events   map[engine.EventID]engine.Event
	workers  map[engine.WorkerID]engine.Worker
	payments map[engine.WorkerID][]engine.PaymentRecord

	// insertion counters preserve stable listing order
	eventSeq  map[engine.EventID]int
	workerSeq map[engine.WorkerID]int
	seq       int
}

func NewMemory() *Memory {
	return &Memory{
		events:    make(map[engine.EventID]engine.Event),
		workers:   make(map[engine.WorkerID]engine.Worker),
		payments:  make(map[engine.WorkerID][]engine.PaymentRecord),
		eventSeq:  make(map[engine.EventID]int),
		workerSeq: make(map[engine.WorkerID]int),
	}
}

// =============================================================================
// EVENTS
// =============================================================================

func (m *Memory) SaveEvent(_ context.Context, ev engine.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveEventLocked(ev)
	return nil
}

func (m *Memory) saveEventLocked(ev engine.Event) {
	if _, ok := m.eventSeq[ev.ID]; !ok {
		m.seq++
		m.eventSeq[ev.ID] = m.seq
	}
	m.events[ev.ID] = cloneEvent(ev)
}

func (m *Memory) GetEvent(_ context.Context, id engine.EventID) (*engine.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getEventLocked(id), nil
}

func (m *Memory) getEventLocked(id engine.EventID) *engine.Event {
	ev, ok := m.events[id]
	if !ok {
		return nil
	}
	c := cloneEvent(ev)
	return &c
}

func (m *Memory) ListEvents(_ context.Context) ([]engine.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listEventsLocked(), nil
}

func (m *Memory) listEventsLocked() []engine.Event {
	out := make([]engine.Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, cloneEvent(ev))
	}
	// Newest first, matching the SQLite store's listing order.
	sort.Slice(out, func(i, j int) bool {
		return m.eventSeq[out[i].ID] > m.eventSeq[out[j].ID]
	})
	return out
}

func (m *Memory) DeleteEvent(_ context.Context, id engine.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	delete(m.eventSeq, id)
	return nil
}

// =============================================================================
// WORKERS
// =============================================================================

func (m *Memory) SaveWorker(_ context.Context, w engine.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveWorkerLocked(w)
	return nil
}

func (m *Memory) saveWorkerLocked(w engine.Worker) {
	if _, ok := m.workerSeq[w.ID]; !ok {
		m.seq++
		m.workerSeq[w.ID] = m.seq
	}
	// History lives in the payments map; the worker record carries the rest.
	w.PaymentHistory = nil
	m.workers[w.ID] = w
}

func (m *Memory) GetWorker(_ context.Context, id engine.WorkerID) (*engine.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getWorkerLocked(id), nil
}

func (m *Memory) getWorkerLocked(id engine.WorkerID) *engine.Worker {
	w, ok := m.workers[id]
	if !ok {
		return nil
	}
	w.PaymentHistory = append([]engine.PaymentRecord(nil), m.payments[id]...)
	return &w
}

func (m *Memory) ListWorkers(_ context.Context) ([]engine.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listWorkersLocked(), nil
}

func (m *Memory) listWorkersLocked() []engine.Worker {
	out := make([]engine.Worker, 0, len(m.workers))
	for id := range m.workers {
		out = append(out, *m.getWorkerLocked(id))
	}
	sort.Slice(out, func(i, j int) bool {
		return m.workerSeq[out[i].ID] < m.workerSeq[out[j].ID]
	})
	return out
}

func (m *Memory) DeleteWorker(_ context.Context, id engine.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workers, id)
	delete(m.workerSeq, id)
	delete(m.payments, id)
	return nil
}

// =============================================================================
// PAYMENT HISTORY
// =============================================================================

func (m *Memory) AppendPayment(_ context.Context, workerID engine.WorkerID, p engine.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[workerID] = append(m.payments[workerID], p)
	return nil
}

func (m *Memory) ClearPayments(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = make(map[engine.WorkerID][]engine.PaymentRecord)
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn while holding the store lock, restoring a pre-call snapshot
// when fn fails. The lock doubles as the per-worker mutual exclusion the
// settlement read-modify-write requires.
func (m *Memory) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshotLocked()
	if err := fn(&txView{m: m}); err != nil {
		m.restoreLocked(snap)
		return err
	}
	return nil
}

type snapshot struct {
	events    map[engine.EventID]engine.Event
	workers   map[engine.WorkerID]engine.Worker
	payments  map[engine.WorkerID][]engine.PaymentRecord
	eventSeq  map[engine.EventID]int
	workerSeq map[engine.WorkerID]int
	seq       int
}

func (m *Memory) snapshotLocked() snapshot {
	s := snapshot{
		events:    make(map[engine.EventID]engine.Event, len(m.events)),
		workers:   make(map[engine.WorkerID]engine.Worker, len(m.workers)),
		payments:  make(map[engine.WorkerID][]engine.PaymentRecord, len(m.payments)),
		eventSeq:  make(map[engine.EventID]int, len(m.eventSeq)),
		workerSeq: make(map[engine.WorkerID]int, len(m.workerSeq)),
		seq:       m.seq,
	}
	for id, ev := range m.events {
		s.events[id] = cloneEvent(ev)
	}
	for id, w := range m.workers {
		s.workers[id] = w
	}
	for id, ps := range m.payments {
		s.payments[id] = append([]engine.PaymentRecord(nil), ps...)
	}
	for id, n := range m.eventSeq {
		s.eventSeq[id] = n
	}
	for id, n := range m.workerSeq {
		s.workerSeq[id] = n
	}
	return s
}

func (m *Memory) restoreLocked(s snapshot) {
	m.events = s.events
	m.workers = s.workers
	m.payments = s.payments
	m.eventSeq = s.eventSeq
	m.workerSeq = s.workerSeq
	m.seq = s.seq
}

// txView exposes the store to fn without re-acquiring the lock fn's caller
// already holds.
type txView struct {
	m *Memory
}

func (t *txView) SaveEvent(_ context.Context, ev engine.Event) error {
	t.m.saveEventLocked(ev)
	return nil
}

func (t *txView) GetEvent(_ context.Context, id engine.EventID) (*engine.Event, error) {
	return t.m.getEventLocked(id), nil
}

func (t *txView) ListEvents(_ context.Context) ([]engine.Event, error) {
	return t.m.listEventsLocked(), nil
}

func (t *txView) DeleteEvent(_ context.Context, id engine.EventID) error {
	delete(t.m.events, id)
	delete(t.m.eventSeq, id)
	return nil
}

func (t *txView) SaveWorker(_ context.Context, w engine.Worker) error {
	t.m.saveWorkerLocked(w)
	return nil
}

func (t *txView) GetWorker(_ context.Context, id engine.WorkerID) (*engine.Worker, error) {
	return t.m.getWorkerLocked(id), nil
}

func (t *txView) ListWorkers(_ context.Context) ([]engine.Worker, error) {
	return t.m.listWorkersLocked(), nil
}

func (t *txView) DeleteWorker(_ context.Context, id engine.WorkerID) error {
	delete(t.m.workers, id)
	delete(t.m.workerSeq, id)
	delete(t.m.payments, id)
	return nil
}

func (t *txView) AppendPayment(_ context.Context, workerID engine.WorkerID, p engine.PaymentRecord) error {
	t.m.payments[workerID] = append(t.m.payments[workerID], p)
	return nil
}

func (t *txView) ClearPayments(_ context.Context) error {
	t.m.payments = make(map[engine.WorkerID][]engine.PaymentRecord)
	return nil
}

func cloneEvent(ev engine.Event) engine.Event {
	ev.AssignedWorkers = append([]engine.WorkerID(nil), ev.AssignedWorkers...)
	ev.Obligations = append([]engine.Obligation(nil), ev.Obligations...)
	return ev
}
