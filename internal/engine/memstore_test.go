package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldstock/partsdesk/internal/domain/catalog"
	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/domain/usage"
	"github.com/fieldstock/partsdesk/internal/errs"
)

// memStore backs the engine in tests. It keeps the same contract as the
// pgx repos: conditional transitions, atomic confirm-and-credit and
// submit-and-debit, non-negative ledger.
type memStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*requests.Request
	parts    map[int64]catalog.Part
	ledger   map[string]map[int64]*stock.Entry
	adjs     []stock.Adjustment
	reports  map[uuid.UUID]*usage.Report
	nextAdj  int64
	nextPart int64
}

func newMemStore() *memStore {
	m := &memStore{
		requests: make(map[uuid.UUID]*requests.Request),
		parts:    make(map[int64]catalog.Part),
		ledger:   make(map[string]map[int64]*stock.Entry),
		reports:  make(map[uuid.UUID]*usage.Report),
	}
	for _, p := range []catalog.Part{
		{Name: "Connector Clip", Unit: "pcs", HighVolume: false, Active: true},
		{Name: "LoopSheet A4", Unit: "pcs", HighVolume: true, Active: true},
		{Name: "Fuser Unit", Unit: "pcs", HighVolume: false, Active: true},
		{Name: "Legacy Drum", Unit: "pcs", HighVolume: false, Active: false},
	} {
		m.nextPart++
		p.ID = m.nextPart
		p.CreatedAt = time.Now()
		m.parts[p.ID] = p
	}
	return m
}

func copyRequest(r *requests.Request) *requests.Request {
	cp := *r
	cp.Items = append([]requests.Item(nil), r.Items...)
	return &cp
}

/* RequestStore */

func (m *memStore) Create(_ context.Context, req *requests.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.Status = requests.StatusPending
	req.SubmittedAt = time.Now()
	m.requests[req.ID] = copyRequest(req)
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*requests.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(r), nil
}

func (m *memStore) ListByEngineer(_ context.Context, engineerID, period string) ([]requests.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []requests.Request
	for _, r := range m.requests {
		if r.EngineerID != engineerID {
			continue
		}
		if period != "" && r.Period != period {
			continue
		}
		out = append(out, *copyRequest(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (m *memStore) ReplaceItems(_ context.Context, id uuid.UUID, items []requests.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != requests.StatusPending {
		return false, nil
	}
	r.Items = append([]requests.Item(nil), items...)
	r.SubmittedAt = time.Now()
	return true, nil
}

func (m *memStore) Transition(_ context.Context, id uuid.UUID, from, to requests.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	now := time.Now()
	switch to {
	case requests.StatusApproved, requests.StatusRejected:
		r.ReviewedAt = &now
	case requests.StatusDelivered:
		r.DeliveredAt = &now
	case requests.StatusCompleted:
		r.ConfirmedAt = &now
	case requests.StatusCancelled:
		r.CancelledAt = &now
	}
	return true, nil
}

func (m *memStore) ConfirmAndCredit(_ context.Context, id uuid.UUID, engineerID string, deltas map[int64]int64, reason string) (bool, []stock.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != requests.StatusDelivered {
		return false, nil, nil
	}
	now := time.Now()
	r.Status = requests.StatusCompleted
	r.ConfirmedAt = &now

	ids := make([]int64, 0, len(deltas))
	for pid := range deltas {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []stock.Adjustment
	for _, pid := range ids {
		e := m.entry(engineerID, pid)
		prev := e.Quantity
		e.Quantity += deltas[pid]
		e.LastSync = now
		m.nextAdj++
		a := stock.Adjustment{
			ID:               m.nextAdj,
			EngineerID:       engineerID,
			PartID:           pid,
			PreviousQuantity: prev,
			NewQuantity:      e.Quantity,
			Delta:            deltas[pid],
			Reason:           reason,
			CreatedAt:        now,
		}
		m.adjs = append(m.adjs, a)
		out = append(out, a)
	}
	return true, out, nil
}

func (m *memStore) PurgeCancelled(_ context.Context, engineerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.requests {
		if r.EngineerID == engineerID && r.Status == requests.StatusCancelled {
			delete(m.requests, id)
			n++
		}
	}
	return n, nil
}

/* StockStore */

func (m *memStore) entry(engineerID string, partID int64) *stock.Entry {
	byPart, ok := m.ledger[engineerID]
	if !ok {
		byPart = make(map[int64]*stock.Entry)
		m.ledger[engineerID] = byPart
	}
	e, ok := byPart[partID]
	if !ok {
		e = &stock.Entry{EngineerID: engineerID, PartID: partID, PartName: m.parts[partID].Name}
		byPart[partID] = e
	}
	return e
}

// seed puts quantity on the ledger directly, bypassing the engine.
func (m *memStore) seed(engineerID string, partID, qty int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(engineerID, partID).Quantity = qty
}

func (m *memStore) quantity(engineerID string, partID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if byPart, ok := m.ledger[engineerID]; ok {
		if e, ok := byPart[partID]; ok {
			return e.Quantity
		}
	}
	return 0
}

func (m *memStore) Snapshot(_ context.Context, engineerID string, partIDs []int64) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]int64, len(partIDs))
	for _, pid := range partIDs {
		out[pid] = 0
		if byPart, ok := m.ledger[engineerID]; ok {
			if e, ok := byPart[pid]; ok {
				out[pid] = e.Quantity
			}
		}
	}
	return out, nil
}

func (m *memStore) Entries(_ context.Context, engineerID string, belowMin bool) ([]stock.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []stock.Entry
	for _, e := range m.ledger[engineerID] {
		if belowMin && e.Quantity > e.MinStock {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartID < out[j].PartID })
	return out, nil
}

func (m *memStore) SetMinStock(_ context.Context, engineerID string, partID, minStock int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if byPart, ok := m.ledger[engineerID]; ok {
		if e, ok := byPart[partID]; ok {
			e.MinStock = minStock
			return nil
		}
	}
	return errs.InvalidState("set min stock", "no ledger entry for part %d", partID)
}

func (m *memStore) Adjustments(_ context.Context, engineerID string, limit int) ([]stock.Adjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []stock.Adjustment
	for i := len(m.adjs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.adjs[i].EngineerID == engineerID {
			out = append(out, m.adjs[i])
		}
	}
	return out, nil
}

/* PartStore */

// memParts adapts memStore to the PartStore interface; the Create name
// is already taken by the RequestStore side.
type memParts struct{ *memStore }

func (m memParts) Create(ctx context.Context, name, unit string, highVolume bool) (*catalog.Part, error) {
	return m.memStore.CreatePart(ctx, name, unit, highVolume)
}

func (m *memStore) CreatePart(_ context.Context, name, unit string, highVolume bool) (*catalog.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.parts {
		if p.Name == name {
			cp := p
			return &cp, nil
		}
	}
	m.nextPart++
	p := catalog.Part{ID: m.nextPart, Name: name, Unit: unit, HighVolume: highVolume, Active: true, CreatedAt: time.Now()}
	m.parts[p.ID] = p
	return &p, nil
}

func (m *memStore) ByIDs(_ context.Context, ids []int64) (map[int64]catalog.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]catalog.Part, len(ids))
	for _, id := range ids {
		if p, ok := m.parts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, onlyActive bool) ([]catalog.Part, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []catalog.Part
	for _, p := range m.parts {
		if onlyActive && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

/* UsageStore */

func (m *memStore) SubmitAndDebit(_ context.Context, rep *usage.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Sufficiency is checked under the same lock as the debit, like the
	// conditional UPDATE does in Postgres.
	for _, it := range rep.Items {
		var have int64
		if byPart, ok := m.ledger[rep.EngineerID]; ok {
			if e, ok := byPart[it.PartID]; ok {
				have = e.Quantity
			}
		}
		if have < it.Quantity {
			return &errs.InsufficientStockError{PartID: it.PartID, Requested: it.Quantity, Available: have}
		}
	}
	for _, it := range rep.Items {
		e := m.entry(rep.EngineerID, it.PartID)
		e.Quantity -= it.Quantity
		e.LastSync = time.Now()
	}
	rep.ReportDate = time.Now()
	cp := *rep
	cp.Items = append([]usage.Item(nil), rep.Items...)
	m.reports[rep.ID] = &cp
	return nil
}

// memUsage adapts memStore to the UsageStore interface; ListByEngineer
// is already taken by the RequestStore side, like Create is for parts.
type memUsage struct{ *memStore }

func (m memUsage) ListByEngineer(ctx context.Context, engineerID string, limit int) ([]usage.Report, error) {
	return m.memStore.listReports(ctx, engineerID, limit)
}

func (m *memStore) listReports(_ context.Context, engineerID string, limit int) ([]usage.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []usage.Report
	for _, rep := range m.reports {
		if rep.EngineerID != engineerID {
			continue
		}
		cp := *rep
		cp.Items = append([]usage.Item(nil), rep.Items...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.After(out[j].ReportDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) reportCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}
