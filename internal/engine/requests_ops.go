package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldstock/partsdesk/internal/domain/catalog"
	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/errs"
	"github.com/fieldstock/partsdesk/internal/infra/events"
	"github.com/fieldstock/partsdesk/internal/infra/metrics"
)

// validateItems checks a request item list against the caps in effect
// right now: catalog is read per call, classification is never cached.
func (e *Engine) validateItems(ctx context.Context, op string, items []requests.Item) error {
	if len(items) == 0 {
		return errs.Validationf("request must contain at least one item")
	}
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if seen[it.PartID] {
			return errs.Validationf("part %d appears more than once", it.PartID)
		}
		seen[it.PartID] = true
		if it.Quantity <= 0 {
			return errs.Validationf("quantity for part %d must be positive", it.PartID)
		}
		ids = append(ids, it.PartID)
	}

	parts, err := e.parts.ByIDs(ctx, ids)
	if err != nil {
		return errs.Storage(op, err)
	}
	for _, it := range items {
		p, ok := parts[it.PartID]
		if !ok || !p.Active {
			return errs.Validationf("part %d is not requestable", it.PartID)
		}
		if limit := catalog.MaxQuantity(p); it.Quantity > int64(limit) {
			return errs.Validationf("quantity %d for %q exceeds the per-request cap of %d",
				it.Quantity, p.Name, limit)
		}
	}
	return nil
}

// CreateRequest opens a new monthly request in pending state.
func (e *Engine) CreateRequest(ctx context.Context, engineerID, period string, items []requests.Item) (*requests.Request, error) {
	const op = "create request"
	if engineerID == "" {
		return nil, errs.Validationf("engineer id must not be empty")
	}
	if !requests.ValidPeriod(period) {
		return nil, errs.Validationf("period %q is not in YYYY-MM form", period)
	}
	if err := e.validateItems(ctx, op, items); err != nil {
		return nil, err
	}

	req := &requests.Request{
		ID:         uuid.New(),
		EngineerID: engineerID,
		Period:     period,
		Items:      items,
	}
	if err := e.requests.Create(ctx, req); err != nil {
		return nil, errs.Storage(op, err)
	}

	metrics.RequestTransitions.WithLabelValues(string(requests.StatusPending)).Inc()
	e.bus.Publish(events.TopicRequests, engineerID)
	e.log.Info("request created", "request", req.ID, "engineer", engineerID, "period", period)
	return req, nil
}

// EditRequest replaces the whole item list of a pending request. The
// edit counts as a re-submission: the submitted timestamp resets.
func (e *Engine) EditRequest(ctx context.Context, engineerID string, id uuid.UUID, items []requests.Item) (*requests.Request, error) {
	const op = "edit request"
	req, err := e.loadOwned(ctx, op, engineerID, id)
	if err != nil {
		return nil, err
	}
	if req.Status != requests.StatusPending {
		return nil, errs.InvalidState(op, "request is %s, only pending requests can be edited", req.Status)
	}
	if err := e.validateItems(ctx, op, items); err != nil {
		return nil, err
	}

	ok, err := e.requests.ReplaceItems(ctx, id, items)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	if !ok {
		// Status moved between our read and the conditional write.
		metrics.Conflicts.Inc()
		cur, gerr := e.requests.Get(ctx, id)
		if gerr != nil {
			return nil, errs.Storage(op, gerr)
		}
		if cur == nil {
			return nil, errs.InvalidState(op, "request %s no longer exists", id)
		}
		return nil, errs.InvalidState(op, "request is %s, only pending requests can be edited", cur.Status)
	}

	e.bus.Publish(events.TopicRequests, engineerID)
	return e.loadOwned(ctx, op, engineerID, id)
}

// CancelRequest soft-cancels a request before delivery. The operation
// succeeds only once the request is observed cancelled; a conditional
// write that did not apply is never reported as success.
func (e *Engine) CancelRequest(ctx context.Context, engineerID string, id uuid.UUID) error {
	const op = "cancel request"
	req, err := e.loadOwned(ctx, op, engineerID, id)
	if err != nil {
		return err
	}
	if req.Status != requests.StatusPending && req.Status != requests.StatusApproved {
		return errs.InvalidState(op, "request is %s and can no longer be cancelled", req.Status)
	}

	ok, err := e.requests.Transition(ctx, id, req.Status, requests.StatusCancelled)
	if err != nil {
		return errs.Storage(op, err)
	}
	if !ok {
		metrics.Conflicts.Inc()
		// Re-read to check the post-condition: gone or cancelled both
		// satisfy it, anything else is a real failure.
		cur, gerr := e.requests.Get(ctx, id)
		if gerr != nil {
			return errs.Storage(op, gerr)
		}
		if cur != nil && cur.Status != requests.StatusCancelled {
			return errs.InvalidState(op, "request is %s and can no longer be cancelled", cur.Status)
		}
	}

	metrics.RequestTransitions.WithLabelValues(string(requests.StatusCancelled)).Inc()
	e.bus.Publish(events.TopicRequests, engineerID)
	e.log.Info("request cancelled", "request", id, "engineer", engineerID)
	return nil
}

// ApplyReviewerTransition applies an externally-driven transition
// (approve, reject, deliver) through the same conditional-write
// primitive the engine uses for its own edges.
func (e *Engine) ApplyReviewerTransition(ctx context.Context, id uuid.UUID, to requests.Status) (*requests.Request, error) {
	const op = "reviewer transition"
	if to != requests.StatusApproved && to != requests.StatusRejected && to != requests.StatusDelivered {
		return nil, errs.Validationf("status %q is not a reviewer transition", to)
	}
	req, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	if req == nil {
		return nil, errs.InvalidState(op, "request %s not found", id)
	}
	if !requests.CanTransition(req.Status, to) {
		return nil, errs.InvalidState(op, "cannot move %s request to %s", req.Status, to)
	}

	ok, err := e.requests.Transition(ctx, id, req.Status, to)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	if !ok {
		metrics.Conflicts.Inc()
		return nil, &errs.ConcurrencyConflictError{Op: op}
	}

	metrics.RequestTransitions.WithLabelValues(string(to)).Inc()
	e.bus.Publish(events.TopicRequests, req.EngineerID)
	cur, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return cur, nil
}

// PurgeCancelled removes an engineer's cancelled requests for good.
func (e *Engine) PurgeCancelled(ctx context.Context, engineerID string) (int64, error) {
	n, err := e.requests.PurgeCancelled(ctx, engineerID)
	if err != nil {
		return 0, errs.Storage("purge cancelled", err)
	}
	if n > 0 {
		e.bus.Publish(events.TopicRequests, engineerID)
	}
	return n, nil
}
