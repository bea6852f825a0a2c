package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/errs"
	"github.com/fieldstock/partsdesk/internal/infra/events"
	"github.com/fieldstock/partsdesk/internal/infra/metrics"
)

// ConfirmReceipt is the one transition that credits the ledger. The
// store flips delivered->completed and applies the credits in a single
// transaction; the conditional status write is the linearization point,
// so stock is credited exactly once per request no matter how often the
// call is retried. A request already completed fails with
// InvalidStateError and touches nothing.
func (e *Engine) ConfirmReceipt(ctx context.Context, engineerID string, id uuid.UUID) (*requests.Request, []stock.Adjustment, error) {
	const op = "confirm receipt"

	var adjs []stock.Adjustment
	err := retry.Do(ctx, conflictBackoff(), func(ctx context.Context) error {
		req, err := e.loadOwned(ctx, op, engineerID, id)
		if err != nil {
			return err
		}
		if req.Status != requests.StatusDelivered {
			return errs.InvalidState(op, "request is %s, confirm requires delivered", req.Status)
		}

		deltas := req.AggregateDeltas()
		applied, a, err := e.requests.ConfirmAndCredit(ctx, id, engineerID, deltas, ReasonDeliveryConfirmed)
		if err != nil {
			err = errs.Storage(op, err)
			if errs.IsConflict(err) {
				metrics.Conflicts.Inc()
				return retry.RetryableError(err)
			}
			return err
		}
		if !applied {
			// The status write matched nothing: someone got there first.
			// Nothing was credited; classify on fresh state.
			metrics.Conflicts.Inc()
			cur, gerr := e.requests.Get(ctx, id)
			if gerr != nil {
				return errs.Storage(op, gerr)
			}
			switch {
			case cur == nil:
				return errs.InvalidState(op, "request %s no longer exists", id)
			case cur.Status == requests.StatusDelivered:
				// Still delivered yet the write missed: transient.
				return retry.RetryableError(&errs.ConcurrencyConflictError{Op: op})
			default:
				return errs.InvalidState(op, "request is %s, confirm requires delivered", cur.Status)
			}
		}
		adjs = a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.StockCredits.Inc()
	metrics.RequestTransitions.WithLabelValues(string(requests.StatusCompleted)).Inc()
	e.bus.Publish(events.TopicStock, engineerID)
	e.bus.Publish(events.TopicRequests, engineerID)

	cur, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, adjs, errs.Storage(op, err)
	}
	e.log.Info("receipt confirmed", "request", id, "engineer", engineerID, "parts", len(adjs))
	return cur, adjs, nil
}
