package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/fieldstock/partsdesk/internal/domain/usage"
	"github.com/fieldstock/partsdesk/internal/errs"
	"github.com/fieldstock/partsdesk/internal/infra/events"
	"github.com/fieldstock/partsdesk/internal/infra/metrics"
)

// UsageItemInput is one consumed part/quantity pair as submitted by the
// caller; the part name is resolved here, not trusted from the client.
type UsageItemInput struct {
	PartID   int64 `json:"part_id"`
	Quantity int64 `json:"quantity"`
}

// SubmitUsageReport validates and persists a usage report, debiting the
// ledger in the same transaction. If any part is short the whole
// submission fails: no report row survives, no quantity moves.
func (e *Engine) SubmitUsageReport(ctx context.Context, engineerID, soNumber, description string, items []UsageItemInput) (*usage.Report, error) {
	const op = "submit usage report"
	if engineerID == "" {
		return nil, errs.Validationf("engineer id must not be empty")
	}
	if err := usage.ValidateSONumber(soNumber); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errs.Validationf("usage report must contain at least one item")
	}

	// Merge duplicate part rows so the debit sees one delta per part.
	merged := make(map[int64]int64, len(items))
	order := make([]int64, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, errs.Validationf("quantity for part %d must be positive", it.PartID)
		}
		if _, ok := merged[it.PartID]; !ok {
			order = append(order, it.PartID)
		}
		merged[it.PartID] += it.Quantity
	}

	parts, err := e.parts.ByIDs(ctx, order)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	for _, id := range order {
		if _, ok := parts[id]; !ok {
			return nil, errs.Validationf("part %d does not exist", id)
		}
	}

	// Pre-validate against a snapshot for a friendly early failure. The
	// debit re-checks sufficiency itself; this read proves nothing about
	// the write that follows.
	snap, err := e.stock.Snapshot(ctx, engineerID, order)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	for _, id := range order {
		if snap[id] < merged[id] {
			return nil, &errs.InsufficientStockError{
				PartID:    id,
				PartName:  parts[id].Name,
				Requested: merged[id],
				Available: snap[id],
			}
		}
	}

	rep := &usage.Report{
		ID:          uuid.New(),
		EngineerID:  engineerID,
		SONumber:    soNumber,
		Description: description,
	}
	for _, id := range order {
		rep.Items = append(rep.Items, usage.Item{
			PartID:   id,
			PartName: parts[id].Name,
			Quantity: merged[id],
		})
	}

	err = retry.Do(ctx, conflictBackoff(), func(ctx context.Context) error {
		if err := e.usage.SubmitAndDebit(ctx, rep); err != nil {
			var short *errs.InsufficientStockError
			if errors.As(err, &short) {
				if short.PartName == "" {
					short.PartName = parts[short.PartID].Name
				}
				return short
			}
			err = errs.Storage(op, err)
			if errs.IsConflict(err) {
				metrics.Conflicts.Inc()
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StockDebits.Inc()
	e.bus.Publish(events.TopicStock, engineerID)
	e.bus.Publish(events.TopicUsageReports, engineerID)
	e.log.Info("usage report submitted", "report", rep.ID, "engineer", engineerID, "so", soNumber)
	return rep, nil
}
