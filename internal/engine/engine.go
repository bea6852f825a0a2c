// Package engine is the request lifecycle and stock reconciliation
// engine: it ties request confirmation to ledger credits and usage
// reports to ledger debits, inside the stores' atomic boundaries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/fieldstock/partsdesk/internal/domain/catalog"
	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/domain/usage"
	"github.com/fieldstock/partsdesk/internal/errs"
	"github.com/fieldstock/partsdesk/internal/infra/events"
)

// ReasonDeliveryConfirmed is the adjustment-log reason for credits made
// by ConfirmReceipt.
const ReasonDeliveryConfirmed = "delivery receipt confirmed"

// conflictRetries bounds automatic retry of lost conditional writes.
const conflictRetries = 3

type Engine struct {
	requests RequestStore
	stock    StockStore
	parts    PartStore
	usage    UsageStore
	bus      *events.Bus
	log      *slog.Logger
}

func New(req RequestStore, st StockStore, parts PartStore, us UsageStore, bus *events.Bus, log *slog.Logger) *Engine {
	return &Engine{requests: req, stock: st, parts: parts, usage: us, bus: bus, log: log}
}

// backoff for conflict retries: fibonacci from 25ms, bounded attempts.
func conflictBackoff() retry.Backoff {
	return retry.WithMaxRetries(conflictRetries, retry.NewFibonacci(25*time.Millisecond))
}

// loadOwned fetches a request and enforces ownership. A foreign or
// missing request is an invalid-state failure, not a not-found leak.
func (e *Engine) loadOwned(ctx context.Context, op, engineerID string, id uuid.UUID) (*requests.Request, error) {
	req, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	if req == nil || req.EngineerID != engineerID {
		return nil, errs.InvalidState(op, "request %s not found for engineer", id)
	}
	return req, nil
}

/* Read surface */

func (e *Engine) GetRequest(ctx context.Context, engineerID string, id uuid.UUID) (*requests.Request, error) {
	return e.loadOwned(ctx, "get request", engineerID, id)
}

func (e *Engine) ListRequests(ctx context.Context, engineerID, period string) ([]requests.Request, error) {
	out, err := e.requests.ListByEngineer(ctx, engineerID, period)
	if err != nil {
		return nil, errs.Storage("list requests", err)
	}
	return out, nil
}

func (e *Engine) StockEntries(ctx context.Context, engineerID string, belowMin bool) ([]stock.Entry, error) {
	out, err := e.stock.Entries(ctx, engineerID, belowMin)
	if err != nil {
		return nil, errs.Storage("list stock", err)
	}
	return out, nil
}

func (e *Engine) Adjustments(ctx context.Context, engineerID string, limit int) ([]stock.Adjustment, error) {
	if limit <= 0 {
		limit = 100
	}
	out, err := e.stock.Adjustments(ctx, engineerID, limit)
	if err != nil {
		return nil, errs.Storage("list adjustments", err)
	}
	return out, nil
}

// SetMinStock adjusts the advisory low-stock threshold on a ledger row.
func (e *Engine) SetMinStock(ctx context.Context, engineerID string, partID, minStock int64) error {
	if minStock < 0 {
		return errs.Validationf("min stock must not be negative")
	}
	if err := e.stock.SetMinStock(ctx, engineerID, partID, minStock); err != nil {
		var state *errs.InvalidStateError
		if errors.As(err, &state) {
			return err
		}
		return errs.Storage("set min stock", err)
	}
	e.bus.Publish(events.TopicStock, engineerID)
	return nil
}

func (e *Engine) ListUsageReports(ctx context.Context, engineerID string, limit int) ([]usage.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	out, err := e.usage.ListByEngineer(ctx, engineerID, limit)
	if err != nil {
		return nil, errs.Storage("list usage reports", err)
	}
	return out, nil
}

func (e *Engine) ListParts(ctx context.Context, onlyActive bool) ([]catalog.Part, error) {
	out, err := e.parts.List(ctx, onlyActive)
	if err != nil {
		return nil, errs.Storage("list parts", err)
	}
	return out, nil
}

// RegisterPart adds a catalog entry. When the caller does not state the
// cap classification, it is resolved from the name once, here, and
// stored; nothing re-derives it later.
func (e *Engine) RegisterPart(ctx context.Context, name, unit string, highVolume *bool) (*catalog.Part, error) {
	if name == "" {
		return nil, errs.Validationf("part name must not be empty")
	}
	hv := catalog.ClassifyName(name)
	if highVolume != nil {
		hv = *highVolume
	}
	p, err := e.parts.Create(ctx, name, unit, hv)
	if err != nil {
		return nil, errs.Storage("register part", err)
	}
	if p == nil {
		return nil, errs.Storage("register part", fmt.Errorf("catalog returned no row for %q", name))
	}
	return p, nil
}
