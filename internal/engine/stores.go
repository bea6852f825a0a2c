package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldstock/partsdesk/internal/domain/catalog"
	"github.com/fieldstock/partsdesk/internal/domain/requests"
	"github.com/fieldstock/partsdesk/internal/domain/stock"
	"github.com/fieldstock/partsdesk/internal/domain/usage"
)

// Store interfaces the engine orchestrates over. The pgx repos satisfy
// them in production; tests run against in-memory fakes. Operations that
// must be atomic (ConfirmAndCredit, SubmitAndDebit) are single calls so
// the atomicity boundary lives with the store, not the caller.

type RequestStore interface {
	Create(ctx context.Context, req *requests.Request) error
	Get(ctx context.Context, id uuid.UUID) (*requests.Request, error)
	ListByEngineer(ctx context.Context, engineerID, period string) ([]requests.Request, error)
	ReplaceItems(ctx context.Context, id uuid.UUID, items []requests.Item) (bool, error)
	Transition(ctx context.Context, id uuid.UUID, from, to requests.Status) (bool, error)
	ConfirmAndCredit(ctx context.Context, id uuid.UUID, engineerID string, deltas map[int64]int64, reason string) (bool, []stock.Adjustment, error)
	PurgeCancelled(ctx context.Context, engineerID string) (int64, error)
}

type StockStore interface {
	Snapshot(ctx context.Context, engineerID string, partIDs []int64) (map[int64]int64, error)
	Entries(ctx context.Context, engineerID string, belowMin bool) ([]stock.Entry, error)
	Adjustments(ctx context.Context, engineerID string, limit int) ([]stock.Adjustment, error)
	SetMinStock(ctx context.Context, engineerID string, partID, minStock int64) error
}

type PartStore interface {
	Create(ctx context.Context, name, unit string, highVolume bool) (*catalog.Part, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]catalog.Part, error)
	List(ctx context.Context, onlyActive bool) ([]catalog.Part, error)
}

type UsageStore interface {
	SubmitAndDebit(ctx context.Context, rep *usage.Report) error
	ListByEngineer(ctx context.Context, engineerID string, limit int) ([]usage.Report, error)
}
