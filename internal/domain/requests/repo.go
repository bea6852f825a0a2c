package requests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldstock/partsdesk/internal/domain/stock"
)

type Repo struct {
	pool  *pgxpool.Pool
	stock *stock.Repo
}

func NewRepo(pool *pgxpool.Pool, stockRepo *stock.Repo) *Repo {
	return &Repo{pool: pool, stock: stockRepo}
}

func (r *Repo) Create(ctx context.Context, req *Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO requests (id, engineer_id, period, status)
		VALUES ($1,$2,$3,'pending')
		RETURNING submitted_at
	`, req.ID, req.EngineerID, req.Period).Scan(&req.SubmittedAt)
	if err != nil {
		return err
	}
	if err := insertItems(ctx, tx, req.ID, req.Items); err != nil {
		return err
	}
	req.Status = StatusPending
	return tx.Commit(ctx)
}

func insertItems(ctx context.Context, tx pgx.Tx, id uuid.UUID, items []Item) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO request_items (request_id, part_id, quantity)
			VALUES ($1,$2,$3)
		`, id, it.PartID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, engineer_id, period, status, submitted_at, reviewed_at, delivered_at, confirmed_at, cancelled_at
		FROM requests WHERE id = $1
	`, id)
	var req Request
	if err := row.Scan(&req.ID, &req.EngineerID, &req.Period, &req.Status,
		&req.SubmittedAt, &req.ReviewedAt, &req.DeliveredAt, &req.ConfirmedAt, &req.CancelledAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT part_id, quantity FROM request_items
		WHERE request_id = $1 ORDER BY part_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.PartID, &it.Quantity); err != nil {
			return nil, err
		}
		req.Items = append(req.Items, it)
	}
	return &req, rows.Err()
}

// ListByEngineer returns the engineer's requests, newest first, with an
// optional period filter. Items are loaded per request.
func (r *Repo) ListByEngineer(ctx context.Context, engineerID, period string) ([]Request, error) {
	q := `
		SELECT id, engineer_id, period, status, submitted_at, reviewed_at, delivered_at, confirmed_at, cancelled_at
		FROM requests WHERE engineer_id = $1
	`
	args := []any{engineerID}
	if period != "" {
		q += " AND period = $2"
		args = append(args, period)
	}
	q += " ORDER BY submitted_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EngineerID, &req.Period, &req.Status,
			&req.SubmittedAt, &req.ReviewedAt, &req.DeliveredAt, &req.ConfirmedAt, &req.CancelledAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		irows, err := r.pool.Query(ctx, `
			SELECT part_id, quantity FROM request_items
			WHERE request_id = $1 ORDER BY part_id
		`, out[i].ID)
		if err != nil {
			return nil, err
		}
		for irows.Next() {
			var it Item
			if err := irows.Scan(&it.PartID, &it.Quantity); err != nil {
				irows.Close()
				return nil, err
			}
			out[i].Items = append(out[i].Items, it)
		}
		irows.Close()
		if err := irows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReplaceItems swaps the whole item list and resets the submission
// timestamp, conditional on the request still being pending. Returns
// false when the precondition did not hold.
func (r *Repo) ReplaceItems(ctx context.Context, id uuid.UUID, items []Item) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE requests SET submitted_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM request_items WHERE request_id = $1`, id); err != nil {
		return false, err
	}
	if err := insertItems(ctx, tx, id, items); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// stampColumn is the timestamp each transition sets exactly once.
func stampColumn(to Status) string {
	switch to {
	case StatusApproved, StatusRejected:
		return "reviewed_at"
	case StatusDelivered:
		return "delivered_at"
	case StatusCompleted:
		return "confirmed_at"
	case StatusCancelled:
		return "cancelled_at"
	}
	return ""
}

// Transition flips from->to with a conditional write. The returned bool
// is the only evidence the transition happened; callers must not treat
// false as success.
func (r *Repo) Transition(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	if !CanTransition(from, to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE requests SET status = $3, %s = now()
		WHERE id = $1 AND status = $2
	`, stampColumn(to)), id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ConfirmAndCredit is the confirm-receipt commit: flip
// delivered->completed and credit the ledger in one transaction. The
// conditional status UPDATE is the linearization point; if it matches
// zero rows nothing is credited, so a lost race can never double-credit.
func (r *Repo) ConfirmAndCredit(ctx context.Context, id uuid.UUID, engineerID string, deltas map[int64]int64, reason string) (bool, []stock.Adjustment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE requests SET status = 'completed', confirmed_at = now()
		WHERE id = $1 AND status = 'delivered'
	`, id)
	if err != nil {
		return false, nil, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil, nil
	}

	adjs, err := r.stock.CreditTx(ctx, tx, engineerID, deltas, reason)
	if err != nil {
		return false, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, nil, err
	}
	return true, adjs, nil
}

// PurgeCancelled hard-deletes cancelled requests. Maintenance only;
// cancellation itself is always the soft transition.
func (r *Repo) PurgeCancelled(ctx context.Context, engineerID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM requests WHERE engineer_id = $1 AND status = 'cancelled'
	`, engineerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
