package usage

import (
	"context"

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

// SubmitAndDebit persists the report and debits the ledger in one
// transaction. A short debit rolls the report back with it, so an
// insufficient-stock failure leaves neither an orphaned report nor a
// touched ledger.
func (r *Repo) SubmitAndDebit(ctx context.Context, rep *Report) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO usage_reports (id, engineer_id, so_number, description)
		VALUES ($1,$2,$3,$4)
		RETURNING report_date
	`, rep.ID, rep.EngineerID, rep.SONumber, rep.Description).Scan(&rep.ReportDate)
	if err != nil {
		return err
	}

	deltas := make(map[int64]int64, len(rep.Items))
	for _, it := range rep.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO usage_report_items (report_id, part_id, part_name, quantity)
			VALUES ($1,$2,$3,$4)
		`, rep.ID, it.PartID, it.PartName, it.Quantity); err != nil {
			return err
		}
		deltas[it.PartID] += it.Quantity
	}

	if err := r.stock.DebitTx(ctx, tx, rep.EngineerID, deltas); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByEngineer returns the engineer's reports, newest first.
func (r *Repo) ListByEngineer(ctx context.Context, engineerID string, limit int) ([]Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, engineer_id, so_number, description, report_date
		FROM usage_reports
		WHERE engineer_id = $1
		ORDER BY report_date DESC
		LIMIT $2
	`, engineerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.EngineerID, &rep.SONumber, &rep.Description, &rep.ReportDate); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) loadItems(ctx context.Context, rep *Report) error {
	rows, err := r.pool.Query(ctx, `
		SELECT part_id, part_name, quantity FROM usage_report_items
		WHERE report_id = $1 ORDER BY part_id
	`, rep.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.PartID, &it.PartName, &it.Quantity); err != nil {
			return err
		}
		rep.Items = append(rep.Items, it)
	}
	return rows.Err()
}
