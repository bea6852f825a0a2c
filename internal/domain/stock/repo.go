package stock

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldstock/partsdesk/internal/errs"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// sortedParts gives deterministic per-part order inside a batch. Fixed
// order also keeps concurrent batches from deadlocking on row locks.
func sortedParts(deltas map[int64]int64) []int64 {
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CreditTx applies a credit batch inside the caller's transaction. Each
// part is incremented atomically in place (no read-modify-write from the
// client) and one adjustment row is appended capturing previous/new/delta.
func (r *Repo) CreditTx(ctx context.Context, tx pgx.Tx, engineerID string, deltas map[int64]int64, reason string) ([]Adjustment, error) {
	adjs := make([]Adjustment, 0, len(deltas))
	for _, partID := range sortedParts(deltas) {
		delta := deltas[partID]

		var newQty int64
		err := tx.QueryRow(ctx, `
			INSERT INTO stock_ledger (engineer_id, part_id, quantity, last_sync)
			VALUES ($1,$2,$3,now())
			ON CONFLICT (engineer_id, part_id)
			DO UPDATE SET quantity = stock_ledger.quantity + EXCLUDED.quantity, last_sync = now()
			RETURNING quantity
		`, engineerID, partID, delta).Scan(&newQty)
		if err != nil {
			return nil, err
		}

		a := Adjustment{
			EngineerID:       engineerID,
			PartID:           partID,
			PreviousQuantity: newQty - delta,
			NewQuantity:      newQty,
			Delta:            delta,
			Reason:           reason,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO adjustment_log (engineer_id, part_id, previous_quantity, new_quantity, delta, reason)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id, created_at
		`, a.EngineerID, a.PartID, a.PreviousQuantity, a.NewQuantity, a.Delta, a.Reason).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		adjs = append(adjs, a)
	}
	return adjs, nil
}

// DebitTx applies a debit batch inside the caller's transaction. Every
// decrement re-checks sufficiency in the UPDATE itself; the first part
// that comes up short fails the whole batch, and the caller's rollback
// undoes any decrements already applied.
func (r *Repo) DebitTx(ctx context.Context, tx pgx.Tx, engineerID string, deltas map[int64]int64) error {
	for _, partID := range sortedParts(deltas) {
		qty := deltas[partID]

		tag, err := tx.Exec(ctx, `
			UPDATE stock_ledger
			SET quantity = quantity - $3, last_sync = now()
			WHERE engineer_id = $1 AND part_id = $2 AND quantity >= $3
		`, engineerID, partID, qty)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var available int64
			err := tx.QueryRow(ctx, `
				SELECT COALESCE((
					SELECT quantity FROM stock_ledger
					WHERE engineer_id = $1 AND part_id = $2
				), 0)
			`, engineerID, partID).Scan(&available)
			if err != nil {
				return err
			}
			return &errs.InsufficientStockError{PartID: partID, Requested: qty, Available: available}
		}
	}
	return nil
}

// Snapshot reads current quantities for the given parts. Missing rows
// read as zero. Advisory only: writes re-validate on their own.
func (r *Repo) Snapshot(ctx context.Context, engineerID string, partIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(partIDs))
	for _, id := range partIDs {
		out[id] = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT part_id, quantity FROM stock_ledger
		WHERE engineer_id = $1 AND part_id = ANY($2)
	`, engineerID, partIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var partID, qty int64
		if err := rows.Scan(&partID, &qty); err != nil {
			return nil, err
		}
		out[partID] = qty
	}
	return out, rows.Err()
}

// Entries lists an engineer's ledger with part names resolved. With
// belowMin set, only rows at or under their advisory threshold.
func (r *Repo) Entries(ctx context.Context, engineerID string, belowMin bool) ([]Entry, error) {
	q := `
		SELECT l.engineer_id, l.part_id, COALESCE(p.name,''), l.quantity, l.min_stock, l.last_sync
		FROM stock_ledger l
		LEFT JOIN parts p ON p.id = l.part_id
		WHERE l.engineer_id = $1
	`
	if belowMin {
		q += " AND l.quantity <= l.min_stock"
	}
	q += " ORDER BY p.name"

	rows, err := r.pool.Query(ctx, q, engineerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EngineerID, &e.PartID, &e.PartName, &e.Quantity, &e.MinStock, &e.LastSync); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Adjustments lists the most recent audit rows for an engineer.
func (r *Repo) Adjustments(ctx context.Context, engineerID string, limit int) ([]Adjustment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, engineer_id, part_id, previous_quantity, new_quantity, delta, reason, created_at
		FROM adjustment_log
		WHERE engineer_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, engineerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Adjustment
	for rows.Next() {
		var a Adjustment
		if err := rows.Scan(&a.ID, &a.EngineerID, &a.PartID, &a.PreviousQuantity, &a.NewQuantity, &a.Delta, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetMinStock updates the advisory threshold. Not enforced anywhere,
// only surfaced by the below-min listing. Ledger rows are created by
// credits, never here; a threshold on a part the engineer has never
// received is meaningless.
func (r *Repo) SetMinStock(ctx context.Context, engineerID string, partID, minStock int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stock_ledger SET min_stock = $3
		WHERE engineer_id = $1 AND part_id = $2
	`, engineerID, partID, minStock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.InvalidState("set min stock", "no ledger entry for part %d", partID)
	}
	return nil
}
