package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, name, unit string, highVolume bool) (*Part, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO parts (name, unit, high_volume, active)
		VALUES ($1,$2,$3,TRUE)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, unit, high_volume, active, created_at
	`, name, unit, highVolume)
	var p Part
	err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.HighVolume, &p.Active, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		// Already registered, return the existing row. If that row is
		// gone too (deleted between the two statements), report it
		// rather than hand back nothing.
		existing, err := r.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("part %q vanished during upsert", name)
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (*Part, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, unit, high_volume, active, created_at
		FROM parts WHERE name = $1
	`, name)
	var p Part
	if err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.HighVolume, &p.Active, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ByIDs returns the parts for the given ids keyed by id. Missing ids are
// simply absent from the map; validation happens at the caller.
func (r *Repo) ByIDs(ctx context.Context, ids []int64) (map[int64]Part, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, unit, high_volume, active, created_at
		FROM parts WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Part, len(ids))
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.HighVolume, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Part, error) {
	q := `
		SELECT id, name, unit, high_volume, active, created_at
		FROM parts
	`
	if onlyActive {
		q += " WHERE active = TRUE"
	}
	q += " ORDER BY name"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Unit, &p.HighVolume, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) (*Part, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE parts SET active=$2 WHERE id=$1
		RETURNING id, name, unit, high_volume, active, created_at
	`, id, active)
	var p Part
	if err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.HighVolume, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
