package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

// CountryRepository handles persistence for countries.
type CountryRepository struct {
	db *Postgres
}

// Create inserts c. Name and code are unique.
func (r *CountryRepository) Create(ctx context.Context, c *model.Country) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`INSERT INTO countries (id, name, code) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Code,
	)
	return mapError("insert country", err)
}

// GetByID returns a single country or ErrNotFound.
func (r *CountryRepository) GetByID(ctx context.Context, id string) (*model.Country, error) {
	var c model.Country
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT id, name, code FROM countries WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Code)
	if err != nil {
		return nil, mapError("get country", err)
	}
	return &c, nil
}

// List returns all countries ordered by name.
func (r *CountryRepository) List(ctx context.Context) ([]model.Country, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `SELECT id, name, code FROM countries ORDER BY name`)
	if err != nil {
		return nil, mapError("list countries", err)
	}
	defer rows.Close()

	var out []model.Country
	for rows.Next() {
		var c model.Country
		if err := rows.Scan(&c.ID, &c.Name, &c.Code); err != nil {
			return nil, mapError("scan country", err)
		}
		out = append(out, c)
	}
	return out, mapError("list countries", rows.Err())
}

// Delete removes a country. Events still pointing at it make this fail with
// ErrReferenced.
func (r *CountryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM countries WHERE id = $1`, id)
	if err != nil {
		return mapError("delete country", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
