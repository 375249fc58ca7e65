package cell

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"detention/internal/store"
)

// Cell is one housing unit in the facility.
type Cell struct {
	ID       string `json:"id"`
	Block    string `json:"block"`
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
}

// Occupancy is a cell with its current headcount of active inmates.
type Occupancy struct {
	Cell
	Occupied int `json:"occupied"`
}

// Repository persists cells in Postgres.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a cell.
func (r *Repository) Create(ctx context.Context, c *Cell) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.Q(ctx).ExecContext(ctx, `
		INSERT INTO cells (id, block, number, capacity)
		VALUES ($1,$2,$3,$4)
	`, c.ID, c.Block, c.Number, c.Capacity)
	return err
}

// Get returns one cell.
func (r *Repository) Get(ctx context.Context, id string) (*Cell, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT id, block, number, capacity FROM cells WHERE id = $1
	`, id)
	var c Cell
	err := row.Scan(&c.ID, &c.Block, &c.Number, &c.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// OccupancySummary returns every cell with its active-inmate count
// for the dashboard.
func (r *Repository) OccupancySummary(ctx context.Context) ([]Occupancy, error) {
	rows, err := r.db.Q(ctx).QueryContext(ctx, `
		SELECT c.id, c.block, c.number, c.capacity, COUNT(i.id)
		FROM cells c
		LEFT JOIN inmates i ON i.cell_id = c.id AND i.discharged_at IS NULL
		GROUP BY c.id, c.block, c.number, c.capacity
		ORDER BY c.block, c.number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Occupancy
	for rows.Next() {
		var o Occupancy
		if err := rows.Scan(&o.ID, &o.Block, &o.Number, &o.Capacity, &o.Occupied); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
