package inmate

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"detention/internal/store"
)

// Repository persists inmates and the points ledger in Postgres.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// WithTx delegates to the shared transaction helper.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

const inmateColumns = `
	id, booking_number, first_name, last_name, date_of_birth, gender, cell_id,
	status, initial_points, current_points, original_sentence_days,
	reduced_sentence_days, admission_date, adjusted_release_date, photo_url,
	discharged_at, created_at, updated_at`

func scanInmate(row interface{ Scan(dest ...any) error }) (*Inmate, error) {
	var inm Inmate
	err := row.Scan(
		&inm.ID, &inm.BookingNumber, &inm.FirstName, &inm.LastName,
		&inm.DateOfBirth, &inm.Gender, &inm.CellID, &inm.Status,
		&inm.InitialPoints, &inm.CurrentPoints, &inm.OriginalSentenceDays,
		&inm.ReducedSentenceDays, &inm.AdmissionDate, &inm.AdjustedReleaseDate,
		&inm.PhotoURL, &inm.DischargedAt, &inm.CreatedAt, &inm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inm, nil
}

// Get returns one inmate, discharged or not.
func (r *Repository) Get(ctx context.Context, id string) (*Inmate, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT `+inmateColumns+`
		FROM inmates WHERE id = $1
	`, id)
	inm, err := scanInmate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return inm, err
}

// Create inserts a new inmate row.
func (r *Repository) Create(ctx context.Context, inm *Inmate) error {
	if inm.ID == "" {
		inm.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO inmates (
			id, booking_number, first_name, last_name, date_of_birth, gender,
			cell_id, status, initial_points, current_points,
			original_sentence_days, reduced_sentence_days, admission_date,
			adjusted_release_date, photo_url
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at
	`, inm.ID, inm.BookingNumber, inm.FirstName, inm.LastName, inm.DateOfBirth,
		inm.Gender, inm.CellID, inm.Status, inm.InitialPoints, inm.CurrentPoints,
		inm.OriginalSentenceDays, inm.ReducedSentenceDays, inm.AdmissionDate,
		inm.AdjustedReleaseDate, inm.PhotoURL)
	return store.ConflictIfDuplicate(row.Scan(&inm.CreatedAt, &inm.UpdatedAt))
}

// Update rewrites the mutable fields of an inmate row.
func (r *Repository) Update(ctx context.Context, inm *Inmate) error {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE inmates
		SET first_name = $2, last_name = $3, date_of_birth = $4, gender = $5,
			cell_id = $6, status = $7, current_points = $8,
			original_sentence_days = $9, reduced_sentence_days = $10,
			admission_date = $11, adjusted_release_date = $12, photo_url = $13,
			updated_at = NOW()
		WHERE id = $1
	`, inm.ID, inm.FirstName, inm.LastName, inm.DateOfBirth, inm.Gender,
		inm.CellID, inm.Status, inm.CurrentPoints, inm.OriginalSentenceDays,
		inm.ReducedSentenceDays, inm.AdmissionDate, inm.AdjustedReleaseDate,
		inm.PhotoURL)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Discharge marks an inmate released without deleting the row.
func (r *Repository) Discharge(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE inmates
		SET status = $2, discharged_at = $3, updated_at = NOW()
		WHERE id = $1 AND discharged_at IS NULL
	`, id, StatusReleased, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns non-discharged inmates ordered by booking number.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Inmate, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Q(ctx).QueryContext(ctx, `
		SELECT `+inmateColumns+`
		FROM inmates
		WHERE discharged_at IS NULL
		ORDER BY booking_number
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Inmate
	for rows.Next() {
		inm, err := scanInmate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *inm)
	}
	return res, rows.Err()
}

// AppendEntry writes a points ledger entry. There is no update or
// delete for this table.
func (r *Repository) AppendEntry(ctx context.Context, entry *PointsEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO points_history (
			id, inmate_id, delta, points_before, points_after, activity,
			notes, activity_date, recorded_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, entry.ID, entry.InmateID, entry.Delta, entry.PointsBefore,
		entry.PointsAfter, entry.Activity, entry.Notes, entry.ActivityDate,
		entry.RecordedBy)
	return row.Scan(&entry.CreatedAt)
}

// Entries returns ledger entries for an inmate, newest activity first.
func (r *Repository) Entries(ctx context.Context, inmateID string, limit, offset int) ([]PointsEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Q(ctx).QueryContext(ctx, `
		SELECT id, inmate_id, delta, points_before, points_after, activity,
			notes, activity_date, recorded_by, created_at
		FROM points_history
		WHERE inmate_id = $1
		ORDER BY activity_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`, inmateID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []PointsEntry
	for rows.Next() {
		var e PointsEntry
		if err := rows.Scan(&e.ID, &e.InmateID, &e.Delta, &e.PointsBefore,
			&e.PointsAfter, &e.Activity, &e.Notes, &e.ActivityDate,
			&e.RecordedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
