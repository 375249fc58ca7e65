package medical

import (
	"context"
	"time"

	"github.com/google/uuid"

	"detention/internal/store"
)

// Record is one medical entry for an inmate. FilePath, when set,
// points at a stored document; the bytes live in document storage.
type Record struct {
	ID         string    `json:"id"`
	InmateID   string    `json:"inmate_id"`
	Diagnosis  string    `json:"diagnosis"`
	Treatment  *string   `json:"treatment,omitempty"`
	FilePath   *string   `json:"file_path,omitempty"`
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository persists medical records in Postgres.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a medical record.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO medical_records (id, inmate_id, diagnosis, treatment, file_path, recorded_by, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, rec.ID, rec.InmateID, rec.Diagnosis, rec.Treatment, rec.FilePath,
		rec.RecordedBy, rec.RecordedAt)
	return row.Scan(&rec.CreatedAt)
}

// ListByInmate returns an inmate's medical records, newest first.
func (r *Repository) ListByInmate(ctx context.Context, inmateID string) ([]Record, error) {
	rows, err := r.db.Q(ctx).QueryContext(ctx, `
		SELECT id, inmate_id, diagnosis, treatment, file_path, recorded_by, recorded_at, created_at
		FROM medical_records
		WHERE inmate_id = $1
		ORDER BY recorded_at DESC
	`, inmateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.InmateID, &rec.Diagnosis,
			&rec.Treatment, &rec.FilePath, &rec.RecordedBy, &rec.RecordedAt,
			&rec.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
