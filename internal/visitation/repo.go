package visitation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"detention/internal/store"
)

// Repository persists visitation data in Postgres.
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

// CreateVisitor inserts a visitor row.
func (r *Repository) CreateVisitor(ctx context.Context, v *Visitor) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO visitors (
			id, inmate_id, first_name, last_name, relationship, id_number,
			phone, address, photo_url
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, v.ID, v.InmateID, v.FirstName, v.LastName, v.Relationship, v.IDNumber,
		v.Phone, v.Address, v.PhotoURL)
	return row.Scan(&v.CreatedAt, &v.UpdatedAt)
}

// GetVisitor returns one visitor.
func (r *Repository) GetVisitor(ctx context.Context, id string) (*Visitor, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT id, inmate_id, first_name, last_name, relationship, id_number,
			phone, address, photo_url, face_enrolled, enrolled_at,
			created_at, updated_at
		FROM visitors WHERE id = $1
	`, id)
	var v Visitor
	err := row.Scan(&v.ID, &v.InmateID, &v.FirstName, &v.LastName,
		&v.Relationship, &v.IDNumber, &v.Phone, &v.Address, &v.PhotoURL,
		&v.FaceEnrolled, &v.EnrolledAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVisitors returns an inmate's visitors ordered by name.
func (r *Repository) ListVisitors(ctx context.Context, inmateID string) ([]Visitor, error) {
	rows, err := r.db.Q(ctx).QueryContext(ctx, `
		SELECT id, inmate_id, first_name, last_name, relationship, id_number,
			phone, address, photo_url, face_enrolled, enrolled_at,
			created_at, updated_at
		FROM visitors
		WHERE inmate_id = $1
		ORDER BY last_name, first_name
	`, inmateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Visitor
	for rows.Next() {
		var v Visitor
		if err := rows.Scan(&v.ID, &v.InmateID, &v.FirstName, &v.LastName,
			&v.Relationship, &v.IDNumber, &v.Phone, &v.Address, &v.PhotoURL,
			&v.FaceEnrolled, &v.EnrolledAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// SetVisitorFaceEnrolled marks a visitor's face as enrolled in the
// recognition gallery.
func (r *Repository) SetVisitorFaceEnrolled(ctx context.Context, visitorID string, at time.Time) error {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE visitors
		SET face_enrolled = TRUE, enrolled_at = $2, updated_at = NOW()
		WHERE id = $1
	`, visitorID, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateConjugalVisit inserts a conjugal registration row.
func (r *Repository) CreateConjugalVisit(ctx context.Context, cv *ConjugalVisit) error {
	if cv.ID == "" {
		cv.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO conjugal_visits (
			id, visitor_id, inmate_id, cohabitation_cert_path,
			marriage_contract_path, relationship_start_date, status,
			registered_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, cv.ID, cv.VisitorID, cv.InmateID, cv.CohabitationCertPath,
		cv.MarriageContractPath, cv.RelationshipStartDate, cv.Status,
		cv.RegisteredBy)
	return store.ConflictIfDuplicate(row.Scan(&cv.CreatedAt, &cv.UpdatedAt))
}

const conjugalColumns = `
	id, visitor_id, inmate_id, cohabitation_cert_path,
	marriage_contract_path, relationship_start_date, status,
	registered_by, created_at, updated_at`

func scanConjugal(row interface{ Scan(dest ...any) error }) (*ConjugalVisit, error) {
	var cv ConjugalVisit
	err := row.Scan(&cv.ID, &cv.VisitorID, &cv.InmateID,
		&cv.CohabitationCertPath, &cv.MarriageContractPath,
		&cv.RelationshipStartDate, &cv.Status, &cv.RegisteredBy,
		&cv.CreatedAt, &cv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// GetConjugalVisit returns one registration by id.
func (r *Repository) GetConjugalVisit(ctx context.Context, id string) (*ConjugalVisit, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT `+conjugalColumns+`
		FROM conjugal_visits WHERE id = $1
	`, id)
	cv, err := scanConjugal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return cv, err
}

// GetConjugalVisitByVisitor returns a visitor's registration.
func (r *Repository) GetConjugalVisitByVisitor(ctx context.Context, visitorID string) (*ConjugalVisit, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT `+conjugalColumns+`
		FROM conjugal_visits WHERE visitor_id = $1
	`, visitorID)
	cv, err := scanConjugal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return cv, err
}

// SetConjugalStatus moves a registration to a new approval state.
func (r *Repository) SetConjugalStatus(ctx context.Context, id string, status ConjugalStatus) error {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE conjugal_visits SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AppendVisitLog writes one visit session entry.
func (r *Repository) AppendVisitLog(ctx context.Context, l *ConjugalVisitLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO conjugal_visit_logs (id, conjugal_visit_id, visit_date, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, l.ID, l.ConjugalVisitID, l.VisitDate, l.Notes, l.RecordedBy)
	return row.Scan(&l.CreatedAt)
}

// ListVisitLogs returns sessions for a registration, newest first.
func (r *Repository) ListVisitLogs(ctx context.Context, conjugalVisitID string) ([]ConjugalVisitLog, error) {
	rows, err := r.db.Q(ctx).QueryContext(ctx, `
		SELECT id, conjugal_visit_id, visit_date, notes, recorded_by, created_at
		FROM conjugal_visit_logs
		WHERE conjugal_visit_id = $1
		ORDER BY visit_date DESC
	`, conjugalVisitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ConjugalVisitLog
	for rows.Next() {
		var l ConjugalVisitLog
		if err := rows.Scan(&l.ID, &l.ConjugalVisitID, &l.VisitDate, &l.Notes,
			&l.RecordedBy, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

// CreateVisitRequest inserts a pending visit request.
func (r *Repository) CreateVisitRequest(ctx context.Context, vr *VisitRequest) error {
	if vr.ID == "" {
		vr.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO visit_requests (id, visitor_id, inmate_id, image_url, status, requested_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, vr.ID, vr.VisitorID, vr.InmateID, vr.ImageURL, vr.Status, vr.RequestedAt)
	return row.Scan(&vr.CreatedAt)
}

// GetVisitRequest returns one visit request.
func (r *Repository) GetVisitRequest(ctx context.Context, id string) (*VisitRequest, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT id, visitor_id, inmate_id, image_url, status, match_score,
			requested_at, verified_at, created_at
		FROM visit_requests WHERE id = $1
	`, id)
	var vr VisitRequest
	err := row.Scan(&vr.ID, &vr.VisitorID, &vr.InmateID, &vr.ImageURL,
		&vr.Status, &vr.MatchScore, &vr.RequestedAt, &vr.VerifiedAt,
		&vr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vr, nil
}

// SetVisitRequestResult records the outcome of facial verification.
func (r *Repository) SetVisitRequestResult(ctx context.Context, id, status string, score *float64, at time.Time) error {
	res, err := r.db.Q(ctx).ExecContext(ctx, `
		UPDATE visit_requests
		SET status = $2, match_score = COALESCE($3, match_score), verified_at = $4
		WHERE id = $1
	`, id, status, score, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
