package staff

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"detention/internal/store"
)

// User is a staff account allowed to operate the facility backend.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists staff users and refresh tokens in Postgres.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// GetByUsername returns a staff user by login name.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, role, created_at
		FROM staff_users WHERE username = $1
	`, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a staff user.
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		INSERT INTO staff_users (id, username, password_hash, full_name, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, u.ID, u.Username, u.PasswordHash, u.FullName, u.Role)
	return store.ConflictIfDuplicate(row.Scan(&u.CreatedAt))
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.Q(ctx).ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, expiresAt)
	return err
}

// RefreshTokenValid reports whether a token exists, is unrevoked, and
// has not expired.
func (r *Repository) RefreshTokenValid(ctx context.Context, token string) (string, bool, error) {
	row := r.db.Q(ctx).QueryRowContext(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token = $1 AND revoked = FALSE AND expires_at > NOW()
	`, token)
	var userID string
	err := row.Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.Q(ctx).ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
