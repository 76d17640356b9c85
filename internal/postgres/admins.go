package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/squizzy-server/internal/domain"
)

// UpsertAdmin creates an admin account or rotates the password hash of an
// existing one.
func (r *Repository) UpsertAdmin(ctx context.Context, admin *domain.Admin) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, username, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = $3,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at
	`, admin.ID, admin.Username, admin.PasswordHash).Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting admin: %w", err)
	}
	return nil
}

// GetAdminByUsername retrieves an admin account for login
func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	var admin domain.Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at FROM admins WHERE username = $1
	`, username).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, fmt.Errorf("getting admin: %w", err)
	}
	return &admin, nil
}
