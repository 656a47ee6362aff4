package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kohakume/livegate/internal/domain"
)

type AdminRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AdminRepo) With(db DB) *AdminRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AdminRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetByUsername retrieves an admin by username.
//
// Returns:
//   - error: repository.ErrNotFound if no admin has the username.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	const op = "postgres.AdminRepo.GetByUsername"

	db := r.handle()

	var a domain.Admin
	err := db.QueryRow(ctx,
		`SELECT id, username, password_hash, role, artist_id, is_active, created_at
		 FROM admins WHERE username = $1`,
		username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.ArtistID, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}
