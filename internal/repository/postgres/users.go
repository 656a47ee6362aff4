package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kohakume/livegate/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UserRepo) With(db DB) *UserRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UserRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert creates a user and returns it.
//
// Returns:
//   - error: repository.ErrConflict if the email is already registered.
func (r *UserRepo) Insert(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	const op = "postgres.UserRepo.Insert"

	db := r.handle()

	var u domain.User
	err := db.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, name, password_hash, created_at`,
		email, name, passwordHash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}

// UpdatePassword replaces the stored password hash.
//
// Returns:
//   - error: repository.ErrNotFound if no user has the id.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	const op = "postgres.UserRepo.UpdatePassword"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// GetByEmail retrieves a user by email.
//
// Returns:
//   - error: repository.ErrNotFound if no user has the email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByEmail"

	db := r.handle()

	var u domain.User
	err := db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}
