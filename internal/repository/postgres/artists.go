package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kohakume/livegate/internal/domain"
)

type ArtistRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ArtistRepo) With(db DB) *ArtistRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ArtistRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const artistColumns = `id, name, slug, bio, image_url, created_at`

// List returns all artists, newest first.
func (r *ArtistRepo) List(ctx context.Context) ([]domain.Artist, error) {
	const op = "postgres.ArtistRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+artistColumns+` FROM artists ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Artist
	for rows.Next() {
		var a domain.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.Bio, &a.ImageURL, &a.CreatedAt); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// GetBySlug retrieves one artist.
//
// Returns:
//   - error: repository.ErrNotFound if no artist has the slug.
func (r *ArtistRepo) GetBySlug(ctx context.Context, slug string) (*domain.Artist, error) {
	const op = "postgres.ArtistRepo.GetBySlug"

	db := r.handle()

	var a domain.Artist
	err := db.QueryRow(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE slug = $1`,
		slug,
	).Scan(&a.ID, &a.Name, &a.Slug, &a.Bio, &a.ImageURL, &a.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}
