package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kohakume/livegate/internal/domain"
)

const eventColumns = `id, artist_id, title, slug, description, thumbnail_url,
	stream_url, archive_url, status, start_time, end_time, created_at, updated_at`

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetBySlug retrieves an event by its unique slug.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if no event has the slug.
func (r *EventRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetBySlug"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE slug = $1`,
		slug,
	)

	e, err := scanEvent(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// GetByID retrieves an event by id.
//
// Returns:
//   - error: repository.ErrNotFound if the event does not exist.
func (r *EventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetByID"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	)

	e, err := scanEvent(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// ListPublished lists events visible to the public catalog, newest first.
// Draft events are excluded.
func (r *EventRepo) ListPublished(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListPublished"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE status <> 'draft'
		 ORDER BY start_time DESC NULLS LAST, id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Insert creates an event and returns its id.
//
// Returns:
//   - error: repository.ErrConflict if the slug is already taken.
func (r *EventRepo) Insert(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgres.EventRepo.Insert"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO events (artist_id, title, slug, description, thumbnail_url,
		                     stream_url, archive_url, status, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		e.ArtistID, e.Title, e.Slug, e.Description, e.ThumbnailURL,
		e.StreamURL, e.ArchiveURL, e.Status, e.StartTime, e.EndTime,
	).Scan(&id)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// Update rewrites the mutable columns of an event.
//
// Returns:
//   - error: repository.ErrNotFound if the event does not exist.
//   - error: repository.ErrConflict if the new slug is already taken.
func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	const op = "postgres.EventRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events
		 SET title = $2, slug = $3, description = $4, thumbnail_url = $5,
		     stream_url = $6, archive_url = $7, status = $8,
		     start_time = $9, end_time = $10, updated_at = now()
		 WHERE id = $1`,
		e.ID, e.Title, e.Slug, e.Description, e.ThumbnailURL,
		e.StreamURL, e.ArchiveURL, e.Status, e.StartTime, e.EndTime,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.ArtistID, &e.Title, &e.Slug, &e.Description, &e.ThumbnailURL,
		&e.StreamURL, &e.ArchiveURL, &e.Status, &e.StartTime, &e.EndTime,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}
