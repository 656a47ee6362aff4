package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kohakume/livegate/internal/domain"
)

const ticketColumns = `id, event_id, name, description, price, currency,
	stock, sold, is_active, created_at`

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetActive retrieves an active ticket scoped to the given event.
//
// Returns:
//   - error: repository.ErrNotFound if no active ticket matches both ids.
func (r *TicketRepo) GetActive(ctx context.Context, ticketID, eventID int64) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.GetActive"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+ticketColumns+`
		 FROM tickets
		 WHERE id = $1 AND event_id = $2 AND is_active = true`,
		ticketID, eventID,
	)

	t, err := scanTicket(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return t, nil
}

// ListForEvent lists tickets of an event, active ones only when activeOnly
// is set.
func (r *TicketRepo) ListForEvent(ctx context.Context, eventID int64, activeOnly bool) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListForEvent"

	db := r.handle()

	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1`
	if activeOnly {
		q += ` AND is_active = true`
	}
	q += ` ORDER BY price, id`

	rows, err := db.Query(ctx, q, eventID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// IncrementSold bumps the sold counter by one in a single UPDATE so that
// concurrent purchases cannot lose updates.
func (r *TicketRepo) IncrementSold(ctx context.Context, ticketID int64) error {
	const op = "postgres.TicketRepo.IncrementSold"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE tickets SET sold = sold + 1 WHERE id = $1`,
		ticketID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// Insert creates a ticket and returns its id.
func (r *TicketRepo) Insert(ctx context.Context, t *domain.Ticket) (int64, error) {
	const op = "postgres.TicketRepo.Insert"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO tickets (event_id, name, description, price, currency, stock, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		t.EventID, t.Name, t.Description, t.Price, t.Currency, t.Stock, t.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// Update rewrites the mutable columns of a ticket. The sold counter is
// never written here; it moves only through IncrementSold.
func (r *TicketRepo) Update(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE tickets
		 SET name = $2, description = $3, price = $4, currency = $5,
		     stock = $6, is_active = $7
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Price, t.Currency, t.Stock, t.IsActive,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.EventID, &t.Name, &t.Description, &t.Price, &t.Currency,
		&t.Stock, &t.Sold, &t.IsActive, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
