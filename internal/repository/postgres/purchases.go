package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kohakume/livegate/internal/domain"
)

const purchaseColumns = `id, event_id, ticket_id, user_id, stripe_session_id,
	stripe_payment_intent, customer_email, customer_name, amount, currency,
	status, access_token, token_expires_at, purchased_at`

// CheckoutRecord carries everything a completed checkout webhook knows
// about the purchase being ledgered.
type CheckoutRecord struct {
	StripeSessionID     string
	StripePaymentIntent string
	EventID             int64
	TicketID            int64
	UserID              *int64
	CustomerEmail       string
	CustomerName        string
	Amount              int64
	Currency            string
}

// MintFunc produces the access token for a freshly created purchase row.
// It runs inside the ledger transaction; it must be pure.
type MintFunc func(purchaseID int64) (token string, expiresAt time.Time, err error)

type PurchaseRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PurchaseRepo) With(db DB) *PurchaseRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PurchaseRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// RecordCompletedCheckout ledgers a paid checkout session exactly once.
//
// In a single serializable transaction it inserts the purchase row in
// completed status, mints and attaches the access token, and increments the
// ticket's sold counter. The unique constraint on stripe_session_id makes
// redelivery safe: when the row already exists the existing purchase is
// returned with created=false and nothing is written.
//
// Returns:
//   - *domain.Purchase: the ledgered purchase (new or pre-existing).
//   - bool: true when this call created the row.
func (r *PurchaseRepo) RecordCompletedCheckout(
	ctx context.Context,
	rec CheckoutRecord,
	mint MintFunc,
) (*domain.Purchase, bool, error) {
	const op = "postgres.PurchaseRepo.RecordCompletedCheckout"

	if r.db != nil {
		p, created, err := r.recordCheckoutCore(ctx, r.db, rec, mint)
		if err != nil {
			return nil, false, wrapDBErr(op, err)
		}
		return p, created, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	p, created, err := r.recordCheckoutCore(ctx, tx, rec, mint)
	if err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	return p, created, nil
}

func (r *PurchaseRepo) recordCheckoutCore(
	ctx context.Context,
	db DB,
	rec CheckoutRecord,
	mint MintFunc,
) (*domain.Purchase, bool, error) {
	var paymentIntent *string
	if rec.StripePaymentIntent != "" {
		paymentIntent = &rec.StripePaymentIntent
	}

	var (
		id          int64
		purchasedAt time.Time
	)

	err := db.QueryRow(ctx,
		`INSERT INTO purchases (
			event_id, ticket_id, user_id, stripe_session_id,
			stripe_payment_intent, customer_email, customer_name,
			amount, currency, status
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'completed')
		 ON CONFLICT (stripe_session_id) DO NOTHING
		 RETURNING id, purchased_at`,
		rec.EventID, rec.TicketID, rec.UserID, rec.StripeSessionID,
		paymentIntent, rec.CustomerEmail, rec.CustomerName,
		rec.Amount, rec.Currency,
	).Scan(&id, &purchasedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// Session already ledgered by a previous delivery.
		existing, err := r.With(db).GetBySession(ctx, rec.StripeSessionID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	token, expiresAt, err := mint(id)
	if err != nil {
		return nil, false, err
	}

	if _, err := db.Exec(ctx,
		`UPDATE purchases SET access_token = $1, token_expires_at = $2 WHERE id = $3`,
		token, expiresAt, id,
	); err != nil {
		return nil, false, err
	}

	if _, err := db.Exec(ctx,
		`UPDATE tickets SET sold = sold + 1 WHERE id = $1`,
		rec.TicketID,
	); err != nil {
		return nil, false, err
	}

	p := &domain.Purchase{
		ID:                  id,
		EventID:             rec.EventID,
		TicketID:            rec.TicketID,
		UserID:              rec.UserID,
		StripeSessionID:     rec.StripeSessionID,
		StripePaymentIntent: paymentIntent,
		CustomerEmail:       rec.CustomerEmail,
		CustomerName:        rec.CustomerName,
		Amount:              rec.Amount,
		Currency:            rec.Currency,
		Status:              domain.PurchaseCompleted,
		AccessToken:         &token,
		TokenExpiresAt:      &expiresAt,
		PurchasedAt:         purchasedAt,
	}

	return p, true, nil
}

// MarkRefunded flips matching purchases to refunded status by Stripe
// payment-intent id. Inventory is not reversed. Returns the number of rows
// updated; zero means the refund arrived before (or without) the matching
// checkout completion and the caller should acknowledge it anyway.
func (r *PurchaseRepo) MarkRefunded(ctx context.Context, paymentIntentID string) (int64, error) {
	const op = "postgres.PurchaseRepo.MarkRefunded"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE purchases SET status = 'refunded' WHERE stripe_payment_intent = $1`,
		paymentIntentID,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

// GetByIDAndToken retrieves a purchase only when both the id and the stored
// access token match. Requiring the token string defends against a validly
// signed token being replayed against a different purchase row.
//
// Returns:
//   - error: repository.ErrNotFound if no row matches both.
func (r *PurchaseRepo) GetByIDAndToken(ctx context.Context, id int64, token string) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.GetByIDAndToken"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+purchaseColumns+`
		 FROM purchases
		 WHERE id = $1 AND access_token = $2`,
		id, token,
	)

	p, err := scanPurchase(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

// GetBySession retrieves a purchase by its Stripe checkout-session id.
func (r *PurchaseRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	const op = "postgres.PurchaseRepo.GetBySession"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+purchaseColumns+`
		 FROM purchases
		 WHERE stripe_session_id = $1`,
		sessionID,
	)

	p, err := scanPurchase(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

// ListForUser lists a user's purchases with event and ticket names, newest
// first.
func (r *PurchaseRepo) ListForUser(ctx context.Context, userID int64) ([]domain.PurchaseWithDetails, error) {
	const op = "postgres.PurchaseRepo.ListForUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT p.id, p.event_id, p.ticket_id, p.user_id, p.stripe_session_id,
		        p.stripe_payment_intent, p.customer_email, p.customer_name,
		        p.amount, p.currency, p.status, p.access_token,
		        p.token_expires_at, p.purchased_at,
		        e.title, e.slug, t.name
		 FROM purchases p
		 JOIN events e ON e.id = p.event_id
		 JOIN tickets t ON t.id = p.ticket_id
		 WHERE p.user_id = $1
		 ORDER BY p.purchased_at DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.PurchaseWithDetails
	for rows.Next() {
		var d domain.PurchaseWithDetails
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.TicketID, &d.UserID, &d.StripeSessionID,
			&d.StripePaymentIntent, &d.CustomerEmail, &d.CustomerName,
			&d.Amount, &d.Currency, &d.Status, &d.AccessToken,
			&d.TokenExpiresAt, &d.PurchasedAt,
			&d.EventTitle, &d.EventSlug, &d.TicketName,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListAll lists purchases for admin screens, newest first.
func (r *PurchaseRepo) ListAll(ctx context.Context, limit, offset int) ([]domain.PurchaseWithDetails, error) {
	const op = "postgres.PurchaseRepo.ListAll"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT p.id, p.event_id, p.ticket_id, p.user_id, p.stripe_session_id,
		        p.stripe_payment_intent, p.customer_email, p.customer_name,
		        p.amount, p.currency, p.status, p.access_token,
		        p.token_expires_at, p.purchased_at,
		        e.title, e.slug, t.name
		 FROM purchases p
		 JOIN events e ON e.id = p.event_id
		 JOIN tickets t ON t.id = p.ticket_id
		 ORDER BY p.purchased_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.PurchaseWithDetails
	for rows.Next() {
		var d domain.PurchaseWithDetails
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.TicketID, &d.UserID, &d.StripeSessionID,
			&d.StripePaymentIntent, &d.CustomerEmail, &d.CustomerName,
			&d.Amount, &d.Currency, &d.Status, &d.AccessToken,
			&d.TokenExpiresAt, &d.PurchasedAt,
			&d.EventTitle, &d.EventSlug, &d.TicketName,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// EventTicketNames resolves the display names referenced by a purchase,
// used for confirmation email content.
func (r *PurchaseRepo) EventTicketNames(ctx context.Context, eventID, ticketID int64) (eventTitle, ticketName string, err error) {
	const op = "postgres.PurchaseRepo.EventTicketNames"

	db := r.handle()

	err = db.QueryRow(ctx,
		`SELECT e.title, t.name
		 FROM events e
		 JOIN tickets t ON t.event_id = e.id
		 WHERE e.id = $1 AND t.id = $2`,
		eventID, ticketID,
	).Scan(&eventTitle, &ticketName)
	if err != nil {
		return "", "", wrapDBErr(op, err)
	}

	return eventTitle, ticketName, nil
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(
		&p.ID, &p.EventID, &p.TicketID, &p.UserID, &p.StripeSessionID,
		&p.StripePaymentIntent, &p.CustomerEmail, &p.CustomerName,
		&p.Amount, &p.Currency, &p.Status, &p.AccessToken,
		&p.TokenExpiresAt, &p.PurchasedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
