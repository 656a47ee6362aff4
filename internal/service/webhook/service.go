package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/mailer"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
)

// Outcome classifies how a delivery was handled. Every outcome except a
// returned error is acknowledged to Stripe with a 2xx so the event is not
// redelivered.
type Outcome int

const (
	// OutcomeIgnored means the event type is not one we handle.
	OutcomeIgnored Outcome = iota
	// OutcomeProcessed means this delivery changed state.
	OutcomeProcessed
	// OutcomeDuplicate means the event was already processed by an earlier
	// delivery.
	OutcomeDuplicate
	// OutcomeSkipped means the event was recognized but carried nothing
	// actionable, for example a checkout without correlation metadata or a
	// refund with no matching purchase.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "ignored"
	}
}

// Ledger is the slice of the purchase store the webhook pipeline writes to.
type Ledger interface {
	RecordCompletedCheckout(ctx context.Context, rec postgresrepo.CheckoutRecord, mint postgresrepo.MintFunc) (*domain.Purchase, bool, error)
	MarkRefunded(ctx context.Context, paymentIntentID string) (int64, error)
	EventTicketNames(ctx context.Context, eventID, ticketID int64) (string, string, error)
}

// Minter issues the access token attached to a freshly ledgered purchase.
type Minter interface {
	MintAccess(purchaseID, eventID int64, email string) (string, time.Time, error)
}

// Mailer sends the purchase confirmation. Delivery is best effort.
type Mailer interface {
	SendPurchaseConfirmation(ctx context.Context, email mailer.PurchaseEmail) error
}

// Deduper is an optional fast-path that short-circuits redeliveries before
// they hit the database. The unique constraint on stripe_session_id remains
// the authoritative guard; losing redis only costs extra round trips.
type Deduper interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, payload string) error
	GetResult(ctx context.Context, key string) (string, bool, error)
	Release(ctx context.Context, key string) error
}

type Service struct {
	ledger Ledger
	minter Minter
	mailer Mailer
	dedup  Deduper
	keyFn  func(stripeEventID string) string
	log    *slog.Logger
}

func New(
	ledger Ledger,
	minter Minter,
	m Mailer,
	dedup Deduper,
	keyFn func(stripeEventID string) string,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		ledger: ledger,
		minter: minter,
		mailer: m,
		dedup:  dedup,
		keyFn:  keyFn,
		log:    log,
	}
}

// ProcessEvent handles one signature-verified Stripe event. It is safe to
// call with the same event any number of times.
//
// Returns:
//   - Outcome: how the delivery was classified.
//   - error: only for transient failures where Stripe should redeliver.
func (s *Service) ProcessEvent(ctx context.Context, event stripe.Event) (Outcome, error) {
	const op = "service.webhook.ProcessEvent"

	switch event.Type {
	case "checkout.session.completed", "charge.refunded":
	default:
		return OutcomeIgnored, nil
	}

	release := func() {}
	if s.dedup != nil && event.ID != "" {
		key := s.keyFn(event.ID)

		if _, seen, err := s.dedup.GetResult(ctx, key); err == nil && seen {
			return OutcomeDuplicate, nil
		}

		locked, err := s.dedup.AcquireLock(ctx, key, 30*time.Second)
		if err == nil && !locked {
			// A concurrent delivery of the same event holds the lock.
			return OutcomeDuplicate, nil
		}
		if err == nil {
			release = func() { _ = s.dedup.Release(ctx, key) }
		}
	}

	var (
		outcome Outcome
		err     error
	)

	switch event.Type {
	case "checkout.session.completed":
		outcome, err = s.handleCheckoutCompleted(ctx, event)
	case "charge.refunded":
		outcome, err = s.handleChargeRefunded(ctx, event)
	}

	if err != nil {
		release()
		return outcome, fmt.Errorf("%s:%w", op, err)
	}

	if s.dedup != nil && event.ID != "" {
		if err := s.dedup.SaveResult(ctx, s.keyFn(event.ID), outcome.String()); err != nil {
			s.log.Warn("webhook dedup save failed", "event_id", event.ID, "error", err)
		}
	}

	return outcome, nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) (Outcome, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return OutcomeSkipped, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	rec, err := checkoutRecordFromSession(&session)
	if err != nil {
		// Metadata from a foreign checkout session, or one created before
		// metadata was attached. Nothing to correlate; acknowledge and move
		// on rather than let Stripe retry forever.
		s.log.Warn("checkout session without correlation metadata",
			"event_id", event.ID, "session_id", session.ID, "error", err)
		return OutcomeSkipped, nil
	}

	mint := func(purchaseID int64) (string, time.Time, error) {
		return s.minter.MintAccess(purchaseID, rec.EventID, rec.CustomerEmail)
	}

	purchase, created, err := s.ledger.RecordCompletedCheckout(ctx, *rec, mint)
	if err != nil {
		return OutcomeSkipped, err
	}

	if !created {
		return OutcomeDuplicate, nil
	}

	s.sendConfirmation(ctx, purchase, session.Metadata["event_slug"])

	return OutcomeProcessed, nil
}

func (s *Service) handleChargeRefunded(ctx context.Context, event stripe.Event) (Outcome, error) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return OutcomeSkipped, fmt.Errorf("unmarshal charge: %w", err)
	}

	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		s.log.Warn("refund without payment intent", "event_id", event.ID)
		return OutcomeSkipped, nil
	}

	rows, err := s.ledger.MarkRefunded(ctx, charge.PaymentIntent.ID)
	if err != nil {
		return OutcomeSkipped, err
	}

	if rows == 0 {
		// Refund delivered before (or without) the matching completion.
		// Acknowledge it; the completion handler will still ledger the
		// purchase if it ever arrives.
		s.log.Warn("refund without matching purchase",
			"event_id", event.ID, "payment_intent", charge.PaymentIntent.ID)
		return OutcomeSkipped, nil
	}

	return OutcomeProcessed, nil
}

// sendConfirmation emails the buyer their watch link. Failures are logged
// and swallowed: the purchase is already committed and the token is
// retrievable from the success page.
func (s *Service) sendConfirmation(ctx context.Context, p *domain.Purchase, eventSlug string) {
	if s.mailer == nil || p.AccessToken == nil {
		return
	}

	eventTitle, ticketName, err := s.ledger.EventTicketNames(ctx, p.EventID, p.TicketID)
	if err != nil {
		s.log.Warn("confirmation email lookup failed", "purchase_id", p.ID, "error", err)
		return
	}

	err = s.mailer.SendPurchaseConfirmation(ctx, mailer.PurchaseEmail{
		To:          p.CustomerEmail,
		Name:        p.CustomerName,
		EventTitle:  eventTitle,
		EventSlug:   eventSlug,
		TicketName:  ticketName,
		Amount:      p.Amount,
		Currency:    p.Currency,
		AccessToken: *p.AccessToken,
	})
	if err != nil {
		s.log.Warn("confirmation email send failed", "purchase_id", p.ID, "error", err)
	}
}

// checkoutRecordFromSession extracts the ledger row from the session's
// metadata and payment fields. event_id and ticket_id are required; a
// session missing either cannot be correlated to a purchase.
func checkoutRecordFromSession(session *stripe.CheckoutSession) (*postgresrepo.CheckoutRecord, error) {
	eventID, err := strconv.ParseInt(session.Metadata["event_id"], 10, 64)
	if err != nil || eventID <= 0 {
		return nil, fmt.Errorf("%w: event_id", ErrMissingCorrelation)
	}

	ticketID, err := strconv.ParseInt(session.Metadata["ticket_id"], 10, 64)
	if err != nil || ticketID <= 0 {
		return nil, fmt.Errorf("%w: ticket_id", ErrMissingCorrelation)
	}

	var userID *int64
	if raw := session.Metadata["user_id"]; raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			userID = &id
		}
	}

	email := session.Metadata["user_email"]
	name := ""
	if session.CustomerDetails != nil {
		if email == "" {
			email = session.CustomerDetails.Email
		}
		name = session.CustomerDetails.Name
	}

	var paymentIntent string
	if session.PaymentIntent != nil {
		paymentIntent = session.PaymentIntent.ID
	}

	return &postgresrepo.CheckoutRecord{
		StripeSessionID:     session.ID,
		StripePaymentIntent: paymentIntent,
		EventID:             eventID,
		TicketID:            ticketID,
		UserID:              userID,
		CustomerEmail:       email,
		CustomerName:        name,
		Amount:              session.AmountTotal,
		Currency:            string(session.Currency),
	}, nil
}
