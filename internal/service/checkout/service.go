package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/payments"
	"github.com/kohakume/livegate/internal/repository"
)

// EventGetter resolves the event being purchased.
type EventGetter interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
}

// TicketGetter resolves an active ticket scoped to its event.
type TicketGetter interface {
	GetActive(ctx context.Context, ticketID, eventID int64) (*domain.Ticket, error)
}

// PaymentClient creates hosted checkout sessions.
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error)
}

// Limiter throttles checkout attempts per client. Optional.
type Limiter interface {
	Allow(ctx context.Context, id string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Config struct {
	// PublicURL is the storefront origin redirected back to after payment.
	PublicURL string
}

// StartInput identifies what is being bought and who is buying it. The
// buyer always comes from a verified login session; there is no guest
// checkout.
type StartInput struct {
	EventSlug string
	TicketID  int64
	UserID    int64
	UserEmail string
	ClientKey string
}

type Service struct {
	events   EventGetter
	tickets  TicketGetter
	payments PaymentClient
	limiter  Limiter
	cfg      Config
}

func New(
	events EventGetter,
	tickets TicketGetter,
	pc PaymentClient,
	limiter Limiter,
	cfg Config,
) *Service {
	return &Service{
		events:   events,
		tickets:  tickets,
		payments: pc,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Start validates the purchase and creates a hosted checkout session for it.
//
// The inventory check here is advisory: it stops checkouts for tickets that
// are already gone, but the sold counter only moves when the payment
// completes, so a ticket can still sell out while a session is open.
//
// Returns:
//   - *payments.CheckoutSession: id and redirect URL of the created session.
//   - error: checkout.ErrEventNotFound, ErrTicketNotFound, ErrSoldOut or
//     ErrRateLimited.
func (s *Service) Start(ctx context.Context, in StartInput) (*payments.CheckoutSession, error) {
	const op = "service.checkout.Start"

	if s.limiter != nil && in.ClientKey != "" {
		ok, _, _, err := s.limiter.Allow(ctx, in.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, ErrRateLimited)
		}
	}

	event, err := s.events.GetBySlug(ctx, in.EventSlug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	// Drafts are invisible to the storefront, so they are not purchasable
	// either.
	if event.Status == domain.EventDraft {
		return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
	}

	ticket, err := s.tickets.GetActive(ctx, in.TicketID, event.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if ticket.SoldOut() {
		return nil, fmt.Errorf("%s:%w", op, ErrSoldOut)
	}

	metadata := map[string]string{
		"event_id":   strconv.FormatInt(event.ID, 10),
		"ticket_id":  strconv.FormatInt(ticket.ID, 10),
		"event_slug": event.Slug,
		"user_id":    strconv.FormatInt(in.UserID, 10),
		"user_email": in.UserEmail,
	}

	description := ticket.Name
	if ticket.Description != nil && *ticket.Description != "" {
		description = *ticket.Description
	}

	var imageURL string
	if event.ThumbnailURL != nil {
		imageURL = *event.ThumbnailURL
	}

	session, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Amount:        ticket.Price,
		Currency:      ticket.Currency,
		ProductName:   fmt.Sprintf("%s - %s", event.Title, ticket.Name),
		Description:   description,
		ImageURL:      imageURL,
		CustomerEmail: in.UserEmail,
		SuccessURL:    s.cfg.PublicURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.cfg.PublicURL + "/events/" + event.Slug,
		Metadata:      metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return session, nil
}
