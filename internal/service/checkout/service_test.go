package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/payments"
	"github.com/kohakume/livegate/internal/repository"
)

type fakeEvents struct {
	bySlug map[string]*domain.Event
}

func (f *fakeEvents) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	e, ok := f.bySlug[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

type fakeTickets struct {
	byID map[int64]*domain.Ticket
}

func (f *fakeTickets) GetActive(ctx context.Context, ticketID, eventID int64) (*domain.Ticket, error) {
	t, ok := f.byID[ticketID]
	if !ok || t.EventID != eventID || !t.IsActive {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

type fakePayments struct {
	lastParams payments.CheckoutParams
	calls      int
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.calls++
	f.lastParams = p
	return &payments.CheckoutSession{
		ID:  "cs_test",
		URL: "https://checkout.stripe.com/pay/cs_test",
	}, nil
}

type denyingLimiter struct{}

func (denyingLimiter) Allow(ctx context.Context, id string) (bool, int64, time.Duration, error) {
	return false, 0, time.Minute, nil
}

func int64Ptr(v int64) *int64 { return &v }

func newFixture() (*Service, *fakeEvents, *fakeTickets, *fakePayments) {
	events := &fakeEvents{bySlug: map[string]*domain.Event{}}
	tickets := &fakeTickets{byID: map[int64]*domain.Ticket{}}
	pc := &fakePayments{}
	svc := New(events, tickets, pc, nil, Config{PublicURL: "https://watch.example.com"})
	return svc, events, tickets, pc
}

func liveEvent() *domain.Event {
	return &domain.Event{
		ID:     7,
		Title:  "Night Show",
		Slug:   "night-show",
		Status: domain.EventLive,
	}
}

func gaTicket(stock *int64, sold int64) *domain.Ticket {
	return &domain.Ticket{
		ID:       3,
		EventID:  7,
		Name:     "General Admission",
		Price:    5000,
		Currency: "usd",
		Stock:    stock,
		Sold:     sold,
		IsActive: true,
	}
}

func TestStart_CreatesSession(t *testing.T) {
	svc, events, tickets, pc := newFixture()
	events.bySlug["night-show"] = liveEvent()
	tickets.byID[3] = gaTicket(int64Ptr(100), 10)

	session, err := svc.Start(context.Background(), StartInput{
		EventSlug: "night-show",
		TicketID:  3,
		UserID:    9,
		UserEmail: "fan@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test", session.ID)
	assert.NotEmpty(t, session.URL)

	p := pc.lastParams
	assert.Equal(t, int64(5000), p.Amount)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, "fan@example.com", p.CustomerEmail)
	assert.Equal(t, "https://watch.example.com/success?session_id={CHECKOUT_SESSION_ID}", p.SuccessURL)
	assert.Equal(t, "https://watch.example.com/events/night-show", p.CancelURL)

	// The webhook correlates the payment back through this metadata.
	assert.Equal(t, "7", p.Metadata["event_id"])
	assert.Equal(t, "3", p.Metadata["ticket_id"])
	assert.Equal(t, "night-show", p.Metadata["event_slug"])
	assert.Equal(t, "9", p.Metadata["user_id"])
	assert.Equal(t, "fan@example.com", p.Metadata["user_email"])
}

func TestStart_BuyerAlwaysInMetadata(t *testing.T) {
	svc, events, tickets, pc := newFixture()
	events.bySlug["night-show"] = liveEvent()
	tickets.byID[3] = gaTicket(nil, 0)

	// Checkout is only reachable through a login session, so the webhook
	// can rely on the buyer being present in every session's metadata.
	_, err := svc.Start(context.Background(), StartInput{
		EventSlug: "night-show",
		TicketID:  3,
		UserID:    12,
		UserEmail: "buyer@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "12", pc.lastParams.Metadata["user_id"])
	assert.Equal(t, "buyer@example.com", pc.lastParams.Metadata["user_email"])
}

func TestStart_SoldOut(t *testing.T) {
	svc, events, tickets, pc := newFixture()
	events.bySlug["night-show"] = liveEvent()
	tickets.byID[3] = gaTicket(int64Ptr(1), 1)

	_, err := svc.Start(context.Background(), StartInput{EventSlug: "night-show", TicketID: 3})
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Zero(t, pc.calls)
}

func TestStart_UnlimitedStockNeverSellsOut(t *testing.T) {
	svc, events, tickets, _ := newFixture()
	events.bySlug["night-show"] = liveEvent()
	tickets.byID[3] = gaTicket(nil, 1_000_000)

	_, err := svc.Start(context.Background(), StartInput{EventSlug: "night-show", TicketID: 3})
	assert.NoError(t, err)
}

func TestStart_UnknownEvent(t *testing.T) {
	svc, _, _, _ := newFixture()

	_, err := svc.Start(context.Background(), StartInput{EventSlug: "nope", TicketID: 3})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestStart_DraftNotPurchasable(t *testing.T) {
	svc, events, tickets, _ := newFixture()
	e := liveEvent()
	e.Status = domain.EventDraft
	events.bySlug["night-show"] = e
	tickets.byID[3] = gaTicket(nil, 0)

	_, err := svc.Start(context.Background(), StartInput{EventSlug: "night-show", TicketID: 3})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestStart_TicketScopedToEvent(t *testing.T) {
	svc, events, tickets, _ := newFixture()
	events.bySlug["night-show"] = liveEvent()

	// Ticket belongs to a different event.
	tk := gaTicket(nil, 0)
	tk.EventID = 99
	tickets.byID[3] = tk

	_, err := svc.Start(context.Background(), StartInput{EventSlug: "night-show", TicketID: 3})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestStart_InactiveTicket(t *testing.T) {
	svc, events, tickets, _ := newFixture()
	events.bySlug["night-show"] = liveEvent()

	tk := gaTicket(nil, 0)
	tk.IsActive = false
	tickets.byID[3] = tk

	_, err := svc.Start(context.Background(), StartInput{EventSlug: "night-show", TicketID: 3})
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestStart_RateLimited(t *testing.T) {
	events := &fakeEvents{bySlug: map[string]*domain.Event{"night-show": liveEvent()}}
	tickets := &fakeTickets{byID: map[int64]*domain.Ticket{3: gaTicket(nil, 0)}}
	pc := &fakePayments{}
	svc := New(events, tickets, pc, denyingLimiter{}, Config{PublicURL: "https://watch.example.com"})

	_, err := svc.Start(context.Background(), StartInput{
		EventSlug: "night-show",
		TicketID:  3,
		ClientKey: "user:9",
	})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, pc.calls)
}
