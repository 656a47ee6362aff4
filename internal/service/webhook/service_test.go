package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/mailer"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
)

type fakeLedger struct {
	bySession  map[string]*domain.Purchase
	nextID     int64
	refundRows int64
	refunded   []string
	recordErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{bySession: map[string]*domain.Purchase{}}
}

func (f *fakeLedger) RecordCompletedCheckout(
	ctx context.Context,
	rec postgresrepo.CheckoutRecord,
	mint postgresrepo.MintFunc,
) (*domain.Purchase, bool, error) {
	if f.recordErr != nil {
		return nil, false, f.recordErr
	}

	if existing, ok := f.bySession[rec.StripeSessionID]; ok {
		return existing, false, nil
	}

	f.nextID++
	id := f.nextID

	tok, expiresAt, err := mint(id)
	if err != nil {
		return nil, false, err
	}

	p := &domain.Purchase{
		ID:              id,
		EventID:         rec.EventID,
		TicketID:        rec.TicketID,
		UserID:          rec.UserID,
		StripeSessionID: rec.StripeSessionID,
		CustomerEmail:   rec.CustomerEmail,
		CustomerName:    rec.CustomerName,
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		Status:          domain.PurchaseCompleted,
		AccessToken:     &tok,
		TokenExpiresAt:  &expiresAt,
		PurchasedAt:     time.Now(),
	}
	f.bySession[rec.StripeSessionID] = p

	return p, true, nil
}

func (f *fakeLedger) MarkRefunded(ctx context.Context, paymentIntentID string) (int64, error) {
	f.refunded = append(f.refunded, paymentIntentID)
	return f.refundRows, nil
}

func (f *fakeLedger) EventTicketNames(ctx context.Context, eventID, ticketID int64) (string, string, error) {
	return "Night Show", "General Admission", nil
}

type fakeMinter struct{}

func (fakeMinter) MintAccess(purchaseID, eventID int64, email string) (string, time.Time, error) {
	return fmt.Sprintf("tok-%d-%d", purchaseID, eventID), time.Now().Add(30 * 24 * time.Hour), nil
}

type fakeMailer struct {
	sent []mailer.PurchaseEmail
}

func (f *fakeMailer) SendPurchaseConfirmation(ctx context.Context, email mailer.PurchaseEmail) error {
	f.sent = append(f.sent, email)
	return nil
}

func checkoutEvent(t *testing.T, eventID, sessionID string, metadata map[string]string) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":             sessionID,
		"amount_total":   5000,
		"currency":       "usd",
		"payment_intent": "pi_1",
		"metadata":       metadata,
		"customer_details": map[string]any{
			"email": "buyer@example.com",
			"name":  "Buyer",
		},
	})
	require.NoError(t, err)

	return stripe.Event{
		ID:   eventID,
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func refundEvent(t *testing.T, eventID, paymentIntentID string) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":             "ch_1",
		"payment_intent": paymentIntentID,
	})
	require.NoError(t, err)

	return stripe.Event{
		ID:   eventID,
		Type: "charge.refunded",
		Data: &stripe.EventData{Raw: raw},
	}
}

func validMetadata() map[string]string {
	return map[string]string{
		"event_id":   "7",
		"ticket_id":  "3",
		"event_slug": "night-show",
		"user_email": "buyer@example.com",
	}
}

func TestProcessEvent_CheckoutCompleted(t *testing.T) {
	ledger := newFakeLedger()
	mail := &fakeMailer{}
	svc := New(ledger, fakeMinter{}, mail, nil, nil, nil)

	outcome, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_1", "cs_1", validMetadata()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	p := ledger.bySession["cs_1"]
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.EventID)
	assert.Equal(t, int64(3), p.TicketID)
	assert.Equal(t, domain.PurchaseCompleted, p.Status)
	require.NotNil(t, p.AccessToken)
	require.NotNil(t, p.TokenExpiresAt)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "buyer@example.com", mail.sent[0].To)
	assert.Equal(t, "night-show", mail.sent[0].EventSlug)
	assert.Equal(t, *p.AccessToken, mail.sent[0].AccessToken)
}

func TestProcessEvent_Redelivery(t *testing.T) {
	ledger := newFakeLedger()
	mail := &fakeMailer{}
	svc := New(ledger, fakeMinter{}, mail, nil, nil, nil)

	first, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_1", "cs_1", validMetadata()))
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, first)

	// Same session id delivered again, possibly under a different event id.
	second, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_2", "cs_1", validMetadata()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second)

	assert.Len(t, ledger.bySession, 1)
	assert.Len(t, mail.sent, 1, "confirmation must only go out on first processing")
}

func TestProcessEvent_MissingMetadata(t *testing.T) {
	ledger := newFakeLedger()
	svc := New(ledger, fakeMinter{}, nil, nil, nil, nil)

	for name, metadata := range map[string]map[string]string{
		"empty":          {},
		"no event_id":    {"ticket_id": "3"},
		"no ticket_id":   {"event_id": "7"},
		"non-numeric id": {"event_id": "abc", "ticket_id": "3"},
	} {
		outcome, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_1", "cs_x", metadata))
		require.NoError(t, err, name)
		assert.Equal(t, OutcomeSkipped, outcome, name)
		assert.Empty(t, ledger.bySession, name)
	}
}

func TestProcessEvent_Refund(t *testing.T) {
	ledger := newFakeLedger()
	ledger.refundRows = 1
	svc := New(ledger, fakeMinter{}, nil, nil, nil, nil)

	outcome, err := svc.ProcessEvent(context.Background(), refundEvent(t, "evt_9", "pi_1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)
	assert.Equal(t, []string{"pi_1"}, ledger.refunded)
}

func TestProcessEvent_RefundBeforeCompletion(t *testing.T) {
	ledger := newFakeLedger()
	ledger.refundRows = 0
	svc := New(ledger, fakeMinter{}, nil, nil, nil, nil)

	// No matching purchase yet: acknowledge rather than have Stripe retry.
	outcome, err := svc.ProcessEvent(context.Background(), refundEvent(t, "evt_9", "pi_unknown"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestProcessEvent_UnhandledType(t *testing.T) {
	ledger := newFakeLedger()
	svc := New(ledger, fakeMinter{}, nil, nil, nil, nil)

	outcome, err := svc.ProcessEvent(context.Background(), stripe.Event{
		ID:   "evt_5",
		Type: "invoice.paid",
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, ledger.bySession)
}

func TestProcessEvent_LedgerFailureIsRetryable(t *testing.T) {
	ledger := newFakeLedger()
	ledger.recordErr = fmt.Errorf("connection reset")
	svc := New(ledger, fakeMinter{}, nil, nil, nil, nil)

	_, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_1", "cs_1", validMetadata()))
	assert.Error(t, err)
}

type fakeDeduper struct {
	results map[string]string
	locks   map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{results: map[string]string{}, locks: map[string]bool{}}
}

func (f *fakeDeduper) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	if f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *fakeDeduper) SaveResult(ctx context.Context, key string, payload string) error {
	f.results[key] = payload
	return nil
}

func (f *fakeDeduper) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, ok := f.results[key]
	return v, ok, nil
}

func (f *fakeDeduper) Release(ctx context.Context, key string) error {
	delete(f.locks, key)
	return nil
}

func TestProcessEvent_DedupFastPath(t *testing.T) {
	ledger := newFakeLedger()
	dedup := newFakeDeduper()
	keyFn := func(id string) string { return "wh:" + id }
	svc := New(ledger, fakeMinter{}, nil, dedup, keyFn, nil)

	first, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_1", "cs_1", validMetadata()))
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, first)
	require.Len(t, ledger.bySession, 1)

	// Redelivery of the same Stripe event id never reaches the ledger.
	ledger.recordErr = fmt.Errorf("ledger must not be called")
	second, err := svc.ProcessEvent(context.Background(), checkoutEvent(t, "evt_1", "cs_1", validMetadata()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second)
}
