package httpgin

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/kohakume/livegate/internal/domain"
	"github.com/kohakume/livegate/internal/payments"
	"github.com/kohakume/livegate/internal/repository"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
	"github.com/kohakume/livegate/internal/service"
	accesssvc "github.com/kohakume/livegate/internal/service/access"
	"github.com/kohakume/livegate/internal/service/checkout"
	websvc "github.com/kohakume/livegate/internal/service/webhook"
	"github.com/kohakume/livegate/internal/token"
)

const testWebhookSecret = "whsec_test"

type memLedger struct {
	bySession map[string]*domain.Purchase
	nextID    int64
}

func (m *memLedger) RecordCompletedCheckout(
	ctx context.Context,
	rec postgresrepo.CheckoutRecord,
	mint postgresrepo.MintFunc,
) (*domain.Purchase, bool, error) {
	if p, ok := m.bySession[rec.StripeSessionID]; ok {
		return p, false, nil
	}

	m.nextID++
	tok, expiresAt, err := mint(m.nextID)
	if err != nil {
		return nil, false, err
	}

	p := &domain.Purchase{
		ID:              m.nextID,
		EventID:         rec.EventID,
		TicketID:        rec.TicketID,
		StripeSessionID: rec.StripeSessionID,
		Status:          domain.PurchaseCompleted,
		AccessToken:     &tok,
		TokenExpiresAt:  &expiresAt,
	}
	m.bySession[rec.StripeSessionID] = p

	return p, true, nil
}

func (m *memLedger) MarkRefunded(ctx context.Context, paymentIntentID string) (int64, error) {
	return 0, nil
}

func (m *memLedger) EventTicketNames(ctx context.Context, eventID, ticketID int64) (string, string, error) {
	return "Night Show", "GA", nil
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *memLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	codec := token.NewCodec("secret", 30*24*time.Hour, 7*24*time.Hour, 24*time.Hour)
	ledger := &memLedger{bySession: map[string]*domain.Purchase{}}

	svcs := &service.Services{
		Webhook: websvc.New(ledger, codec, nil, nil, nil, logger),
	}

	r := NewRouter(svcs, codec, RouterConfig{WebhookSecret: testWebhookSecret}, logger)
	return r, ledger
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func signedRequest(t *testing.T, payload []byte) *http.Request {
	t.Helper()

	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", header)
	return req
}

func checkoutPayload(t *testing.T, eventID, sessionID string) []byte {
	t.Helper()

	b, err := json.Marshal(map[string]any{
		"id":   eventID,
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":             sessionID,
				"amount_total":   5000,
				"currency":       "usd",
				"payment_intent": "pi_1",
				"metadata": map[string]string{
					"event_id":   "7",
					"ticket_id":  "3",
					"event_slug": "night-show",
					"user_email": "buyer@example.com",
				},
			},
		},
	})
	require.NoError(t, err)
	return b
}

func TestWebhookEndpoint_ValidSignature(t *testing.T) {
	r, ledger := newWebhookRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, signedRequest(t, checkoutPayload(t, "evt_1", "cs_1")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	p := ledger.bySession["cs_1"]
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.EventID)
	assert.NotNil(t, p.AccessToken)
}

func TestWebhookEndpoint_BadSignature(t *testing.T) {
	r, ledger := newWebhookRouter(t)

	payload := checkoutPayload(t, "evt_1", "cs_1")
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ledger.bySession, "unverified payloads must not reach the ledger")
}

func TestWebhookEndpoint_MissingSignature(t *testing.T) {
	r, _ := newWebhookRouter(t)

	payload := checkoutPayload(t, "evt_1", "cs_1")
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(payload)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookEndpoint_RedeliveryAcknowledged(t *testing.T) {
	r, ledger := newWebhookRouter(t)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, signedRequest(t, checkoutPayload(t, "evt_1", "cs_1")))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, signedRequest(t, checkoutPayload(t, "evt_2", "cs_1")))
	require.Equal(t, http.StatusOK, w2.Code)

	assert.Len(t, ledger.bySession, 1)
}

type memCatalog struct {
	bySlug map[string]*domain.Event
}

func (m *memCatalog) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	e, ok := m.bySlug[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

type memTickets struct {
	byID map[int64]*domain.Ticket
}

func (m *memTickets) GetActive(ctx context.Context, ticketID, eventID int64) (*domain.Ticket, error) {
	tk, ok := m.byID[ticketID]
	if !ok || tk.EventID != eventID {
		return nil, repository.ErrNotFound
	}
	return tk, nil
}

type memPayments struct {
	calls int
}

func (m *memPayments) CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	m.calls++
	return &payments.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.com/pay/cs_new"}, nil
}

type memPurchases struct {
	byID map[int64]*domain.Purchase
}

func (m *memPurchases) GetByIDAndToken(ctx context.Context, id int64, tokenStr string) (*domain.Purchase, error) {
	p, ok := m.byID[id]
	if !ok || p.AccessToken == nil || *p.AccessToken != tokenStr {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

// newStorefrontRouter builds a router with in-memory checkout and access
// services. Log output is captured in logBuf.
func newStorefrontRouter(t *testing.T) (*gin.Engine, *token.Codec, *memPayments, *memPurchases, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logBuf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logBuf, nil))
	codec := token.NewCodec("secret", 30*24*time.Hour, 7*24*time.Hour, 24*time.Hour)

	stream := "https://cdn.example.com/live.m3u8"
	events := &memCatalog{bySlug: map[string]*domain.Event{
		"night-show": {ID: 7, Title: "Night Show", Slug: "night-show", Status: domain.EventLive, StreamURL: &stream},
	}}
	stock := int64(100)
	tickets := &memTickets{byID: map[int64]*domain.Ticket{
		3: {ID: 3, EventID: 7, Name: "GA", Price: 5000, Currency: "usd", Stock: &stock, IsActive: true},
	}}
	pc := &memPayments{}
	purchases := &memPurchases{byID: map[int64]*domain.Purchase{}}

	svcs := &service.Services{
		Checkout: checkout.New(events, tickets, pc, nil, checkout.Config{PublicURL: "https://watch.example.com"}),
		Access:   accesssvc.New(codec, events, purchases, nil, time.Hour, logger),
	}

	r := NewRouter(svcs, codec, RouterConfig{}, logger)
	return r, codec, pc, purchases, logBuf
}

func postJSON(t *testing.T, path string, body any, bearer string) *http.Request {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func TestCheckout_RequiresLogin(t *testing.T) {
	r, _, pc, _, _ := newStorefrontRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON(t, "/api/checkout", CheckoutRequest{EventSlug: "night-show", TicketID: 3}, ""))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, pc.calls)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.RequiresAuth, "401 body must tell the client to log in")
}

func TestCheckout_WithSession(t *testing.T) {
	r, codec, pc, _, _ := newStorefrontRouter(t)

	session, err := codec.MintUserSession(9, "fan@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON(t, "/api/checkout", CheckoutRequest{EventSlug: "night-show", TicketID: 3}, session))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, pc.calls)
	assert.Contains(t, w.Body.String(), "cs_new")
}

func addCompletedPurchase(t *testing.T, codec *token.Codec, purchases *memPurchases, id, eventID int64) string {
	t.Helper()

	tok, expiresAt, err := codec.MintAccess(id, eventID, "fan@example.com")
	require.NoError(t, err)

	purchases.byID[id] = &domain.Purchase{
		ID:             id,
		EventID:        eventID,
		Status:         domain.PurchaseCompleted,
		AccessToken:    &tok,
		TokenExpiresAt: &expiresAt,
	}
	return tok
}

func TestWatchVerify(t *testing.T) {
	r, codec, _, purchases, _ := newStorefrontRouter(t)
	tok := addCompletedPurchase(t, codec, purchases, 42, 7)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON(t, "/api/watch/verify", WatchRequest{Token: tok, EventSlug: "night-show"}, ""))

	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "night-show", resp.Event.Slug)
}

func TestWatchVerify_PurchaseRowGone(t *testing.T) {
	r, codec, _, _, _ := newStorefrontRouter(t)

	// Syntactically valid token whose purchase row does not exist.
	tok, _, err := codec.MintAccess(999, 7, "fan@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON(t, "/api/watch/verify", WatchRequest{Token: tok, EventSlug: "night-show"}, ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatch_TokenStaysOutOfLogs(t *testing.T) {
	r, codec, _, purchases, logBuf := newStorefrontRouter(t)
	tok := addCompletedPurchase(t, codec, purchases, 42, 7)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON(t, "/api/watch", WatchRequest{Token: tok, EventSlug: "night-show"}, ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cdn.example.com/live.m3u8")

	// The bearer capability travels in the body, so the request log never
	// sees it.
	assert.NotContains(t, logBuf.String(), tok)

	// The old query-string route is gone.
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/api/watch/night-show?token="+tok, nil))
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func TestHealthz(t *testing.T) {
	r, _ := newWebhookRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
