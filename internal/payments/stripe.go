package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// CheckoutParams describes one hosted checkout session. Metadata is the
// correlation payload the webhook stage reads back; it must carry every
// identifier needed to ledger the purchase, because the webhook event
// itself only carries Stripe ids.
type CheckoutParams struct {
	Amount        int64
	Currency      string
	ProductName   string
	Description   string
	ImageURL      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Client wraps the Stripe API surface this service uses.
type Client struct {
	sc *client.API
}

func NewClient(secretKey string) *Client {
	return &Client{sc: client.New(secretKey, nil)}
}

// CreateCheckoutSession opens a hosted payment-mode checkout session for a
// single line item.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	const op = "payments.Client.CreateCheckoutSession"

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(p.ProductName),
	}
	if p.Description != "" {
		productData.Description = stripe.String(p.Description)
	}
	if p.ImageURL != "" {
		productData.Images = stripe.StringSlice([]string{p.ImageURL})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(p.Currency),
					UnitAmount:  stripe.Int64(p.Amount),
					ProductData: productData,
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent authenticates a webhook delivery against the raw payload
// bytes. A minor API-version skew between the SDK and the sending account
// is tolerated; a bad signature is not.
func VerifyEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
