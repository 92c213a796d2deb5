package payment

import (
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"
	"github.com/stripe/stripe-go/v74/subscription"
	"github.com/stripe/stripe-go/v74/webhook"
)

type StripeService struct {
	secretKey string
}

func NewStripeService(secretKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		secretKey: secretKey,
	}
}

// VerifyWebhookEvent checks the Stripe-Signature HMAC against the shared
// webhook secret and returns the typed event. A missing or forged signature
// is a terminal failure; the caller rejects the request with 400.
func VerifyWebhookEvent(payload []byte, signatureHeader, webhookSecret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
}

// CheckoutParams describes the session to open. Metadata must include the
// internal userId so the webhook can resolve the purchaser.
type CheckoutParams struct {
	CustomerEmail string
	PriceID       string
	Subscription  bool
	Metadata      map[string]string
}

func (s *StripeService) CreateCheckoutSession(p CheckoutParams) (*stripe.CheckoutSession, error) {
	mode := stripe.CheckoutSessionModePayment
	if p.Subscription {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail: stripe.String(p.CustomerEmail),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String("https://app.brightpath.io/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String("https://app.brightpath.io/payment/cancel"),
	}
	for key, value := range p.Metadata {
		params.AddMetadata(key, value)
	}

	return session.New(params)
}

// CreateAdHocPrice registers a one-off product and price for packages that
// have no preconfigured Stripe price ID.
func (s *StripeService) CreateAdHocPrice(name, description string, amountUSD float64) (string, error) {
	prod, err := product.New(&stripe.ProductParams{
		Name:        stripe.String(name),
		Description: stripe.String(description),
	})
	if err != nil {
		return "", err
	}

	p, err := price.New(&stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(int64(amountUSD * 100)), // USD to cents
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *StripeService) ListLineItems(sessionID string) ([]*stripe.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Limit = stripe.Int64(10)

	var items []*stripe.LineItem
	iter := session.ListLineItems(params)
	for iter.Next() {
		items = append(items, iter.LineItem())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list line items for %s: %w", sessionID, err)
	}
	return items, nil
}

// GetSubscription fetches the subscription behind a settled subscription
// checkout; its current period end is the authoritative expiry for the
// premium window.
func (s *StripeService) GetSubscription(subscriptionID string) (*stripe.Subscription, error) {
	return subscription.Get(subscriptionID, nil)
}
