package stripe

import (
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/charge"
	"github.com/stripe/stripe-go/v75/invoice"
	"github.com/stripe/stripe-go/v75/subscription"
)

// Provider is the slice of the Stripe API the reconciler depends on.
// Injected so tests can substitute a fake (no live Stripe calls in tests).
type Provider interface {
	ListSubscriptions(customerID string) ([]*stripe.Subscription, error)
	GetInvoice(invoiceID string) (*stripe.Invoice, error)
	ListCharges(customerID string, limit int64) ([]*stripe.Charge, error)
}

// Client is the live implementation backed by the stripe-go package-level
// API. stripe.Key must be set before use (done in config.LoadEnv).
type Client struct{}

func NewClient() Client {
	return Client{}
}

func (Client) ListSubscriptions(customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}

	it := subscription.List(params)

	var subs []*stripe.Subscription
	for it.Next() {
		subs = append(subs, it.Subscription())
	}
	return subs, it.Err()
}

func (Client) GetInvoice(invoiceID string) (*stripe.Invoice, error) {
	return invoice.Get(invoiceID, nil)
}

func (Client) ListCharges(customerID string, limit int64) ([]*stripe.Charge, error) {
	params := &stripe.ChargeListParams{
		Customer: stripe.String(customerID),
	}
	params.Limit = stripe.Int64(limit)

	it := charge.List(params)

	var charges []*stripe.Charge
	for it.Next() {
		charges = append(charges, it.Charge())
	}
	return charges, it.Err()
}
