package stripewebhooks

import (
	"errors"
	"fmt"
	"strconv"

	"covetalks-api/database"
	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/reconcile"

	"github.com/stripe/stripe-go/v75"
)

// handleCheckoutSessionCompleted links the Stripe customer to the account
// (first billing interaction) and reconciles so the new subscription and its
// first invoice land in our records immediately.
func handleCheckoutSessionCompleted(reconciler *reconcile.Reconciler, session *stripe.CheckoutSession) error {
	accountID := accountIDFromSession(session)
	if accountID == 0 {
		return errors.New("checkout session missing account reference (client_reference_id or metadata.account_id)")
	}

	var account accounts.Account
	if err := database.DB.First(&account, accountID).Error; err != nil {
		return fmt.Errorf("account not found: %w", err)
	}

	if session.Customer != nil && session.Customer.ID != "" {
		if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
			if err := database.DB.Model(&accounts.Account{}).
				Where("id = ?", account.ID).
				Update("stripe_customer_id", session.Customer.ID).Error; err != nil {
				return fmt.Errorf("failed to store Stripe customer: %w", err)
			}
		}
	}

	_, err := reconciler.Reconcile(account.ID)
	return err
}

// handleSubscriptionEvent resolves the account by its Stripe customer and
// reconciles. Updated and deleted events take the same path: the reconciler
// reads the full provider state anyway.
func handleSubscriptionEvent(reconciler *reconcile.Reconciler, sub *stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil
	}

	var account accounts.Account
	if accountID := accountIDFromMetadata(sub.Metadata); accountID != 0 {
		if err := database.DB.First(&account, accountID).Error; err != nil {
			// acknowledge to avoid Stripe retries if the account was deleted
			return nil
		}
	} else {
		if err := database.DB.Where("stripe_customer_id = ?", sub.Customer.ID).First(&account).Error; err != nil {
			return nil
		}
	}

	_, err := reconciler.Reconcile(account.ID)
	return err
}

func accountIDFromSession(session *stripe.CheckoutSession) uint {
	if session.ClientReferenceID != "" {
		if id, err := strconv.ParseUint(session.ClientReferenceID, 10, 64); err == nil {
			return uint(id)
		}
	}
	return accountIDFromMetadata(session.Metadata)
}

func accountIDFromMetadata(md map[string]string) uint {
	if md == nil {
		return 0
	}
	s := md["account_id"]
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
