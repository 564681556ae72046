package billing

import (
	"time"

	"covetalks-api/internal/domain/accounts"
)

const PaymentStatusSucceeded = "succeeded"

type PaymentRecord struct {
	ID             uint `gorm:"primaryKey"`
	AccountID      uint `gorm:"index"`
	Account        accounts.Account
	SubscriptionID *uint
	Subscription   *SubscriptionRecord

	// Stripe payment intent id (charge id as fallback) — the idempotence key.
	StripePaymentIntentID string `gorm:"column:stripe_payment_intent_id;not null;uniqueIndex:idx_payment_records_stripe_id"`

	Amount      float64 // major currency units
	Status      string
	ReceiptURL  *string
	Description string
	CreatedAt   time.Time
}
