package billing

import (
	"time"

	"covetalks-api/internal/domain/accounts"
)

// Local subscription statuses. Stripe statuses are normalized into these by
// the reconciler (see internal/infra/stripe).
const (
	StatusActive     = "active"
	StatusPastDue    = "past_due"
	StatusCancelled  = "cancelled"
	StatusIncomplete = "incomplete"
	StatusTrialing   = "trialing"
)

const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

type SubscriptionRecord struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"index"`
	Account   accounts.Account

	// Stripe's subscription id — the idempotence key. The unique index makes
	// concurrent reconciles safe: a duplicate insert fails instead of forking.
	StripeSubscriptionID string `gorm:"column:stripe_subscription_id;not null;uniqueIndex:idx_subscription_records_stripe_id"`

	PlanTier      string  // "standard" | "plus" | "premium"
	BillingPeriod string  // "monthly" | "yearly"
	Status        string  // local status, see constants above
	Amount        float64 // major currency units
	PeriodEnd     time.Time

	// CreatedAt mirrors Stripe's creation timestamp, not the row insert time.
	CreatedAt time.Time

	// Set at most once, never cleared. Updates must not overwrite it.
	EndedAt *time.Time
}
