package accounts

import (
	"time"
)

// Account kinds (single source of truth)
const (
	KindSpeaker      = "speaker"
	KindOrganization = "organization"
)

type Account struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Email        string  `gorm:"not null;uniqueIndex:idx_accounts_email"`
	Password     *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_accounts_google_sub"`
	Role         string
	IsVerified   bool

	// "speaker" | "organization"
	AccountKind string `gorm:"type:varchar(20);not null;default:'speaker'"`

	// Stripe customer reference. Set once by the checkout flow; the reconciler
	// only reads it.
	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_accounts_stripe_customer_id"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func IsValidKind(kind string) bool {
	return kind == KindSpeaker || kind == KindOrganization
}
