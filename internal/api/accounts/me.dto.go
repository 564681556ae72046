package accounts

import "time"

type MeResponse struct {
	Account AccountDTO `json:"account"`
	Billing BillingDTO `json:"billing"`
}

type AccountDTO struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	AccountKind string `json:"account_kind"`
	IsVerified  bool   `json:"is_verified"`
}

type BillingDTO struct {
	Subscription     *SubscriptionDTO `json:"subscription"`
	StripeCustomerID *string          `json:"stripe_customer_id"`
}

type SubscriptionDTO struct {
	Tier                 string     `json:"tier"`
	BillingPeriod        string     `json:"billing_period"`
	Status               string     `json:"status"`
	Amount               float64    `json:"amount"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	EndedAt              *time.Time `json:"ended_at"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
}
