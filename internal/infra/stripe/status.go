package stripe

import (
	"strings"

	"covetalks-api/internal/domain/billing"
)

// LocalStatus maps a Stripe subscription status onto our local status set.
// The table is fixed; anything unrecognized (including "active") is treated
// as active so a new Stripe status never strands a paying customer.
func LocalStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "past_due", "unpaid":
		return billing.StatusPastDue
	case "canceled":
		return billing.StatusCancelled
	case "incomplete":
		return billing.StatusIncomplete
	case "trialing":
		return billing.StatusTrialing
	default:
		return billing.StatusActive
	}
}

// BillingPeriod derives the local billing period from a Stripe recurring
// interval: "year" → yearly, everything else → monthly.
func BillingPeriod(interval string) string {
	if strings.TrimSpace(interval) == "year" {
		return billing.PeriodYearly
	}
	return billing.PeriodMonthly
}
