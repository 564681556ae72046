package stripe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"covetalks-api/internal/domain/billing"
)

func TestLocalStatus(t *testing.T) {
	cases := map[string]string{
		"active":             billing.StatusActive,
		"past_due":           billing.StatusPastDue,
		"unpaid":             billing.StatusPastDue,
		"canceled":           billing.StatusCancelled,
		"incomplete":         billing.StatusIncomplete,
		"trialing":           billing.StatusTrialing,
		"incomplete_expired": billing.StatusActive,
		"paused":             billing.StatusActive,
		"":                   billing.StatusActive,
		"  active  ":         billing.StatusActive,
	}

	for provider, expected := range cases {
		assert.Equal(t, expected, LocalStatus(provider), "provider status %q", provider)
	}
}

func TestBillingPeriod(t *testing.T) {
	assert.Equal(t, billing.PeriodYearly, BillingPeriod("year"))
	assert.Equal(t, billing.PeriodMonthly, BillingPeriod("month"))
	assert.Equal(t, billing.PeriodMonthly, BillingPeriod("week"))
	assert.Equal(t, billing.PeriodMonthly, BillingPeriod(""))
}
