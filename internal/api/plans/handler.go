package plans

import (
	"net/http"

	"covetalks-api/config"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
)

type StripePlan struct {
	PriceID    string  `json:"price_id"`
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Currency   string  `json:"currency"`
	UnitAmount float64 `json:"unit_amount"` // in major units
	Interval   string  `json:"interval"`    // month/year
	Tier       string  `json:"tier"`
}

// ListPlansFromStripe serves the pricing page: active recurring prices from
// the configured catalog, annotated with their tier.
func ListPlansFromStripe(c *gin.Context) {
	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")

	it := price.List(params)

	plans := []StripePlan{}
	for it.Next() {
		p := it.Price()

		if !p.Active || p.Recurring == nil {
			continue
		}
		if p.Product == nil || !p.Product.Active {
			continue
		}

		// Only prices in the tier catalog are sellable.
		if !config.PRICE_TIERS.Knows(p.ID) {
			continue
		}

		// Optional: hide prices via metadata
		if p.Metadata["visible"] == "false" {
			continue
		}

		plans = append(plans, StripePlan{
			PriceID:    p.ID,
			ProductID:  p.Product.ID,
			Name:       p.Product.Name,
			Currency:   string(p.Currency),
			UnitAmount: float64(p.UnitAmount) / 100.0,
			Interval:   string(p.Recurring.Interval),
			Tier:       config.PRICE_TIERS.TierFor(p.ID),
		})
	}

	if err := it.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}

	c.JSON(http.StatusOK, plans)
}
