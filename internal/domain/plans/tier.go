package plans

import "strings"

// Tier constants (single source of truth)
const (
	TierStandard = "standard"
	TierPlus     = "plus"
	TierPremium  = "premium"
)

// PriceTierMap maps Stripe price ids to tiers. The mapping is maintained
// outside the code (env config), so unknown price ids are expected over the
// product's life: they degrade to Standard instead of failing a sync.
type PriceTierMap map[string]string

// TierFor returns the tier for a Stripe price id, defaulting to Standard.
func (m PriceTierMap) TierFor(priceID string) string {
	if tier, ok := m[priceID]; ok {
		switch strings.ToLower(strings.TrimSpace(tier)) {
		case TierStandard:
			return TierStandard
		case TierPlus:
			return TierPlus
		case TierPremium:
			return TierPremium
		}
	}
	return TierStandard
}

// Knows reports whether the price id is part of the configured catalog.
// Used to allow-list checkout requests.
func (m PriceTierMap) Knows(priceID string) bool {
	_, ok := m[priceID]
	return ok
}
