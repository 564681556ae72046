package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v75"

	"covetalks-api/internal/domain/plans"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	// Price id → tier catalog, assembled from STRIPE_PRICE_* vars.
	// Injected into the reconciler and checkout allow-list.
	PRICE_TIERS plans.PriceTierMap
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	stripe.Key = mustEnv("STRIPE_SECRET_KEY")

	GOOGLE_CLIENT_ID = mustEnv("GOOGLE_CLIENT_ID")
	GOOGLE_CLIENT_SECRET = mustEnv("GOOGLE_CLIENT_SECRET")
	GOOGLE_REDIRECT_URL = mustEnv("GOOGLE_REDIRECT_URL")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	PRICE_TIERS = loadPriceTiers()
}

// loadPriceTiers builds the catalog from env. Unset vars are simply absent
// from the map; unknown price ids fall back to the standard tier at lookup.
func loadPriceTiers() plans.PriceTierMap {
	tiers := plans.PriceTierMap{}

	addPrice := func(envKey, tier string) {
		if id := os.Getenv(envKey); id != "" {
			tiers[id] = tier
		}
	}

	addPrice("STRIPE_PRICE_STANDARD_MONTHLY", plans.TierStandard)
	addPrice("STRIPE_PRICE_STANDARD_YEARLY", plans.TierStandard)
	addPrice("STRIPE_PRICE_PLUS_MONTHLY", plans.TierPlus)
	addPrice("STRIPE_PRICE_PLUS_YEARLY", plans.TierPlus)
	addPrice("STRIPE_PRICE_PREMIUM_MONTHLY", plans.TierPremium)
	addPrice("STRIPE_PRICE_PREMIUM_YEARLY", plans.TierPremium)

	if len(tiers) == 0 {
		log.Println("⚠️ No STRIPE_PRICE_* variables set; all subscriptions will map to the standard tier")
	}

	return tiers
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
