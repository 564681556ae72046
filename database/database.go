package database

import (
	"fmt"
	"log"
	"os"

	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/billing"
	"covetalks-api/internal/domain/speakers"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	// TranslateError turns unique-index violations into gorm.ErrDuplicatedKey,
	// which the reconcile store relies on for its insert-if-absent race handling.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		// core
		&accounts.Account{},
		&accounts.VerificationToken{},

		// billing mirrors (written only by the reconciler)
		&billing.SubscriptionRecord{},
		&billing.PaymentRecord{},

		// directory
		&speakers.Profile{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}
