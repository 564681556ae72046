package accounts

import "time"

type VerificationToken struct {
	ID        uint    `gorm:"primaryKey"`
	AccountID uint    `gorm:"uniqueIndex"`
	Account   Account `gorm:"constraint:OnDelete:CASCADE"`
	Token     string  `gorm:"uniqueIndex"`
	Type      string  `gorm:"index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
