package speakers

import (
	"time"

	"covetalks-api/internal/domain/accounts"
)

// Profile is the public directory entry for a speaker account.
type Profile struct {
	ID        uint             `gorm:"primaryKey"`
	AccountID uint             `gorm:"not null;uniqueIndex:idx_speaker_profiles_account_id"`
	Account   accounts.Account `gorm:"constraint:OnDelete:CASCADE"`

	Bio         string `gorm:"type:text"`
	Topics      string // comma-separated, searched with ILIKE
	Location    string
	WebsiteURL  *string
	SpeakingFee *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
