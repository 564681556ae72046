package reconcile

import (
	"errors"

	"gorm.io/gorm"

	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/billing"
)

// Store is the persistence surface the reconciler needs. Find methods return
// (nil, nil) when no record matches; inserts return ErrDuplicateRecord on a
// unique-index collision.
type Store interface {
	GetAccount(id uint) (*accounts.Account, error)

	FindSubscriptionByStripeID(stripeSubscriptionID string) (*billing.SubscriptionRecord, error)
	InsertSubscription(rec *billing.SubscriptionRecord) error
	UpdateSubscription(id uint, patch map[string]interface{}) error
	LatestSubscriptionForAccount(accountID uint) (*billing.SubscriptionRecord, error)

	FindPaymentByStripeID(stripePaymentIntentID string) (*billing.PaymentRecord, error)
	InsertPayment(rec *billing.PaymentRecord) error
}

// GormStore backs Store with the application database. Requires the
// connection to be opened with TranslateError so duplicate-key violations
// surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetAccount(id uint) (*accounts.Account, error) {
	var account accounts.Account
	if err := s.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *GormStore) FindSubscriptionByStripeID(stripeSubscriptionID string) (*billing.SubscriptionRecord, error) {
	var rec billing.SubscriptionRecord
	err := s.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) InsertSubscription(rec *billing.SubscriptionRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateSubscription(id uint, patch map[string]interface{}) error {
	return s.db.Model(&billing.SubscriptionRecord{}).
		Where("id = ?", id).
		Updates(patch).Error
}

func (s *GormStore) LatestSubscriptionForAccount(accountID uint) (*billing.SubscriptionRecord, error) {
	var rec billing.SubscriptionRecord
	err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) FindPaymentByStripeID(stripePaymentIntentID string) (*billing.PaymentRecord, error) {
	var rec billing.PaymentRecord
	err := s.db.Where("stripe_payment_intent_id = ?", stripePaymentIntentID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) InsertPayment(rec *billing.PaymentRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}
