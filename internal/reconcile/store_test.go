package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"covetalks-api/internal/domain/billing"
)

func setupMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open gorm connection: %v", err)
	}

	return NewGormStore(db), mock, func() {
		mockDB.Close()
	}
}

func TestGormStore_GetAccount(t *testing.T) {
	t.Run("returns the account when found", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "name", "email", "stripe_customer_id"}).
			AddRow(1, "Casey", "casey@covetalks.test", "cus_1")
		mock.ExpectQuery(`SELECT \* FROM "accounts"`).WillReturnRows(rows)

		account, err := store.GetAccount(1)
		require.NoError(t, err)
		assert.Equal(t, uint(1), account.ID)
		require.NotNil(t, account.StripeCustomerID)
		assert.Equal(t, "cus_1", *account.StripeCustomerID)
	})

	t.Run("maps a missing row to ErrAccountNotFound", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "accounts"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := store.GetAccount(99)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestGormStore_FindSubscriptionByStripeID(t *testing.T) {
	t.Run("returns nil without error when absent", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscription_records"`).
			WillReturnError(gorm.ErrRecordNotFound)

		rec, err := store.FindSubscriptionByStripeID("sub_missing")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("returns the record when present", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "account_id", "stripe_subscription_id", "status"}).
			AddRow(3, 1, "sub_1", "active")
		mock.ExpectQuery(`SELECT \* FROM "subscription_records"`).WillReturnRows(rows)

		rec, err := store.FindSubscriptionByStripeID("sub_1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, uint(3), rec.ID)
		assert.Equal(t, "sub_1", rec.StripeSubscriptionID)
	})

	t.Run("propagates other database errors", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscription_records"`).
			WillReturnError(errors.New("connection reset"))

		_, err := store.FindSubscriptionByStripeID("sub_1")
		assert.Error(t, err)
	})
}

func TestGormStore_LatestSubscriptionForAccount(t *testing.T) {
	t.Run("orders by created_at descending", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "account_id", "stripe_subscription_id", "created_at"}).
			AddRow(5, 1, "sub_new", time.Now())
		mock.ExpectQuery(`SELECT \* FROM "subscription_records" WHERE account_id = \$1 ORDER BY created_at DESC`).
			WillReturnRows(rows)

		rec, err := store.LatestSubscriptionForAccount(1)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "sub_new", rec.StripeSubscriptionID)
	})

	t.Run("returns nil when the account has no records", func(t *testing.T) {
		store, mock, cleanup := setupMockStore(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT \* FROM "subscription_records"`).
			WillReturnError(gorm.ErrRecordNotFound)

		rec, err := store.LatestSubscriptionForAccount(1)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestGormStore_UpdateSubscription(t *testing.T) {
	store, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscription_records" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.UpdateSubscription(3, map[string]interface{}{
		"status": "active",
		"amount": 49.0,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_FindPaymentByStripeID_Absent(t *testing.T) {
	store, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "payment_records"`).
		WillReturnError(gorm.ErrRecordNotFound)

	rec, err := store.FindPaymentByStripeID("pi_missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGormStore_InsertSubscription_DuplicateKey(t *testing.T) {
	store, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscription_records"`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	err := store.InsertSubscription(&billing.SubscriptionRecord{
		AccountID:            1,
		StripeSubscriptionID: "sub_dup",
	})
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}
