package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/billing"
	"covetalks-api/internal/domain/plans"
)

/* ---------------- fakes ---------------- */

type fakeStore struct {
	accounts map[uint]*accounts.Account
	subs     []*billing.SubscriptionRecord
	payments []*billing.PaymentRecord
	nextID   uint

	insertSubErr     map[string]error
	insertPaymentErr map[string]error
	findPaymentErr   error
	latestSubErr     error

	// findSubMisses makes the first N subscription lookups miss, simulating
	// a record inserted by a concurrent run between our check and insert.
	findSubMisses int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:         map[uint]*accounts.Account{},
		insertSubErr:     map[string]error{},
		insertPaymentErr: map[string]error{},
	}
}

func (s *fakeStore) addAccount(id uint, customerID string) *accounts.Account {
	account := &accounts.Account{ID: id, Email: "member@covetalks.test", AccountKind: accounts.KindSpeaker}
	if customerID != "" {
		account.StripeCustomerID = &customerID
	}
	s.accounts[id] = account
	return account
}

func (s *fakeStore) GetAccount(id uint) (*accounts.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *fakeStore) FindSubscriptionByStripeID(stripeID string) (*billing.SubscriptionRecord, error) {
	if s.findSubMisses > 0 {
		s.findSubMisses--
		return nil, nil
	}
	for _, rec := range s.subs {
		if rec.StripeSubscriptionID == stripeID {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertSubscription(rec *billing.SubscriptionRecord) error {
	if err := s.insertSubErr[rec.StripeSubscriptionID]; err != nil {
		return err
	}
	s.nextID++
	rec.ID = s.nextID
	s.subs = append(s.subs, rec)
	return nil
}

func (s *fakeStore) UpdateSubscription(id uint, patch map[string]interface{}) error {
	for _, rec := range s.subs {
		if rec.ID != id {
			continue
		}
		if v, ok := patch["status"]; ok {
			rec.Status = v.(string)
		}
		if v, ok := patch["plan_tier"]; ok {
			rec.PlanTier = v.(string)
		}
		if v, ok := patch["billing_period"]; ok {
			rec.BillingPeriod = v.(string)
		}
		if v, ok := patch["amount"]; ok {
			rec.Amount = v.(float64)
		}
		if v, ok := patch["period_end"]; ok {
			rec.PeriodEnd = v.(time.Time)
		}
		if v, ok := patch["ended_at"]; ok {
			t := v.(time.Time)
			rec.EndedAt = &t
		}
		return nil
	}
	return errors.New("no such record")
}

func (s *fakeStore) LatestSubscriptionForAccount(accountID uint) (*billing.SubscriptionRecord, error) {
	if s.latestSubErr != nil {
		return nil, s.latestSubErr
	}
	var latest *billing.SubscriptionRecord
	for _, rec := range s.subs {
		if rec.AccountID != accountID {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	return latest, nil
}

func (s *fakeStore) FindPaymentByStripeID(paymentRef string) (*billing.PaymentRecord, error) {
	if s.findPaymentErr != nil {
		return nil, s.findPaymentErr
	}
	for _, rec := range s.payments {
		if rec.StripePaymentIntentID == paymentRef {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertPayment(rec *billing.PaymentRecord) error {
	if err := s.insertPaymentErr[rec.StripePaymentIntentID]; err != nil {
		return err
	}
	s.nextID++
	rec.ID = s.nextID
	s.payments = append(s.payments, rec)
	return nil
}

type fakeProvider struct {
	subs     []*stripe.Subscription
	invoices map[string]*stripe.Invoice
	charges  []*stripe.Charge

	listSubsErr    error
	listChargesErr error
	invoiceErr     error
}

func (p *fakeProvider) ListSubscriptions(customerID string) ([]*stripe.Subscription, error) {
	return p.subs, p.listSubsErr
}

func (p *fakeProvider) GetInvoice(invoiceID string) (*stripe.Invoice, error) {
	if p.invoiceErr != nil {
		return nil, p.invoiceErr
	}
	inv, ok := p.invoices[invoiceID]
	if !ok {
		return nil, errors.New("no such invoice")
	}
	return inv, nil
}

func (p *fakeProvider) ListCharges(customerID string, limit int64) ([]*stripe.Charge, error) {
	return p.charges, p.listChargesErr
}

/* ---------------- helpers ---------------- */

var testTiers = plans.PriceTierMap{
	"price_standard_m": plans.TierStandard,
	"price_plus_m":     plans.TierPlus,
	"price_plus_y":     plans.TierPlus,
	"price_premium_y":  plans.TierPremium,
}

func stripeSub(id, status, priceID string, unitAmount int64, interval stripe.PriceRecurringInterval) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     id,
		Status: stripe.SubscriptionStatus(status),
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{
					Price: &stripe.Price{
						ID:         priceID,
						UnitAmount: unitAmount,
						Recurring:  &stripe.PriceRecurring{Interval: interval},
					},
				},
			},
		},
		Created:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Unix(),
		CurrentPeriodEnd: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix(),
	}
}

func setupReconciler(store *fakeStore, provider *fakeProvider) *Reconciler {
	return New(store, provider, testTiers, nil)
}

/* ---------------- tests ---------------- */

func TestReconcile_AccountNotFound(t *testing.T) {
	r := setupReconciler(newFakeStore(), &fakeProvider{})

	_, err := r.Reconcile(42)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReconcile_NoBillingCustomer(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "")
	provider := &fakeProvider{listSubsErr: errors.New("should never be called")}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	assert.False(t, report.HasActiveSubscription)
	assert.Empty(t, report.Created)
	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Errors)
	assert.Empty(t, store.subs)
	assert.Empty(t, store.payments)
}

func TestReconcile_NewActiveSubscriptionWithPaidInvoice(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")

	sub := stripeSub("sub_1", "active", "price_plus_y", 149700, stripe.PriceRecurringIntervalYear)
	sub.LatestInvoice = &stripe.Invoice{ID: "in_1"}

	provider := &fakeProvider{
		subs: []*stripe.Subscription{sub},
		invoices: map[string]*stripe.Invoice{
			"in_1": {
				ID:               "in_1",
				Status:           stripe.InvoiceStatusPaid,
				PaymentIntent:    &stripe.PaymentIntent{ID: "pi_1"},
				AmountPaid:       149700,
				Number:           "CT-0001",
				HostedInvoiceURL: "https://invoice.test/in_1",
				Created:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Unix(),
			},
		},
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)

	assert.True(t, report.HasActiveSubscription)
	require.Len(t, report.Created, 2)
	assert.Equal(t, RecordSubscription, report.Created[0].Kind)
	assert.Equal(t, "sub_1", report.Created[0].ExternalRef)
	assert.Equal(t, RecordPayment, report.Created[1].Kind)
	assert.Equal(t, "pi_1", report.Created[1].ExternalRef)
	assert.Empty(t, report.Errors)

	require.Len(t, store.subs, 1)
	rec := store.subs[0]
	assert.Equal(t, plans.TierPlus, rec.PlanTier)
	assert.Equal(t, billing.PeriodYearly, rec.BillingPeriod)
	assert.Equal(t, billing.StatusActive, rec.Status)
	assert.Equal(t, 1497.0, rec.Amount)
	assert.Nil(t, rec.EndedAt)

	require.Len(t, store.payments, 1)
	payment := store.payments[0]
	assert.Equal(t, 1497.0, payment.Amount)
	assert.Equal(t, billing.PaymentStatusSucceeded, payment.Status)
	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, rec.ID, *payment.SubscriptionID)
	assert.Contains(t, payment.Description, "CT-0001")
}

func TestReconcile_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")

	sub := stripeSub("sub_1", "active", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth)
	sub.LatestInvoice = &stripe.Invoice{ID: "in_1"}

	provider := &fakeProvider{
		subs: []*stripe.Subscription{sub},
		invoices: map[string]*stripe.Invoice{
			"in_1": {
				ID:            "in_1",
				Status:        stripe.InvoiceStatusPaid,
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
				AmountPaid:    4900,
				Number:        "CT-0002",
				Created:       time.Now().Unix(),
			},
		},
		charges: []*stripe.Charge{
			{
				ID:            "ch_1",
				Status:        stripe.ChargeStatusSucceeded,
				Invoice:       &stripe.Invoice{ID: "in_1"},
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
				Amount:        4900,
				Created:       time.Now().Unix(),
			},
		},
	}
	r := setupReconciler(store, provider)

	first, err := r.Reconcile(1)
	require.NoError(t, err)
	require.Len(t, first.Created, 2)

	second, err := r.Reconcile(1)
	require.NoError(t, err)

	// No net new records: the subscription resolves to the update branch and
	// the payment is deduplicated by its external reference.
	assert.Empty(t, second.Created)
	require.Len(t, second.Updated, 1)
	assert.Equal(t, "sub_1", second.Updated[0].ExternalRef)
	assert.Len(t, store.subs, 1)
	assert.Len(t, store.payments, 1)
}

func TestReconcile_StatusMapping(t *testing.T) {
	cases := []struct {
		provider string
		local    string
	}{
		{"active", billing.StatusActive},
		{"past_due", billing.StatusPastDue},
		{"unpaid", billing.StatusPastDue},
		{"canceled", billing.StatusCancelled},
		{"incomplete", billing.StatusIncomplete},
		{"trialing", billing.StatusTrialing},
		{"incomplete_expired", billing.StatusActive},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			store := newFakeStore()
			store.addAccount(1, "cus_1")
			provider := &fakeProvider{
				subs: []*stripe.Subscription{
					stripeSub("sub_1", tc.provider, "price_standard_m", 1900, stripe.PriceRecurringIntervalMonth),
				},
			}
			r := setupReconciler(store, provider)

			_, err := r.Reconcile(1)
			require.NoError(t, err)
			require.Len(t, store.subs, 1)
			assert.Equal(t, tc.local, store.subs[0].Status)
		})
	}
}

func TestReconcile_EndedAtIsImmutable(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")

	originalEnd := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.subs = append(store.subs, &billing.SubscriptionRecord{
		ID:                   7,
		AccountID:            1,
		StripeSubscriptionID: "sub_1",
		PlanTier:             plans.TierPlus,
		BillingPeriod:        billing.PeriodMonthly,
		Status:               billing.StatusCancelled,
		CreatedAt:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndedAt:              &originalEnd,
	})

	sub := stripeSub("sub_1", "canceled", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth)
	sub.CanceledAt = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC).Unix() // earlier than recorded

	r := setupReconciler(store, &fakeProvider{subs: []*stripe.Subscription{sub}})

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	require.Len(t, report.Updated, 1)

	rec := store.subs[0]
	require.NotNil(t, rec.EndedAt)
	assert.True(t, rec.EndedAt.Equal(originalEnd), "ended_at must never be overwritten")
	assert.Equal(t, billing.StatusCancelled, rec.Status)
}

func TestReconcile_UnmappedPriceDefaultsToStandard(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	provider := &fakeProvider{
		subs: []*stripe.Subscription{
			stripeSub("sub_1", "active", "price_unknown", 9900, stripe.PriceRecurringIntervalMonth),
		},
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	require.Len(t, store.subs, 1)
	assert.Equal(t, plans.TierStandard, store.subs[0].PlanTier)
}

func TestReconcile_ChargeSkippedWithoutSubscription(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	provider := &fakeProvider{
		charges: []*stripe.Charge{
			{
				ID:            "ch_1",
				Status:        stripe.ChargeStatusSucceeded,
				Invoice:       &stripe.Invoice{ID: "in_1"},
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
				Amount:        4900,
				Created:       time.Now().Unix(),
			},
		},
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Empty(t, report.ChargeSyncErrors)
	assert.Empty(t, store.payments, "no orphan payments without a subscription record")
}

func TestReconcile_ChargeAttachesToNewestSubscription(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	store.subs = append(store.subs,
		&billing.SubscriptionRecord{ID: 1, AccountID: 1, StripeSubscriptionID: "sub_old", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		&billing.SubscriptionRecord{ID: 2, AccountID: 1, StripeSubscriptionID: "sub_new", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	)

	provider := &fakeProvider{
		charges: []*stripe.Charge{
			{
				ID:            "ch_1",
				Status:        stripe.ChargeStatusSucceeded,
				Invoice:       &stripe.Invoice{ID: "in_1"},
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
				Amount:        12900,
				Created:       time.Now().Unix(),
			},
		},
	}
	r := setupReconciler(store, provider)

	_, err := r.Reconcile(1)
	require.NoError(t, err)

	require.Len(t, store.payments, 1)
	payment := store.payments[0]
	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, uint(2), *payment.SubscriptionID)
	assert.Equal(t, 129.0, payment.Amount)
	assert.Equal(t, "Subscription payment", payment.Description)
}

func TestReconcile_ErrorIsolationPerSubscription(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	store.insertSubErr["sub_bad"] = errors.New("write failed")

	provider := &fakeProvider{
		subs: []*stripe.Subscription{
			stripeSub("sub_bad", "active", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth),
			stripeSub("sub_ok", "active", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth),
		},
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err, "one failing record must not abort the batch")

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "sub_bad", report.Errors[0].ExternalRef)
	assert.Equal(t, FailurePersistence, report.Errors[0].Kind)

	require.Len(t, report.Created, 1)
	assert.Equal(t, "sub_ok", report.Created[0].ExternalRef)
}

func TestReconcile_ChargeSyncFailureSurfacedSeparately(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	provider := &fakeProvider{
		subs: []*stripe.Subscription{
			stripeSub("sub_1", "active", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth),
		},
		listChargesErr: errors.New("stripe unavailable"),
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err, "charge sync is best-effort")

	assert.Empty(t, report.Errors)
	require.Len(t, report.ChargeSyncErrors, 1)
	assert.Equal(t, FailureProvider, report.ChargeSyncErrors[0].Kind)
	assert.Len(t, report.Created, 1)
}

func TestReconcile_DuplicateInsertFallsBackToUpdate(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")

	// Simulate losing the insert race: the first lookup misses, the unique
	// index then rejects our insert, and the concurrent run's record is
	// visible on the re-fetch.
	store.findSubMisses = 1
	store.insertSubErr["sub_1"] = ErrDuplicateRecord
	store.subs = append(store.subs, &billing.SubscriptionRecord{
		ID:                   9,
		AccountID:            1,
		StripeSubscriptionID: "sub_1",
		Status:               billing.StatusIncomplete,
		CreatedAt:            time.Now(),
	})
	r := setupReconciler(store, &fakeProvider{
		subs: []*stripe.Subscription{
			stripeSub("sub_1", "active", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth),
		},
	})

	report, err := r.Reconcile(1)
	require.NoError(t, err)

	assert.Empty(t, report.Errors)
	require.Len(t, report.Updated, 1)
	assert.Equal(t, billing.StatusActive, store.subs[0].Status)
	assert.Len(t, store.subs, 1)
}

func TestReconcile_ListSubscriptionsFailureIsRecorded(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	provider := &fakeProvider{listSubsErr: errors.New("stripe down")}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, FailureProvider, report.Errors[0].Kind)
	assert.False(t, report.HasActiveSubscription)
}

func TestReconcile_ChargePaymentInsertFailureRecorded(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")
	store.subs = append(store.subs, &billing.SubscriptionRecord{
		ID: 1, AccountID: 1, StripeSubscriptionID: "sub_1", CreatedAt: time.Now(),
	})
	store.insertPaymentErr["pi_1"] = errors.New("write failed")

	provider := &fakeProvider{
		charges: []*stripe.Charge{
			{
				ID:            "ch_1",
				Status:        stripe.ChargeStatusSucceeded,
				Invoice:       &stripe.Invoice{ID: "in_1"},
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
				Amount:        4900,
				Created:       time.Now().Unix(),
			},
		},
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	require.Len(t, report.ChargeSyncErrors, 1)
	assert.Equal(t, FailurePersistence, report.ChargeSyncErrors[0].Kind)
	assert.Equal(t, "pi_1", report.ChargeSyncErrors[0].ExternalRef)
	assert.Empty(t, store.payments)
}

func TestReconcile_UnpaidInvoiceCreatesNoPayment(t *testing.T) {
	store := newFakeStore()
	store.addAccount(1, "cus_1")

	sub := stripeSub("sub_1", "active", "price_plus_m", 4900, stripe.PriceRecurringIntervalMonth)
	sub.LatestInvoice = &stripe.Invoice{ID: "in_1"}

	provider := &fakeProvider{
		subs: []*stripe.Subscription{sub},
		invoices: map[string]*stripe.Invoice{
			"in_1": {
				ID:            "in_1",
				Status:        stripe.InvoiceStatusOpen,
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
				AmountPaid:    0,
			},
		},
	}
	r := setupReconciler(store, provider)

	report, err := r.Reconcile(1)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Empty(t, store.payments)
	require.Len(t, store.subs, 1)
}
