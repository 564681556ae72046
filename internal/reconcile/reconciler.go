package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"covetalks-api/internal/domain/accounts"
	"covetalks-api/internal/domain/billing"
	"covetalks-api/internal/domain/plans"
	stripeinfra "covetalks-api/internal/infra/stripe"
)

// defaultChargeLimit bounds the recent-charge sweep per reconcile run.
const defaultChargeLimit = 10

// Reconciler brings local subscription/payment records into agreement with
// Stripe's view of an account, without duplicating records and without
// overwriting recorded cancellation times. All collaborators are injected.
type Reconciler struct {
	store       Store
	provider    stripeinfra.Provider
	tiers       plans.PriceTierMap
	chargeLimit int64
	log         *zap.Logger
}

func New(store Store, provider stripeinfra.Provider, tiers plans.PriceTierMap, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:       store,
		provider:    provider,
		tiers:       tiers,
		chargeLimit: defaultChargeLimit,
		log:         logger,
	}
}

// Reconcile syncs all Stripe subscriptions and recent charges for the
// account. Only a missing account (or a store failure resolving it) aborts
// the call; every per-record failure is recorded in the report and
// processing continues with the next record.
func (r *Reconciler) Reconcile(accountID uint) (*Report, error) {
	account, err := r.store.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	report := newReport()

	// No Stripe customer means the account never started billing. That is a
	// normal state, not an error.
	if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		return report, nil
	}
	customerID := *account.StripeCustomerID

	subs, err := r.provider.ListSubscriptions(customerID)
	if err != nil {
		report.failed(FailureProvider, customerID, err)
	}

	for _, sub := range subs {
		if sub.Status == stripe.SubscriptionStatusActive {
			report.HasActiveSubscription = true
		}
		r.syncSubscription(account, sub, report)
	}

	r.syncRecentCharges(account, customerID, report)

	return report, nil
}

func (r *Reconciler) syncSubscription(account *accounts.Account, sub *stripe.Subscription, report *Report) {
	tier := plans.TierStandard
	period := billing.PeriodMonthly
	var amount float64

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		tier = r.tiers.TierFor(price.ID)
		amount = float64(price.UnitAmount) / 100.0
		if price.Recurring != nil {
			period = stripeinfra.BillingPeriod(string(price.Recurring.Interval))
		}
	}

	status := stripeinfra.LocalStatus(string(sub.Status))

	existing, err := r.store.FindSubscriptionByStripeID(sub.ID)
	if err != nil {
		report.failed(FailurePersistence, sub.ID, err)
		return
	}

	if existing == nil {
		rec := &billing.SubscriptionRecord{
			AccountID:            account.ID,
			StripeSubscriptionID: sub.ID,
			PlanTier:             tier,
			BillingPeriod:        period,
			Status:               status,
			Amount:               amount,
			PeriodEnd:            time.Unix(sub.CurrentPeriodEnd, 0),
			CreatedAt:            time.Unix(sub.Created, 0),
		}
		if sub.CanceledAt > 0 {
			endedAt := time.Unix(sub.CanceledAt, 0)
			rec.EndedAt = &endedAt
		}

		err := r.store.InsertSubscription(rec)
		if err == nil {
			report.created(RecordSubscription, sub.ID, rec.ID)
			if status == billing.StatusActive && sub.LatestInvoice != nil && sub.LatestInvoice.ID != "" {
				r.syncLatestInvoice(account, rec, sub.LatestInvoice, report)
			}
			return
		}
		if !errors.Is(err, ErrDuplicateRecord) {
			report.failed(FailurePersistence, sub.ID, err)
			return
		}

		// A concurrent reconcile inserted it between our check and insert.
		// Fall through to the update path.
		existing, err = r.store.FindSubscriptionByStripeID(sub.ID)
		if err != nil || existing == nil {
			report.failed(FailurePersistence, sub.ID, fmt.Errorf("lost duplicate-insert race: %v", err))
			return
		}
	}

	patch := map[string]interface{}{
		"status":         status,
		"plan_tier":      tier,
		"billing_period": period,
		"amount":         amount,
		"period_end":     time.Unix(sub.CurrentPeriodEnd, 0),
	}
	// Cancellation time is write-once. Never touch an existing ended_at.
	if existing.EndedAt == nil && sub.CanceledAt > 0 {
		patch["ended_at"] = time.Unix(sub.CanceledAt, 0)
	}

	if err := r.store.UpdateSubscription(existing.ID, patch); err != nil {
		report.failed(FailurePersistence, sub.ID, err)
		return
	}
	report.updated(RecordSubscription, sub.ID, existing.ID)
}

// syncLatestInvoice mirrors a freshly created Active subscription's latest
// invoice into a payment record. Runs only on the insert path.
func (r *Reconciler) syncLatestInvoice(account *accounts.Account, rec *billing.SubscriptionRecord, latest *stripe.Invoice, report *Report) {
	inv := latest
	if inv.Status == "" {
		// Unexpanded reference; fetch the full invoice.
		full, err := r.provider.GetInvoice(latest.ID)
		if err != nil {
			report.failed(FailureProvider, latest.ID, err)
			return
		}
		inv = full
	}

	if inv.Status != stripe.InvoiceStatusPaid || inv.PaymentIntent == nil || inv.PaymentIntent.ID == "" {
		return
	}
	paymentRef := inv.PaymentIntent.ID

	existing, err := r.store.FindPaymentByStripeID(paymentRef)
	if err != nil {
		report.failed(FailurePersistence, paymentRef, err)
		return
	}
	if existing != nil {
		return
	}

	payment := &billing.PaymentRecord{
		AccountID:             account.ID,
		SubscriptionID:        &rec.ID,
		StripePaymentIntentID: paymentRef,
		Amount:                float64(inv.AmountPaid) / 100.0,
		Status:                billing.PaymentStatusSucceeded,
		Description:           fmt.Sprintf("Subscription payment - Invoice %s", inv.Number),
		CreatedAt:             time.Unix(inv.Created, 0),
	}
	if inv.HostedInvoiceURL != "" {
		url := inv.HostedInvoiceURL
		payment.ReceiptURL = &url
	}

	switch err := r.store.InsertPayment(payment); err {
	case nil:
		report.created(RecordPayment, paymentRef, payment.ID)
	case ErrDuplicateRecord:
		// Someone else recorded it; nothing to do.
	default:
		report.failed(FailurePersistence, paymentRef, err)
	}
}

// syncRecentCharges sweeps the customer's most recent charges and records
// any successful invoice-backed charge we have not seen yet. Best-effort:
// failures land in the charge_sync_errors bucket and the run still succeeds.
func (r *Reconciler) syncRecentCharges(account *accounts.Account, customerID string, report *Report) {
	charges, err := r.provider.ListCharges(customerID, r.chargeLimit)
	if err != nil {
		r.log.Warn("charge sync: listing charges failed",
			zap.Uint("account_id", account.ID),
			zap.Error(err))
		report.chargeSyncFailed(FailureProvider, customerID, err)
		return
	}

	var latestSub *billing.SubscriptionRecord
	latestLoaded := false

	for _, ch := range charges {
		if ch.Status != stripe.ChargeStatusSucceeded || ch.Invoice == nil || ch.Invoice.ID == "" {
			continue
		}

		paymentRef := ch.ID
		if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
			paymentRef = ch.PaymentIntent.ID
		}

		existing, err := r.store.FindPaymentByStripeID(paymentRef)
		if err != nil {
			report.chargeSyncFailed(FailurePersistence, paymentRef, err)
			continue
		}
		if existing != nil {
			continue
		}

		if !latestLoaded {
			latestSub, err = r.store.LatestSubscriptionForAccount(account.ID)
			if err != nil {
				report.chargeSyncFailed(FailurePersistence, paymentRef, err)
				continue
			}
			latestLoaded = true
		}
		// No subscription record at all: nothing to attach to, skip the
		// charge rather than create an orphan payment.
		if latestSub == nil {
			continue
		}

		description := ch.Description
		if description == "" {
			description = "Subscription payment"
		}

		payment := &billing.PaymentRecord{
			AccountID:             account.ID,
			SubscriptionID:        &latestSub.ID,
			StripePaymentIntentID: paymentRef,
			Amount:                float64(ch.Amount) / 100.0,
			Status:                billing.PaymentStatusSucceeded,
			Description:           description,
			CreatedAt:             time.Unix(ch.Created, 0),
		}
		if ch.ReceiptURL != "" {
			url := ch.ReceiptURL
			payment.ReceiptURL = &url
		}

		switch err := r.store.InsertPayment(payment); err {
		case nil:
			report.created(RecordPayment, paymentRef, payment.ID)
		case ErrDuplicateRecord:
			// already recorded concurrently
		default:
			r.log.Warn("charge sync: payment insert failed",
				zap.Uint("account_id", account.ID),
				zap.String("payment_ref", paymentRef),
				zap.Error(err))
			report.chargeSyncFailed(FailurePersistence, paymentRef, err)
		}
	}
}
