package service

import (
	"testing"
	"time"

	"github.com/brightpath/tutoring-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEntitlementService(users *fakeUserStore) (*EntitlementService, *fakeLedgerStore, *fakePaymentStore) {
	ledger := newFakeLedgerStore()
	payments := &fakePaymentStore{}
	svc := NewEntitlementService(users, ledger, payments, ledger, zap.NewNop())
	return svc, ledger, payments
}

func TestMonthsForTier(t *testing.T) {
	tests := []struct {
		tier models.Tier
		want int
	}{
		{models.TierMonthly, 1},
		{models.TierQuarterly, 3},
		{models.TierSemiannual, 6},
		{models.TierAnnual, 12},
	}
	for _, tt := range tests {
		if got := models.MonthsForTier(tt.tier); got != tt.want {
			t.Fatalf("MonthsForTier(%s) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestHourPackageCreatesLedgerAndAudit(t *testing.T) {
	user := &models.User{ID: 1, Email: "parent@example.com"}
	svc, ledger, payments := newTestEntitlementService(newFakeUserStore(user))

	err := svc.ApplyClassification(user, Classification{
		Kind:  KindHourPackage,
		Hours: 10,
	}, PurchaseContext{StripePaymentID: "pi_1", AmountTotal: 549, Currency: "usd"})
	require.NoError(t, err)

	credit, err := ledger.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 10.0, credit.Hours)
	assert.Equal(t, 10.0, credit.TotalPurchased)
	assert.Equal(t, 0.0, credit.TotalUsed)

	require.Len(t, ledger.transactions, 1)
	tx := ledger.transactions[0]
	assert.Equal(t, models.TransactionPurchase, tx.Type)
	assert.Equal(t, 10.0, tx.Hours)
	assert.Equal(t, 0.0, tx.BalanceBefore)
	assert.Equal(t, 10.0, tx.BalanceAfter)
	assert.Equal(t, "pi_1", tx.StripePaymentID)

	require.Len(t, payments.payments, 1)
	assert.Equal(t, "succeeded", payments.payments[0].Status)
	assert.Equal(t, 10.0, payments.payments[0].PackageHours)
}

func TestHourPackagePremiumTiering(t *testing.T) {
	tests := []struct {
		hours      float64
		wantMonths int
	}{
		{25, 12},
		{20, 12},
		{10, 6},
		{5, 3},
		{2, 3},
	}

	for _, tt := range tests {
		user := &models.User{ID: 1, Email: "parent@example.com"}
		svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

		err := svc.ApplyClassification(user, Classification{
			Kind:  KindHourPackage,
			Hours: tt.hours,
		}, PurchaseContext{})
		require.NoError(t, err)

		assert.True(t, user.IsPremium)
		require.NotNil(t, user.PremiumValidUntil)
		want := time.Now().AddDate(0, tt.wantMonths, 0)
		assert.WithinDuration(t, want, *user.PremiumValidUntil, time.Minute,
			"hours=%g should grant %d months", tt.hours, tt.wantMonths)
	}
}

func TestPremiumSubscriptionOverwritesWindow(t *testing.T) {
	since := time.Now().AddDate(0, -8, 0)
	oldExpiry := time.Now().AddDate(0, 4, 0)
	user := &models.User{
		ID:                1,
		Email:             "parent@example.com",
		IsPremium:         true,
		PremiumSince:      &since,
		PremiumValidUntil: &oldExpiry,
	}
	svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

	err := svc.ApplyClassification(user, Classification{
		Kind: KindPremiumSubscription,
		Tier: models.TierMonthly,
	}, PurchaseContext{StripeCustomerID: "cus_1"})
	require.NoError(t, err)

	// The window is replaced, not stacked, and the start date is kept.
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *user.PremiumValidUntil, time.Minute)
	assert.Equal(t, since.Unix(), user.PremiumSince.Unix())
	assert.Equal(t, "cus_1", user.StripeCustomerID)
}

func TestSubscriptionRenewalUsesProviderClock(t *testing.T) {
	user := &models.User{ID: 1, StripeCustomerID: "cus_1"}
	svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

	periodEnd := time.Now().AddDate(0, 1, 15)
	require.NoError(t, svc.HandleSubscriptionRenewed("cus_1", periodEnd))

	assert.True(t, user.IsPremium)
	assert.Equal(t, periodEnd.Unix(), user.PremiumValidUntil.Unix())
}

func TestCancellationWithoutCreditsRevokesPremium(t *testing.T) {
	expiry := time.Now().AddDate(0, 2, 0)
	user := &models.User{ID: 1, StripeCustomerID: "cus_1", IsPremium: true, PremiumValidUntil: &expiry}
	svc, ledger, _ := newTestEntitlementService(newFakeUserStore(user))

	// Ledger exists but is empty.
	_, _, err := ledger.ApplyPurchase(1, 3, "seed", "")
	require.NoError(t, err)
	_, _, err = ledger.ApplyUsage(1, 3, "drain", "")
	require.NoError(t, err)

	require.NoError(t, svc.HandleSubscriptionCancelled("cus_1"))

	assert.False(t, user.IsPremium)
	assert.Nil(t, user.PremiumValidUntil)
}

func TestCancellationKeepsPremiumWhileCreditsRemain(t *testing.T) {
	expiry := time.Now().AddDate(0, 2, 0)
	user := &models.User{ID: 1, StripeCustomerID: "cus_1", IsPremium: true, PremiumValidUntil: &expiry}
	svc, ledger, _ := newTestEntitlementService(newFakeUserStore(user))

	_, _, err := ledger.ApplyPurchase(1, 3, "seed", "")
	require.NoError(t, err)

	require.NoError(t, svc.HandleSubscriptionCancelled("cus_1"))

	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumValidUntil)
	assert.Equal(t, expiry.Unix(), user.PremiumValidUntil.Unix())
}

func TestCancellationForUnknownCustomerIsNoop(t *testing.T) {
	svc, _, _ := newTestEntitlementService(newFakeUserStore())
	assert.NoError(t, svc.HandleSubscriptionCancelled("cus_ghost"))
}

func TestCheckAndUpdatePremiumStatusExtendsLapsedExpiry(t *testing.T) {
	lapsed := time.Now().AddDate(0, -1, 0)
	user := &models.User{ID: 1, IsPremium: false, PremiumValidUntil: &lapsed}
	svc, ledger, _ := newTestEntitlementService(newFakeUserStore(user))

	_, _, err := ledger.ApplyPurchase(1, 2, "seed", "")
	require.NoError(t, err)

	require.NoError(t, svc.CheckAndUpdatePremiumStatus(1))

	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumValidUntil)
	assert.WithinDuration(t, time.Now().AddDate(0, 3, 0), *user.PremiumValidUntil, time.Minute)
}

func TestCheckAndUpdatePremiumStatusWritesOnlyOnChange(t *testing.T) {
	expiry := time.Now().AddDate(0, 1, 0)
	user := &models.User{ID: 1, IsPremium: true, PremiumValidUntil: &expiry}
	svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

	require.NoError(t, svc.CheckAndUpdatePremiumStatus(1))

	// Still premium with the original window untouched.
	assert.True(t, user.IsPremium)
	assert.Equal(t, expiry.Unix(), user.PremiumValidUntil.Unix())
}

func TestLedgerInvariantAcrossOperations(t *testing.T) {
	user := &models.User{ID: 1}
	svc, ledger, _ := newTestEntitlementService(newFakeUserStore(user))

	checkInvariant := func() {
		credit, err := ledger.GetByUserID(1)
		require.NoError(t, err)
		assert.InDelta(t, credit.TotalPurchased-credit.TotalUsed, credit.Hours, 1e-9)
	}

	_, err := svc.GrantHours(1, 10, "")
	require.NoError(t, err)
	checkInvariant()

	_, err = svc.UseHours(1, 3, "", "sess_1")
	require.NoError(t, err)
	checkInvariant()

	_, err = svc.RefundHours(1, 1, "")
	require.NoError(t, err)
	checkInvariant()

	_, err = svc.UseHours(1, 8, "", "sess_2")
	require.NoError(t, err)
	checkInvariant()

	// Every mutation has exactly one audit row with consistent balances.
	for _, tx := range ledger.transactions {
		assert.InDelta(t, tx.BalanceBefore+tx.Hours, tx.BalanceAfter, 1e-9)
	}
	assert.Len(t, ledger.transactions, 4)
}

func TestGrantPremiumTier(t *testing.T) {
	user := &models.User{ID: 1}
	svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

	require.NoError(t, svc.GrantPremiumTier(1, models.TierSemiannual))

	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumValidUntil)
	assert.WithinDuration(t, time.Now().AddDate(0, 6, 0), *user.PremiumValidUntil, time.Minute)

	err := svc.GrantPremiumTier(42, models.TierMonthly)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefundBeyondUsedHoursKeepsInvariant(t *testing.T) {
	user := &models.User{ID: 1}
	svc, ledger, _ := newTestEntitlementService(newFakeUserStore(user))

	_, err := svc.GrantHours(1, 10, "")
	require.NoError(t, err)
	_, err = svc.UseHours(1, 3, "", "sess_1")
	require.NoError(t, err)

	// Refunding more than was ever used: the overshoot counts as granted
	// hours, the used counter bottoms out at zero.
	_, err = svc.RefundHours(1, 5, "")
	require.NoError(t, err)

	credit, err := ledger.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 12.0, credit.Hours)
	assert.Equal(t, 12.0, credit.TotalPurchased)
	assert.Equal(t, 0.0, credit.TotalUsed)
	assert.InDelta(t, credit.TotalPurchased-credit.TotalUsed, credit.Hours, 1e-9)
}

func TestUseHoursInsufficientBalance(t *testing.T) {
	user := &models.User{ID: 1}
	svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

	_, err := svc.GrantHours(1, 2, "")
	require.NoError(t, err)

	_, err = svc.UseHours(1, 5, "", "")
	assert.Error(t, err)

	credit, err := svc.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, credit.Hours)
}

func TestChargeRefundReversesPurchaseOnce(t *testing.T) {
	user := &models.User{ID: 1, Email: "parent@example.com"}
	svc, ledger, payments := newTestEntitlementService(newFakeUserStore(user))

	err := svc.ApplyClassification(user, Classification{Kind: KindHourPackage, Hours: 5},
		PurchaseContext{StripePaymentID: "pi_1", AmountTotal: 299})
	require.NoError(t, err)

	require.NoError(t, svc.HandleChargeRefunded("pi_1"))

	credit, err := ledger.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, credit.Hours)
	assert.Equal(t, "refunded", payments.payments[0].Status)

	// A replayed refund finds the payment already refunded and does nothing.
	txCount := len(ledger.transactions)
	require.NoError(t, svc.HandleChargeRefunded("pi_1"))
	assert.Len(t, ledger.transactions, txCount)
}

func TestChargeRefundForUnknownPaymentIsNoop(t *testing.T) {
	svc, _, _ := newTestEntitlementService(newFakeUserStore())
	assert.NoError(t, svc.HandleChargeRefunded("pi_unknown"))
}

func TestPremiumStatusReasons(t *testing.T) {
	t.Run("direct subscription", func(t *testing.T) {
		expiry := time.Now().AddDate(0, 1, 0)
		user := &models.User{ID: 1, IsPremium: true, PremiumValidUntil: &expiry}
		svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

		status, err := svc.PremiumStatus(1)
		require.NoError(t, err)
		assert.True(t, status.IsPremium)
		assert.Equal(t, models.PremiumReasonSubscription, status.Reason)
	})

	t.Run("tutoring credits", func(t *testing.T) {
		user := &models.User{ID: 1}
		svc, ledger, _ := newTestEntitlementService(newFakeUserStore(user))
		_, _, err := ledger.ApplyPurchase(1, 4, "seed", "")
		require.NoError(t, err)

		status, err := svc.PremiumStatus(1)
		require.NoError(t, err)
		assert.True(t, status.IsPremium)
		assert.Equal(t, models.PremiumReasonTutoring, status.Reason)
	})

	t.Run("recent purchase grace period", func(t *testing.T) {
		user := &models.User{ID: 1}
		svc, _, payments := newTestEntitlementService(newFakeUserStore(user))
		require.NoError(t, payments.Create(&models.PaymentRecord{
			UserID:       1,
			Status:       "succeeded",
			PackageHours: 5,
			CreatedAt:    time.Now().AddDate(0, 0, -10),
		}))

		status, err := svc.PremiumStatus(1)
		require.NoError(t, err)
		assert.True(t, status.IsPremium)
		assert.Equal(t, models.PremiumReasonTutoring, status.Reason)
		require.NotNil(t, status.ValidUntil)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 20), *status.ValidUntil, time.Minute)
	})

	t.Run("admin override", func(t *testing.T) {
		user := &models.User{ID: 1, IsAdmin: true}
		svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

		status, err := svc.PremiumStatus(1)
		require.NoError(t, err)
		assert.True(t, status.IsPremium)
		assert.Equal(t, models.PremiumReasonAdmin, status.Reason)
	})

	t.Run("no entitlement", func(t *testing.T) {
		user := &models.User{ID: 1}
		svc, _, _ := newTestEntitlementService(newFakeUserStore(user))

		status, err := svc.PremiumStatus(1)
		require.NoError(t, err)
		assert.False(t, status.IsPremium)
		assert.Empty(t, status.Reason)
	})
}
