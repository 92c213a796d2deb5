package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/brightpath/tutoring-backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store interfaces are satisfied by the GORM repositories; tests swap in
// in-memory fakes.

type UserStore interface {
	GetByID(id uint) (*models.User, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
}

type CreditLedgerStore interface {
	GetByUserID(userID uint) (*models.SessionCredit, error)
	ApplyPurchase(userID uint, hours float64, description, stripePaymentID string) (*models.SessionCredit, *models.HourTransaction, error)
	ApplyUsage(userID uint, hours float64, description, sessionRef string) (*models.SessionCredit, *models.HourTransaction, error)
	ApplyRefund(userID uint, hours float64, description string) (*models.SessionCredit, *models.HourTransaction, error)
	ReversePurchase(userID uint, hours float64, description, stripePaymentID string) (*models.SessionCredit, *models.HourTransaction, error)
}

type PaymentStore interface {
	Create(payment *models.PaymentRecord) error
	Update(payment *models.PaymentRecord) error
	GetByStripePaymentID(stripePaymentID string) (*models.PaymentRecord, error)
	LatestSucceededPackage(userID uint, since time.Time) (*models.PaymentRecord, error)
	ListByUserID(userID uint) ([]models.PaymentRecord, error)
}

type TransactionStore interface {
	ListByUserID(userID uint) ([]models.HourTransaction, error)
}

// EntitlementService applies classified purchases and subscription lifecycle
// events to user entitlement state: the premium flag with its validity
// window, and the tutoring hour ledger with its audit trail.
type EntitlementService struct {
	users        UserStore
	ledger       CreditLedgerStore
	payments     PaymentStore
	transactions TransactionStore
	logger       *zap.Logger
}

func NewEntitlementService(
	users UserStore,
	ledger CreditLedgerStore,
	payments PaymentStore,
	transactions TransactionStore,
	logger *zap.Logger,
) *EntitlementService {
	return &EntitlementService{
		users:        users,
		ledger:       ledger,
		payments:     payments,
		transactions: transactions,
		logger:       logger,
	}
}

// PurchaseContext carries the provider-side details of a settled checkout
// that the updater needs besides the classification itself.
type PurchaseContext struct {
	StripeCustomerID string
	StripePaymentID  string
	AmountTotal      float64
	Currency         string
}

// ApplyClassification mutates the user's entitlement state for one
// classified line item. Unrecognized items are skipped by the caller.
func (s *EntitlementService) ApplyClassification(user *models.User, c Classification, ctx PurchaseContext) error {
	switch c.Kind {
	case KindPremiumSubscription:
		months := models.MonthsForTier(c.Tier)
		if err := s.grantPremium(user, months, ctx.StripeCustomerID); err != nil {
			return fmt.Errorf("grant premium subscription: %w", err)
		}
		s.logger.Info("activated premium subscription",
			zap.Uint("user_id", user.ID),
			zap.String("tier", string(c.Tier)),
			zap.Int("months", months),
		)
		return nil

	case KindHourPackage:
		description := fmt.Sprintf("Purchased %g hours tutoring package", c.Hours)
		credit, tx, err := s.ledger.ApplyPurchase(user.ID, c.Hours, description, ctx.StripePaymentID)
		if err != nil {
			return fmt.Errorf("credit hours: %w", err)
		}

		currency := ctx.Currency
		if currency == "" {
			currency = "usd"
		}
		if err := s.payments.Create(&models.PaymentRecord{
			UserID:          user.ID,
			Amount:          ctx.AmountTotal,
			Currency:        currency,
			Status:          "succeeded",
			Description:     description,
			StripePaymentID: ctx.StripePaymentID,
			PackageHours:    c.Hours,
		}); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		// Tutoring packages bundle premium access, tiered by package
		// size so larger purchases earn a longer window.
		months := premiumMonthsForPackage(c.Hours)
		if err := s.grantPremium(user, months, ""); err != nil {
			return fmt.Errorf("grant bundled premium: %w", err)
		}

		s.logger.Info("credited tutoring hours",
			zap.Uint("user_id", user.ID),
			zap.Float64("hours", c.Hours),
			zap.Float64("balance_before", tx.BalanceBefore),
			zap.Float64("balance_after", credit.Hours),
			zap.Int("premium_months", months),
		)
		return nil
	}

	return nil
}

func premiumMonthsForPackage(hours float64) int {
	switch {
	case hours >= 20:
		return 12
	case hours >= 10:
		return 6
	default:
		return 3
	}
}

// grantPremium overwrites the validity window rather than stacking it: a new
// purchase replaces the stored expiry. The start date is only set on the
// transition into premium, never reset by a later purchase.
func (s *EntitlementService) grantPremium(user *models.User, months int, stripeCustomerID string) error {
	now := time.Now()
	validUntil := now.AddDate(0, months, 0)

	if !user.IsPremium {
		user.PremiumSince = &now
	}
	user.IsPremium = true
	user.PremiumValidUntil = &validUntil
	if stripeCustomerID != "" {
		user.StripeCustomerID = stripeCustomerID
	}

	return s.users.Update(user)
}

// HandleSubscriptionRenewed trusts the provider's billing-cycle clock: the
// new expiry comes from the subscription's current period end, not a locally
// added duration.
func (s *EntitlementService) HandleSubscriptionRenewed(stripeCustomerID string, periodEnd time.Time) error {
	user, err := s.users.GetByStripeCustomerID(stripeCustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info("subscription renewal for unknown customer",
			zap.String("stripe_customer_id", stripeCustomerID))
		return nil
	}
	if err != nil {
		return err
	}

	user.IsPremium = true
	user.PremiumValidUntil = &periodEnd
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.logger.Info("renewed premium subscription",
		zap.Uint("user_id", user.ID),
		zap.Time("valid_until", periodEnd),
	)
	return nil
}

// HandleSubscriptionCancelled revokes premium unless the user still holds
// tutoring credits: credit-derived premium is independent of subscription
// status.
func (s *EntitlementService) HandleSubscriptionCancelled(stripeCustomerID string) error {
	user, err := s.users.GetByStripeCustomerID(stripeCustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info("subscription cancellation for unknown customer",
			zap.String("stripe_customer_id", stripeCustomerID))
		return nil
	}
	if err != nil {
		return err
	}

	credit, err := s.ledger.GetByUserID(user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil && credit.Hours > 0 {
		s.logger.Info("subscription cancelled but user keeps premium via tutoring credits",
			zap.Uint("user_id", user.ID),
			zap.Float64("remaining_hours", credit.Hours),
		)
		return nil
	}

	user.IsPremium = false
	user.PremiumValidUntil = nil
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.logger.Info("cancelled premium subscription",
		zap.Uint("user_id", user.ID),
	)
	return nil
}

// HandleChargeRefunded reverses an hour-package purchase. Refunds for
// payments this system never recorded are ignored.
func (s *EntitlementService) HandleChargeRefunded(stripePaymentID string) error {
	if stripePaymentID == "" {
		return nil
	}

	payment, err := s.payments.GetByStripePaymentID(stripePaymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if payment.Status == "refunded" || payment.PackageHours <= 0 {
		return nil
	}

	description := fmt.Sprintf("Refund of %g hours tutoring package", payment.PackageHours)
	if _, _, err := s.ledger.ReversePurchase(payment.UserID, payment.PackageHours, description, stripePaymentID); err != nil {
		return err
	}

	payment.Status = "refunded"
	if err := s.payments.Update(payment); err != nil {
		return err
	}

	s.logger.Info("reversed hour package purchase after charge refund",
		zap.Uint("user_id", payment.UserID),
		zap.Float64("hours", payment.PackageHours),
	)
	return nil
}

// DeriveEntitlement is the single source of truth for "should this user
// have premium": an unexpired validity window OR a positive hour balance.
func DeriveEntitlement(user *models.User, credit *models.SessionCredit) (bool, *time.Time) {
	now := time.Now()
	shouldHavePremium := false
	validUntil := user.PremiumValidUntil

	if user.PremiumValidUntil != nil && user.PremiumValidUntil.After(now) {
		shouldHavePremium = true
	}

	if credit != nil && credit.Hours > 0 {
		shouldHavePremium = true
		// Credits without a live subscription window get a rolling
		// 3-month buffer.
		if validUntil == nil || validUntil.Before(now) {
			extended := now.AddDate(0, 3, 0)
			validUntil = &extended
		}
	}

	return shouldHavePremium, validUntil
}

// CheckAndUpdatePremiumStatus is the on-demand correction path: it recomputes
// entitlement from stored state and writes only when the premium flag
// actually changed. An external scheduler (or a login hook) drives it; the
// service never schedules itself.
func (s *EntitlementService) CheckAndUpdatePremiumStatus(userID uint) error {
	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	credit, err := s.ledger.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		credit = nil
	}

	shouldHavePremium, validUntil := DeriveEntitlement(user, credit)
	if user.IsPremium == shouldHavePremium {
		return nil
	}

	user.IsPremium = shouldHavePremium
	user.PremiumValidUntil = validUntil
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.logger.Info("reconciled premium status",
		zap.Uint("user_id", userID),
		zap.Bool("is_premium", shouldHavePremium),
	)
	return nil
}

// PremiumStatus reports whether the user currently has premium and why,
// checking in order: a live subscription window, a positive credit balance,
// a 30-day grace window after the last package purchase, and the admin
// override.
func (s *EntitlementService) PremiumStatus(userID uint) (*models.PremiumStatus, error) {
	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if user.IsPremium && user.PremiumValidUntil != nil && user.PremiumValidUntil.After(now) {
		return &models.PremiumStatus{
			IsPremium:  true,
			Reason:     models.PremiumReasonSubscription,
			ValidUntil: user.PremiumValidUntil,
		}, nil
	}

	credit, err := s.ledger.GetByUserID(userID)
	if err == nil && credit.Hours > 0 {
		// Premium lasts as long as the credits do.
		return &models.PremiumStatus{
			IsPremium: true,
			Reason:    models.PremiumReasonTutoring,
		}, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	payment, err := s.payments.LatestSucceededPackage(userID, now.AddDate(-1, 0, 0))
	if err == nil {
		graceEnd := payment.CreatedAt.AddDate(0, 0, 30)
		if graceEnd.After(now) {
			return &models.PremiumStatus{
				IsPremium:  true,
				Reason:     models.PremiumReasonTutoring,
				ValidUntil: &graceEnd,
			}, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if user.IsAdmin {
		return &models.PremiumStatus{
			IsPremium: true,
			Reason:    models.PremiumReasonAdmin,
		}, nil
	}

	return &models.PremiumStatus{IsPremium: false}, nil
}

func (s *EntitlementService) GetBalance(userID uint) (*models.SessionCredit, error) {
	credit, err := s.ledger.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No purchases yet reads as an empty ledger, not an error.
		return &models.SessionCredit{UserID: userID}, nil
	}
	return credit, err
}

func (s *EntitlementService) GetTransactions(userID uint) ([]models.HourTransaction, error) {
	return s.transactions.ListByUserID(userID)
}

// UseHours deducts balance for a delivered tutoring session.
func (s *EntitlementService) UseHours(userID uint, hours float64, description, sessionRef string) (*models.HourTransaction, error) {
	if hours <= 0 {
		return nil, ErrInvalidHours
	}
	if description == "" {
		description = fmt.Sprintf("Used %g hours for tutoring session", hours)
	}
	_, tx, err := s.ledger.ApplyUsage(userID, hours, description, sessionRef)
	return tx, err
}

// GrantPremiumTier is the admin manual premium grant, using the same tier
// durations a purchased subscription would.
func (s *EntitlementService) GrantPremiumTier(userID uint, tier models.Tier) error {
	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	months := models.MonthsForTier(tier)
	if err := s.grantPremium(user, months, ""); err != nil {
		return err
	}

	s.logger.Info("manually granted premium",
		zap.Uint("user_id", userID),
		zap.String("tier", string(tier)),
		zap.Int("months", months),
	)
	return nil
}

// GrantHours is the admin manual adjustment, audited like a purchase.
func (s *EntitlementService) GrantHours(userID uint, hours float64, description string) (*models.HourTransaction, error) {
	if hours <= 0 {
		return nil, ErrInvalidHours
	}
	if _, err := s.users.GetByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if description == "" {
		description = fmt.Sprintf("Manual credit of %g hours", hours)
	}
	_, tx, err := s.ledger.ApplyPurchase(userID, hours, description, "")
	return tx, err
}

// RefundHours returns used hours to the balance, e.g. for a cancelled
// session.
func (s *EntitlementService) RefundHours(userID uint, hours float64, description string) (*models.HourTransaction, error) {
	if hours <= 0 {
		return nil, ErrInvalidHours
	}
	if description == "" {
		description = fmt.Sprintf("Refunded %g hours", hours)
	}
	_, tx, err := s.ledger.ApplyRefund(userID, hours, description)
	return tx, err
}
