package repository

import (
	"errors"
	"fmt"

	"github.com/brightpath/tutoring-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNoCreditBalance   = errors.New("no credit balance found")
	ErrInsufficientHours = errors.New("insufficient hours")
)

// CreditLedgerRepository owns all mutations of SessionCredit. Every mutation
// runs in one row-locked transaction together with its HourTransaction audit
// row, so concurrent webhook deliveries cannot lose updates and the ledger
// invariant hours == total_purchased - total_used survives every operation.
type CreditLedgerRepository struct {
	db *gorm.DB
}

func NewCreditLedgerRepository(db *gorm.DB) *CreditLedgerRepository {
	return &CreditLedgerRepository{
		db: db,
	}
}

func (r *CreditLedgerRepository) GetByUserID(userID uint) (*models.SessionCredit, error) {
	var credit models.SessionCredit
	err := r.db.Where("user_id = ?", userID).First(&credit).Error
	return &credit, err
}

// ApplyPurchase credits purchased hours, creating the ledger row on first
// purchase, and appends a PURCHASE audit row.
func (r *CreditLedgerRepository) ApplyPurchase(userID uint, hours float64, description, stripePaymentID string) (*models.SessionCredit, *models.HourTransaction, error) {
	var credit models.SessionCredit
	var tx *models.HourTransaction

	err := r.db.Transaction(func(db *gorm.DB) error {
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&credit).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			credit = models.SessionCredit{UserID: userID}
			if err := db.Create(&credit).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		before := credit.Hours
		credit.Hours = before + hours
		credit.TotalPurchased += hours
		if err := db.Save(&credit).Error; err != nil {
			return err
		}

		tx = &models.HourTransaction{
			Type:            models.TransactionPurchase,
			Hours:           hours,
			BalanceBefore:   before,
			BalanceAfter:    credit.Hours,
			Description:     description,
			StripePaymentID: stripePaymentID,
			UserID:          userID,
			CreditID:        credit.ID,
		}
		return db.Create(tx).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("apply purchase: %w", err)
	}
	return &credit, tx, nil
}

// ApplyUsage deducts hours for a tutoring session and appends a USE audit row
// with a negative delta. Fails without mutation when the balance is missing
// or too small.
func (r *CreditLedgerRepository) ApplyUsage(userID uint, hours float64, description, sessionRef string) (*models.SessionCredit, *models.HourTransaction, error) {
	var credit models.SessionCredit
	var tx *models.HourTransaction

	err := r.db.Transaction(func(db *gorm.DB) error {
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&credit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCreditBalance
		}
		if err != nil {
			return err
		}
		if credit.Hours < hours {
			return ErrInsufficientHours
		}

		before := credit.Hours
		credit.Hours = before - hours
		credit.TotalUsed += hours
		if err := db.Save(&credit).Error; err != nil {
			return err
		}

		tx = &models.HourTransaction{
			Type:          models.TransactionUse,
			Hours:         -hours,
			BalanceBefore: before,
			BalanceAfter:  credit.Hours,
			Description:   description,
			SessionRef:    sessionRef,
			UserID:        userID,
			CreditID:      credit.ID,
		}
		return db.Create(tx).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &credit, tx, nil
}

// ApplyRefund returns previously used hours to the balance (e.g. a cancelled
// session) and appends a REFUND audit row.
func (r *CreditLedgerRepository) ApplyRefund(userID uint, hours float64, description string) (*models.SessionCredit, *models.HourTransaction, error) {
	var credit models.SessionCredit
	var tx *models.HourTransaction

	err := r.db.Transaction(func(db *gorm.DB) error {
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&credit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCreditBalance
		}
		if err != nil {
			return err
		}

		before := credit.Hours
		credit.Hours = before + hours
		credit.TotalUsed -= hours
		if credit.TotalUsed < 0 {
			// A refund beyond what was used counts only the overshoot as
			// granted hours, keeping hours == total_purchased - total_used.
			credit.TotalPurchased += -credit.TotalUsed
			credit.TotalUsed = 0
		}
		if err := db.Save(&credit).Error; err != nil {
			return err
		}

		tx = &models.HourTransaction{
			Type:          models.TransactionRefund,
			Hours:         hours,
			BalanceBefore: before,
			BalanceAfter:  credit.Hours,
			Description:   description,
			UserID:        userID,
			CreditID:      credit.ID,
		}
		return db.Create(tx).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &credit, tx, nil
}

// ReversePurchase takes back hours after a charge refund. The deduction is
// clamped to the remaining balance so the ledger never goes negative.
func (r *CreditLedgerRepository) ReversePurchase(userID uint, hours float64, description, stripePaymentID string) (*models.SessionCredit, *models.HourTransaction, error) {
	var credit models.SessionCredit
	var tx *models.HourTransaction

	err := r.db.Transaction(func(db *gorm.DB) error {
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&credit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCreditBalance
		}
		if err != nil {
			return err
		}

		deduct := hours
		if deduct > credit.Hours {
			deduct = credit.Hours
		}

		before := credit.Hours
		credit.Hours = before - deduct
		credit.TotalPurchased -= deduct
		if err := db.Save(&credit).Error; err != nil {
			return err
		}

		tx = &models.HourTransaction{
			Type:            models.TransactionRefund,
			Hours:           -deduct,
			BalanceBefore:   before,
			BalanceAfter:    credit.Hours,
			Description:     description,
			StripePaymentID: stripePaymentID,
			UserID:          userID,
			CreditID:        credit.ID,
		}
		return db.Create(tx).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &credit, tx, nil
}
