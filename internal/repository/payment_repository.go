package repository

import (
	"time"

	"github.com/brightpath/tutoring-backend/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(payment *models.PaymentRecord) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) Update(payment *models.PaymentRecord) error {
	return r.db.Save(payment).Error
}

func (r *PaymentRepository) GetByStripePaymentID(stripePaymentID string) (*models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := r.db.Where("stripe_payment_id = ?", stripePaymentID).First(&payment).Error
	return &payment, err
}

// LatestSucceededPackage returns the most recent succeeded tutoring-package
// payment since the given time, for the premium grace-period check.
func (r *PaymentRepository) LatestSucceededPackage(userID uint, since time.Time) (*models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := r.db.Where("user_id = ? AND status = ? AND package_hours > 0 AND created_at >= ?",
		userID, "succeeded", since).
		Order("created_at DESC").
		First(&payment).Error
	return &payment, err
}

func (r *PaymentRepository) ListByUserID(userID uint) ([]models.PaymentRecord, error) {
	var payments []models.PaymentRecord
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}
