package repository

import (
	"github.com/brightpath/tutoring-backend/internal/models"
	"gorm.io/gorm"
)

type UserPurchaseRepository struct {
	db *gorm.DB
}

func NewUserPurchaseRepository(db *gorm.DB) *UserPurchaseRepository {
	return &UserPurchaseRepository{
		db: db,
	}
}

func (r *UserPurchaseRepository) Create(purchase *models.UserPurchase) error {
	return r.db.Create(purchase).Error
}

func (r *UserPurchaseRepository) GetBySessionID(sessionID string) (*models.UserPurchase, error) {
	var purchase models.UserPurchase
	err := r.db.Where("stripe_session_id = ?", sessionID).First(&purchase).Error
	return &purchase, err
}

func (r *UserPurchaseRepository) Update(purchase *models.UserPurchase) error {
	return r.db.Save(purchase).Error
}

func (r *UserPurchaseRepository) GetUserPurchaseHistory(userID uint) ([]models.UserPurchase, error) {
	var purchases []models.UserPurchase
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}
