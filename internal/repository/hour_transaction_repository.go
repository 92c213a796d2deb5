package repository

import (
	"github.com/brightpath/tutoring-backend/internal/models"
	"gorm.io/gorm"
)

type HourTransactionRepository struct {
	db *gorm.DB
}

func NewHourTransactionRepository(db *gorm.DB) *HourTransactionRepository {
	return &HourTransactionRepository{
		db: db,
	}
}

func (r *HourTransactionRepository) ListByUserID(userID uint) ([]models.HourTransaction, error) {
	var transactions []models.HourTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}
