package repository

import (
	"github.com/brightpath/tutoring-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProcessedEventRepository struct {
	db *gorm.DB
}

func NewProcessedEventRepository(db *gorm.DB) *ProcessedEventRepository {
	return &ProcessedEventRepository{
		db: db,
	}
}

// MarkProcessed claims an event ID for processing. The insert races through
// the unique index on event_id: the first delivery gets true, a concurrent
// or repeated delivery loses the insert and gets false.
func (r *ProcessedEventRepository) MarkProcessed(eventID, eventType string) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&models.ProcessedEvent{
		EventID:   eventID,
		EventType: eventType,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Forget releases a claim after a failed dispatch so the provider's retry is
// processed instead of skipped.
func (r *ProcessedEventRepository) Forget(eventID string) error {
	return r.db.Where("event_id = ?", eventID).Delete(&models.ProcessedEvent{}).Error
}
