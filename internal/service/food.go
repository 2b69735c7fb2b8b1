package service

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutrisnap/backend/internal/models"
)

var ErrEntryNotFound = errors.New("food entry not found")

// FoodService handles the per-user food log.
type FoodService struct {
	db *gorm.DB
}

func NewFoodService(db *gorm.DB) *FoodService {
	return &FoodService{
		db: db,
	}
}

// ListEntries returns the user's food log, newest first.
func (s *FoodService) ListEntries(userID uuid.UUID) ([]models.FoodEntry, error) {
	var entries []models.FoodEntry
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateEntry adds a food entry owned by the given user.
func (s *FoodService) CreateEntry(userID uuid.UUID, entry *models.FoodEntry) error {
	entry.ID = uuid.New()
	entry.UserID = userID
	return s.db.Create(entry).Error
}

// DeleteEntry removes an entry only when it belongs to the given user. An
// ownership mismatch is indistinguishable from a missing entry.
func (s *FoodService) DeleteEntry(userID, entryID uuid.UUID) error {
	res := s.db.Where("id = ? AND user_id = ?", entryID, userID).Delete(&models.FoodEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
