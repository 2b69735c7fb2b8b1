package service

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutrisnap/backend/internal/models"
)

// ProfileService handles user profile operations
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		db: db,
	}
}

// ProfileUpdate carries the optional fields of a profile update. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Name     *string
	Sex      *string
	WeightKg *float64
	HeightCm *float64
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CompleteProfile fills in the body attributes collected after registration.
func (s *ProfileService) CompleteProfile(userID uuid.UUID, sex string, weightKg, heightCm float64) error {
	return s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"sex":       sex,
		"weight_kg": weightKg,
		"height_cm": heightCm,
	}).Error
}

// UpdateProfile applies the provided subset of profile fields.
func (s *ProfileService) UpdateProfile(userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Sex != nil {
		user.Sex = *update.Sex
	}
	if update.WeightKg != nil {
		user.WeightKg = *update.WeightKg
	}
	if update.HeightCm != nil {
		user.HeightCm = *update.HeightCm
	}

	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
