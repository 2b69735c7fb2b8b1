package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodEntry is a single row of a user's food log. Macro values are per 100g.
type FoodEntry struct {
	ID              uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID          uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name            string    `gorm:"not null" json:"name"`
	CaloriesPer100g float64   `gorm:"not null" json:"calories_per_100g"`
	Proteins        float64   `json:"proteins"`
	Fats            float64   `json:"fats"`
	Carbs           float64   `json:"carbs"`
	CreatedAt       time.Time `json:"created_at"`
}

func (f *FoodEntry) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
