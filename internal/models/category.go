package models

import "time"

// Category groups products in the catalog.
type Category struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"type:varchar(50);not null" validate:"required,max=50"`
	Description      string    `json:"description" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	ParentCategoryID *uint     `json:"parent_category_id,omitempty"`
	IsActive         bool      `json:"is_active" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	Products         []Product `json:"-" gorm:"constraint:OnDelete:SET NULL"`
}
