package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store.
type Product struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	Name          string              `json:"name" gorm:"type:varchar(255);index;not null" validate:"required,max=255"`
	Description   string              `json:"description" validate:"omitempty,max=2000"`
	Price         decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID    *uint               `json:"category_id,omitempty" gorm:"index"`
	StockQuantity int                 `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string              `json:"image_url" gorm:"type:varchar(512)" validate:"omitempty,max=512"`
	Rating        decimal.NullDecimal `json:"rating" gorm:"type:decimal(2,1)"`
	IsActive      bool                `json:"is_active" gorm:"not null"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `json:"-" gorm:"index"`
}

// TopRatedThreshold is the minimum rating of a product shown under the top rated filter.
var TopRatedThreshold = decimal.RequireFromString("4.5")
