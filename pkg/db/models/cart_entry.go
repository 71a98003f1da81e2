package models

import (
	"time"

	"github.com/google/uuid"
)

// CartEntry is one (user, product) membership row. Rows always carry qty > 0.
type CartEntry struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:text;primaryKey"`
	ProductID string    `gorm:"column:product_id;primaryKey"`
	Qty       int       `gorm:"column:qty;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartEntry) TableName() string { return "cart_entries" }
