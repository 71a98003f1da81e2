package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one sellable item of the storefront catalog.
type Product struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Category  string          `gorm:"column:category;not null"`
	Cost      decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null"`
	Rating    int             `gorm:"column:rating;not null;default:0"`
	Image     string          `gorm:"column:image;not null;default:''"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
