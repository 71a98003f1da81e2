package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is a storefront shopper with a wallet balance.
type User struct {
	ID           uuid.UUID       `gorm:"column:id;type:text;primaryKey"`
	Username     string          `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns a random id when none is set.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
