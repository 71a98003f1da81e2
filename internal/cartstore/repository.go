package cartstore

import (
	"context"
	"time"

	"github.com/angelmondragon/qkart/internal/repo"
	"github.com/angelmondragon/qkart/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists cart membership rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListByUser returns the user's rows in the order they were first added.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	var rows []models.CartEntry
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert sets the quantity of one row, inserting it when absent.
func (r *Repository) Upsert(ctx context.Context, userID uuid.UUID, productID string, qty int, now time.Time) error {
	row := models.CartEntry{
		UserID:    userID,
		ProductID: productID,
		Qty:       qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
		}).
		Create(&row).Error
}

// Delete removes one row; deleting an absent row is not an error.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, productID string) error {
	return r.DB(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartEntry{}).Error
}
