package products

import (
	"context"
	"strings"

	"github.com/angelmondragon/qkart/internal/repo"
	"github.com/angelmondragon/qkart/pkg/db/models"
	"gorm.io/gorm"
)

const searchQuery = `LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\'`

// Repository reads the product catalog.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns every product ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.DB(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Search matches value case-insensitively against name or category.
func (r *Repository) Search(ctx context.Context, value string) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(value)) + "%"
	var rows []models.Product
	if err := r.DB(ctx).
		Where(searchQuery, pattern, pattern).
		Order("name ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one product.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var row models.Product
	if err := r.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Exists reports whether a product with id is in the catalog.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
