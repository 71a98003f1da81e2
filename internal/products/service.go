package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/qkart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/types"
	"gorm.io/gorm"
)

const (
	msgNoMatches       = "No products found"
	msgProductNotFound = "Product doesn't exist"
)

// Service exposes the read-only catalog operations.
type Service interface {
	List(ctx context.Context) ([]types.Product, error)
	Search(ctx context.Context, value string) ([]types.Product, error)
	Get(ctx context.Context, id string) (*types.Product, error)
}

type catalogRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, value string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type service struct {
	repo catalogRepository
}

// NewService builds the catalog service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]types.Product, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return toDTOs(rows), nil
}

// Search returns NotFound when nothing matches so clients can render an empty state.
func (s *service) Search(ctx context.Context, value string) ([]types.Product, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.List(ctx)
	}
	rows, err := s.repo.Search(ctx, value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNoMatches).WithDetails(map[string]any{"value": value})
	}
	return toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id string) (*types.Product, error) {
	row, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "get product")
	}
	dto := toDTO(*row)
	return &dto, nil
}

func toDTO(row models.Product) types.Product {
	return types.Product{
		ID:       row.ID,
		Name:     row.Name,
		Category: row.Category,
		Cost:     row.Cost,
		Rating:   row.Rating,
		Image:    row.Image,
	}
}

func toDTOs(rows []models.Product) []types.Product {
	out := make([]types.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out
}
