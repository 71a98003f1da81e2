package cartstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/qkart/internal/products"
	"github.com/angelmondragon/qkart/internal/repo"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgProductNotFound = "Product doesn't exist"
	msgNegativeQty     = "Quantity must be zero or greater"
)

// Service reads and mutates the authoritative cart of a user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) ([]types.CartEntry, error)
	Update(ctx context.Context, userID uuid.UUID, productID string, qty int) ([]types.CartEntry, error)
}

type service struct {
	db       *db.Client
	entries  *Repository
	products *products.Repository
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the cart service on the shared DB client.
func NewService(client *db.Client, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client is required")
	}
	return &service{
		db:       client,
		entries:  NewRepository(client.DB()),
		products: products.NewRepository(client.DB()),
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) ([]types.CartEntry, error) {
	rows, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}
	return toEntries(rows), nil
}

// Update sets productID to qty for the user and returns the full cart. A zero
// quantity removes the row so stored rows always carry qty > 0.
func (s *service) Update(ctx context.Context, userID uuid.UUID, productID string, qty int) ([]types.CartEntry, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgProductNotFound)
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNegativeQty).WithDetails(map[string]any{"qty": qty})
	}

	var rows []models.CartEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ctx := repo.WithTx(ctx, tx)
		ok, err := s.products.Exists(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, msgProductNotFound).WithDetails(map[string]any{"productId": productID})
		}

		if qty == 0 {
			err = s.entries.Delete(ctx, userID, productID)
		} else {
			err = s.entries.Upsert(ctx, userID, productID, qty, s.now().UTC())
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write cart entry")
		}

		rows, err = s.entries.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithProductID(ctx, productID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{"qty": qty, "cart_size": len(rows)})
		s.logg.Info(logCtx, "cart.updated")
	}
	return toEntries(rows), nil
}

func toEntries(rows []models.CartEntry) []types.CartEntry {
	out := make([]types.CartEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.CartEntry{ProductID: row.ProductID, Qty: row.Qty})
	}
	return out
}
