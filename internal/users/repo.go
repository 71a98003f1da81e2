package users

import (
	"context"
	"time"

	"github.com/angelmondragon/qkart/internal/repo"
	"github.com/angelmondragon/qkart/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists shopper accounts.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the user built from dto; a taken username surfaces as the
// driver's unique violation.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByUsername looks up a user by the normalized username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", NormalizeUsername(username))
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// UpdateLastLogin stamps a successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setColumn(ctx, id, "last_login_at", at)
}

// UpdatePasswordHash replaces the stored argon2id hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.setColumn(ctx, id, "password_hash", hash)
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	if err := r.DB(ctx).Where(query, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// setColumn skips hooks and updated_at so bookkeeping writes stay silent.
func (r *Repository) setColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
