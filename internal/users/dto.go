package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/qkart/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Balance     decimal.Decimal `json:"balance"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	Balance      decimal.Decimal
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Balance:     u.Balance,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Username:     NormalizeUsername(dto.Username),
		PasswordHash: dto.PasswordHash,
		Balance:      dto.Balance,
	}
}

// NormalizeUsername is the canonical form usernames are stored and looked up in.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
