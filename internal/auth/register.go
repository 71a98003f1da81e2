package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/qkart/internal/users"
	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db"
	"github.com/angelmondragon/qkart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/security"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const msgUsernameTaken = "Username is already taken"

// RegisterService creates shopper accounts.
type RegisterService interface {
	Register(ctx context.Context, req types.Registration) (*users.UserDTO, error)
}

type registerRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo        registerRepository
	PasswordConfig  config.PasswordConfig
	StartingBalance int64
}

type registerService struct {
	users       registerRepository
	passwordCfg config.PasswordConfig
	balance     decimal.Decimal
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &registerService{
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
		balance:     decimal.NewFromInt(params.StartingBalance),
	}, nil
}

func (s *registerService) Register(ctx context.Context, req types.Registration) (*users.UserDTO, error) {
	username := users.NormalizeUsername(req.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUsernameTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: passwordHash,
		Balance:      s.balance,
	})
	if err != nil {
		// a concurrent registration can win the race past the lookup above
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUsernameTaken)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.FromModel(user), nil
}
