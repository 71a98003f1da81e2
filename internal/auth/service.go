package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/qkart/internal/users"
	pkgAuth "github.com/angelmondragon/qkart/pkg/auth"
	"github.com/angelmondragon/qkart/pkg/auth/session"
	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/security"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgUnknownUsername = "Username does not exist"
	msgWrongPassword   = "Password is incorrect"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req types.Credentials) (*types.LoginResponse, error)
}

type service struct {
	users       userRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg *config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Open(ctx context.Context, accessID string, userID uuid.UUID) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	// PasswordConfig enables transparent rehashing of stored hashes whose
	// argon2 costs differ from the configured ones. Nil disables it.
	PasswordConfig *config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req types.Credentials) (*types.LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	s.rehashIfStale(ctx, user, req.Password)

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}

	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Open(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	return &types.LoginResponse{
		Token:    token,
		Username: user.Username,
		Balance:  user.Balance,
	}, nil
}

func (s *service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	input := users.NormalizeUsername(username)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUnknownUsername)
	}
	user, err := s.users.FindByUsername(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUnknownUsername)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || strings.TrimSpace(password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgWrongPassword)
	}
	return user, nil
}

// rehashIfStale is best effort; the login itself already succeeded.
func (s *service) rehashIfStale(ctx context.Context, user *models.User, password string) {
	if s.passwordCfg == nil || !security.NeedsRehash(user.PasswordHash, *s.passwordCfg) {
		return
	}
	hash, err := security.HashPassword(password, *s.passwordCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.rehash_failed")
		}
		return
	}
	user.PasswordHash = hash
}
