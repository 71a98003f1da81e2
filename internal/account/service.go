package account

import (
	"context"
	"fmt"

	"github.com/angelmondragon/qkart/internal/session"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/types"
)

// Backend is the subset of the API client used for account flows.
type Backend interface {
	Login(ctx context.Context, username, password string) (*types.LoginResponse, error)
	Register(ctx context.Context, username, password string) error
	Logout(ctx context.Context, token string) error
}

type Service struct {
	backend   Backend
	persister session.Persister
	logg      *logger.Logger
}

func NewService(backend Backend, persister session.Persister, logg *logger.Logger) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("account backend required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{backend: backend, persister: persister, logg: logg}, nil
}

// Register validates the form and creates the account. It does not log in.
func (s *Service) Register(ctx context.Context, form RegisterForm) error {
	form.normalize()
	if err := form.Validate(); err != nil {
		return err
	}
	ctx = s.logg.WithUsername(ctx, form.Username)
	if err := s.backend.Register(ctx, form.Username, form.Password); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", pkgerrors.As(err).Message()), "account.register.failed")
		return err
	}
	s.logg.Info(ctx, "account.register.ok")
	return nil
}

// Login validates the form, authenticates and persists the resulting session.
func (s *Service) Login(ctx context.Context, form LoginForm) (*session.Session, error) {
	form.normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	ctx = s.logg.WithUsername(ctx, form.Username)

	res, err := s.backend.Login(ctx, form.Username, form.Password)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", pkgerrors.As(err).Message()), "account.login.failed")
		return nil, err
	}

	sess := session.New(res.Token, res.Username, res.Balance)
	if err := session.Init(s.persister, sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session")
	}
	s.logg.Info(ctx, "account.login.ok")
	return sess, nil
}

// Logout revokes the server session when possible and always discards the local one.
func (s *Service) Logout(ctx context.Context, sess *session.Session) error {
	if sess.Authenticated() {
		ctx = s.logg.WithUsername(ctx, sess.Username())
		if err := s.backend.Logout(ctx, sess.Token()); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "account.logout.remote_failed")
		}
	}
	if err := session.Teardown(s.persister); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear session")
	}
	s.logg.Info(ctx, "account.logout.ok")
	return nil
}
