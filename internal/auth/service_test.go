package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/qkart/pkg/auth"
	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/security"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testPasswordConfig = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "qkart", ExpirationMinutes: 30}
}

func TestServiceLoginIssuesTokenAndSession(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "crio-user",
		PasswordHash: mustHashPassword(t, "learnbydoing"),
		Balance:      decimal.NewFromInt(5000),
	}
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), types.Credentials{Username: " crio-user ", Password: "learnbydoing"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Username != "crio-user" || !resp.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected response %+v", resp)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.Token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "crio-user" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if sessions.opened[claims.ID] != user.ID {
		t.Fatalf("expected session %s to be opened for %s", claims.ID, user.ID)
	}
	if user.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "crio-user",
		PasswordHash: mustHashPassword(t, "learnbydoing"),
	}

	cases := map[string]struct {
		repo    *stubUserRepo
		creds   types.Credentials
		message string
		code    pkgerrors.Code
	}{
		"unknown user": {
			repo:    &stubUserRepo{},
			creds:   types.Credentials{Username: "nobody", Password: "learnbydoing"},
			message: msgUnknownUsername,
			code:    pkgerrors.CodeValidation,
		},
		"wrong password": {
			repo:    &stubUserRepo{user: user},
			creds:   types.Credentials{Username: "crio-user", Password: "wrong-one"},
			message: msgWrongPassword,
			code:    pkgerrors.CodeValidation,
		},
		"store failure": {
			repo:    &stubUserRepo{err: errors.New("db down")},
			creds:   types.Credentials{Username: "crio-user", Password: "learnbydoing"},
			message: "lookup user",
			code:    pkgerrors.CodeInternal,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sessions := &stubSessionManager{}
			svc, err := NewService(ServiceParams{UserRepo: tc.repo, SessionManager: sessions, JWTConfig: testJWTConfig()})
			if err != nil {
				t.Fatalf("build service: %v", err)
			}
			_, err = svc.Login(context.Background(), tc.creds)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.code || typed.Message() != tc.message {
				t.Fatalf("expected %s %q, got %v", tc.code, tc.message, err)
			}
			if len(sessions.opened) != 0 {
				t.Fatal("no session should be opened")
			}
		})
	}
}

func TestServiceLoginSurfacesSessionFailure(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "crio-user", PasswordHash: mustHashPassword(t, "learnbydoing")}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: &stubSessionManager{err: errors.New("redis down")},
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	_, err = svc.Login(context.Background(), types.Credentials{Username: "crio-user", Password: "learnbydoing"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{SessionManager: &stubSessionManager{}}); err == nil {
		t.Fatal("expected error without user repository")
	}
	if _, err := NewService(ServiceParams{UserRepo: &stubUserRepo{}}); err == nil {
		t.Fatal("expected error without session manager")
	}
}

func TestServiceLoginRehashesStaleHash(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "crio-user",
		PasswordHash: mustHashPassword(t, "learnbydoing"),
	}
	original := user.PasswordHash
	stronger := testPasswordConfig
	stronger.ArgonTime = 2

	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig(),
		PasswordConfig: &stronger,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if _, err := svc.Login(context.Background(), types.Credentials{Username: "crio-user", Password: "learnbydoing"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed != 1 || user.PasswordHash == original {
		t.Fatalf("expected one rehash, got %d", repo.rehashed)
	}
	if security.NeedsRehash(user.PasswordHash, stronger) {
		t.Fatal("stored hash should match the configured params")
	}

	if _, err := svc.Login(context.Background(), types.Credentials{Username: "crio-user", Password: "learnbydoing"}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if repo.rehashed != 1 {
		t.Fatalf("expected no further rehash, got %d", repo.rehashed)
	}
}

func TestServiceLoginSurvivesRehashFailure(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "crio-user",
		PasswordHash: mustHashPassword(t, "learnbydoing"),
	}
	stronger := testPasswordConfig
	stronger.ArgonTime = 2

	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user, rehashErr: errors.New("db down")},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig(),
		PasswordConfig: &stronger,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	if _, err := svc.Login(context.Background(), types.Credentials{Username: "crio-user", Password: "learnbydoing"}); err != nil {
		t.Fatalf("login should succeed when rehash fails: %v", err)
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	err       error
	rehashed  int
	rehashErr error
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if s.rehashErr != nil {
		return s.rehashErr
	}
	s.rehashed++
	if s.user != nil && s.user.ID == id {
		s.user.PasswordHash = hash
	}
	return nil
}

type stubSessionManager struct {
	opened map[string]uuid.UUID
	err    error
}

func (s *stubSessionManager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	if s.opened == nil {
		s.opened = map[string]uuid.UUID{}
	}
	s.opened[accessID] = userID
	return nil
}
