package auth

import (
	"context"
	"testing"

	"github.com/angelmondragon/qkart/internal/users"
	"github.com/angelmondragon/qkart/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/security"
	"github.com/angelmondragon/qkart/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesUserWithStartingBalance(t *testing.T) {
	client := dbtest.Open(t)
	repo := users.NewRepository(client.DB())
	svc, err := NewRegisterService(RegisterServiceParams{
		UserRepo:        repo,
		PasswordConfig:  testPasswordConfig,
		StartingBalance: 5000,
	})
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Register(ctx, types.Registration{Username: "crio-user", Password: "learnbydoing"})
	require.NoError(t, err)
	assert.Equal(t, "crio-user", dto.Username)
	assert.True(t, decimal.NewFromInt(5000).Equal(dto.Balance))

	stored, err := repo.FindByUsername(ctx, "crio-user")
	require.NoError(t, err)
	assert.NotEqual(t, "learnbydoing", stored.PasswordHash)
	ok, err := security.VerifyPassword("learnbydoing", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewRegisterService(RegisterServiceParams{
		UserRepo:       users.NewRepository(client.DB()),
		PasswordConfig: testPasswordConfig,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Register(ctx, types.Registration{Username: "crio-user", Password: "learnbydoing"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, types.Registration{Username: "crio-user ", Password: "another-one"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Equal(t, msgUsernameTaken, pkgerrors.As(err).Message())
}

func TestRegisterThenLogin(t *testing.T) {
	client := dbtest.Open(t)
	repo := users.NewRepository(client.DB())
	reg, err := NewRegisterService(RegisterServiceParams{UserRepo: repo, PasswordConfig: testPasswordConfig, StartingBalance: 5000})
	require.NoError(t, err)
	login, err := NewService(ServiceParams{UserRepo: repo, SessionManager: &stubSessionManager{}, JWTConfig: testJWTConfig()})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = reg.Register(ctx, types.Registration{Username: "crio-user", Password: "learnbydoing"})
	require.NoError(t, err)

	resp, err := login.Login(ctx, types.Credentials{Username: "crio-user", Password: "learnbydoing"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, decimal.NewFromInt(5000).Equal(resp.Balance))
}
