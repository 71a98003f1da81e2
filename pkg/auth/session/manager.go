package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/qkart/pkg/config"
	redisclient "github.com/angelmondragon/qkart/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var errMissingAccessID = errors.New("access id is required")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Manager records one Redis key per issued token (keyed by its jti) holding
// the owner's user id. Logout deletes the key, which revokes the token before
// its JWT expiry.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// AccessSessionChecker is what the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string, userID uuid.UUID) (bool, error)
}

// NewManager keeps sessions alive exactly as long as the tokens they back.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	return &Manager{store: client, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errMissingAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

// Open records a session for accessID owned by userID.
func (m *Manager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	if userID == uuid.Nil {
		return errors.New("user id is required")
	}
	return m.store.Set(ctx, key, userID.String(), m.ttl)
}

// Revoke deletes the session. Revoking an unknown session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// HasSession reports whether accessID is live and owned by userID. A session
// recorded for another user is treated as absent.
func (m *Manager) HasSession(ctx context.Context, accessID string, userID uuid.UUID) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	owner, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner == userID.String(), nil
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}
