package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const fileMode = 0o600

type fileRecord struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Balance  string `yaml:"balance"`
}

// Store persists a session to a YAML file between CLI invocations.
type Store struct {
	path string
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted session, or nil when none exists.
func (s *Store) Load() (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var rec fileRecord
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if strings.TrimSpace(rec.Token) == "" {
		return nil, nil
	}

	balance := decimal.Zero
	if rec.Balance != "" {
		if balance, err = decimal.NewFromString(rec.Balance); err != nil {
			return nil, fmt.Errorf("decode session balance: %w", err)
		}
	}
	return New(rec.Token, rec.Username, balance), nil
}

// Save writes sess with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	if !sess.Authenticated() {
		return errors.New("cannot persist an unauthenticated session")
	}
	raw, err := yaml.Marshal(fileRecord{
		Token:    sess.Token(),
		Username: sess.Username(),
		Balance:  sess.Balance().String(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, fileMode); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Chmod(s.path, fileMode)
}

// Clear removes the persisted session. Clearing a missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
