package session

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Session is the authenticated identity of a storefront user.
// A nil *Session is a valid, unauthenticated session.
type Session struct {
	token    string
	username string
	balance  decimal.Decimal
}

// New builds a session from a successful login.
func New(token, username string, balance decimal.Decimal) *Session {
	return &Session{
		token:    strings.TrimSpace(token),
		username: strings.TrimSpace(username),
		balance:  balance,
	}
}

func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

func (s *Session) Username() string {
	if s == nil {
		return ""
	}
	return s.username
}

func (s *Session) Balance() decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	return s.balance
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
