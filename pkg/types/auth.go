package types

import "github.com/shopspring/decimal"

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Username string `json:"username" validate:"required,min=6,max=32"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginResponse is returned by a successful POST /auth/login.
type LoginResponse struct {
	Token    string          `json:"token"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}
