package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/qkart/api/middleware"
	"github.com/angelmondragon/qkart/api/responses"
	"github.com/angelmondragon/qkart/api/validators"
	"github.com/angelmondragon/qkart/internal/auth"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/types"
)

// SessionRevoker ends a login session before its token expires.
type SessionRevoker interface {
	Revoke(ctx context.Context, accessID string) error
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body types.Credentials
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthRegister creates a shopper account.
func AuthRegister(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body types.Registration
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithUsername(r.Context(), user.Username), "auth.registered")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthLogout revokes the session behind the caller's token. It runs behind the
// auth middleware, so the access id is always present.
func AuthLogout(sessions SessionRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		if sessions != nil {
			if err := sessions.Revoke(r.Context(), accessID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
