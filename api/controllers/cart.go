package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/qkart/api/middleware"
	"github.com/angelmondragon/qkart/api/responses"
	"github.com/angelmondragon/qkart/api/validators"
	"github.com/angelmondragon/qkart/internal/cartstore"
	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/types"
)

// CartGet returns the caller's cart membership.
func CartGet(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// CartUpdate sets one product to an absolute quantity and returns the whole cart.
func CartUpdate(svc cartstore.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body types.CartUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Update(r.Context(), userID, body.ProductID, *body.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "authentication required")
	}
	return id, nil
}
