package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/angelmondragon/qkart/pkg/types"
)

var errUnknown = errors.New("unknown error")

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Envelope[any]{Data: data})
}

// WriteError renders err as an error envelope. Untyped errors become
// CodeInternal so their text never reaches the client.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errUnknown
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	body := types.ErrorBody{
		Code:    string(typed.Code()),
		Message: typed.PublicMessage(),
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}

	logFailure(ctx, logg, meta.HTTPStatus, err)
	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: body})
}

func logFailure(ctx context.Context, logg *logger.Logger, status int, err error) {
	if logg == nil {
		return
	}
	ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(payload)
}
