package api

import (
	"errors"
	"net/http"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/httputil"
)

// writeError maps the domain error taxonomy to a status code. Validation,
// auth and lookup failures are shown to the client verbatim; everything
// else is logged and replaced with a generic 500 body.
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		httputil.ErrorWithDetails(w, http.StatusBadRequest, ve.Error(), "validation_error", ve)
	case errors.Is(err, domain.ErrValidation):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.Unauthorized(w, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.NotFound(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// writeCredentialError is writeError for the login and change-password
// routes, which report a credential mismatch as 400.
func writeCredentialError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		httputil.ErrorWithDetails(w, http.StatusBadRequest, err.Error(), "invalid_credentials", nil)
		return
	}
	writeError(w, err)
}
