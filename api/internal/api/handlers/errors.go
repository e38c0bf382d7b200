// api/internal/api/handlers/errors.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"pixelfort/api/internal/core/domain"
)

// validate is shared by every handler; validator.New is expensive enough
// to build once.
var validate = validator.New()

type errorResponse struct {
	Message string `json:"message"`
}

// HandleError is the single place errors become HTTP status codes. The
// service layer speaks the domain taxonomy; nothing below this function
// should write a status for a known error kind.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var provErr *domain.ProviderError
	var valErr validator.ValidationErrors

	switch {
	case errors.Is(err, domain.ErrInvalidDomain):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &valErr):
		respondError(w, http.StatusBadRequest, "validation failed: "+valErr.Error())
	case errors.Is(err, domain.ErrDomainExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrDomainLimitExceeded):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrCannotDeleteDefault),
		errors.Is(err, domain.ErrDomainInUse):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotConfigured):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.As(err, &provErr):
		// Provider rejections surface verbatim; the caller decides whether
		// to retry, we never do.
		respondError(w, http.StatusBadGateway, provErr.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Message: msg})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// claimsFrom pulls the verified principal off the request context.
func claimsFrom(r *http.Request) (*domain.UserClaims, bool) {
	claims, ok := r.Context().Value(domain.UserContextKey).(*domain.UserClaims)
	return claims, ok
}
