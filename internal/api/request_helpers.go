package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/corkboard/internal/api/shared"
	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/service/auth"
)

// parseIDParam reads a UUID route parameter.
func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(name, "is required", domain.ErrValidation)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// authenticatedID checks the request carries a user and returns the UUID
// route parameter name. On failure it has already written the response.
func authenticatedID(w http.ResponseWriter, r *http.Request, name string, log *slog.Logger) (uuid.UUID, bool) {
	if _, ok := shared.UserIDFromContext(r.Context()); !ok {
		log.Warn("request reached handler without a user")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, false
	}
	id, err := parseIDParam(r, name)
	if err != nil {
		log.Debug("rejecting route parameter", "param", name, "value", chi.URLParam(r, name))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate reads the JSON body into v and validates it. On failure
// it has already written a 400.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	err := shared.DecodeJSON(r, v)
	switch {
	case err != nil && MapErrorToStatusCode(err) == http.StatusBadRequest:
		HandleAPIError(w, r, err, "")
		return false
	case err != nil:
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
