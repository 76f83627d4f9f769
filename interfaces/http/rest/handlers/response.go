package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/isaac-evs/neurotype-prod-backend/pkg/auth"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// maxJSONBody bounds every JSON request body
const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return pkgerrors.NewValidationError("Invalid request body: " + err.Error())
	}
	return nil
}

// callerID returns the authenticated user, or writes a 401
func callerID(w http.ResponseWriter, r *http.Request, errs *pkgerrors.ErrorHandler) (string, bool) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Not authenticated"))
		return "", false
	}
	return userCtx.UserID, true
}
