package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/civicgraph/backend/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("failed to encode JSON response: %v", err)
		}
	}
}

// Error writes an error JSON response, using AppError status codes when available.
func Error(w http.ResponseWriter, err error) {
	if appErr, ok := domain.AsAppError(err); ok {
		JSON(w, appErr.Status, map[string]string{"error": appErr.Message})
		return
	}
	log.Printf("unhandled error: %v", err)
	JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// DecodeJSON decodes and validates a JSON request body.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest("invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		return domain.ErrValidation(err.Error())
	}
	return nil
}

// Denied writes a 403 with the structured entitlement decision, so the
// client can render quota or upgrade messaging.
func Denied(w http.ResponseWriter, decision domain.Decision) {
	JSON(w, http.StatusForbidden, decision)
}
