package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"adaptive-quiz-service/internal/domain"
)

// errorResponse is the error envelope for every non-2xx reply.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case domain.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrUsernameRejected):
		return http.StatusUnprocessableEntity, "username_rejected"
	case domain.IsInvariant(err):
		return http.StatusConflict, "conflict"
	case domain.IsUpstream(err):
		return http.StatusBadGateway, "upstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func errorBody(err error) (int, errorResponse) {
	status, code := statusFor(err)
	resp := errorResponse{Error: code, Message: err.Error()}
	var v *domain.ValidationError
	if errors.As(err, &v) {
		resp.Field = v.Field
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}
	return status, resp
}

func writeError(w http.ResponseWriter, err error) {
	status, resp := errorBody(err)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
