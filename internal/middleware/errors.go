package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/cygree/internal/apperr"
)

// ErrorResponse описывает тело ответа с ошибкой.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusCode возвращает HTTP-статус для вида ошибки.
func StatusCode(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrState, apperr.ErrAlreadyClaimed, apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrInsufficientPoints:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// WriteError пишет ошибку в формате {"kind", "message"}.
// Ошибки вне таксономии отдаются как internal_error без подробностей.
func WriteError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Kind: "internal_error", Message: "internal error"}
	if k := apperr.KindOf(err); k != nil {
		resp = ErrorResponse{Kind: k.Error(), Message: apperr.Message(err)}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(resp)
}
