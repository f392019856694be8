// Package handlers provides the JSON HTTP handlers for the evolution API
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Success bool                    `json:"success"`
	Data    interface{}             `json:"data,omitempty"`
	Error   *apperrors.ErrorDetails `json:"error,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}, message string) {
	writeJSON(w, logger, status, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// writeError maps err onto its AppError status and envelope. Server-side
// failures are logged with full detail; the client sees the message only.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, "Internal server error")
	}

	status := appErr.StatusCode()
	requestID := middleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("code", string(appErr.Code)),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	resp := apperrors.ToErrorResponse(appErr, requestID)
	writeJSON(w, logger, status, APIResponse{
		Success: false,
		Error:   &resp.Error,
		Message: appErr.Message,
	})
}
