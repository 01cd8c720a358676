package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"pathlight-web/pkg/errors"
	"pathlight-web/pkg/logger"
)

// WriteError writes appErr as the standard JSON error body
func WriteError(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, log *logger.Logger) {
	entry := log.WithFields(map[string]interface{}{
		"type":        appErr.Type,
		"status_code": appErr.StatusCode,
		"path":        r.URL.Path,
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.WithError(appErr).Error("Request error")
	} else {
		entry.WithError(appErr).Debug("Request rejected")
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = GetRequestID(r.Context())
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(response)
}
