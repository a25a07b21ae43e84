package handlers

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the error envelope. Part of the wire contract.
const (
	ErrCodeInvalidForm    = "invalid_form"
	ErrCodeImageRequired  = "image_required"
	ErrCodeImageTooLarge  = "image_too_large"
	ErrCodeStagingFailed  = "staging_failed"
	ErrCodeAnalysisFailed = "analysis_failed"
	ErrCodeInvalidUserID  = "invalid_user_id"
	ErrCodeUploadFailed   = "upload_failed"
	ErrCodeValidation     = "validation_failed"
	ErrCodeSaveFailed     = "save_failed"
	ErrCodeListFailed     = "list_failed"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
