// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/logging"
)

// APIResponse is the envelope for all JSON responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// APIMeta carries per-request metadata.
type APIMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes returned in APIError.Code.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// ResponseWriter writes consistent JSON envelopes.
type ResponseWriter struct {
	logger zerolog.Logger
}

// NewResponseWriter creates a response writer using the given logger.
func NewResponseWriter(logger zerolog.Logger) *ResponseWriter {
	return &ResponseWriter{logger: logger}
}

// Success writes a 200 response with the given payload.
func (rw *ResponseWriter) Success(w http.ResponseWriter, r *http.Request, data interface{}) {
	rw.writeJSON(w, r, http.StatusOK, APIResponse{Success: true, Data: data, Meta: rw.meta(r)})
}

// Created writes a 201 response with the given payload.
func (rw *ResponseWriter) Created(w http.ResponseWriter, r *http.Request, data interface{}) {
	rw.writeJSON(w, r, http.StatusCreated, APIResponse{Success: true, Data: data, Meta: rw.meta(r)})
}

// Accepted writes a 202 response for work queued but not yet durable.
func (rw *ResponseWriter) Accepted(w http.ResponseWriter, r *http.Request, data interface{}) {
	rw.writeJSON(w, r, http.StatusAccepted, APIResponse{Success: true, Data: data, Meta: rw.meta(r)})
}

// Error writes an error response with the given status, code, and message.
func (rw *ResponseWriter) Error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	rw.writeJSON(w, r, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    rw.meta(r),
	})
}

// BadRequest writes a 400 response.
func (rw *ResponseWriter) BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	rw.Error(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// ValidationError writes a 400 response with field-level details.
func (rw *ResponseWriter) ValidationError(w http.ResponseWriter, r *http.Request, message string, details interface{}) {
	rw.writeJSON(w, r, http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   &APIError{Code: ErrCodeValidation, Message: message, Details: details},
		Meta:    rw.meta(r),
	})
}

// Unauthorized writes a 401 response.
func (rw *ResponseWriter) Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	rw.Error(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NotFound writes a 404 response.
func (rw *ResponseWriter) NotFound(w http.ResponseWriter, r *http.Request, message string) {
	rw.Error(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError writes a 500 response.
func (rw *ResponseWriter) InternalError(w http.ResponseWriter, r *http.Request, message string) {
	rw.Error(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}

// DatabaseError writes a 500 response for persistence failures.
func (rw *ResponseWriter) DatabaseError(w http.ResponseWriter, r *http.Request, message string) {
	rw.Error(w, r, http.StatusInternalServerError, ErrCodeDatabase, message)
}

// ServiceUnavailable writes a 503 response.
func (rw *ResponseWriter) ServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	rw.Error(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

func (rw *ResponseWriter) meta(r *http.Request) *APIMeta {
	return &APIMeta{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}

func (rw *ResponseWriter) writeJSON(w http.ResponseWriter, r *http.Request, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		rw.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", logging.RequestIDFromContext(r.Context())).
			Msg("Failed to encode response")
	}
}
