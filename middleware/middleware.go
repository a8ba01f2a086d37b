// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/chainvote/auth"
	"github.com/danielhkuo/chainvote/models"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

// RequestIDHeader carries the per-request id in both directions
const RequestIDHeader = "X-Request-ID"

// AdminKeyHeader carries the admin key on administrative routes
const AdminKeyHeader = "X-Admin-Key"

// ErrEmptyBody is returned by ParseJSONBody when the request has no body
var ErrEmptyBody = errors.New("request body is empty")

type requestIDKey struct{}

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithLogging wraps a handler with request logging and a request id
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		slog.Info("request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		slog.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RequestID returns the id assigned by WithLogging, or "" outside it
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// SuccessResponse writes data inside a success envelope
func SuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	JSONResponse(w, statusCode, models.APIResponse{Success: true, Data: data})
}

// MessageResponse writes a success envelope with data and a message
func MessageResponse(w http.ResponseWriter, statusCode int, message string, data any) {
	JSONResponse(w, statusCode, models.APIResponse{Success: true, Data: data, Message: message})
}

// ErrorResponse writes a failure envelope
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	ErrorDetailResponse(w, statusCode, message, "")
}

// ErrorDetailResponse writes a failure envelope with the underlying error
// text. Callers pass an empty detail in production.
func ErrorDetailResponse(w http.ResponseWriter, statusCode int, message, detail string) {
	JSONResponse(w, statusCode, models.APIResponse{
		Success: false,
		Error:   message,
		Detail:  detail,
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// CORS allows cross-origin requests from the configured frontend
func CORS(frontendURL string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", AdminKeyHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}).Handler(next)
}

// RequireAdmin rejects requests whose X-Admin-Key does not match adminKey.
// An empty adminKey lets every request through.
func RequireAdmin(adminKey string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.ValidateAdminKey(r.Header.Get(AdminKeyHeader), adminKey); err != nil {
			slog.Warn("admin key rejected", "path", r.URL.Path, "request_id", RequestID(r.Context()))
			ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
			return
		}
		next(w, r)
	}
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// First hop is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
