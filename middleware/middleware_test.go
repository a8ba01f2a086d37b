// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/chainvote/models"
)

func TestWithLogging(t *testing.T) {
	handlerCalled := false
	var seenID string
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	wrappedHandler := WithLogging(testHandler)

	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	wrappedHandler(w, req)

	if !handlerCalled {
		t.Error("Expected handler to be called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}

	headerID := w.Header().Get(RequestIDHeader)
	if len(headerID) != 36 {
		t.Errorf("Expected generated UUID request id, got '%s'", headerID)
	}
	if seenID != headerID {
		t.Errorf("Expected handler to see request id %s, got %s", headerID, seenID)
	}
}

func TestWithLogging_KeepsClientRequestID(t *testing.T) {
	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	w := httptest.NewRecorder()

	handler(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "client-supplied" {
		t.Errorf("Expected request id 'client-supplied', got '%s'", got)
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"BadGateway", http.StatusBadGateway, "ledger down"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/api/test", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "simple map",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestEnvelopes(t *testing.T) {
	testCases := []struct {
		name       string
		write      func(w http.ResponseWriter)
		statusCode int
		expected   string
	}{
		{
			name:       "success",
			write:      func(w http.ResponseWriter) { SuccessResponse(w, http.StatusOK, map[string]int{"count": 2}) },
			statusCode: http.StatusOK,
			expected:   `{"success":true,"data":{"count":2}}`,
		},
		{
			name: "message",
			write: func(w http.ResponseWriter) {
				MessageResponse(w, http.StatusCreated, "Vote cast successfully", map[string]string{"voteId": "abc"})
			},
			statusCode: http.StatusCreated,
			expected:   `{"success":true,"data":{"voteId":"abc"},"message":"Vote cast successfully"}`,
		},
		{
			name:       "error",
			write:      func(w http.ResponseWriter) { ErrorResponse(w, http.StatusNotFound, "Proposal not found") },
			statusCode: http.StatusNotFound,
			expected:   `{"success":false,"error":"Proposal not found"}`,
		},
		{
			name: "error with detail",
			write: func(w http.ResponseWriter) {
				ErrorDetailResponse(w, http.StatusInternalServerError, "Failed to save vote", "disk full")
			},
			statusCode: http.StatusInternalServerError,
			expected:   `{"success":false,"error":"Failed to save vote","detail":"disk full"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.write(w)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"title":"Upgrade X","description":"Raise the limit","deadline":0}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CreateProposalRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Title != "Upgrade X" {
			t.Errorf("Expected title 'Upgrade X', got '%s'", parsed.Title)
		}
	})

	t.Run("numeric or string proposal id", func(t *testing.T) {
		for _, body := range []string{`{"proposalId":7}`, `{"proposalId":"7"}`} {
			req := httptest.NewRequest("POST", "/", strings.NewReader(body))

			var parsed models.CastVoteRequest
			if err := ParseJSONBody(req, &parsed); err != nil {
				t.Fatalf("Expected no error for %s, got: %v", body, err)
			}
			if parsed.ProposalID != "7" {
				t.Errorf("Expected proposal id '7', got '%s'", parsed.ProposalID)
			}
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.CreateProposalRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.CreateProposalRequest
		if err := ParseJSONBody(req, &parsed); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Expected ErrEmptyBody, got %v", err)
		}
	})

	t.Run("body is consumed after parsing", func(t *testing.T) {
		body := `{"title":"Test","description":"d"}`
		req := httptest.NewRequest("POST", "/", io.NopCloser(bytes.NewReader([]byte(body))))

		var parsed models.CreateProposalRequest
		_ = ParseJSONBody(req, &parsed)

		remaining, _ := io.ReadAll(req.Body)
		if len(remaining) > 0 {
			t.Error("Expected body to be consumed")
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS("http://localhost:3000", nextHandler)

	t.Run("preflight from frontend", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/proposals", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		req.Header.Set("Access-Control-Request-Headers", "X-Admin-Key")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code < 200 || w.Code > 299 {
			t.Errorf("Expected 2xx status, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
			t.Error("Expected Access-Control-Allow-Origin to match frontend origin")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials to be 'true'")
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Admin-Key") {
			t.Error("Expected X-Admin-Key in allowed headers")
		}
	})

	t.Run("request from frontend", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/proposals", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
			t.Error("Expected Access-Control-Allow-Origin to match frontend origin")
		}
	})

	t.Run("foreign origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/proposals", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Expected no Access-Control-Allow-Origin, got '%s'", got)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	testCases := []struct {
		name       string
		configured string
		provided   string
		expected   int
	}{
		{"no key configured", "", "", http.StatusOK},
		{"matching key", "secret", "secret", http.StatusOK},
		{"missing key", "secret", "", http.StatusUnauthorized},
		{"wrong key", "secret", "guess", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/api/proposals/1", nil)
			if tc.provided != "" {
				req.Header.Set(AdminKeyHeader, tc.provided)
			}
			w := httptest.NewRecorder()

			RequireAdmin(tc.configured, ok)(w, req)

			if w.Code != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, w.Code)
			}
			if tc.expected == http.StatusUnauthorized {
				var resp models.APIResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.Success || resp.Error != "Invalid admin key" {
					t.Errorf("Unexpected response: %+v", resp)
				}
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"X-Forwarded-For single", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "10.0.0.1:1234", "203.0.113.1"},
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"}, "10.0.0.1:1234", "203.0.113.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:1234", "198.51.100.7"},
		{"RemoteAddr with port", nil, "192.0.2.5:5555", "192.0.2.5"},
		{"IPv6 RemoteAddr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"RemoteAddr without port", nil, "192.0.2.5", "192.0.2.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req); got != tc.expected {
				t.Errorf("Expected IP '%s', got '%s'", tc.expected, got)
			}
		})
	}
}
