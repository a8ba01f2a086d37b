// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets an id, taken from X-Request-ID when the client sends one
and generated otherwise. The id is echoed in the response header and logged
with the request start (method, path, remote) and completion (status,
duration_ms).

# CORS

	server := http.Server{
		Handler: middleware.CORS(cfg.FrontendURL, mux),
	}

Only the configured frontend origin is allowed. Preflight requests are
answered without reaching the mux.

# Admin Routes

	middleware.RequireAdmin(cfg.AdminKey, h.DeleteProposal)

Compares X-Admin-Key with the configured key. With no key configured the
check is disabled.

# JSON Envelope

Every response is wrapped as {"success": bool, "data"?, "error"?, "message"?}:

	middleware.SuccessResponse(w, http.StatusOK, proposal)
	middleware.ErrorResponse(w, http.StatusNotFound, "Proposal not found")

ErrorDetailResponse adds the underlying error text; handlers only pass it
outside production.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP. The result is hashed before storage.
*/
package middleware
