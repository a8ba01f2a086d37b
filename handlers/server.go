// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/chainvote/middleware"
	"github.com/danielhkuo/chainvote/models"
)

// ServiceName and Version are reported by the root endpoint
const (
	ServiceName = "chainvote API"
	Version     = "1.0.0"
)

type ServerHandler struct {
	started time.Time
}

func NewServerHandler() *ServerHandler {
	return &ServerHandler{started: time.Now()}
}

// Root handles GET /
func (h *ServerHandler) Root(w http.ResponseWriter, r *http.Request) {
	middleware.SuccessResponse(w, http.StatusOK, models.ServerInfo{Name: ServiceName, Version: Version})
}

// Health handles GET /health
func (h *ServerHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.SuccessResponse(w, http.StatusOK, models.ServerHealth{
		Status: "OK",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

// NotFound handles every unmatched route
func (h *ServerHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.ErrorResponse(w, http.StatusNotFound, "Route not found")
}
