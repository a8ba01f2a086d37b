// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielhkuo/chainvote/handlers"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *ledger.Simulated) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })

	cfg := testutil.GetTestConfig()
	cfg.AdminKey = "secret"
	gw := ledger.NewSimulated(cfg.ContractAddress)

	return NewRouter(db, gw, cfg), gw
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var health models.ServerHealth
	resp := testutil.DecodeData(t, w, &health)
	if !resp.Success {
		t.Error("Expected success")
	}
	if health.Status != "OK" {
		t.Errorf("Expected status 'OK', got '%s'", health.Status)
	}
	if health.Uptime == "" {
		t.Error("Expected uptime to be set")
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var info models.ServerInfo
	testutil.DecodeData(t, w, &info)
	if info.Name != handlers.ServiceName || info.Version != handlers.Version {
		t.Errorf("Unexpected server info: %+v", info)
	}
}

func TestUnknownRoute(t *testing.T) {
	mux, _ := newTestRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/nope"},
		{"GET", "/api/unknown"},
		{"POST", "/health"},
		{"PATCH", "/api/proposals/1"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, http.StatusNotFound)

			resp := testutil.DecodeData(t, w, nil)
			if resp.Success || resp.Error != "Route not found" {
				t.Errorf("Unexpected response: %+v", resp)
			}
		})
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _ := newTestRouter(t)

	// Routes must reach their handler; the fallback answers "Route not found"
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/api/proposals"},
		{"GET", "/api/proposals/active"},
		{"GET", "/api/proposals/analytics"},
		{"GET", "/api/proposals/1"},
		{"GET", "/api/proposals/1/stats"},
		{"POST", "/api/proposals"},
		{"PUT", "/api/proposals/1"},
		{"DELETE", "/api/proposals/1"},
		{"POST", "/api/proposals/1/close"},

		{"POST", "/api/votes"},
		{"GET", "/api/votes/check"},
		{"GET", "/api/votes/status/1/0x0000000000000000000000000000000000000001"},
		{"GET", "/api/votes/proposal/1"},
		{"GET", "/api/votes/voter/0x0000000000000000000000000000000000000001"},
		{"GET", "/api/votes/recent"},
		{"GET", "/api/votes/stats"},
		{"GET", "/api/votes/analytics"},
		{"PUT", "/api/votes/abc/verify"},

		{"GET", "/api/contract/info"},
		{"GET", "/api/contract/abi"},
		{"GET", "/api/contract/stats"},
		{"GET", "/api/contract/health"},
		{"GET", "/api/contract/winner"},
		{"POST", "/api/contract/sync"},
		{"POST", "/api/contract/reconcile"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			resp := testutil.DecodeData(t, w, nil)
			if resp.Error == "Route not found" {
				t.Errorf("Route %s %s fell through to the fallback", tc.method, tc.path)
			}
		})
	}
}

func TestAdminRoutesRequireKey(t *testing.T) {
	mux, gw := newTestRouter(t)

	res, err := gw.CreateProposal(t.Context(), "Upgrade X", "desc", 0)
	if err != nil {
		t.Fatalf("Failed to create ledger proposal: %v", err)
	}
	id := strconv.FormatInt(res.ProposalID, 10)

	testCases := []struct {
		method string
		path   string
	}{
		{"PUT", "/api/proposals/" + id},
		{"DELETE", "/api/proposals/" + id},
		{"POST", "/api/proposals/" + id + "/close"},
		{"POST", "/api/contract/sync"},
		{"POST", "/api/contract/reconcile"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := testutil.MakeRequest(tc.method, tc.path, nil, map[string]string{"X-Admin-Key": "wrong"})
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}

	t.Run("valid key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/contract/sync", nil, map[string]string{"X-Admin-Key": "secret"})
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var result models.SyncResult
		testutil.DecodeData(t, w, &result)
		if result.Created != 1 {
			t.Errorf("Expected 1 synced proposal, got %d", result.Created)
		}
	})
}

func TestPathParameterExtraction(t *testing.T) {
	mux, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/proposals/abc", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)

	resp := testutil.DecodeData(t, w, nil)
	if resp.Error != "Invalid proposal ID" {
		t.Errorf("Expected 'Invalid proposal ID', got '%s'", resp.Error)
	}
}
