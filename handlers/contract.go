// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/chainvote/cliparse"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/middleware"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
	"github.com/danielhkuo/chainvote/voting"
)

const healthCheckTimeout = 5 * time.Second

type ContractHandler struct {
	cfg        cliparse.Config
	ledger     ledger.Gateway
	proposals  *store.ProposalStore
	votes      *store.VoteStore
	reconciler *voting.Reconciler
}

func NewContractHandler(db *sql.DB, gw ledger.Gateway, cfg cliparse.Config) *ContractHandler {
	proposals := store.NewProposalStore(db)
	return &ContractHandler{
		cfg:        cfg,
		ledger:     gw,
		proposals:  proposals,
		votes:      store.NewVoteStore(db),
		reconciler: voting.NewReconciler(proposals, gw, cfg.ContractAddress),
	}
}

// GetInfo handles GET /api/contract/info
func (h *ContractHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	middleware.SuccessResponse(w, http.StatusOK, h.ledger.Info())
}

// GetABI handles GET /api/contract/abi
func (h *ContractHandler) GetABI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// The ABI is already JSON; embed it without re-encoding
	w.Write([]byte(`{"success":true,"data":` + h.ledger.ABI() + "}\n"))
}

// GetStats handles GET /api/contract/stats
func (h *ContractHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	total, active, err := h.proposals.Counts(r.Context())
	if err != nil {
		storageError(w, r, err, "Failed to fetch contract statistics", !h.cfg.IsProduction())
		return
	}

	votes, err := h.votes.Stats(r.Context())
	if err != nil {
		storageError(w, r, err, "Failed to fetch contract statistics", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.ContractStats{
		TotalProposals:  total,
		ActiveProposals: active,
		TotalVotes:      votes.TotalVotes,
		UniqueVoters:    votes.UniqueVoterCount,
	})
}

// GetHealth handles GET /api/contract/health
func (h *ContractHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	healthy := h.ledger.Info().IsInitialized
	if healthy {
		if _, err := h.ledger.GetAllProposals(ctx); err != nil {
			slog.Warn("ledger health check failed", "error", err)
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	middleware.JSONResponse(w, status, models.APIResponse{
		Success: healthy,
		Data:    models.ContractHealth{IsHealthy: healthy, Timestamp: time.Now().UTC()},
	})
}

// Sync handles POST /api/contract/sync
func (h *ContractHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.reconciler.Sync(r.Context())
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusOK, "Proposals synced successfully", res)
}

// Reconcile handles POST /api/contract/reconcile
func (h *ContractHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reconciler.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusOK, "Vote counts reconciled", summary)
}

// GetWinner handles GET /api/contract/winner
func (h *ContractHandler) GetWinner(w http.ResponseWriter, r *http.Request) {
	p, err := h.proposals.TopActive(r.Context(), h.cfg.ContractAddress)
	if err != nil {
		storageError(w, r, err, "Failed to determine winning proposal", !h.cfg.IsProduction())
		return
	}

	res := models.WinnerResponse{Proposal: p}
	if p != nil {
		res.MaxVotes = p.VoteCount
	}
	middleware.SuccessResponse(w, http.StatusOK, res)
}
