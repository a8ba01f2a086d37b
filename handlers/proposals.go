// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"math"
	"net/http"
	"time"

	"github.com/danielhkuo/chainvote/cliparse"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/middleware"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
	"github.com/danielhkuo/chainvote/voting"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type ProposalHandler struct {
	cfg       cliparse.Config
	proposals *store.ProposalStore
	votes     *store.VoteStore
	lifecycle *voting.Lifecycle
}

func NewProposalHandler(db *sql.DB, gw ledger.Gateway, cfg cliparse.Config) *ProposalHandler {
	proposals := store.NewProposalStore(db)
	return &ProposalHandler{
		cfg:       cfg,
		proposals: proposals,
		votes:     store.NewVoteStore(db),
		lifecycle: voting.NewLifecycle(proposals, gw, cfg.ContractAddress),
	}
}

// ListProposals handles GET /api/proposals
func (h *ProposalHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var active *bool
	switch q.Get("active") {
	case "true":
		v := true
		active = &v
	case "false":
		v := false
		active = &v
	}

	page := queryInt(r, "page", 1)
	limit := min(queryInt(r, "limit", defaultPageLimit), maxPageLimit)
	if page-1 > math.MaxInt/limit {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid page")
		return
	}

	items, total, err := h.proposals.List(r.Context(), store.ProposalFilter{
		ContractAddress: q.Get("contractAddress"),
		Active:          active,
		Limit:           limit,
		Offset:          (page - 1) * limit,
	})
	if err != nil {
		storageError(w, r, err, "Failed to fetch proposals", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.ProposalListResponse{
		Proposals: items,
		Pagination: &models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	})
}

// ListActiveProposals handles GET /api/proposals/active
func (h *ProposalHandler) ListActiveProposals(w http.ResponseWriter, r *http.Request) {
	active := true
	items, _, err := h.proposals.List(r.Context(), store.ProposalFilter{Active: &active})
	if err != nil {
		storageError(w, r, err, "Failed to fetch active proposals", !h.cfg.IsProduction())
		return
	}

	count := len(items)
	middleware.SuccessResponse(w, http.StatusOK, models.ProposalListResponse{
		Proposals: items,
		Count:     &count,
	})
}

// GetProposal handles GET /api/proposals/{id}
func (h *ProposalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := voting.ParseProposalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	p, err := h.lifecycle.GetProposal(r.Context(), id)
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	votes, err := h.votes.ListByProposal(r.Context(), h.cfg.ContractAddress, id)
	if err != nil {
		storageError(w, r, err, "Failed to fetch votes", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.ProposalDetailResponse{
		Proposal:  p,
		Votes:     votes,
		VoteCount: len(votes),
	})
}

// GetProposalStats handles GET /api/proposals/{id}/stats
func (h *ProposalHandler) GetProposalStats(w http.ResponseWriter, r *http.Request) {
	id, err := voting.ParseProposalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	p, err := h.lifecycle.GetProposal(r.Context(), id)
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	votes, err := h.votes.ListByProposal(r.Context(), h.cfg.ContractAddress, id)
	if err != nil {
		storageError(w, r, err, "Failed to fetch votes", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, voting.ProposalStats(p, votes, time.Now()))
}

// GetAnalytics handles GET /api/proposals/analytics
func (h *ProposalHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	timeRange, since := voting.TimeRange(r.URL.Query().Get("timeRange"), time.Now().UTC())

	items, err := h.proposals.CreatedSince(r.Context(), since)
	if err != nil {
		storageError(w, r, err, "Failed to fetch proposal analytics", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.AnalyticsResponse[models.ProposalBucket]{
		TimeRange: timeRange,
		Analytics: voting.ProposalBuckets(items),
	})
}

// CreateProposal handles POST /api/proposals
func (h *ProposalHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProposalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.lifecycle.CreateProposal(r.Context(), req.Title, req.Description, req.Deadline)
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusCreated, "Proposal created successfully", models.CreateProposalResponse{
		ProposalID:      p.ProposalID,
		Title:           p.Title,
		Description:     p.Description,
		TransactionHash: p.TransactionHash,
		BlockNumber:     p.BlockNumber,
		GasUsed:         p.GasUsed,
	})
}

// UpdateProposal handles PUT /api/proposals/{id}
func (h *ProposalHandler) UpdateProposal(w http.ResponseWriter, r *http.Request) {
	id, err := voting.ParseProposalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	var req models.UpdateProposalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.lifecycle.UpdateProposal(r.Context(), id, store.ProposalUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusOK, "Proposal updated successfully", p)
}

// CloseProposal handles POST /api/proposals/{id}/close
func (h *ProposalHandler) CloseProposal(w http.ResponseWriter, r *http.Request) {
	id, err := voting.ParseProposalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	p, err := h.lifecycle.CloseProposal(r.Context(), id)
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusOK, "Proposal closed successfully", p)
}

// DeleteProposal handles DELETE /api/proposals/{id}
func (h *ProposalHandler) DeleteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := voting.ParseProposalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	if err := h.lifecycle.DeleteProposal(r.Context(), id); err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusOK, "Proposal deleted successfully", nil)
}
