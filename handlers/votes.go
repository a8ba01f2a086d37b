// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/chainvote/auth"
	"github.com/danielhkuo/chainvote/cliparse"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/middleware"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
	"github.com/danielhkuo/chainvote/voting"
	"github.com/google/uuid"
)

const defaultRecentLimit = 10

type VoteHandler struct {
	cfg    cliparse.Config
	ledger ledger.Gateway
	votes  *store.VoteStore
	engine *voting.Engine
}

func NewVoteHandler(db *sql.DB, gw ledger.Gateway, cfg cliparse.Config) *VoteHandler {
	votes := store.NewVoteStore(db)
	return &VoteHandler{
		cfg:    cfg,
		ledger: gw,
		votes:  votes,
		engine: voting.NewEngine(store.NewProposalStore(db), votes, gw, cfg.ContractAddress,
			cfg.DeadlinePolicy == cliparse.DeadlineEnforce),
	}
}

// CastVote handles POST /api/votes
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	receipt, err := h.engine.CastVote(r.Context(), string(req.ProposalID), req.VoterAddress, voting.VoteMeta{
		IPHash:    auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt),
		UserAgent: r.UserAgent(),
		SessionID: sessionID,
	})
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	middleware.MessageResponse(w, http.StatusCreated, "Vote cast successfully", receipt)
}

// CheckVote handles GET /api/votes/check?proposalId=&voterAddress=
func (h *VoteHandler) CheckVote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("proposalId")) == "" || strings.TrimSpace(q.Get("voterAddress")) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Proposal ID and voter address are required")
		return
	}

	id, voter, err := parseVoteKey(q.Get("proposalId"), q.Get("voterAddress"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	v, err := h.votes.Find(r.Context(), h.cfg.ContractAddress, id, voter)
	if errors.Is(err, store.ErrNotFound) {
		middleware.SuccessResponse(w, http.StatusOK, models.VoteCheckResponse{HasVoted: false})
		return
	}
	if err != nil {
		storageError(w, r, err, "Failed to check vote", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.VoteCheckResponse{HasVoted: true, Vote: &v})
}

// GetVoteStatus handles GET /api/votes/status/{id}/{address}
func (h *VoteHandler) GetVoteStatus(w http.ResponseWriter, r *http.Request) {
	id, voter, err := parseVoteKey(r.PathValue("id"), r.PathValue("address"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	status := models.VoteStatusResponse{ProposalID: id, VoterAddress: voter}

	v, err := h.votes.Find(r.Context(), h.cfg.ContractAddress, id, voter)
	switch {
	case err == nil:
		status.HasVoted = true
		status.VoteID = v.ID
	case !errors.Is(err, store.ErrNotFound):
		storageError(w, r, err, "Failed to check vote", !h.cfg.IsProduction())
		return
	}

	status.OnChain, err = h.ledger.HasUserVoted(r.Context(), id, voter)
	if err != nil {
		writeError(w, r, &voting.Error{Kind: voting.ErrLedger, Msg: "Failed to check on-chain vote status", Err: err}, !h.cfg.IsProduction())
		return
	}
	if status.OnChain != status.HasVoted {
		slog.Warn("local and on-chain vote status differ",
			"proposal_id", id, "voter", voter, "local", status.HasVoted, "on_chain", status.OnChain)
	}

	middleware.SuccessResponse(w, http.StatusOK, status)
}

// ListProposalVotes handles GET /api/votes/proposal/{id}
func (h *VoteHandler) ListProposalVotes(w http.ResponseWriter, r *http.Request) {
	id, err := voting.ParseProposalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	votes, err := h.votes.ListByProposal(r.Context(), h.cfg.ContractAddress, id)
	if err != nil {
		storageError(w, r, err, "Failed to fetch votes", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.VoteListResponse{
		ProposalID: &id,
		Votes:      votes,
		Count:      len(votes),
	})
}

// ListVoterVotes handles GET /api/votes/voter/{address}
func (h *VoteHandler) ListVoterVotes(w http.ResponseWriter, r *http.Request) {
	voter, err := voting.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, r, err, !h.cfg.IsProduction())
		return
	}

	votes, err := h.votes.ListByVoter(r.Context(), voter)
	if err != nil {
		storageError(w, r, err, "Failed to fetch votes", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.VoteListResponse{
		VoterAddress: voter,
		Votes:        votes,
		Count:        len(votes),
	})
}

// ListRecentVotes handles GET /api/votes/recent?limit=
func (h *VoteHandler) ListRecentVotes(w http.ResponseWriter, r *http.Request) {
	limit := min(queryInt(r, "limit", defaultRecentLimit), maxPageLimit)

	votes, err := h.votes.Recent(r.Context(), limit)
	if err != nil {
		storageError(w, r, err, "Failed to fetch recent votes", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.VoteListResponse{
		Votes: votes,
		Count: len(votes),
	})
}

// GetStats handles GET /api/votes/stats
func (h *VoteHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.votes.Stats(r.Context())
	if err != nil {
		storageError(w, r, err, "Failed to fetch voting statistics", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, stats)
}

// GetAnalytics handles GET /api/votes/analytics?timeRange=&contractAddress=
func (h *VoteHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	timeRange, since := voting.TimeRange(q.Get("timeRange"), time.Now().UTC())

	votes, err := h.votes.Since(r.Context(), since, q.Get("contractAddress"))
	if err != nil {
		storageError(w, r, err, "Failed to fetch vote analytics", !h.cfg.IsProduction())
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, models.AnalyticsResponse[models.VoteBucket]{
		TimeRange: timeRange,
		Analytics: voting.VoteBuckets(votes),
	})
}

// VerifyVote handles PUT /api/votes/{id}/verify
func (h *VoteHandler) VerifyVote(w http.ResponseWriter, r *http.Request) {
	voteID := r.PathValue("id")
	if err := auth.ValidateID(voteID, auth.VoteIDBytes); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid vote ID")
		return
	}

	v, err := h.votes.Verify(r.Context(), voteID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Vote not found")
		return
	}
	if err != nil {
		storageError(w, r, err, "Failed to verify vote", !h.cfg.IsProduction())
		return
	}

	slog.Info("vote verified", "vote_id", voteID)
	middleware.MessageResponse(w, http.StatusOK, "Vote verified successfully", v)
}

func parseVoteKey(rawID, rawVoter string) (int64, string, error) {
	id, err := voting.ParseProposalID(rawID)
	if err != nil {
		return 0, "", err
	}
	voter, err := voting.ParseAddress(rawVoter)
	if err != nil {
		return 0, "", err
	}
	return id, voter, nil
}
