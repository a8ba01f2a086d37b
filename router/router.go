// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/chainvote/cliparse"
	"github.com/danielhkuo/chainvote/handlers"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/middleware"
)

func NewRouter(db *sql.DB, gw ledger.Gateway, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	serverHandler := handlers.NewServerHandler()
	proposalHandler := handlers.NewProposalHandler(db, gw, cfg)
	voteHandler := handlers.NewVoteHandler(db, gw, cfg)
	contractHandler := handlers.NewContractHandler(db, gw, cfg)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Server
	mux.HandleFunc("GET /{$}", serverHandler.Root)
	mux.HandleFunc("GET /health", serverHandler.Health)

	// Proposals
	mux.HandleFunc("GET /api/proposals", middleware.WithLogging(proposalHandler.ListProposals))
	mux.HandleFunc("GET /api/proposals/active", middleware.WithLogging(proposalHandler.ListActiveProposals))
	mux.HandleFunc("GET /api/proposals/analytics", middleware.WithLogging(proposalHandler.GetAnalytics))
	mux.HandleFunc("GET /api/proposals/{id}", middleware.WithLogging(proposalHandler.GetProposal))
	mux.HandleFunc("GET /api/proposals/{id}/stats", middleware.WithLogging(proposalHandler.GetProposalStats))
	mux.HandleFunc("POST /api/proposals", middleware.WithLogging(proposalHandler.CreateProposal))
	mux.HandleFunc("PUT /api/proposals/{id}", admin(proposalHandler.UpdateProposal))
	mux.HandleFunc("DELETE /api/proposals/{id}", admin(proposalHandler.DeleteProposal))
	mux.HandleFunc("POST /api/proposals/{id}/close", admin(proposalHandler.CloseProposal))

	// Votes
	mux.HandleFunc("POST /api/votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("GET /api/votes/check", middleware.WithLogging(voteHandler.CheckVote))
	mux.HandleFunc("GET /api/votes/status/{id}/{address}", middleware.WithLogging(voteHandler.GetVoteStatus))
	mux.HandleFunc("GET /api/votes/proposal/{id}", middleware.WithLogging(voteHandler.ListProposalVotes))
	mux.HandleFunc("GET /api/votes/voter/{address}", middleware.WithLogging(voteHandler.ListVoterVotes))
	mux.HandleFunc("GET /api/votes/recent", middleware.WithLogging(voteHandler.ListRecentVotes))
	mux.HandleFunc("GET /api/votes/stats", middleware.WithLogging(voteHandler.GetStats))
	mux.HandleFunc("GET /api/votes/analytics", middleware.WithLogging(voteHandler.GetAnalytics))
	mux.HandleFunc("PUT /api/votes/{id}/verify", middleware.WithLogging(voteHandler.VerifyVote))

	// Contract
	mux.HandleFunc("GET /api/contract/info", middleware.WithLogging(contractHandler.GetInfo))
	mux.HandleFunc("GET /api/contract/abi", middleware.WithLogging(contractHandler.GetABI))
	mux.HandleFunc("GET /api/contract/stats", middleware.WithLogging(contractHandler.GetStats))
	mux.HandleFunc("GET /api/contract/health", middleware.WithLogging(contractHandler.GetHealth))
	mux.HandleFunc("GET /api/contract/winner", middleware.WithLogging(contractHandler.GetWinner))
	mux.HandleFunc("POST /api/contract/sync", admin(contractHandler.Sync))
	mux.HandleFunc("POST /api/contract/reconcile", admin(contractHandler.Reconcile))

	// Everything else
	mux.HandleFunc("/", serverHandler.NotFound)

	return mux
}
