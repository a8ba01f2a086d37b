// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateProposalRequest: title, description, deadline
  - UpdateProposalRequest: title, description, isActive (all optional)
  - CastVoteRequest: proposalId, voterAddress, sessionId

ProposalID accepts both 7 and "7" so browser clients can post form values
directly.

# Response Types

Every handler writes an APIResponse envelope:

	{"success": true, "data": {...}, "message": "..."}
	{"success": false, "error": "Proposal not found"}

Data payloads include VoteReceipt, ProposalListResponse (with Pagination),
ProposalDetailResponse, ProposalStatsResponse, VoteListResponse,
VotingStats, AnalyticsResponse, ContractStats, SyncResult and
ReconcileSummary.

# Domain Types

  - Proposal: a votable item scoped by contract address, with its cached
    vote count and voter set
  - Vote: one address's vote on one proposal, with ledger receipt metadata
*/
package models
