// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/chainvote/auth"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
)

// ProposalRepository is the proposal persistence the voting package needs.
// *store.ProposalStore implements it.
type ProposalRepository interface {
	Insert(ctx context.Context, p models.Proposal) error
	Get(ctx context.Context, scope string, id int64) (models.Proposal, error)
	Exists(ctx context.Context, scope string, id int64) (bool, error)
	List(ctx context.Context, f store.ProposalFilter) ([]models.Proposal, int, error)
	Keys(ctx context.Context) ([]store.Key, error)
	Update(ctx context.Context, scope string, id int64, u store.ProposalUpdate) (models.Proposal, error)
	SetActive(ctx context.Context, scope string, id int64, active bool) error
	RecordVote(ctx context.Context, scope string, id int64, voter string) (bool, error)
	RecountFromVotes(ctx context.Context, scope string, id int64) (before, after int64, err error)
	Delete(ctx context.Context, scope string, id int64) error
}

// VoteRepository is the vote persistence the engine needs.
// *store.VoteStore implements it.
type VoteRepository interface {
	Insert(ctx context.Context, v models.Vote) error
	Find(ctx context.Context, scope string, proposalID int64, voter string) (models.Vote, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ ProposalRepository = (*store.ProposalStore)(nil)
	_ VoteRepository     = (*store.VoteStore)(nil)
)

// VoteMeta is request metadata stored alongside a vote
type VoteMeta struct {
	IPHash    string
	UserAgent string
	SessionID string
}

// Engine admits votes. All proposals it touches live in one contract scope.
type Engine struct {
	proposals       ProposalRepository
	votes           VoteRepository
	ledger          ledger.Gateway
	scope           string
	enforceDeadline bool
	now             func() time.Time
}

func NewEngine(proposals ProposalRepository, votes VoteRepository, gw ledger.Gateway, scope string, enforceDeadline bool) *Engine {
	return &Engine{
		proposals:       proposals,
		votes:           votes,
		ledger:          gw,
		scope:           scope,
		enforceDeadline: enforceDeadline,
		now:             time.Now,
	}
}

// CastVote checks, submits and records one vote.
//
// Checks run in order and stop at the first failure: well-formed input,
// proposal exists and is active, no stored vote, no on-chain vote. Once
// the ledger submission starts the operation runs to completion even if
// ctx is cancelled.
func (e *Engine) CastVote(ctx context.Context, rawProposalID, voterAddress string, meta VoteMeta) (models.VoteReceipt, error) {
	if strings.TrimSpace(rawProposalID) == "" || strings.TrimSpace(voterAddress) == "" {
		return models.VoteReceipt{}, newError(ErrInvalidArgument, "Proposal ID and voter address are required", nil)
	}
	id, err := ParseProposalID(rawProposalID)
	if err != nil {
		return models.VoteReceipt{}, err
	}
	voter, err := ParseAddress(voterAddress)
	if err != nil {
		return models.VoteReceipt{}, err
	}

	p, err := e.proposals.Get(ctx, e.scope, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.VoteReceipt{}, newError(ErrProposalUnavailable, "Proposal not found or not active", nil)
	case err != nil:
		return models.VoteReceipt{}, newError(ErrStorage, "Failed to load proposal", err)
	case !p.IsActive:
		return models.VoteReceipt{}, newError(ErrProposalUnavailable, "Proposal not found or not active", nil)
	case e.enforceDeadline && IsExpired(p, e.now()):
		return models.VoteReceipt{}, newError(ErrProposalUnavailable, "Proposal has expired", nil)
	}

	_, err = e.votes.Find(ctx, e.scope, id, voter)
	if err == nil {
		return models.VoteReceipt{}, newError(ErrDuplicateVote, "User has already voted on this proposal", nil)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.VoteReceipt{}, newError(ErrStorage, "Failed to check existing votes", err)
	}

	voted, err := e.ledger.HasUserVoted(ctx, id, voter)
	if err != nil {
		return models.VoteReceipt{}, newError(ErrLedger, "Failed to check on-chain vote status", err)
	}
	if voted {
		return models.VoteReceipt{}, newError(ErrDuplicateVote, "User has already voted on this proposal on the blockchain", nil)
	}

	voteID, err := auth.GenerateVoteID()
	if err != nil {
		return models.VoteReceipt{}, newError(ErrStorage, "Failed to generate vote ID", err)
	}

	// An abandoned submission could leave an on-chain vote with no local record
	ctx = context.WithoutCancel(ctx)

	tx, err := e.ledger.Vote(ctx, id, voter)
	if err != nil {
		slog.Warn("ledger vote failed", "proposal_id", id, "voter", voter, "error", err)
		return models.VoteReceipt{}, ledgerFailure(err, "Failed to cast vote")
	}

	vote := models.Vote{
		ID:              voteID,
		ContractAddress: e.scope,
		ProposalID:      id,
		VoterAddress:    voter,
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
		GasUsed:         tx.GasUsed,
		GasPrice:        tx.GasPrice,
		IPHash:          meta.IPHash,
		UserAgent:       meta.UserAgent,
		SessionID:       meta.SessionID,
		Timestamp:       e.now().UTC(),
	}

	if err := e.votes.Insert(ctx, vote); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Error("ledger accepted a vote for a proposal deleted meanwhile",
				"proposal_id", id, "voter", voter, "tx_hash", tx.TransactionHash)
			return models.VoteReceipt{}, newError(ErrProposalUnavailable, "Proposal not found or not active", nil)
		}
		if errors.Is(err, store.ErrDuplicate) {
			slog.Warn("ledger accepted a vote the store already holds",
				"proposal_id", id, "voter", voter, "tx_hash", tx.TransactionHash)
			return models.VoteReceipt{}, newError(ErrDuplicateVote, "User has already voted on this proposal", err)
		}
		slog.Error("vote recorded on ledger but not persisted; reconciliation required",
			"proposal_id", id, "voter", voter, "tx_hash", tx.TransactionHash, "error", err)
		return models.VoteReceipt{}, newError(ErrStorage, "Vote was recorded on the ledger but could not be saved", err)
	}

	if _, err := e.proposals.RecordVote(ctx, e.scope, id, voter); errors.Is(err, store.ErrNotFound) {
		// Proposal went away between the insert and the tally
		if derr := e.votes.Delete(ctx, voteID); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			slog.Error("failed to remove vote for deleted proposal",
				"proposal_id", id, "vote_id", voteID, "error", derr)
		}
		slog.Error("ledger accepted a vote for a proposal deleted meanwhile",
			"proposal_id", id, "voter", voter, "tx_hash", tx.TransactionHash)
		return models.VoteReceipt{}, newError(ErrProposalUnavailable, "Proposal not found or not active", nil)
	} else if err != nil {
		slog.Error("vote count update failed; recounting from votes",
			"proposal_id", id, "tx_hash", tx.TransactionHash, "error", err)
		if _, _, rerr := e.proposals.RecountFromVotes(ctx, e.scope, id); rerr != nil {
			slog.Error("recount failed; reconciliation required",
				"proposal_id", id, "tx_hash", tx.TransactionHash, "error", rerr)
			return models.VoteReceipt{}, newError(ErrStorage, "Vote was saved but the proposal tally could not be updated", errors.Join(err, rerr))
		}
	}

	slog.Info("vote cast", "proposal_id", id, "voter", voter, "vote_id", voteID,
		"tx_hash", tx.TransactionHash, "gas_used", humanize.Comma(int64(tx.GasUsed)))

	return models.VoteReceipt{
		VoteID:          voteID,
		ProposalID:      id,
		VoterAddress:    voter,
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
		GasUsed:         tx.GasUsed,
	}, nil
}
