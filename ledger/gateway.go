// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Gateway is the ledger capability consumed by the voting engine.
// Implementations must be safe for concurrent use.
type Gateway interface {
	// CreateProposal submits a proposal-creation transaction and returns
	// the ledger-assigned identifier.
	CreateProposal(ctx context.Context, title, description string, deadline int64) (ProposalTx, error)
	// Vote submits a vote transaction. Callers must not retry on failure.
	Vote(ctx context.Context, proposalID int64, voter string) (VoteTx, error)
	HasUserVoted(ctx context.Context, proposalID int64, voter string) (bool, error)
	GetAllProposals(ctx context.Context) ([]ProposalSnapshot, error)
	Info() ContractInfo
	ABI() string
}

// ProposalCloser is implemented by gateways that can deactivate a proposal
// so the ledger itself rejects later votes
type ProposalCloser interface {
	CloseProposal(ctx context.Context, proposalID int64) error
}

type ProposalTx struct {
	ProposalID      int64
	TransactionHash string
	BlockNumber     uint64
	GasUsed         uint64
	Creator         string
}

type VoteTx struct {
	TransactionHash string
	BlockNumber     uint64
	GasUsed         uint64
	GasPrice        string
}

// ProposalSnapshot is a proposal as the ledger reports it
type ProposalSnapshot struct {
	ProposalID  int64  `json:"proposalId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VoteCount   int64  `json:"voteCount"`
	Creator     string `json:"creator"`
	CreatedAt   int64  `json:"createdAt"`
	Deadline    int64  `json:"deadline"`
	IsActive    bool   `json:"isActive"`
}

type ContractInfo struct {
	Address       string `json:"address"`
	Owner         string `json:"owner"`
	IsInitialized bool   `json:"isInitialized"`
	IsMock        bool   `json:"isMock"`
	ChainID       int64  `json:"chainId,omitempty"`
}

var (
	ErrProposalNotFound  = errors.New("proposal does not exist")
	ErrProposalInactive  = errors.New("proposal is not active")
	ErrAlreadyVoted      = errors.New("already voted on this proposal")
	ErrInsufficientFunds = errors.New("insufficient funds for transaction")
	ErrUserRejected      = errors.New("transaction rejected by user")
)

// IsAddress reports whether s is 0x followed by 40 hex digits
func IsAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// NormalizeAddress lower-cases an address for storage and comparison
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
