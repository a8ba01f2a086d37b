// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
)

// Lifecycle creates, updates, closes and deletes proposals in one contract scope
type Lifecycle struct {
	proposals ProposalRepository
	ledger    ledger.Gateway
	scope     string
	now       func() time.Time
}

func NewLifecycle(proposals ProposalRepository, gw ledger.Gateway, scope string) *Lifecycle {
	return &Lifecycle{
		proposals: proposals,
		ledger:    gw,
		scope:     scope,
		now:       time.Now,
	}
}

// CreateProposal validates the input, submits the creation transaction and
// stores the proposal under the ledger-assigned id
func (l *Lifecycle) CreateProposal(ctx context.Context, title, description string, deadline int64) (models.Proposal, error) {
	title, err := validateText("Title", title, models.MaxTitleLength)
	if err != nil {
		return models.Proposal{}, err
	}
	description, err = validateText("Description", description, models.MaxDescriptionLength)
	if err != nil {
		return models.Proposal{}, err
	}
	if deadline < 0 {
		return models.Proposal{}, newError(ErrValidation, "Deadline must be a non-negative Unix timestamp", nil)
	}

	ctx = context.WithoutCancel(ctx)

	tx, err := l.ledger.CreateProposal(ctx, title, description, deadline)
	if err != nil {
		slog.Warn("ledger proposal creation failed", "title", title, "error", err)
		return models.Proposal{}, ledgerFailure(err, "Failed to create proposal")
	}

	now := l.now().UTC()
	p := models.Proposal{
		ContractAddress: l.scope,
		ProposalID:      tx.ProposalID,
		Title:           title,
		Description:     description,
		Creator:         tx.Creator,
		Deadline:        deadline,
		IsActive:        true,
		VoteCount:       0,
		Voters:          []string{},
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
		GasUsed:         tx.GasUsed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := l.proposals.Insert(ctx, p); err != nil {
		slog.Error("proposal created on ledger but not persisted; sync required",
			"proposal_id", tx.ProposalID, "tx_hash", tx.TransactionHash, "error", err)
		return models.Proposal{}, newError(ErrStorage, "Proposal was created on the ledger but could not be saved", err)
	}

	slog.Info("proposal created", "proposal_id", p.ProposalID, "tx_hash", p.TransactionHash)
	return p, nil
}

// GetProposal returns a proposal with its voter set
func (l *Lifecycle) GetProposal(ctx context.Context, id int64) (models.Proposal, error) {
	p, err := l.proposals.Get(ctx, l.scope, id)
	if err != nil {
		return models.Proposal{}, proposalFailure(err, "Failed to load proposal")
	}
	return p, nil
}

// CloseProposal deactivates a proposal. Closing a closed proposal succeeds.
func (l *Lifecycle) CloseProposal(ctx context.Context, id int64) (models.Proposal, error) {
	if err := l.proposals.SetActive(ctx, l.scope, id, false); err != nil {
		return models.Proposal{}, proposalFailure(err, "Failed to close proposal")
	}
	l.closeOnLedger(ctx, id)

	slog.Info("proposal closed", "proposal_id", id)
	return l.GetProposal(ctx, id)
}

// UpdateProposal changes title, description or the active flag. Vote counts
// and deadline are never touched, and a closed proposal cannot be reopened.
func (l *Lifecycle) UpdateProposal(ctx context.Context, id int64, u store.ProposalUpdate) (models.Proposal, error) {
	current, err := l.GetProposal(ctx, id)
	if err != nil {
		return models.Proposal{}, err
	}

	if u.Title != nil {
		title, err := validateText("Title", *u.Title, models.MaxTitleLength)
		if err != nil {
			return models.Proposal{}, err
		}
		u.Title = &title
	}
	if u.Description != nil {
		description, err := validateText("Description", *u.Description, models.MaxDescriptionLength)
		if err != nil {
			return models.Proposal{}, err
		}
		u.Description = &description
	}
	if u.IsActive != nil && *u.IsActive && !current.IsActive {
		return models.Proposal{}, newError(ErrValidation, "Closed proposals cannot be reopened", nil)
	}

	if u.Title == nil && u.Description == nil && u.IsActive == nil {
		return current, nil
	}

	p, err := l.proposals.Update(ctx, l.scope, id, u)
	if err != nil {
		return models.Proposal{}, proposalFailure(err, "Failed to update proposal")
	}
	if u.IsActive != nil && !*u.IsActive {
		l.closeOnLedger(ctx, id)
	}

	slog.Info("proposal updated", "proposal_id", id)
	return p, nil
}

// DeleteProposal removes a proposal and all of its votes
func (l *Lifecycle) DeleteProposal(ctx context.Context, id int64) error {
	if err := l.proposals.Delete(ctx, l.scope, id); err != nil {
		return proposalFailure(err, "Failed to delete proposal")
	}
	slog.Info("proposal deleted", "proposal_id", id)
	return nil
}

func (l *Lifecycle) closeOnLedger(ctx context.Context, id int64) {
	closer, ok := l.ledger.(ledger.ProposalCloser)
	if !ok {
		return
	}
	if err := closer.CloseProposal(ctx, id); err != nil && !errors.Is(err, ledger.ErrProposalNotFound) {
		slog.Warn("ledger close failed", "proposal_id", id, "error", err)
	}
}

// IsExpired reports whether the proposal has a deadline that has passed
func IsExpired(p models.Proposal, now time.Time) bool {
	return p.Deadline != 0 && now.Unix() > p.Deadline
}

// TimeRemaining returns the seconds left before the deadline, floored at
// zero, or nil when the proposal has no deadline
func TimeRemaining(p models.Proposal, now time.Time) *int64 {
	if p.Deadline == 0 {
		return nil
	}
	remaining := max(p.Deadline-now.Unix(), 0)
	return &remaining
}

func validateText(field, value string, maxLen int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", newError(ErrValidation, field+" is required", nil)
	}
	if utf8.RuneCountInString(value) > maxLen {
		return "", newError(ErrValidation, fmt.Sprintf("%s must be at most %d characters", field, maxLen), nil)
	}
	return value, nil
}

func proposalFailure(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNotFound, "Proposal not found", nil)
	}
	return newError(ErrStorage, msg, err)
}
