// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
)

// Reconciler repairs cached tallies from the vote table and pulls proposals
// from the ledger into the store
type Reconciler struct {
	proposals ProposalRepository
	ledger    ledger.Gateway
	scope     string
}

func NewReconciler(proposals ProposalRepository, gw ledger.Gateway, scope string) *Reconciler {
	return &Reconciler{proposals: proposals, ledger: gw, scope: scope}
}

// Reconcile recomputes one proposal's vote count and voter set from its votes
func (r *Reconciler) Reconcile(ctx context.Context, id int64) (models.ReconcileResult, error) {
	return r.reconcile(ctx, r.scope, id)
}

// ReconcileAll recomputes every stored proposal and reports those whose
// count changed
func (r *Reconciler) ReconcileAll(ctx context.Context) (models.ReconcileSummary, error) {
	keys, err := r.proposals.Keys(ctx)
	if err != nil {
		return models.ReconcileSummary{}, newError(ErrStorage, "Failed to list proposals", err)
	}

	summary := models.ReconcileSummary{Corrected: []models.ReconcileResult{}}
	for _, k := range keys {
		res, err := r.reconcile(ctx, k.ContractAddress, k.ProposalID)
		if errors.Is(err, ErrNotFound) {
			continue // deleted since Keys ran
		}
		if err != nil {
			return summary, err
		}
		summary.Checked++
		if res.Before != res.After {
			summary.Corrected = append(summary.Corrected, res)
		}
	}

	slog.Info("reconciliation finished", "checked", summary.Checked, "corrected", len(summary.Corrected))
	return summary, nil
}

func (r *Reconciler) reconcile(ctx context.Context, scope string, id int64) (models.ReconcileResult, error) {
	before, after, err := r.proposals.RecountFromVotes(ctx, scope, id)
	if err != nil {
		return models.ReconcileResult{}, proposalFailure(err, "Failed to reconcile proposal")
	}
	if before != after {
		slog.Warn("vote count corrected", "contract", scope, "proposal_id", id, "before", before, "after", after)
	}
	return models.ReconcileResult{ProposalID: id, Before: before, After: after}, nil
}

// Sync inserts ledger proposals missing from the store. Existing proposals
// are left unchanged. New rows start with no votes; their tallies come from
// votes admitted afterwards.
func (r *Reconciler) Sync(ctx context.Context) (models.SyncResult, error) {
	snapshots, err := r.ledger.GetAllProposals(ctx)
	if err != nil {
		return models.SyncResult{}, ledgerFailure(err, "Failed to fetch proposals from the ledger")
	}

	result := models.SyncResult{Synced: len(snapshots)}
	for _, snap := range snapshots {
		exists, err := r.proposals.Exists(ctx, r.scope, snap.ProposalID)
		if err != nil {
			return result, newError(ErrStorage, "Failed to check proposal", err)
		}
		if exists {
			continue
		}

		createdAt := time.Unix(snap.CreatedAt, 0).UTC()
		if snap.CreatedAt == 0 {
			createdAt = time.Now().UTC()
		}
		err = r.proposals.Insert(ctx, models.Proposal{
			ContractAddress: r.scope,
			ProposalID:      snap.ProposalID,
			Title:           snap.Title,
			Description:     snap.Description,
			Creator:         snap.Creator,
			Deadline:        snap.Deadline,
			IsActive:        snap.IsActive,
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		})
		if errors.Is(err, store.ErrDuplicate) {
			continue // inserted concurrently
		}
		if err != nil {
			return result, newError(ErrStorage, "Failed to save synced proposal", err)
		}
		if snap.VoteCount > 0 {
			slog.Warn("synced proposal has on-chain votes without local records",
				"proposal_id", snap.ProposalID, "ledger_votes", snap.VoteCount)
		}
		result.Created++
	}

	slog.Info("proposals synced", "synced", result.Synced, "created", result.Created)
	return result, nil
}

// RestoreSimulated loads stored proposals of this scope into a simulated
// ledger so its state survives restarts
func (r *Reconciler) RestoreSimulated(ctx context.Context, sim *ledger.Simulated) (int, error) {
	proposals, _, err := r.proposals.List(ctx, store.ProposalFilter{ContractAddress: r.scope})
	if err != nil {
		return 0, newError(ErrStorage, "Failed to load proposals", err)
	}

	for _, p := range proposals {
		sim.Restore(ledger.ProposalSnapshot{
			ProposalID:  p.ProposalID,
			Title:       p.Title,
			Description: p.Description,
			Creator:     p.Creator,
			CreatedAt:   p.CreatedAt.Unix(),
			Deadline:    p.Deadline,
			IsActive:    p.IsActive,
		}, p.Voters)
	}
	return len(proposals), nil
}
