// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/models"
	"github.com/danielhkuo/chainvote/store"
	"github.com/danielhkuo/chainvote/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.lifecycle.CreateProposal(ctx, "  Upgrade X  ", "Raise the gas limit", 0)
	require.NoError(t, err)

	assert.Equal(t, "Upgrade X", p.Title)
	assert.True(t, p.IsActive)
	assert.Equal(t, int64(0), p.VoteCount)
	assert.Empty(t, p.Voters)
	assert.Equal(t, ledger.SimulatedOwner, p.Creator)
	assert.NotEmpty(t, p.TransactionHash)

	stored, err := f.proposals.Get(ctx, testutil.TestContract, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, stored.Title)
	assert.Equal(t, p.TransactionHash, stored.TransactionHash)

	second, err := f.lifecycle.CreateProposal(ctx, "Second", "Another one", 0)
	require.NoError(t, err)
	assert.Equal(t, p.ProposalID+1, second.ProposalID)
}

func TestCreateProposal_Validation(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		deadline    int64
		msg         string
	}{
		{"empty title", "", "desc", 0, "Title is required"},
		{"blank title", "   ", "desc", 0, "Title is required"},
		{"long title", strings.Repeat("t", models.MaxTitleLength+1), "desc", 0, "Title must be at most 200 characters"},
		{"empty description", "title", "", 0, "Description is required"},
		{"long description", "title", strings.Repeat("d", models.MaxDescriptionLength+1), 0, "Description must be at most 2000 characters"},
		{"negative deadline", "title", "desc", -1, "Deadline must be a non-negative Unix timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.lifecycle.CreateProposal(context.Background(), tt.title, tt.description, tt.deadline)
			require.ErrorIs(t, err, ErrValidation)

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Msg)

			_, total, err := f.proposals.List(context.Background(), store.ProposalFilter{})
			require.NoError(t, err)
			assert.Zero(t, total)

			snaps, err := f.ledger.GetAllProposals(context.Background())
			require.NoError(t, err)
			assert.Empty(t, snaps)
		})
	}
}

func TestCreateProposal_BoundaryLengths(t *testing.T) {
	f := newFixture(t)

	// Multi-byte runes count as single characters
	title := strings.Repeat("é", models.MaxTitleLength)
	_, err := f.lifecycle.CreateProposal(context.Background(), title, strings.Repeat("d", models.MaxDescriptionLength), 0)
	require.NoError(t, err)
}

type rejectingCreate struct {
	*ledger.Simulated
}

func (r *rejectingCreate) CreateProposal(context.Context, string, string, int64) (ledger.ProposalTx, error) {
	return ledger.ProposalTx{}, ledger.ErrInsufficientFunds
}

func TestCreateProposal_LedgerFailure(t *testing.T) {
	f := newFixture(t)

	lc := NewLifecycle(f.proposals, &rejectingCreate{Simulated: f.ledger}, testutil.TestContract)
	_, err := lc.CreateProposal(context.Background(), "Upgrade X", "desc", 0)
	require.ErrorIs(t, err, ErrLedger)

	_, total, err := f.proposals.List(context.Background(), store.ProposalFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

type failingInsert struct {
	ProposalRepository
}

func (failingInsert) Insert(context.Context, models.Proposal) error {
	return errors.New("disk full")
}

func TestCreateProposal_StorageFailure(t *testing.T) {
	f := newFixture(t)

	lc := NewLifecycle(failingInsert{f.proposals}, f.ledger, testutil.TestContract)
	_, err := lc.CreateProposal(context.Background(), "Upgrade X", "desc", 0)
	require.ErrorIs(t, err, ErrStorage)

	// The ledger holds the proposal; sync recovers it
	res, err := NewReconciler(f.proposals, f.ledger, testutil.TestContract).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

func TestCloseProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Upgrade X")

	p, err := f.lifecycle.CloseProposal(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	// Second close is a no-op
	p, err = f.lifecycle.CloseProposal(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	snaps, err := f.ledger.GetAllProposals(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.False(t, snaps[0].IsActive)

	_, err = f.lifecycle.CloseProposal(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Upgrade X")

	_, err := f.engine.CastVote(ctx, idStr(id), testutil.Voter(0), VoteMeta{})
	require.NoError(t, err)

	title := "Upgrade Y"
	p, err := f.lifecycle.UpdateProposal(ctx, id, store.ProposalUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Upgrade Y", p.Title)
	assert.Equal(t, "Description of Upgrade X", p.Description)
	assert.Equal(t, int64(1), p.VoteCount)
	assert.True(t, p.IsActive)

	inactive := false
	p, err = f.lifecycle.UpdateProposal(ctx, id, store.ProposalUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Equal(t, int64(1), p.VoteCount)

	active := true
	_, err = f.lifecycle.UpdateProposal(ctx, id, store.ProposalUpdate{IsActive: &active})
	require.ErrorIs(t, err, ErrValidation)

	// Empty update returns the current state
	p, err = f.lifecycle.UpdateProposal(ctx, id, store.ProposalUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Upgrade Y", p.Title)
}

func TestUpdateProposal_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Upgrade X")

	title := "New"
	_, err := f.lifecycle.UpdateProposal(ctx, 999, store.ProposalUpdate{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	empty := "  "
	_, err = f.lifecycle.UpdateProposal(ctx, id, store.ProposalUpdate{Title: &empty})
	require.ErrorIs(t, err, ErrValidation)

	long := strings.Repeat("d", models.MaxDescriptionLength+1)
	_, err = f.lifecycle.UpdateProposal(ctx, id, store.ProposalUpdate{Description: &long})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "Upgrade X")
	other := f.create(t, "Keep")

	for i := range 3 {
		_, err := f.engine.CastVote(ctx, idStr(id), testutil.Voter(i), VoteMeta{})
		require.NoError(t, err)
	}
	_, err := f.engine.CastVote(ctx, idStr(other), testutil.Voter(0), VoteMeta{})
	require.NoError(t, err)

	require.NoError(t, f.lifecycle.DeleteProposal(ctx, id))
	assert.Equal(t, 0, testutil.CountVotes(t, f.db, id))
	assert.Equal(t, 1, testutil.CountVotes(t, f.db, other))

	_, err = f.lifecycle.GetProposal(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	err = f.lifecycle.DeleteProposal(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		deadline  int64
		expired   bool
		remaining *int64
	}{
		{"no deadline", 0, false, nil},
		{"future", now.Unix() + 90, false, ptr(int64(90))},
		{"exactly now", now.Unix(), false, ptr(int64(0))},
		{"past", now.Unix() - 10, true, ptr(int64(0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Proposal{Deadline: tt.deadline, IsActive: true}
			assert.Equal(t, tt.expired, IsExpired(p, now))
			assert.Equal(t, tt.remaining, TimeRemaining(p, now))
		})
	}
}

func ptr[T any](v T) *T { return &v }
