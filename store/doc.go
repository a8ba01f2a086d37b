// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists proposals and votes over database/sql.

Queries use $N placeholders and run unchanged on PostgreSQL and SQLite.

# Proposal Store

ProposalStore owns proposal rows together with the cached vote_count and the
proposal_voter set behind it:

	ps := store.NewProposalStore(db)
	added, err := ps.RecordVote(ctx, scope, id, voter)  // voter row + increment, one tx
	before, after, err := ps.RecountFromVotes(ctx, scope, id)
	err = ps.Delete(ctx, scope, id)                      // proposal, voters and votes, one tx

# Vote Store

VoteStore owns individual vote records. The vote table enforces one vote per
(contract, proposal, voter) and unique transaction hashes, so concurrent
inserts for the same voter fail with ErrDuplicate rather than double counting.

# Errors

  - ErrNotFound: no matching row
  - ErrDuplicate: a unique or primary key constraint rejected the write
    (PostgreSQL 23505, SQLite SQLITE_CONSTRAINT_UNIQUE/PRIMARYKEY)

Both are checked with errors.Is.
*/
package store
