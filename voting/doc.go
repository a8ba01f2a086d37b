// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting admits votes and manages the proposal lifecycle.

# Vote admission

[Engine.CastVote] validates the request, checks the proposal is active,
rejects voters that already voted locally or on the ledger, submits the
vote to the [ledger.Gateway] and then persists it. The vote row is written
before the proposal's cached count so the vote table is always the superset
used by [Reconciler.Reconcile].

Concurrent attempts by the same voter race on the pre-checks; the unique
constraint on the vote table decides and the loser gets [ErrDuplicateVote].

# Errors

Every failure is an [*Error] whose kind is one of the Err* sentinels.
Handlers map kinds to HTTP statuses with errors.Is; Msg is safe to return
to clients.

# Deadlines

[IsExpired] and [TimeRemaining] are informational unless the engine is
built with deadline enforcement. Expiry never flips the active flag.
*/
package voting
