// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger abstracts the chain that records proposals and votes.

# Gateway

Gateway is the capability the voting engine depends on:

	CreateProposal(ctx, title, description, deadline) -> ProposalTx
	Vote(ctx, proposalID, voter)                      -> VoteTx
	HasUserVoted(ctx, proposalID, voter)              -> bool
	GetAllProposals(ctx)                              -> []ProposalSnapshot

One implementation is chosen at startup and passed to the engine:

	var gw ledger.Gateway
	switch cfg.LedgerMode {
	case "ethereum":
		gw, err = ledger.DialEthereum(ctx, ledger.EthereumConfig{...})
	default:
		gw = ledger.NewSimulated(cfg.ContractAddress)
	}

# Simulated

Simulated keeps proposals and voter sets in memory behind a mutex. It
rejects votes on unknown or closed proposals and repeated voters with
ErrProposalNotFound, ErrProposalInactive and ErrAlreadyVoted. Transaction
hashes are Keccak-256 digests and are unique per instance.

Restore seeds the arena from persisted proposals after a restart.

# Ethereum

Ethereum talks to a deployed Voting contract with go-ethereum's ethclient
and a keyed transactor. Each submission waits for its receipt. Read-only
calls are retried with Fibonacci backoff; submissions are not.

Node errors mentioning insufficient funds or a user rejection are returned
as ErrInsufficientFunds and ErrUserRejected (check with errors.Is).

# Addresses

IsAddress accepts 0x followed by 40 hex digits. NormalizeAddress lower-cases
addresses before they are stored or compared.
*/
package ledger
