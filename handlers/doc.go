// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the chainvote API.

# Handler Types

  - ProposalHandler: proposal listing, lifecycle and analytics
  - VoteHandler: vote casting, lookups and verification
  - ContractHandler: ledger introspection, sync and reconciliation
  - ServerHandler: root, health and the 404 fallback

Handlers are created via constructor functions that accept the database,
the ledger gateway and the configuration:

	proposalHandler := handlers.NewProposalHandler(db, gw, cfg)

# Responses

Every response uses the envelope from package middleware. Errors from
package voting are mapped to statuses:

	InvalidArgument, ValidationError, DuplicateVote  400
	NotFound, ProposalUnavailable                    404
	LedgerError                                      502 (400 for funds or rejection)
	StorageError and anything else                   500

The underlying error text is added as "detail" unless APP_ENV is production.
*/
package handlers
