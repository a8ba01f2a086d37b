// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the chainvote API server.

chainvote records proposal votes on a smart-contract ledger and mirrors
proposals and votes into a relational database for fast queries, history
and analytics. The ledger is the authority for "one vote per address per
proposal"; the database keeps the counts and metadata.

# Starting the Server

The server reads a .env file when present, then environment variables or
CLI flags:

	DATABASE_URL=file:chainvote.db go run .

Or with flags:

	go run . -p 5000 -t postgres -d "postgres://..."

# Configuration

Database:

  - DATABASE_URL (-d): Connection string (required)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)

Ledger:

  - LEDGER_MODE (--ledger): simulated or ethereum (default: simulated)
  - LEDGER_RPC_URL (--rpc), LEDGER_PRIVATE_KEY, LEDGER_CHAIN_ID: ethereum mode
  - CONTRACT_ADDRESS (--contract): Scope for stored proposals

Server:

  - PORT (-p): Server port (default: 5000)
  - FRONTEND_URL: Allowed CORS origin (default: http://localhost:3000)
  - ADMIN_KEY (--admin-key): Guards update, delete, close, sync and reconcile
  - IP_HASH_SALT (--ip-salt): Required in production
  - DEADLINE_POLICY (--deadline): ignore or enforce (default: ignore)
  - RECONCILE_ON_START (--reconcile): Recount vote tallies at startup
  - APP_ENV: production hides error details and switches logs to JSON
  - LOG_LEVEL: debug, info, warn or error

# Architecture

  - handlers: HTTP request handlers (proposals, votes, contract, server)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, request ids, admin key, JSON helpers
  - voting: Vote admission, proposal lifecycle, reconciliation and stats
  - ledger: Gateway to the contract (simulated or go-ethereum)
  - store: Proposal and vote persistence
  - models: Request/response types
  - auth: Vote ids, admin key checks and IP hashing
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
