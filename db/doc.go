// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open selects the driver for the configured type and pings with backoff:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

Supported types are "postgres" (lib/pq) and "sqlite" (modernc.org/sqlite).
SQLite connections are limited to one open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Every statement is written to run unchanged on both databases.

# Tables

  - proposal: proposal content, active flag and cached vote_count
  - proposal_voter: voter set backing vote_count
  - vote: one row per accepted vote with ledger receipt metadata

# Relationships

	proposal 1──* proposal_voter
	proposal 1──* vote

Rows are keyed by (contract_address, proposal_id). There are no foreign
keys; proposal deletion removes dependent rows in the same transaction.

# Constraints

  - vote (contract_address, proposal_id, voter_address) is unique
  - vote.transaction_hash is unique
  - proposal.vote_count is never negative
*/
package db
