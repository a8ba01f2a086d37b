// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DriverName maps a configured database type to its database/sql driver
func DriverName(dbType string) (string, error) {
	switch dbType {
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// Open connects to the database and waits for it to answer a ping.
// Connection attempts back off so the server can start alongside its database.
func Open(dbType, url string) (*sql.DB, error) {
	driver, err := DriverName(dbType)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps :memory: databases alive
	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	action := func(attempt uint) error {
		err := conn.Ping()
		if err != nil {
			slog.Warn("database ping failed", "attempt", attempt, "error", err)
		}
		return err
	}
	if err := retry.Retry(action, strategy.Limit(5), strategy.Backoff(backoff.Fibonacci(500*time.Millisecond))); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Statements must stay valid for both PostgreSQL and SQLite
const schema = `
-- Proposals, scoped by ledger contract address
CREATE TABLE IF NOT EXISTS proposal (
    contract_address TEXT NOT NULL,
    proposal_id BIGINT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    creator TEXT NOT NULL,
    deadline BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    vote_count BIGINT NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
    transaction_hash TEXT UNIQUE,
    block_number BIGINT NOT NULL DEFAULT 0,
    gas_used BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (contract_address, proposal_id)
);

-- Denormalized voter set; one row per counted vote
CREATE TABLE IF NOT EXISTS proposal_voter (
    contract_address TEXT NOT NULL,
    proposal_id BIGINT NOT NULL,
    voter_address TEXT NOT NULL,
    PRIMARY KEY (contract_address, proposal_id, voter_address)
);

-- Individual votes (ledger of record for tallies)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    contract_address TEXT NOT NULL,
    proposal_id BIGINT NOT NULL,
    voter_address TEXT NOT NULL,
    transaction_hash TEXT NOT NULL UNIQUE,
    block_number BIGINT NOT NULL DEFAULT 0,
    gas_used BIGINT NOT NULL DEFAULT 0,
    gas_price TEXT NOT NULL DEFAULT '0',
    ip_hash TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    session_id TEXT NOT NULL DEFAULT '',
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    verification_hash TEXT NOT NULL DEFAULT '',
    cast_at TIMESTAMP NOT NULL,
    UNIQUE (contract_address, proposal_id, voter_address)
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_proposal_active ON proposal(is_active, created_at);
CREATE INDEX IF NOT EXISTS idx_proposal_created ON proposal(created_at);
CREATE INDEX IF NOT EXISTS idx_vote_voter ON vote(voter_address);
CREATE INDEX IF NOT EXISTS idx_vote_cast_at ON vote(cast_at);
`
