// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

main loads a .env file (if present) before calling ParseFlags, so values
there behave like ordinary environment variables.

# CLI Flags

	-p           Server port
	-d           Database URL
	-t           Database type (sqlite or postgres)
	-ledger      Ledger mode (simulated or ethereum)
	-rpc         Ledger RPC URL
	-contract    Voting contract address
	-admin-key   Admin key
	-ip-salt     IP hash salt
	-deadline    Deadline policy (ignore or enforce)
	-reconcile   Reconcile vote counts on startup

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p (default 5000)
	DATABASE_URL       → -d (required)
	DATABASE_TYPE      → -t (default sqlite)
	LEDGER_MODE        → -ledger (default simulated)
	LEDGER_RPC_URL     → -rpc
	CONTRACT_ADDRESS   → -contract
	ADMIN_KEY          → -admin-key (optional; empty leaves admin routes open)
	IP_HASH_SALT       → -ip-salt
	DEADLINE_POLICY    → -deadline (default ignore)
	RECONCILE_ON_START → -reconcile

Env-only settings: LEDGER_PRIVATE_KEY, LEDGER_CHAIN_ID, FRONTEND_URL,
APP_ENV and LOG_LEVEL.

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - LEDGER_MODE=ethereum without an RPC URL, private key or contract address
  - APP_ENV=production without IP_HASH_SALT
  - an enumerated setting has an unknown value
*/
package cliparse
