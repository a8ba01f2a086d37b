// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the chainvote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, gateway, cfg)

The ledger gateway is chosen once in main and shared by every handler.

# Endpoints

Server:

	GET /       - Name and version
	GET /health - Status and uptime

Proposals:

	GET    /api/proposals           - List (active, contractAddress, page, limit)
	GET    /api/proposals/active    - Active proposals
	GET    /api/proposals/analytics - Daily creation counts (timeRange)
	GET    /api/proposals/{id}      - Proposal with its votes
	GET    /api/proposals/{id}/stats
	POST   /api/proposals           - Create on the ledger and store
	PUT    /api/proposals/{id}      - Partial update (admin)
	DELETE /api/proposals/{id}      - Delete with votes (admin)
	POST   /api/proposals/{id}/close - Close voting (admin)

Votes:

	POST /api/votes                           - Cast a vote
	GET  /api/votes/check                     - proposalId, voterAddress
	GET  /api/votes/status/{id}/{address}     - Local and on-chain status
	GET  /api/votes/proposal/{id}
	GET  /api/votes/voter/{address}
	GET  /api/votes/recent                    - limit
	GET  /api/votes/stats
	GET  /api/votes/analytics                 - timeRange, contractAddress
	PUT  /api/votes/{id}/verify

Contract:

	GET  /api/contract/info | abi | stats | health | winner
	POST /api/contract/sync      - Import ledger proposals (admin)
	POST /api/contract/reconcile - Recount tallies from votes (admin)

Admin routes check the X-Admin-Key header when ADMIN_KEY is set. Any other
path answers 404 with a JSON envelope.
*/
package router
