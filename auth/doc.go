// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifier generation and request authentication helpers.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

Vote records use 12-byte IDs (24 hex characters):

	voteID, err := auth.GenerateVoteID()
	err = auth.ValidateID(voteID, auth.VoteIDBytes)

# Admin Key

Administrative routes (update, delete, close, sync, reconcile) may be
protected by a shared key passed in the X-Admin-Key header:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

An empty configured key disables the check for local development.

# IP Hashing

Vote records keep a salted hash of the client address instead of the raw IP:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
