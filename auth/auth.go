// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// VoteIDBytes is the byte length of vote identifiers (24 hex characters)
const VoteIDBytes = 12

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidID       = errors.New("invalid id format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateVoteID creates a 24-hex-digit vote identifier
func GenerateVoteID() (string, error) {
	return GenerateID(VoteIDBytes)
}

// ValidateID checks that id is hex encoding exactly byteLen bytes
func ValidateID(id string, byteLen int) error {
	if len(id) != byteLen*2 {
		return ErrInvalidID
	}
	if _, err := hex.DecodeString(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// ValidateAdminKey compares the provided key against the configured one
// in constant time. An empty configured key disables the check.
func ValidateAdminKey(provided, configured string) error {
	if configured == "" {
		return nil
	}
	if !hmac.Equal([]byte(provided), []byte(configured)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
