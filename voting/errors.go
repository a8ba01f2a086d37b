// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"strconv"
	"strings"

	"github.com/danielhkuo/chainvote/ledger"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrProposalUnavailable = errors.New("proposal unavailable")
	ErrDuplicateVote       = errors.New("duplicate vote")
	ErrLedger              = errors.New("ledger error")
	ErrStorage             = errors.New("storage error")
)

// Error carries a kind, a message safe to show to clients and the
// underlying cause, if any
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// ParseProposalID validates a raw proposal identifier
func ParseProposalID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, newError(ErrInvalidArgument, "Proposal ID is required", nil)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newError(ErrInvalidArgument, "Invalid proposal ID", nil)
	}
	return id, nil
}

// ParseAddress validates and normalizes a voter address
func ParseAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", newError(ErrInvalidArgument, "Voter address is required", nil)
	}
	if !ledger.IsAddress(raw) {
		return "", newError(ErrInvalidArgument, "Invalid voter address", nil)
	}
	return ledger.NormalizeAddress(raw), nil
}

// ledgerFailure classifies a gateway error
func ledgerFailure(err error, fallback string) *Error {
	switch {
	case errors.Is(err, ledger.ErrAlreadyVoted):
		return newError(ErrDuplicateVote, "User has already voted on this proposal on the blockchain", err)
	case errors.Is(err, ledger.ErrProposalNotFound), errors.Is(err, ledger.ErrProposalInactive):
		return newError(ErrProposalUnavailable, "Proposal not found or not active", err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return newError(ErrLedger, "Insufficient funds for transaction", err)
	case errors.Is(err, ledger.ErrUserRejected):
		return newError(ErrLedger, "Transaction rejected by user", err)
	default:
		return newError(ErrLedger, fallback, err)
	}
}
