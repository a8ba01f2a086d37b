// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/middleware"
	"github.com/danielhkuo/chainvote/voting"
)

// statusFor maps a voting error kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, voting.ErrInvalidArgument),
		errors.Is(err, voting.ErrValidation),
		errors.Is(err, voting.ErrDuplicateVote):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrNotFound),
		errors.Is(err, voting.ErrProposalUnavailable):
		return http.StatusNotFound
	case errors.Is(err, voting.ErrLedger):
		if errors.Is(err, ledger.ErrInsufficientFunds) || errors.Is(err, ledger.ErrUserRejected) {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends a voting error to the client. Unclassified errors get a
// generic message; the underlying text is only exposed outside production.
func writeError(w http.ResponseWriter, r *http.Request, err error, showDetail bool) {
	status := statusFor(err)

	msg := "Internal server error"
	var verr *voting.Error
	if errors.As(err, &verr) {
		msg = verr.Msg
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	detail := ""
	if showDetail && (verr == nil || verr.Err != nil) {
		detail = err.Error()
	}
	middleware.ErrorDetailResponse(w, status, msg, detail)
}

// storageError reports a direct store failure in a read-only handler
func storageError(w http.ResponseWriter, r *http.Request, err error, msg string, showDetail bool) {
	writeError(w, r, &voting.Error{Kind: voting.ErrStorage, Msg: msg, Err: err}, showDetail)
}

// queryInt reads a positive integer query parameter, falling back to def
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
