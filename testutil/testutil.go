// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/chainvote/auth"
	"github.com/danielhkuo/chainvote/cliparse"
	"github.com/danielhkuo/chainvote/db"
	"github.com/danielhkuo/chainvote/ledger"
	"github.com/danielhkuo/chainvote/models"
)

// TestContract is the contract scope used by test fixtures
const TestContract = models.DefaultContractAddress

// TestDBURL opens a private in-memory SQLite database
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            5000,
		DatabaseURL:     TestDBURL,
		DatabaseType:    "sqlite",
		LedgerMode:      cliparse.LedgerSimulated,
		ContractAddress: TestContract,
		DeadlinePolicy:  cliparse.DeadlineIgnore,
		FrontendURL:     "http://localhost:3000",
		IPHashSalt:      "test-ip-salt",
		AppEnv:          "test",
		LogLevel:        "error",
	}
}

// Voter returns a deterministic, valid voter address for index i
func Voter(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

// CreateTestProposal registers a proposal on the simulated ledger and stores it.
// Inactive proposals are closed on both sides.
func CreateTestProposal(t *testing.T, conn *sql.DB, gw *ledger.Simulated, title string, active bool) int64 {
	t.Helper()

	res, err := gw.CreateProposal(context.Background(), title, "Test description for "+title, 0)
	if err != nil {
		t.Fatalf("Failed to create ledger proposal: %v", err)
	}
	if !active {
		if err := gw.CloseProposal(context.Background(), res.ProposalID); err != nil {
			t.Fatalf("Failed to close ledger proposal: %v", err)
		}
	}

	now := time.Now().UTC()
	_, err = conn.Exec(`
		INSERT INTO proposal (contract_address, proposal_id, title, description, creator, deadline,
			is_active, vote_count, transaction_hash, block_number, gas_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, TestContract, res.ProposalID, title, "Test description for "+title, res.Creator, 0,
		active, 0, res.TransactionHash, int64(res.BlockNumber), int64(res.GasUsed), now, now)
	if err != nil {
		t.Fatalf("Failed to create test proposal: %v", err)
	}

	return res.ProposalID
}

// AddTestVote stores a vote and updates the proposal's voter set and count,
// bypassing the ledger. Returns the vote ID.
func AddTestVote(t *testing.T, conn *sql.DB, proposalID int64, voter string) string {
	t.Helper()

	voteID, _ := auth.GenerateVoteID()
	txHash := "0x" + voteID + voteID + "0000000000000000"
	now := time.Now().UTC()

	_, err := conn.Exec(`
		INSERT INTO vote (id, contract_address, proposal_id, voter_address, transaction_hash,
			block_number, gas_used, gas_price, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, voteID, TestContract, proposalID, voter, txHash, 12345, 50000, "20000000000", now)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO proposal_voter (contract_address, proposal_id, voter_address)
		VALUES ($1, $2, $3)
	`, TestContract, proposalID, voter)
	if err != nil {
		t.Fatalf("Failed to add test voter: %v", err)
	}

	_, err = conn.Exec(`
		UPDATE proposal SET vote_count = vote_count + 1
		WHERE contract_address = $1 AND proposal_id = $2
	`, TestContract, proposalID)
	if err != nil {
		t.Fatalf("Failed to increment vote count: %v", err)
	}

	return voteID
}

// CountVotes returns the number of vote rows for a proposal
func CountVotes(t *testing.T, conn *sql.DB, proposalID int64) int {
	t.Helper()

	var n int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE contract_address = $1 AND proposal_id = $2
	`, TestContract, proposalID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// VoteCount returns the cached vote_count of a proposal
func VoteCount(t *testing.T, conn *sql.DB, proposalID int64) int64 {
	t.Helper()

	var n int64
	err := conn.QueryRow(`
		SELECT vote_count FROM proposal WHERE contract_address = $1 AND proposal_id = $2
	`, TestContract, proposalID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to read vote count: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// DecodeData decodes an APIResponse envelope and its data payload into v.
// It returns the envelope with Data left as raw JSON.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) models.APIResponse {
	t.Helper()

	var env struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
	if v != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("Failed to decode response data: %v", err)
		}
	}
	return env.APIResponse
}
