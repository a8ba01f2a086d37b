// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/chainvote/models"
)

// VoteStore owns individual vote records
type VoteStore struct {
	db *sql.DB
}

func NewVoteStore(db *sql.DB) *VoteStore {
	return &VoteStore{db: db}
}

const voteColumns = `id, contract_address, proposal_id, voter_address, transaction_hash, block_number,
	gas_used, gas_price, ip_hash, user_agent, session_id, is_verified, verification_hash, cast_at`

func scanVote(row scanner) (models.Vote, error) {
	var v models.Vote
	err := row.Scan(&v.ID, &v.ContractAddress, &v.ProposalID, &v.VoterAddress, &v.TransactionHash, &v.BlockNumber,
		&v.GasUsed, &v.GasPrice, &v.IPHash, &v.UserAgent, &v.SessionID, &v.IsVerified, &v.VerificationHash, &v.Timestamp)
	return v, err
}

// Insert stores a vote. A second vote for the same (scope, proposal, voter)
// or a reused transaction hash returns ErrDuplicate. The proposal row is
// locked first so the insert cannot interleave with Delete; a missing
// proposal returns ErrNotFound and stores nothing.
func (s *VoteStore) Insert(ctx context.Context, v models.Vote) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = now()
	}
	if v.GasPrice == "" {
		v.GasPrice = "0"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE proposal SET updated_at = updated_at
		WHERE contract_address = $1 AND proposal_id = $2
	`, v.ContractAddress, v.ProposalID)
	if err != nil {
		return fmt.Errorf("lock proposal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (`+voteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, v.ID, v.ContractAddress, v.ProposalID, v.VoterAddress, v.TransactionHash, int64(v.BlockNumber),
		int64(v.GasUsed), v.GasPrice, v.IPHash, v.UserAgent, v.SessionID, v.IsVerified, v.VerificationHash,
		v.Timestamp.UTC())
	if err != nil {
		return translate(err)
	}
	return tx.Commit()
}

// Delete removes a single vote by id
func (s *VoteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vote WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a vote by id
func (s *VoteStore) Get(ctx context.Context, id string) (models.Vote, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM vote WHERE id = $1`, id)
	v, err := scanVote(row)
	return v, translate(err)
}

// Find returns the vote cast by voter on a proposal
func (s *VoteStore) Find(ctx context.Context, scope string, proposalID int64, voter string) (models.Vote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		WHERE contract_address = $1 AND proposal_id = $2 AND voter_address = $3
	`, scope, proposalID, voter)
	v, err := scanVote(row)
	return v, translate(err)
}

// ListByProposal returns a proposal's votes, newest first
func (s *VoteStore) ListByProposal(ctx context.Context, scope string, proposalID int64) ([]models.Vote, error) {
	return s.query(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		WHERE contract_address = $1 AND proposal_id = $2
		ORDER BY cast_at DESC, id
	`, scope, proposalID)
}

// ListByVoter returns every vote cast by voter across scopes, newest first
func (s *VoteStore) ListByVoter(ctx context.Context, voter string) ([]models.Vote, error) {
	return s.query(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		WHERE voter_address = $1
		ORDER BY cast_at DESC, id
	`, voter)
}

// Recent returns the latest votes across all proposals
func (s *VoteStore) Recent(ctx context.Context, limit int) ([]models.Vote, error) {
	return s.query(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		ORDER BY cast_at DESC, id
		LIMIT $1
	`, limit)
}

// Since returns votes cast at or after since, oldest first. An empty scope
// matches every contract.
func (s *VoteStore) Since(ctx context.Context, since time.Time, scope string) ([]models.Vote, error) {
	if scope == "" {
		return s.query(ctx, `
			SELECT `+voteColumns+`
			FROM vote
			WHERE cast_at >= $1
			ORDER BY cast_at ASC
		`, since.UTC())
	}
	return s.query(ctx, `
		SELECT `+voteColumns+`
		FROM vote
		WHERE cast_at >= $1 AND contract_address = $2
		ORDER BY cast_at ASC
	`, since.UTC(), scope)
}

// Verify marks a vote verified with its id as the verification hash.
// Verifying an already verified vote changes nothing.
func (s *VoteStore) Verify(ctx context.Context, id string) (models.Vote, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE vote SET is_verified = $1, verification_hash = $2
		WHERE id = $3 AND is_verified = $4
	`, true, id, id, false)
	if err != nil {
		return models.Vote{}, err
	}
	return s.Get(ctx, id)
}

// Stats aggregates every stored vote
func (s *VoteStore) Stats(ctx context.Context) (models.VotingStats, error) {
	var st models.VotingStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT voter_address), COALESCE(SUM(gas_used), 0) FROM vote
	`).Scan(&st.TotalVotes, &st.UniqueVoterCount, &st.TotalGasUsed)
	return st, err
}

func (s *VoteStore) query(ctx context.Context, query string, args ...any) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
