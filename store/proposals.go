// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/chainvote/models"
)

// Key identifies a proposal within its contract scope
type Key struct {
	ContractAddress string
	ProposalID      int64
}

// ProposalFilter narrows List results. Zero values mean no filter;
// Limit 0 returns every row.
type ProposalFilter struct {
	ContractAddress string
	Active          *bool
	Limit           int
	Offset          int
}

// ProposalUpdate holds the fields an update may change; nil is unchanged
type ProposalUpdate struct {
	Title       *string
	Description *string
	IsActive    *bool
}

// ProposalStore owns proposal rows, their cached vote_count and voter set
type ProposalStore struct {
	db *sql.DB
}

func NewProposalStore(db *sql.DB) *ProposalStore {
	return &ProposalStore{db: db}
}

const proposalColumns = `contract_address, proposal_id, title, description, creator, deadline,
	is_active, vote_count, transaction_hash, block_number, gas_used, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProposal(row scanner) (models.Proposal, error) {
	var p models.Proposal
	var txHash sql.NullString
	err := row.Scan(&p.ContractAddress, &p.ProposalID, &p.Title, &p.Description, &p.Creator, &p.Deadline,
		&p.IsActive, &p.VoteCount, &txHash, &p.BlockNumber, &p.GasUsed, &p.CreatedAt, &p.UpdatedAt)
	p.TransactionHash = txHash.String
	p.Voters = []string{}
	return p, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func now() time.Time {
	return time.Now().UTC()
}

// Insert stores a new proposal. A proposal that already exists in its scope
// (or reuses a transaction hash) returns ErrDuplicate.
func (s *ProposalStore) Insert(ctx context.Context, p models.Proposal) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposal (`+proposalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ContractAddress, p.ProposalID, p.Title, p.Description, p.Creator, p.Deadline,
		p.IsActive, p.VoteCount, nullString(p.TransactionHash), int64(p.BlockNumber), int64(p.GasUsed),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	return translate(err)
}

// Get returns a proposal with its voter set
func (s *ProposalStore) Get(ctx context.Context, scope string, id int64) (models.Proposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+proposalColumns+`
		FROM proposal
		WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id)
	p, err := scanProposal(row)
	if err != nil {
		return models.Proposal{}, translate(err)
	}

	p.Voters, err = s.voters(ctx, scope, id)
	if err != nil {
		return models.Proposal{}, err
	}
	return p, nil
}

// Exists reports whether a proposal row is present
func (s *ProposalStore) Exists(ctx context.Context, scope string, id int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM proposal WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns one page of proposals, newest first, and the total match count
func (s *ProposalStore) List(ctx context.Context, f ProposalFilter) ([]models.Proposal, int, error) {
	var conds []string
	var args []any
	if f.ContractAddress != "" {
		args = append(args, f.ContractAddress)
		conds = append(conds, fmt.Sprintf("contract_address = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM proposal "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}

	query := "SELECT " + proposalColumns + " FROM proposal " + where + " ORDER BY created_at DESC, proposal_id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	proposals, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	// Voters are loaded after the row cursor is closed; SQLite runs on one connection
	for i := range proposals {
		proposals[i].Voters, err = s.voters(ctx, proposals[i].ContractAddress, proposals[i].ProposalID)
		if err != nil {
			return nil, 0, err
		}
	}
	return proposals, total, nil
}

// CreatedSince returns proposals created at or after since, oldest first.
// Voter sets are not loaded.
func (s *ProposalStore) CreatedSince(ctx context.Context, since time.Time) ([]models.Proposal, error) {
	return s.query(ctx, `
		SELECT `+proposalColumns+`
		FROM proposal
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`, since.UTC())
}

// TopActive returns the active proposal with the most votes in scope, or nil
// when no active proposal has any votes
func (s *ProposalStore) TopActive(ctx context.Context, scope string) (*models.Proposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+proposalColumns+`
		FROM proposal
		WHERE contract_address = $1 AND is_active = $2 AND vote_count > 0
		ORDER BY vote_count DESC, proposal_id ASC
		LIMIT 1
	`, scope, true)
	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Keys lists every stored proposal
func (s *ProposalStore) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT contract_address, proposal_id FROM proposal ORDER BY contract_address, proposal_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.ContractAddress, &k.ProposalID); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Counts returns the number of proposals and how many are active
func (s *ProposalStore) Counts(ctx context.Context) (total, active int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) FROM proposal
	`).Scan(&total, &active)
	return total, active, err
}

// Update applies a partial update and returns the updated proposal
func (s *ProposalStore) Update(ctx context.Context, scope string, id int64, u ProposalUpdate) (models.Proposal, error) {
	var sets []string
	var args []any
	if u.Title != nil {
		args = append(args, *u.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if u.Description != nil {
		args = append(args, *u.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if u.IsActive != nil {
		args = append(args, *u.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	args = append(args, now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, scope, id)
	query := fmt.Sprintf("UPDATE proposal SET %s WHERE contract_address = $%d AND proposal_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Proposal{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Proposal{}, ErrNotFound
	}
	return s.Get(ctx, scope, id)
}

// SetActive changes the active flag. Setting the current value succeeds.
func (s *ProposalStore) SetActive(ctx context.Context, scope string, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE proposal SET is_active = $1, updated_at = $2
		WHERE contract_address = $3 AND proposal_id = $4
	`, active, now(), scope, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordVote adds voter to the proposal's voter set and increments vote_count
// in one transaction. It reports false, changing nothing, when the voter is
// already in the set.
func (s *ProposalStore) RecordVote(ctx context.Context, scope string, id int64, voter string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO proposal_voter (contract_address, proposal_id, voter_address)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, scope, id, voter)
	if err != nil {
		return false, fmt.Errorf("insert voter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, tx.Commit()
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE proposal SET vote_count = vote_count + 1, updated_at = $1
		WHERE contract_address = $2 AND proposal_id = $3
	`, now(), scope, id)
	if err != nil {
		return false, fmt.Errorf("increment vote count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// RecountFromVotes rebuilds the voter set and vote_count from the vote table
// in one transaction and returns the count before and after
func (s *ProposalStore) RecountFromVotes(ctx context.Context, scope string, id int64) (before, after int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		SELECT vote_count FROM proposal WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id).Scan(&before)
	if err != nil {
		return 0, 0, translate(err)
	}

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM proposal_voter WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id); err != nil {
		return 0, 0, fmt.Errorf("clear voters: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO proposal_voter (contract_address, proposal_id, voter_address)
		SELECT DISTINCT contract_address, proposal_id, voter_address
		FROM vote
		WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id); err != nil {
		return 0, 0, fmt.Errorf("rebuild voters: %w", err)
	}

	if err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM proposal_voter WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id).Scan(&after); err != nil {
		return 0, 0, err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE proposal SET vote_count = $1, updated_at = $2
		WHERE contract_address = $3 AND proposal_id = $4
	`, after, now(), scope, id); err != nil {
		return 0, 0, fmt.Errorf("set vote count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// Delete removes a proposal, its voter set and all of its votes in one transaction
func (s *ProposalStore) Delete(ctx context.Context, scope string, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM proposal WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM proposal_voter WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id); err != nil {
		return fmt.Errorf("delete voters: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM vote WHERE contract_address = $1 AND proposal_id = $2
	`, scope, id); err != nil {
		return fmt.Errorf("delete votes: %w", err)
	}

	return tx.Commit()
}

func (s *ProposalStore) query(ctx context.Context, query string, args ...any) ([]models.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (s *ProposalStore) voters(ctx context.Context, scope string, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT voter_address FROM proposal_voter
		WHERE contract_address = $1 AND proposal_id = $2
		ORDER BY voter_address
	`, scope, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voters := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		voters = append(voters, v)
	}
	return voters, rows.Err()
}
