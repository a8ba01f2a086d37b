// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"encoding/binary"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/crypto"
)

// SimulatedOwner is the creator address reported by the simulated ledger
const SimulatedOwner = "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"

const simulatedBaseBlock = 12345

type simProposal struct {
	snapshot ProposalSnapshot
	voters   mapset.Set[string]
}

// Simulated is an in-process ledger for development and tests.
// Each instance owns its own proposal arena; nothing is shared between instances.
type Simulated struct {
	address string

	mu        sync.Mutex
	proposals map[int64]*simProposal
	lastID    int64
	nonce     uint64
	now       func() time.Time
}

var (
	_ Gateway        = (*Simulated)(nil)
	_ ProposalCloser = (*Simulated)(nil)
)

func NewSimulated(contractAddress string) *Simulated {
	return &Simulated{
		address:   contractAddress,
		proposals: make(map[int64]*simProposal),
		now:       time.Now,
	}
}

func (s *Simulated) CreateProposal(ctx context.Context, title, description string, deadline int64) (ProposalTx, error) {
	if err := ctx.Err(); err != nil {
		return ProposalTx{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	id := s.lastID
	s.proposals[id] = &simProposal{
		snapshot: ProposalSnapshot{
			ProposalID:  id,
			Title:       title,
			Description: description,
			Creator:     SimulatedOwner,
			CreatedAt:   s.now().Unix(),
			Deadline:    deadline,
			IsActive:    true,
		},
		voters: mapset.NewThreadUnsafeSet[string](),
	}

	return ProposalTx{
		ProposalID:      id,
		TransactionHash: s.txHash("createProposal", id, SimulatedOwner),
		BlockNumber:     uint64(simulatedBaseBlock + id),
		GasUsed:         100000 + rand.Uint64N(50000),
		Creator:         SimulatedOwner,
	}, nil
}

func (s *Simulated) Vote(ctx context.Context, proposalID int64, voter string) (VoteTx, error) {
	if err := ctx.Err(); err != nil {
		return VoteTx{}, err
	}
	voter = NormalizeAddress(voter)

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[proposalID]
	if !ok {
		return VoteTx{}, ErrProposalNotFound
	}
	if !p.snapshot.IsActive {
		return VoteTx{}, ErrProposalInactive
	}
	if !p.voters.Add(voter) {
		return VoteTx{}, ErrAlreadyVoted
	}
	p.snapshot.VoteCount++

	return VoteTx{
		TransactionHash: s.txHash("vote", proposalID, voter),
		BlockNumber:     uint64(simulatedBaseBlock + proposalID),
		GasUsed:         50000 + rand.Uint64N(20000),
		GasPrice:        "20000000000",
	}, nil
}

func (s *Simulated) HasUserVoted(ctx context.Context, proposalID int64, voter string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[proposalID]
	if !ok {
		return false, nil
	}
	return p.voters.Contains(NormalizeAddress(voter)), nil
}

// GetAllProposals returns snapshots ordered by id
func (s *Simulated) GetAllProposals(ctx context.Context) ([]ProposalSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ProposalSnapshot, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, p.snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposalID < out[j].ProposalID })
	return out, nil
}

// CloseProposal marks a proposal inactive so later votes are rejected
func (s *Simulated) CloseProposal(_ context.Context, proposalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[proposalID]
	if !ok {
		return ErrProposalNotFound
	}
	p.snapshot.IsActive = false
	return nil
}

// Restore loads a proposal and its voters into the arena, replacing any
// existing entry. Used at startup so the arena matches persisted state.
func (s *Simulated) Restore(snapshot ProposalSnapshot, voters []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := mapset.NewThreadUnsafeSet[string]()
	for _, v := range voters {
		set.Add(NormalizeAddress(v))
	}
	snapshot.VoteCount = int64(set.Cardinality())
	s.proposals[snapshot.ProposalID] = &simProposal{snapshot: snapshot, voters: set}
	if snapshot.ProposalID > s.lastID {
		s.lastID = snapshot.ProposalID
	}
}

func (s *Simulated) Info() ContractInfo {
	return ContractInfo{
		Address:       s.address,
		Owner:         SimulatedOwner,
		IsInitialized: true,
		IsMock:        true,
	}
}

func (s *Simulated) ABI() string {
	return VotingABI
}

// txHash derives a unique pseudo transaction hash; caller holds s.mu
func (s *Simulated) txHash(method string, proposalID int64, addr string) string {
	s.nonce++
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(proposalID))
	binary.BigEndian.PutUint64(buf[8:16], s.nonce)
	binary.BigEndian.PutUint64(buf[16:], uint64(s.now().UnixNano()))
	return crypto.Keccak256Hash([]byte(s.address), []byte(method), []byte(addr), buf[:]).Hex()
}
