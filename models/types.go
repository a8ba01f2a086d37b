package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Field bounds for proposal content
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// DefaultContractAddress scopes records when no ledger address is configured
const DefaultContractAddress = "0x1234567890123456789012345678901234567890"

// Domain types

type Proposal struct {
	ContractAddress string    `json:"contractAddress"`
	ProposalID      int64     `json:"proposalId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Creator         string    `json:"creator"`
	Deadline        int64     `json:"deadline"`
	IsActive        bool      `json:"isActive"`
	VoteCount       int64     `json:"voteCount"`
	Voters          []string  `json:"voters"`
	TransactionHash string    `json:"transactionHash"`
	BlockNumber     uint64    `json:"blockNumber"`
	GasUsed         uint64    `json:"gasUsed"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Vote struct {
	ID               string    `json:"id"`
	ContractAddress  string    `json:"contractAddress"`
	ProposalID       int64     `json:"proposalId"`
	VoterAddress     string    `json:"voterAddress"`
	TransactionHash  string    `json:"transactionHash"`
	BlockNumber      uint64    `json:"blockNumber"`
	GasUsed          uint64    `json:"gasUsed"`
	GasPrice         string    `json:"gasPrice"`
	IPHash           string    `json:"-"`
	UserAgent        string    `json:"userAgent,omitempty"`
	SessionID        string    `json:"sessionId,omitempty"`
	IsVerified       bool      `json:"isVerified"`
	VerificationHash string    `json:"verificationHash,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ProposalID accepts a JSON number or a numeric string.
// Anything else is kept verbatim so validation can reject it later.
type ProposalID string

func (p *ProposalID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*p = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*p = ProposalID(strings.TrimSpace(str))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*p = ProposalID(s)
		return nil
	}
	*p = ProposalID(n.String())
	return nil
}

// Request types

type CreateProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    int64  `json:"deadline"`
}

// nil fields are left unchanged
type UpdateProposalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

type CastVoteRequest struct {
	ProposalID   ProposalID `json:"proposalId"`
	VoterAddress string     `json:"voterAddress"`
	SessionID    string     `json:"sessionId"`
}

// Response types

// APIResponse is the envelope for every JSON response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type CreateProposalResponse struct {
	ProposalID      int64  `json:"proposalId"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
	GasUsed         uint64 `json:"gasUsed"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type ProposalListResponse struct {
	Proposals  []Proposal  `json:"proposals"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Count      *int        `json:"count,omitempty"`
}

type ProposalDetailResponse struct {
	Proposal  Proposal `json:"proposal"`
	Votes     []Vote   `json:"votes"`
	VoteCount int      `json:"voteCount"`
}

type ProposalStatsResponse struct {
	ProposalID    int64     `json:"proposalId"`
	TotalVotes    int       `json:"totalVotes"`
	UniqueVoters  int       `json:"uniqueVoters"`
	Voters        []string  `json:"voters"`
	IsActive      bool      `json:"isActive"`
	IsExpired     bool      `json:"isExpired"`
	TimeRemaining *int64    `json:"timeRemaining"`
	ExpiresIn     string    `json:"expiresIn,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Deadline      int64     `json:"deadline"`
}

type VoteReceipt struct {
	VoteID          string `json:"voteId"`
	ProposalID      int64  `json:"proposalId"`
	VoterAddress    string `json:"voterAddress"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
	GasUsed         uint64 `json:"gasUsed"`
}

type VoteCheckResponse struct {
	HasVoted bool  `json:"hasVoted"`
	Vote     *Vote `json:"vote"`
}

// VoteStatusResponse reports a voter's status both locally and on the ledger
type VoteStatusResponse struct {
	ProposalID   int64  `json:"proposalId"`
	VoterAddress string `json:"voterAddress"`
	HasVoted     bool   `json:"hasVoted"`
	OnChain      bool   `json:"onChain"`
	VoteID       string `json:"voteId,omitempty"`
}

type VoteListResponse struct {
	ProposalID   *int64 `json:"proposalId,omitempty"`
	VoterAddress string `json:"voterAddress,omitempty"`
	Votes        []Vote `json:"votes"`
	Count        int    `json:"count"`
}

type VotingStats struct {
	TotalVotes       int    `json:"totalVotes"`
	UniqueVoterCount int    `json:"uniqueVoterCount"`
	TotalGasUsed     uint64 `json:"totalGasUsed"`
}

type VoteBucket struct {
	Date         string `json:"date"`
	Votes        int    `json:"votes"`
	UniqueVoters int    `json:"uniqueVoters"`
	TotalGasUsed uint64 `json:"totalGasUsed"`
}

type ProposalBucket struct {
	Date       string `json:"date"`
	Proposals  int    `json:"proposals"`
	TotalVotes int64  `json:"totalVotes"`
}

type AnalyticsResponse[T any] struct {
	TimeRange string `json:"timeRange"`
	Analytics []T    `json:"analytics"`
}

type ContractStats struct {
	TotalProposals  int `json:"totalProposals"`
	ActiveProposals int `json:"activeProposals"`
	TotalVotes      int `json:"totalVotes"`
	UniqueVoters    int `json:"uniqueVoters"`
}

type ContractHealth struct {
	IsHealthy bool      `json:"isHealthy"`
	Timestamp time.Time `json:"timestamp"`
}

type SyncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
}

type ReconcileResult struct {
	ProposalID int64 `json:"proposalId"`
	Before     int64 `json:"before"`
	After      int64 `json:"after"`
}

type ReconcileSummary struct {
	Checked   int               `json:"checked"`
	Corrected []ReconcileResult `json:"corrected"`
}

type WinnerResponse struct {
	Proposal *Proposal `json:"proposal"`
	MaxVotes int64     `json:"maxVotes"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerHealth struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
