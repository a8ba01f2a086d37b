// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"testing"
	"time"

	"github.com/danielhkuo/chainvote/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in    string
		name  string
		start time.Time
	}{
		{"1d", "1d", now.Add(-24 * time.Hour)},
		{"7d", "7d", now.AddDate(0, 0, -7)},
		{"30d", "30d", now.AddDate(0, 0, -30)},
		{"", "7d", now.AddDate(0, 0, -7)},
		{"1y", "7d", now.AddDate(0, 0, -7)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, start := TimeRange(tt.in, now)
			assert.Equal(t, tt.name, name)
			assert.True(t, tt.start.Equal(start), "start = %v, want %v", start, tt.start)
		})
	}
}

func TestVoteBuckets(t *testing.T) {
	day1 := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)

	votes := []models.Vote{
		{VoterAddress: "0xa", GasUsed: 100, Timestamp: day2},
		{VoterAddress: "0xa", GasUsed: 200, Timestamp: day1},
		{VoterAddress: "0xb", GasUsed: 300, Timestamp: day1},
		{VoterAddress: "0xa", GasUsed: 400, Timestamp: day1.Add(time.Minute)},
	}

	buckets := VoteBuckets(votes)
	require.Len(t, buckets, 2)

	assert.Equal(t, models.VoteBucket{Date: "2025-03-09", Votes: 3, UniqueVoters: 2, TotalGasUsed: 900}, buckets[0])
	assert.Equal(t, models.VoteBucket{Date: "2025-03-10", Votes: 1, UniqueVoters: 1, TotalGasUsed: 100}, buckets[1])

	assert.Empty(t, VoteBuckets(nil))
}

func TestProposalBuckets(t *testing.T) {
	day := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)

	buckets := ProposalBuckets([]models.Proposal{
		{CreatedAt: day.AddDate(0, 0, 1), VoteCount: 4},
		{CreatedAt: day, VoteCount: 2},
		{CreatedAt: day.Add(time.Hour), VoteCount: 5},
	})

	require.Len(t, buckets, 2)
	assert.Equal(t, models.ProposalBucket{Date: "2025-03-09", Proposals: 2, TotalVotes: 7}, buckets[0])
	assert.Equal(t, models.ProposalBucket{Date: "2025-03-10", Proposals: 1, TotalVotes: 4}, buckets[1])
}

func TestProposalStats(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := models.Proposal{ProposalID: 3, IsActive: true, Deadline: now.Unix() + 3*3600}
	votes := []models.Vote{{VoterAddress: "0xa"}, {VoterAddress: "0xb"}}

	stats := ProposalStats(p, votes, now)
	assert.Equal(t, int64(3), stats.ProposalID)
	assert.Equal(t, 2, stats.TotalVotes)
	assert.Equal(t, 2, stats.UniqueVoters)
	assert.Equal(t, []string{"0xa", "0xb"}, stats.Voters)
	assert.False(t, stats.IsExpired)
	require.NotNil(t, stats.TimeRemaining)
	assert.Equal(t, int64(3*3600), *stats.TimeRemaining)
	assert.Equal(t, "3 hours from now", stats.ExpiresIn)

	p.Deadline = 0
	stats = ProposalStats(p, nil, now)
	assert.Nil(t, stats.TimeRemaining)
	assert.Empty(t, stats.ExpiresIn)
	assert.Zero(t, stats.TotalVotes)
}
