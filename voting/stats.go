// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"slices"
	"time"

	"github.com/danielhkuo/chainvote/models"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

const dayLayout = "2006-01-02"

var timeRanges = map[string]time.Duration{
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// TimeRange resolves an analytics range to its canonical name and start
// time. Unknown ranges fall back to 7d.
func TimeRange(name string, now time.Time) (string, time.Time) {
	d, ok := timeRanges[name]
	if !ok {
		name, d = "7d", timeRanges["7d"]
	}
	return name, now.Add(-d)
}

// VoteBuckets groups votes by UTC day, oldest day first
func VoteBuckets(votes []models.Vote) []models.VoteBucket {
	byDay := lo.GroupBy(votes, func(v models.Vote) string {
		return v.Timestamp.UTC().Format(dayLayout)
	})

	days := lo.Keys(byDay)
	slices.Sort(days)

	return lo.Map(days, func(day string, _ int) models.VoteBucket {
		group := byDay[day]
		return models.VoteBucket{
			Date:         day,
			Votes:        len(group),
			UniqueVoters: len(lo.Uniq(lo.Map(group, func(v models.Vote, _ int) string { return v.VoterAddress }))),
			TotalGasUsed: lo.SumBy(group, func(v models.Vote) uint64 { return v.GasUsed }),
		}
	})
}

// ProposalBuckets groups proposals by UTC creation day, oldest day first
func ProposalBuckets(proposals []models.Proposal) []models.ProposalBucket {
	byDay := lo.GroupBy(proposals, func(p models.Proposal) string {
		return p.CreatedAt.UTC().Format(dayLayout)
	})

	days := lo.Keys(byDay)
	slices.Sort(days)

	return lo.Map(days, func(day string, _ int) models.ProposalBucket {
		group := byDay[day]
		return models.ProposalBucket{
			Date:       day,
			Proposals:  len(group),
			TotalVotes: lo.SumBy(group, func(p models.Proposal) int64 { return p.VoteCount }),
		}
	})
}

// ProposalStats summarizes a proposal and its votes at now
func ProposalStats(p models.Proposal, votes []models.Vote, now time.Time) models.ProposalStatsResponse {
	voters := lo.Uniq(lo.Map(votes, func(v models.Vote, _ int) string { return v.VoterAddress }))

	stats := models.ProposalStatsResponse{
		ProposalID:    p.ProposalID,
		TotalVotes:    len(votes),
		UniqueVoters:  len(voters),
		Voters:        voters,
		IsActive:      p.IsActive,
		IsExpired:     IsExpired(p, now),
		TimeRemaining: TimeRemaining(p, now),
		CreatedAt:     p.CreatedAt,
		Deadline:      p.Deadline,
	}
	if p.Deadline != 0 {
		stats.ExpiresIn = humanize.RelTime(time.Unix(p.Deadline, 0), now, "ago", "from now")
	}
	return stats
}
