// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
)

// VotingABI is the JSON ABI of the Voting contract
const VotingABI = `[
  {"type":"event","name":"ProposalCreated","anonymous":false,"inputs":[
    {"name":"proposalId","type":"uint256","indexed":true},
    {"name":"title","type":"string","indexed":false},
    {"name":"description","type":"string","indexed":false},
    {"name":"creator","type":"address","indexed":true},
    {"name":"timestamp","type":"uint256","indexed":false}]},
  {"type":"event","name":"VoteCasted","anonymous":false,"inputs":[
    {"name":"proposalId","type":"uint256","indexed":true},
    {"name":"voter","type":"address","indexed":true},
    {"name":"timestamp","type":"uint256","indexed":false}]},
  {"type":"event","name":"ProposalClosed","anonymous":false,"inputs":[
    {"name":"proposalId","type":"uint256","indexed":true},
    {"name":"finalVoteCount","type":"uint256","indexed":false},
    {"name":"timestamp","type":"uint256","indexed":false}]},
  {"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[
    {"name":"_title","type":"string"},
    {"name":"_description","type":"string"},
    {"name":"_deadline","type":"uint256"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[
    {"name":"_proposalId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"closeProposal","stateMutability":"nonpayable","inputs":[
    {"name":"_proposalId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"hasUserVoted","stateMutability":"view","inputs":[
    {"name":"_proposalId","type":"uint256"},
    {"name":"_voter","type":"address"}],
    "outputs":[{"name":"hasVoted","type":"bool"}]},
  {"type":"function","name":"getAllProposals","stateMutability":"view","inputs":[],"outputs":[
    {"name":"proposalIds","type":"uint256[]"},
    {"name":"titles","type":"string[]"},
    {"name":"descriptions","type":"string[]"},
    {"name":"voteCounts","type":"uint256[]"},
    {"name":"creators","type":"address[]"},
    {"name":"createdAts","type":"uint256[]"},
    {"name":"deadlines","type":"uint256[]"},
    {"name":"isActives","type":"bool[]"}]},
  {"type":"function","name":"getProposalCount","stateMutability":"view","inputs":[],"outputs":[
    {"name":"count","type":"uint256"}]},
  {"type":"function","name":"getWinningProposal","stateMutability":"view","inputs":[],"outputs":[
    {"name":"winningProposalId","type":"uint256"},
    {"name":"maxVotes","type":"uint256"}]}
]`

// ParseVotingABI parses VotingABI
func ParseVotingABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(VotingABI))
	if err != nil {
		return abi.ABI{}, errors.Wrap(err, "parse voting abi")
	}
	return parsed, nil
}
