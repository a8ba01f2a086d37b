// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// EthereumConfig holds connection settings for a deployed Voting contract
type EthereumConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string // hex, with or without 0x
	ChainID         int64  // 0 asks the node
}

// Ethereum submits transactions to a deployed Voting contract over JSON-RPC
type Ethereum struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	parsed   abi.ABI
	address  common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int

	// serializes submissions so nonces are assigned in order
	txMu sync.Mutex
}

var (
	_ Gateway        = (*Ethereum)(nil)
	_ ProposalCloser = (*Ethereum)(nil)
)

// DialEthereum connects to the node, checks the chain id and verifies that
// contract code exists at the configured address.
func DialEthereum(ctx context.Context, cfg EthereumConfig) (*Ethereum, error) {
	if !IsAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse ledger private key")
	}

	parsed, err := ParseVotingABI()
	if err != nil {
		return nil, err
	}

	var client *ethclient.Client
	dial := func(attempt uint) error {
		c, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			slog.Warn("ledger dial failed", "attempt", attempt, "error", err)
			return err
		}
		client = c
		return nil
	}
	if err := retry.Retry(dial, strategy.Limit(5), strategy.Backoff(backoff.Fibonacci(time.Second))); err != nil {
		return nil, errors.Wrap(err, "dial ledger rpc")
	}

	networkID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "get chain id")
	}
	chainID := networkID
	if cfg.ChainID != 0 {
		if networkID.Int64() != cfg.ChainID {
			client.Close()
			return nil, fmt.Errorf("chain ID mismatch: expected %d, got %s", cfg.ChainID, networkID)
		}
		chainID = big.NewInt(cfg.ChainID)
	}

	address := common.HexToAddress(cfg.ContractAddress)
	code, err := client.CodeAt(ctx, address, nil)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "check contract code")
	}
	if len(code) == 0 {
		client.Close()
		return nil, fmt.Errorf("no contract code at %s", address.Hex())
	}

	return &Ethereum{
		client:   client,
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		parsed:   parsed,
		address:  address,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
	}, nil
}

// Close releases the RPC connection
func (e *Ethereum) Close() error {
	e.client.Close()
	return nil
}

func (e *Ethereum) CreateProposal(ctx context.Context, title, description string, deadline int64) (ProposalTx, error) {
	receipt, _, err := e.transact(ctx, "createProposal", title, description, big.NewInt(deadline))
	if err != nil {
		return ProposalTx{}, err
	}

	id, err := proposalIDFromLogs(e.parsed.Events["ProposalCreated"], e.address, receipt.Logs)
	if err != nil {
		return ProposalTx{}, err
	}
	return ProposalTx{
		ProposalID:      id,
		TransactionHash: receipt.TxHash.Hex(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		GasUsed:         receipt.GasUsed,
		Creator:         strings.ToLower(e.from.Hex()),
	}, nil
}

// proposalIDFromLogs finds the ProposalCreated event emitted by the contract
// at address and returns its indexed proposal id
func proposalIDFromLogs(event abi.Event, address common.Address, logs []*types.Log) (int64, error) {
	for _, lg := range logs {
		if lg.Address != address || len(lg.Topics) < 2 || lg.Topics[0] != event.ID {
			continue
		}
		id := new(big.Int).SetBytes(lg.Topics[1].Bytes())
		if !id.IsInt64() {
			return 0, fmt.Errorf("proposal id %s out of range", id)
		}
		return id.Int64(), nil
	}
	return 0, errors.New("ProposalCreated event not found")
}

// Vote sends vote(proposalId) from the gateway account. The voter address is
// recorded off-chain only.
func (e *Ethereum) Vote(ctx context.Context, proposalID int64, voter string) (VoteTx, error) {
	receipt, tx, err := e.transact(ctx, "vote", big.NewInt(proposalID))
	if err != nil {
		return VoteTx{}, err
	}

	gasPrice := receipt.EffectiveGasPrice
	if gasPrice == nil {
		gasPrice = tx.GasPrice()
	}
	return VoteTx{
		TransactionHash: receipt.TxHash.Hex(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		GasUsed:         receipt.GasUsed,
		GasPrice:        gasPrice.String(),
	}, nil
}

// CloseProposal sends closeProposal(proposalId) so the contract rejects later votes
func (e *Ethereum) CloseProposal(ctx context.Context, proposalID int64) error {
	_, _, err := e.transact(ctx, "closeProposal", big.NewInt(proposalID))
	return err
}

func (e *Ethereum) HasUserVoted(ctx context.Context, proposalID int64, voter string) (bool, error) {
	out, err := e.call(ctx, "hasUserVoted", big.NewInt(proposalID), common.HexToAddress(voter))
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (e *Ethereum) GetAllProposals(ctx context.Context) ([]ProposalSnapshot, error) {
	out, err := e.call(ctx, "getAllProposals")
	if err != nil {
		return nil, err
	}
	return decodeProposals(out)
}

// decodeProposals zips the parallel arrays returned by getAllProposals
func decodeProposals(out []any) ([]ProposalSnapshot, error) {
	if len(out) != 8 {
		return nil, fmt.Errorf("getAllProposals returned %d values", len(out))
	}

	ids := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	titles := *abi.ConvertType(out[1], new([]string)).(*[]string)
	descriptions := *abi.ConvertType(out[2], new([]string)).(*[]string)
	voteCounts := *abi.ConvertType(out[3], new([]*big.Int)).(*[]*big.Int)
	creators := *abi.ConvertType(out[4], new([]common.Address)).(*[]common.Address)
	createdAts := *abi.ConvertType(out[5], new([]*big.Int)).(*[]*big.Int)
	deadlines := *abi.ConvertType(out[6], new([]*big.Int)).(*[]*big.Int)
	actives := *abi.ConvertType(out[7], new([]bool)).(*[]bool)

	n := len(ids)
	for _, l := range []int{len(titles), len(descriptions), len(voteCounts), len(creators), len(createdAts), len(deadlines), len(actives)} {
		if l != n {
			return nil, errors.New("getAllProposals returned arrays of different lengths")
		}
	}

	snapshots := make([]ProposalSnapshot, n)
	for i := range n {
		if !ids[i].IsInt64() {
			return nil, fmt.Errorf("proposal id %s out of range", ids[i])
		}
		snapshots[i] = ProposalSnapshot{
			ProposalID:  ids[i].Int64(),
			Title:       titles[i],
			Description: descriptions[i],
			VoteCount:   voteCounts[i].Int64(),
			Creator:     strings.ToLower(creators[i].Hex()),
			CreatedAt:   createdAts[i].Int64(),
			Deadline:    deadlines[i].Int64(),
			IsActive:    actives[i],
		}
	}
	return snapshots, nil
}

func (e *Ethereum) Info() ContractInfo {
	return ContractInfo{
		Address:       strings.ToLower(e.address.Hex()),
		Owner:         strings.ToLower(e.from.Hex()),
		IsInitialized: true,
		IsMock:        false,
		ChainID:       e.chainID.Int64(),
	}
}

func (e *Ethereum) ABI() string {
	return VotingABI
}

// transact submits once and waits for the receipt. Submissions are never retried.
func (e *Ethereum) transact(ctx context.Context, method string, params ...any) (*types.Receipt, *types.Transaction, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build transactor")
	}
	opts.Context = ctx

	e.txMu.Lock()
	tx, err := e.contract.Transact(opts, method, params...)
	e.txMu.Unlock()
	if err != nil {
		return nil, nil, classify(err, method)
	}

	receipt, err := bind.WaitMined(ctx, e.client, tx)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "wait for %s transaction %s", method, tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, nil, fmt.Errorf("%s transaction %s reverted", method, tx.Hash().Hex())
	}
	return receipt, tx, nil
}

// call runs a read-only method, retrying transient failures until ctx ends
func (e *Ethereum) call(ctx context.Context, method string, params ...any) ([]any, error) {
	var out []any
	action := func(attempt uint) error {
		out = nil
		return e.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...)
	}
	alive := func(attempt uint) bool { return ctx.Err() == nil }

	err := retry.Retry(action, alive, strategy.Limit(3), strategy.Backoff(backoff.Fibonacci(200*time.Millisecond)))
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}
	return out, nil
}

// classify maps node errors onto the gateway's sentinel errors
func classify(err error, method string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return errors.Wrap(ErrInsufficientFunds, err.Error())
	case strings.Contains(msg, "user rejected"):
		return errors.Wrap(ErrUserRejected, err.Error())
	case strings.Contains(msg, "already voted"):
		return errors.Wrap(ErrAlreadyVoted, err.Error())
	case strings.Contains(msg, "not active"):
		return errors.Wrap(ErrProposalInactive, err.Error())
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "proposal not found"):
		return errors.Wrap(ErrProposalNotFound, err.Error())
	default:
		return errors.Wrapf(err, "submit %s", method)
	}
}
