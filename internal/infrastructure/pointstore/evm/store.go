// Package evm persists point totals in a GameweekPointsStore contract on an
// EVM chain.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

const pointsStoreABI = `[
	{
		"name": "getPoints",
		"type": "function",
		"stateMutability": "view",
		"inputs": [
			{"name": "gameweek", "type": "uint256"},
			{"name": "playerId", "type": "uint256"}
		],
		"outputs": [
			{"name": "", "type": "uint32"}
		]
	},
	{
		"name": "setPointsBatch",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "gameweek", "type": "uint256"},
			{"name": "playerIds", "type": "uint256[]"},
			{"name": "points", "type": "uint32[]"}
		],
		"outputs": []
	}
]`

// gas estimates get a 20% headroom so a batch does not fail on minor state
// drift between estimation and inclusion.
const gasBufferPct = 20

type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKeyHex   string
	ChainID         int64
	Logger          *logging.Logger
}

type chainBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Store reads and writes point totals through the on-chain contract. Writes
// are serialized so concurrent batches cannot race on the account nonce.
type Store struct {
	backend  chainBackend
	contract common.Address
	parsed   abi.ABI
	signerKy *ecdsa.PrivateKey
	sender   common.Address
	chainID  *big.Int
	logger   *logging.Logger

	writeMu sync.Mutex
}

func NewStore(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, fmt.Errorf("chain rpc url is required")
	}
	if !common.IsHexAddress(strings.TrimSpace(cfg.ContractAddress)) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	if cfg.ChainID <= 0 {
		return nil, fmt.Errorf("chain id must be greater than zero")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}

	store, err := newStoreWithBackend(client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

func newStoreWithBackend(backend chainBackend, cfg Config, logger *logging.Logger) (*Store, error) {
	parsed, err := abi.JSON(strings.NewReader(pointsStoreABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	keyHex := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKeyHex), "0x")
	if keyHex == "" {
		return nil, fmt.Errorf("signer private key is required")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse signer private key: %w", err)
	}

	return &Store{
		backend:  backend,
		contract: common.HexToAddress(strings.TrimSpace(cfg.ContractAddress)),
		parsed:   parsed,
		signerKy: key,
		sender:   crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(cfg.ChainID),
		logger:   logger,
	}, nil
}

// Close releases the underlying RPC connection when one is held.
func (s *Store) Close() {
	if closer, ok := s.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (s *Store) GetPoints(ctx context.Context, gameweek int, playerID uint64) (uint32, error) {
	if gameweek <= 0 {
		return 0, fmt.Errorf("gameweek must be greater than zero")
	}
	if playerID == 0 {
		return 0, fmt.Errorf("player id is required")
	}

	input, err := s.parsed.Pack("getPoints", big.NewInt(int64(gameweek)), new(big.Int).SetUint64(playerID))
	if err != nil {
		return 0, fmt.Errorf("pack getPoints call: %w", err)
	}

	raw, err := s.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &s.contract,
		Data: input,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("call getPoints gameweek=%d player_id=%d: %w", gameweek, playerID, err)
	}

	outputs, err := s.parsed.Unpack("getPoints", raw)
	if err != nil {
		return 0, fmt.Errorf("unpack getPoints result: %w", err)
	}
	if len(outputs) != 1 {
		return 0, fmt.Errorf("unexpected getPoints output arity %d", len(outputs))
	}
	value, ok := outputs[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected getPoints output type %T", outputs[0])
	}
	return value, nil
}

func (s *Store) SetPointsBatch(ctx context.Context, gameweek int, playerIDs []uint64, values []uint32) error {
	if gameweek <= 0 {
		return fmt.Errorf("gameweek must be greater than zero")
	}
	if len(playerIDs) == 0 {
		return fmt.Errorf("batch must not be empty")
	}
	if len(playerIDs) != len(values) {
		return fmt.Errorf("batch length mismatch: %d player ids, %d values", len(playerIDs), len(values))
	}

	ids := make([]*big.Int, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		if playerID == 0 {
			return fmt.Errorf("player id is required")
		}
		ids = append(ids, new(big.Int).SetUint64(playerID))
	}

	input, err := s.parsed.Pack("setPointsBatch", big.NewInt(int64(gameweek)), ids, values)
	if err != nil {
		return fmt.Errorf("pack setPointsBatch call: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	nonce, err := s.backend.PendingNonceAt(ctx, s.sender)
	if err != nil {
		return fmt.Errorf("fetch pending nonce: %w", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: s.sender,
		To:   &s.contract,
		Data: input,
	})
	if err != nil {
		return fmt.Errorf("estimate gas for setPointsBatch gameweek=%d batch_size=%d: %w", gameweek, len(playerIDs), err)
	}
	gasLimit = gasLimit * (100 + gasBufferPct) / 100

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &s.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     input,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.signerKy)
	if err != nil {
		return fmt.Errorf("sign setPointsBatch transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send setPointsBatch transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "submitted points batch transaction",
		"gameweek", gameweek,
		"batch_size", len(playerIDs),
		"tx_hash", signed.Hash().Hex(),
		"gas_limit", gasLimit,
	)

	receipt, err := s.waitMined(ctx, signed)
	if err != nil {
		return fmt.Errorf("wait for setPointsBatch receipt tx=%s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("setPointsBatch transaction reverted tx=%s", signed.Hash().Hex())
	}
	return nil
}

func (s *Store) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if waiter, ok := s.backend.(bind.DeployBackend); ok {
		return bind.WaitMined(ctx, waiter, tx)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		receipt, err := s.backend.TransactionReceipt(ctx, tx.Hash())
		if err == nil && receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
