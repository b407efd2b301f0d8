// internal/services/blockchain_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

// ContractCall is an assembled call on the copyright registry contract.
type ContractCall struct {
	Contract string   `json:"contract"`
	From     string   `json:"from"`
	Method   string   `json:"method"`
	Args     []string `json:"args"`
}

type Receipt struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Fee         string `json:"fee"`
}

// ContractCaller is the signer side of the wallet provider. Sign returns the
// transaction hash once the user approves.
type ContractCaller interface {
	Resolve(ctx context.Context) (string, error)
	Sign(ctx context.Context, call ContractCall) (string, error)
	Broadcast(ctx context.Context, hash string) error
	WaitReceipt(ctx context.Context, hash string) (Receipt, error)
}

var (
	ErrContractNotConfigured = errors.New("contract address not configured")
	ErrUnknownTransaction    = errors.New("unknown transaction")
)

type ChainRecord struct {
	Hash        string       `json:"hash"`
	Call        ContractCall `json:"call"`
	Broadcast   bool         `json:"broadcast"`
	Confirmed   bool         `json:"confirmed"`
	BlockNumber uint64       `json:"blockNumber,omitempty"`
	GasUsed     uint64       `json:"gasUsed,omitempty"`
	Fee         string       `json:"fee,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

const (
	baseGas         = 21000
	gasPerArgument  = 6800
	gasPriceGwei    = 20
	simulatedWallet = "10.0000"
)

// SimulatedChain stands in for a wallet provider and contract in development.
// Hashes are Keccak-256 over the call and a nonce.
type SimulatedChain struct {
	network      string
	account      string
	contract     string
	confirmDelay time.Duration
	logger       logrus.FieldLogger

	mu      sync.RWMutex
	nonce   uint64
	block   uint64
	records map[string]*ChainRecord
}

func NewSimulatedChain(cfg config.BlockchainConfig, logger logrus.FieldLogger) *SimulatedChain {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	contract := cfg.ContractAddress
	if contract == "" {
		contract = "0x" + utils.Keccak256Hex([]byte("audio-copyright-registry"))[26:]
	}
	return &SimulatedChain{
		network:  cfg.Network,
		account:  cfg.AccountAddress,
		contract: contract,
		logger:   logger,
		block:    1,
		records:  make(map[string]*ChainRecord),
	}
}

// WithConfirmDelay makes WaitReceipt block for d before returning.
func (c *SimulatedChain) WithConfirmDelay(d time.Duration) *SimulatedChain {
	c.confirmDelay = d
	return c
}

func (c *SimulatedChain) Accounts(ctx context.Context) ([]string, error) {
	if c.account == "" {
		return nil, nil
	}
	return []string{c.account}, nil
}

func (c *SimulatedChain) Balance(ctx context.Context, account string) (string, error) {
	return simulatedWallet + " ETH", nil
}

func (c *SimulatedChain) Network(ctx context.Context) (string, error) {
	return c.network, nil
}

func (c *SimulatedChain) Resolve(ctx context.Context) (string, error) {
	if c.contract == "" {
		return "", ErrContractNotConfigured
	}
	return c.contract, nil
}

func (c *SimulatedChain) Sign(ctx context.Context, call ContractCall) (string, error) {
	payload, err := json.Marshal(call)
	if err != nil {
		return "", fmt.Errorf("failed to encode call: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonce++
	hash := utils.Keccak256Hex(payload, []byte(strconv.FormatUint(c.nonce, 10)))
	c.records[hash] = &ChainRecord{Hash: hash, Call: call, Timestamp: time.Now()}

	c.logger.WithFields(logrus.Fields{
		"hash":   hash,
		"method": call.Method,
	}).Info("Simulated transaction signed")
	return hash, nil
}

func (c *SimulatedChain) Broadcast(ctx context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.records[hash]
	if !ok {
		return ErrUnknownTransaction
	}
	record.Broadcast = true
	return nil
}

func (c *SimulatedChain) WaitReceipt(ctx context.Context, hash string) (Receipt, error) {
	if c.confirmDelay > 0 {
		timer := time.NewTimer(c.confirmDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.records[hash]
	if !ok || !record.Broadcast {
		return Receipt{}, ErrUnknownTransaction
	}
	if !record.Confirmed {
		c.block++
		record.Confirmed = true
		record.BlockNumber = c.block
		record.GasUsed = baseGas + gasPerArgument*uint64(len(record.Call.Args))
		record.Fee = formatFee(record.GasUsed)
	}
	return Receipt{Hash: hash, BlockNumber: record.BlockNumber, GasUsed: record.GasUsed, Fee: record.Fee}, nil
}

// VerifyRecord looks up a transaction by hash.
func (c *SimulatedChain) VerifyRecord(hash string) (ChainRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[hash]
	if !ok {
		return ChainRecord{}, false
	}
	return *record, true
}

func formatFee(gasUsed uint64) string {
	wei := float64(gasUsed) * gasPriceGwei * 1e9
	return strconv.FormatFloat(wei/1e18, 'f', 6, 64) + " ETH"
}
