// internal/services/wallet.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrWalletUnavailable  = errors.New("no wallet provider available")
	ErrWalletRejected     = errors.New("wallet request rejected by user")
	ErrWalletNotConnected = errors.New("wallet not connected")
)

type WalletStatus string

const (
	WalletDisconnected WalletStatus = "disconnected"
	WalletConnecting   WalletStatus = "connecting"
	WalletConnected    WalletStatus = "connected"
	WalletError        WalletStatus = "error"
)

type WalletInfo struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
	Network string `json:"network"`
}

// WalletProvider is the injected browser-style wallet.
type WalletProvider interface {
	Accounts(ctx context.Context) ([]string, error)
	Balance(ctx context.Context, account string) (string, error)
	Network(ctx context.Context) (string, error)
}

type WalletSnapshot struct {
	Status WalletStatus `json:"status"`
	Info   *WalletInfo  `json:"info,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// WalletConnector runs the connect flow against one provider. A nil
// provider makes every connect fail with ErrWalletUnavailable.
type WalletConnector struct {
	provider WalletProvider

	mu     sync.RWMutex
	status WalletStatus
	info   WalletInfo
	err    error
}

func NewWalletConnector(provider WalletProvider) *WalletConnector {
	return &WalletConnector{provider: provider, status: WalletDisconnected}
}

func (w *WalletConnector) Connect(ctx context.Context) (WalletInfo, error) {
	if w.provider == nil {
		w.finish(WalletInfo{}, ErrWalletUnavailable)
		return WalletInfo{}, ErrWalletUnavailable
	}

	w.mu.Lock()
	w.status = WalletConnecting
	w.err = nil
	w.mu.Unlock()

	info, err := w.query(ctx)
	w.finish(info, err)
	return info, err
}

func (w *WalletConnector) query(ctx context.Context) (WalletInfo, error) {
	accounts, err := w.provider.Accounts(ctx)
	if err != nil {
		return WalletInfo{}, fmt.Errorf("failed to request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return WalletInfo{}, ErrWalletRejected
	}

	balance, err := w.provider.Balance(ctx, accounts[0])
	if err != nil {
		return WalletInfo{}, fmt.Errorf("failed to read balance: %w", err)
	}
	network, err := w.provider.Network(ctx)
	if err != nil {
		return WalletInfo{}, fmt.Errorf("failed to read network: %w", err)
	}

	return WalletInfo{Account: accounts[0], Balance: balance, Network: network}, nil
}

func (w *WalletConnector) finish(info WalletInfo, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.status = WalletError
		w.info = WalletInfo{}
		w.err = err
		return
	}
	w.status = WalletConnected
	w.info = info
	w.err = nil
}

func (w *WalletConnector) Disconnect() {
	w.mu.Lock()
	w.status = WalletDisconnected
	w.info = WalletInfo{}
	w.err = nil
	w.mu.Unlock()
}

func (w *WalletConnector) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status == WalletConnected
}

func (w *WalletConnector) Account() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.info.Account
}

func (w *WalletConnector) Snapshot() WalletSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	snap := WalletSnapshot{Status: w.status}
	if w.status == WalletConnected {
		info := w.info
		snap.Info = &info
	}
	if w.err != nil {
		snap.Error = w.err.Error()
	}
	return snap
}
