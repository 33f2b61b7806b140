// internal/chain/gateway.go

// Package chain 是 Chain Gateway：包裝一個錢包提供者與一個鏈節點後端，
// 對上層只暴露 Connect / Signer / Read / Write 四個操作。
// Gateway 本身只保存目前的簽章者 (signer)，不快取任何鏈上狀態。
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"dappbank/internal/logx"
)

// Backend 為 Gateway 需要的節點能力；*ethclient.Client 即滿足此介面。
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Signer 是綁定單一已授權帳戶的簽章能力。
type Signer struct {
	Address common.Address
	ChainID *big.Int
	opts    *bind.TransactOpts
}

type Gateway struct {
	backend        Backend
	provider       Provider
	chainID        *big.Int
	confirmTimeout time.Duration

	mu     sync.RWMutex
	signer *Signer
}

type Option func(*Gateway)

// WithChainID 固定鏈 ID，不再向節點查詢。
func WithChainID(id *big.Int) Option {
	return func(g *Gateway) { g.chainID = id }
}

// WithConfirmTimeout 限制等待交易確認的時間；0 代表無限等待。
func WithConfirmTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.confirmTimeout = d }
}

// NewGateway 建立 Gateway。provider 可為 nil，此時 Connect 一律回傳 ErrWalletUnavailable。
func NewGateway(backend Backend, provider Provider, opts ...Option) *Gateway {
	g := &Gateway{backend: backend, provider: provider}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Connect 請求帳戶授權並建立簽章者，回傳第一個授權帳戶。
func (g *Gateway) Connect(ctx context.Context) (common.Address, error) {
	if g.provider == nil {
		return common.Address{}, ErrWalletUnavailable
	}
	accs, err := g.provider.RequestAccounts(ctx)
	if err != nil {
		return common.Address{}, classify(err)
	}
	if len(accs) == 0 {
		return common.Address{}, ErrWalletUnavailable
	}
	account := accs[0]

	chainID, err := g.resolveChainID(ctx)
	if err != nil {
		return common.Address{}, classify(err)
	}
	opts, err := g.provider.Transactor(ctx, account, chainID)
	if err != nil {
		return common.Address{}, classify(err)
	}

	g.mu.Lock()
	g.signer = &Signer{Address: account, ChainID: chainID, opts: opts}
	g.mu.Unlock()

	logx.Info("CHAIN", "connected account ", account.Hex(), " on chain ", chainID.String())
	return account, nil
}

func (g *Gateway) resolveChainID(ctx context.Context) (*big.Int, error) {
	if g.chainID != nil && g.chainID.Sign() > 0 {
		return g.chainID, nil
	}
	return g.backend.ChainID(ctx)
}

// Disconnect 丟棄目前的簽章者（明確撤銷授權）。
func (g *Gateway) Disconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.signer != nil {
		logx.Info("CHAIN", "disconnected account ", g.signer.Address.Hex())
	}
	g.signer = nil
}

// Signer 回傳目前的簽章者；尚未 Connect 時回傳 ErrNotConnected。
func (g *Gateway) Signer() (*Signer, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.signer == nil {
		return nil, ErrNotConnected
	}
	return g.signer, nil
}

// Read 對目前鏈上狀態執行唯讀呼叫。已連線時以簽章者為 msg.sender。
func (g *Gateway) Read(ctx context.Context, contract common.Address, parsed *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	bc := bind.NewBoundContract(contract, *parsed, g.backend, g.backend, g.backend)
	opts := &bind.CallOpts{Context: ctx}
	if s, err := g.Signer(); err == nil {
		opts.From = s.Address
	}
	var out []interface{}
	if err := bc.Call(opts, &out, method, args...); err != nil {
		logx.Debug("CHAIN", "read ", method, " failed: ", err)
		return nil, readError(err)
	}
	return out, nil
}

// readError 與 classify 相同，但唯讀呼叫的 revert 歸為 ErrChainCallFailed，只保留原因文字。
func readError(err error) error {
	err = classify(err)
	var rev *RevertError
	if errors.As(err, &rev) {
		if rev.Reason == "" {
			return fmt.Errorf("%w: call reverted", ErrChainCallFailed)
		}
		return fmt.Errorf("%w: call reverted: %s", ErrChainCallFailed, rev.Reason)
	}
	return err
}

// Write 送出交易並等待至少一次確認，回傳收據。
// 收據狀態為失敗時回傳 *RevertError（同時附上收據）。
func (g *Gateway) Write(ctx context.Context, contract common.Address, parsed *abi.ABI, method string, value *big.Int, args ...interface{}) (*types.Receipt, error) {
	s, err := g.Signer()
	if err != nil {
		return nil, err
	}
	opts := *s.opts
	opts.Context = ctx
	opts.Value = value
	sign := s.opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if err := g.provider.ApproveTransaction(ctx, from, tx); err != nil {
			return nil, err
		}
		return sign(from, tx)
	}

	bc := bind.NewBoundContract(contract, *parsed, g.backend, g.backend, g.backend)
	tx, err := bc.Transact(&opts, method, args...)
	if err != nil {
		logx.Warn("CHAIN", "transact ", method, " failed: ", err)
		return nil, classify(err)
	}
	logx.Info("CHAIN", "submitted ", method, " tx ", tx.Hash().Hex())

	waitCtx := ctx
	if g.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.confirmTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(waitCtx, g.backend, tx)
	if err != nil {
		return nil, classify(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		logx.Warn("CHAIN", method, " reverted in block ", receipt.BlockNumber)
		return receipt, &RevertError{TxHash: tx.Hash().Hex()}
	}
	logx.Info("CHAIN", method, " confirmed in block ", receipt.BlockNumber)
	return receipt, nil
}

// SubscribeAccounts 轉發錢包的帳戶變動通知。
func (g *Gateway) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	if g.provider == nil {
		return event.NewSubscription(func(quit <-chan struct{}) error {
			<-quit
			return nil
		})
	}
	return g.provider.SubscribeAccounts(ch)
}
