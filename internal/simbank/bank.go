// internal/simbank/bank.go

// Package simbank 以記憶體模擬 Bank 合約與一個錢包，
// 同時滿足 bank.Gateway 與 controller.Wallet，讓整個系統可以在沒有節點時運作
// （serve --simulate）並作為測試用的已知算術樁 (stub)。
// 採用單一互斥鎖 (sync.Mutex) 保障所有狀態變更「原子且序列化」。
// 金額以 *big.Int 的 wei 儲存，與鏈上一致。
package simbank

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"

	"dappbank/internal/chain"
)

// ChainID 為模擬鏈的鏈 ID（與 hardhat / anvil 預設相同）。
var ChainID = big.NewInt(31337)

// Bank 為模擬合約的聚合根：
// - owner / name：合約的擁有者與 bytes32 名稱。
// - accts：存款帳戶索引表，內部所有指標只在臨界區內修改。
// - wallet / signer：模擬錢包提供的帳戶與目前連線的帳戶。
// - failures：測試注入的一次性錯誤（依方法名稱）。
type Bank struct {
	mu     sync.Mutex
	owner  common.Address
	name   [32]byte
	accts  map[common.Address]*Account
	block  uint64
	nonce  uint64
	wallet []common.Address
	signer *common.Address

	failures map[string]error
	calls    map[string]int
	feed     event.Feed
}

// New 建立模擬合約；wallet 為模擬錢包中的帳戶，第一個為預設帳戶。
func New(owner common.Address, wallet ...common.Address) *Bank {
	return &Bank{
		owner:    owner,
		accts:    make(map[common.Address]*Account),
		wallet:   append([]common.Address(nil), wallet...),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// ────────────────
// 錢包端
// ────────────────

// Connect 模擬錢包授權；沒有任何帳戶時視為未安裝錢包。
func (b *Bank) Connect(ctx context.Context) (common.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure("connect"); err != nil {
		return common.Address{}, err
	}
	if len(b.wallet) == 0 {
		return common.Address{}, chain.ErrWalletUnavailable
	}
	acct := b.wallet[0]
	b.signer = &acct
	return acct, nil
}

func (b *Bank) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signer = nil
}

func (b *Bank) Signer() (*chain.Signer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.signer == nil {
		return nil, chain.ErrNotConnected
	}
	return &chain.Signer{Address: *b.signer, ChainID: ChainID}, nil
}

func (b *Bank) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return b.feed.Subscribe(ch)
}

// SetWalletAccounts 模擬使用者在錢包中切換或移除帳戶，並通知訂閱者。
func (b *Bank) SetWalletAccounts(addrs ...common.Address) {
	b.mu.Lock()
	b.wallet = append([]common.Address(nil), addrs...)
	b.mu.Unlock()
	b.feed.Send(append([]common.Address(nil), addrs...))
}

// ────────────────
// 測試輔助
// ────────────────

// SetOwner 直接改寫合約擁有者。
func (b *Bank) SetOwner(owner common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owner = owner
}

// FailNext 讓下一次 method 呼叫回傳 err。method 可為 "connect"。
func (b *Bank) FailNext(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method] = err
}

// Calls 回傳 method 被呼叫（讀或寫）的次數。
func (b *Bank) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// TotalCalls 回傳所有合約呼叫次數。
func (b *Bank) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Balance 回傳 addr 的存款（wei）。
func (b *Bank) Balance(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balanceLocked(addr))
}

// Credit 直接為 addr 加上存款，用於準備測試情境。
func (b *Bank) Credit(addr common.Address, wei *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.account(addr).Balance.Add(b.account(addr).Balance, wei)
}

// Logs 回傳指定帳戶的交易日誌（值拷貝），避免外部修改內部切片。
func (b *Bank) Logs(addr common.Address) []Log {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accts[addr]
	if !ok {
		return nil
	}
	out := make([]Log, len(a.Logs))
	copy(out, a.Logs)
	return out
}

// ────────────────
// 合約端
// ────────────────

func (b *Bank) takeFailure(method string) error {
	b.calls[method]++
	if err, ok := b.failures[method]; ok {
		delete(b.failures, method)
		return err
	}
	return nil
}

func (b *Bank) account(addr common.Address) *Account {
	a, ok := b.accts[addr]
	if !ok {
		a = &Account{Address: addr, Balance: new(big.Int)}
		b.accts[addr] = a
	}
	return a
}

func (b *Bank) balanceLocked(addr common.Address) *big.Int {
	if a, ok := b.accts[addr]; ok {
		return a.Balance
	}
	return new(big.Int)
}

func (b *Bank) sender() common.Address {
	if b.signer == nil {
		return common.Address{}
	}
	return *b.signer
}

// Read 回傳與 abi.Unpack 相同型別的結果。
func (b *Bank) Read(ctx context.Context, _ common.Address, parsed *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(method); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", chain.ErrChainCallFailed, err)
	}
	if _, err := parsed.Pack(method, args...); err != nil {
		return nil, fmt.Errorf("%w: %w", chain.ErrChainCallFailed, err)
	}
	switch method {
	case "bankName":
		return []interface{}{b.name}, nil
	case "bankOwner":
		return []interface{}{b.owner}, nil
	case "getCustomerBalance":
		return []interface{}{new(big.Int).Set(b.balanceLocked(b.sender()))}, nil
	}
	return nil, fmt.Errorf("%w: unknown view %s", chain.ErrChainCallFailed, method)
}

// Write 於臨界區內執行交易並立即「出塊」確認。
// 任一檢查失敗皆以 *chain.RevertError 回傳，且不改變任何狀態。
func (b *Bank) Write(ctx context.Context, _ common.Address, parsed *abi.ABI, method string, value *big.Int, args ...interface{}) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.signer == nil {
		return nil, chain.ErrNotConnected
	}
	if err := b.takeFailure(method); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", chain.ErrChainCallFailed, err)
	}
	if _, err := parsed.Pack(method, args...); err != nil {
		return nil, fmt.Errorf("%w: %w", chain.ErrChainCallFailed, err)
	}
	from := *b.signer
	hash := b.nextHash()

	switch method {
	case "setBankName":
		if from != b.owner {
			return nil, &chain.RevertError{Reason: "only the bank owner can set the name"}
		}
		b.name = args[0].([32]byte)

	case "depositMoney":
		if value == nil || value.Sign() <= 0 {
			return nil, &chain.RevertError{Reason: "deposit must be greater than zero"}
		}
		a := b.account(from)
		a.Balance = new(big.Int).Add(a.Balance, value)
		a.Logs = append(a.Logs, Log{Time: time.Now(), Amount: new(big.Int).Set(value), Direction: "in", Note: "deposit", TxHash: hash})

	case "withdrawMoney":
		to := args[0].(common.Address)
		amt := args[1].(*big.Int)
		a := b.account(from)
		if amt.Sign() <= 0 {
			return nil, &chain.RevertError{Reason: "withdraw must be greater than zero"}
		}
		if a.Balance.Cmp(amt) < 0 {
			return nil, &chain.RevertError{Reason: "insufficient balance"}
		}
		a.Balance = new(big.Int).Sub(a.Balance, amt)
		a.Logs = append(a.Logs, Log{Time: time.Now(), Amount: new(big.Int).Set(amt), Direction: "out", Counterparty: to, Note: "withdraw", TxHash: hash})

	default:
		return nil, fmt.Errorf("%w: unknown method %s", chain.ErrChainCallFailed, method)
	}

	b.block++
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(b.block),
	}, nil
}

func (b *Bank) nextHash() common.Hash {
	b.nonce++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], b.nonce)
	return crypto.Keccak256Hash(buf[:])
}
