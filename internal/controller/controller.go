// internal/controller/controller.go

// Package controller 是 Action Controller：系統中唯一改變 session.State 的地方。
//
// 每個使用者操作依序：檢查並設定進行中旗標 → 呼叫 Contract Proxy / 錢包 →
// 把結果轉成事件交給 session.Reduce → 將新狀態發佈給訂閱者。
// 鏈上呼叫一律在鎖外進行；鎖只保護「讀取目前狀態 + Reduce + 排入發佈佇列」這一段，
// 佇列由單一 goroutine 依序在鎖外送給訂閱者。
// 錯誤會轉成 LastError、寫入日誌並回傳給呼叫端，但不會讓程序結束。
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"dappbank/internal/bank"
	"dappbank/internal/chain"
	"dappbank/internal/logx"
	"dappbank/internal/session"
)

// ErrInFlight 代表同一個操作已在進行中，新的觸發被拒絕。
var ErrInFlight = errors.New("operation already in progress")

// Wallet 為錢包連線能力；*chain.Gateway 與 *simbank.Bank 皆滿足。
type Wallet interface {
	Connect(ctx context.Context) (common.Address, error)
	Disconnect()
	SubscribeAccounts(ch chan<- []common.Address) event.Subscription
}

// Bank 為 Contract Proxy 的操作集合；*bank.Proxy 滿足。
type Bank interface {
	BankName(ctx context.Context) (string, error)
	Owner(ctx context.Context) (common.Address, error)
	BalanceOf(ctx context.Context) (decimal.Decimal, error)
	SetBankName(ctx context.Context, name string) (*types.Receipt, error)
	Deposit(ctx context.Context, amountWhole string) (*types.Receipt, error)
	Withdraw(ctx context.Context, to common.Address, amountWhole string) (*types.Receipt, error)
}

type Controller struct {
	wallet Wallet
	bank   Bank

	mu      sync.Mutex
	state   session.State
	pending []session.State // 尚未發佈的狀態，依產生順序
	wake    chan struct{}
	feed    event.Feed
}

func New(wallet Wallet, b Bank) *Controller {
	c := &Controller{
		wallet: wallet,
		bank:   b,
		state:  session.New(),
		wake:   make(chan struct{}, 1),
	}
	go c.publish()
	return c
}

// State 回傳目前狀態的複本。
func (c *Controller) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe 在每次狀態改變後依序收到新狀態。
// 讀取慢的訂閱者只會延後其他訂閱者的通知，不會阻擋操作或 State。
// 訂閱前已排入佇列的狀態也可能送達，可用 Version 略過比已知狀態舊的部分。
func (c *Controller) Subscribe(ch chan<- session.State) event.Subscription {
	return c.feed.Subscribe(ch)
}

func (c *Controller) dispatch(ev session.Event) session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(ev)
}

func (c *Controller) applyLocked(ev session.Event) session.State {
	next := session.Reduce(c.state, ev)
	next.Version = c.state.Version + 1
	c.state = next
	c.pending = append(c.pending, c.state)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return c.state
}

// publish 把佇列中的狀態依序送給訂閱者。Feed.Send 可能阻塞，因此不持有 c.mu。
func (c *Controller) publish() {
	for range c.wake {
		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()
		for _, st := range batch {
			c.feed.Send(st)
		}
	}
}

// begin 原子地檢查並設定 op 的進行中旗標，回傳設定後的狀態。
// 已在進行中時設定 LastError 並回傳 ErrInFlight。
func (c *Controller) begin(op session.Op) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.tryBeginLocked(op)
	if !ok {
		msg := Describe(ErrInFlight)
		recordError(msg.Kind)
		c.applyLocked(session.FetchFailed{Err: msg})
		logx.Warn("CONTROLLER", op, " rejected: already in progress")
		return c.state, fmt.Errorf("%s: %w", op, ErrInFlight)
	}
	return st, nil
}

// tryBegin 與 begin 相同，但 op 已在進行中時只回傳 false，不記錄錯誤。
func (c *Controller) tryBegin(op session.Op) (session.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tryBeginLocked(op)
}

func (c *Controller) tryBeginLocked(op session.Op) (session.State, bool) {
	if c.state.InFlight.Get(op) {
		return c.state, false
	}
	if op == session.OpConnect {
		return c.applyLocked(session.ConnectStarted{}), true
	}
	return c.applyLocked(session.OperationStarted{Op: op}), true
}

// fail 記錄並發佈操作失敗，回傳原錯誤。
func (c *Controller) fail(op session.Op, err error) error {
	msg := Describe(err)
	recordError(msg.Kind)
	logx.Error("CONTROLLER", op, " failed: ", err)
	if op == session.OpConnect {
		c.dispatch(session.ConnectFailed{Err: msg})
	} else {
		c.dispatch(session.OperationFailed{Op: op, Err: msg})
	}
	return err
}

// ────────────────
// 連線
// ────────────────

// Connect 請求錢包授權；成功後執行 Refresh。
// Refresh 的錯誤只會出現在 LastError，不影響 Connect 的結果。
func (c *Controller) Connect(ctx context.Context) (err error) {
	if _, err := c.begin(session.OpConnect); err != nil {
		return err
	}
	started := time.Now()
	defer func() { recordOperation(session.OpConnect, started, err) }()

	acct, err := c.wallet.Connect(ctx)
	if err != nil {
		return c.fail(session.OpConnect, err)
	}
	c.dispatch(session.ConnectSucceeded{Account: acct})
	setConnected(true)
	logx.Info("CONTROLLER", "wallet connected: ", acct.Hex())

	if st, ok := c.tryBegin(session.OpRefresh); ok {
		_ = c.refresh(ctx, st)
	} else {
		// 進行中的 Refresh 是在連線前開始的，沒有讀取餘額。
		_ = c.loadBalance(ctx)
	}
	return nil
}

// Watch 訂閱錢包帳戶變動直到 ctx 結束；目前帳戶消失時撤銷連線。
func (c *Controller) Watch(ctx context.Context) error {
	ch := make(chan []common.Address, 4)
	sub := c.wallet.SubscribeAccounts(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case accts := <-ch:
			if acct := c.State().Account; acct != nil && !contains(accts, *acct) {
				c.wallet.Disconnect()
				setConnected(false)
				logx.Warn("CONTROLLER", "account ", acct.Hex(), " revoked by wallet")
			}
			c.dispatch(session.AccountsChanged{Accounts: accts})
		}
	}
}

// ────────────────
// 讀取
// ────────────────

// Refresh 同時讀取銀行名稱、擁有者與（已連線時）餘額。
// 每個讀取各自發佈成功或失敗事件，互不中止；回傳所有失敗的合併錯誤。
func (c *Controller) Refresh(ctx context.Context) error {
	st, err := c.begin(session.OpRefresh)
	if err != nil {
		return err
	}
	return c.refresh(ctx, st)
}

// refresh 在已設定 Refresh 旗標後執行讀取，結束時清除旗標。
func (c *Controller) refresh(ctx context.Context, st session.State) (err error) {
	started := time.Now()
	defer func() { recordOperation(session.OpRefresh, started, err) }()

	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(load func(context.Context) error) func() error {
		return func() error {
			if err := load(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		}
	}

	var g errgroup.Group
	g.Go(collect(c.loadBankName))
	g.Go(collect(c.loadOwner))
	if st.Connected {
		g.Go(collect(c.loadBalance))
	}
	_ = g.Wait()

	c.dispatch(session.OperationFinished{Op: session.OpRefresh})
	return errors.Join(errs...)
}

func (c *Controller) fetchFailed(what string, err error) error {
	msg := Describe(err)
	recordError(msg.Kind)
	logx.Error("CONTROLLER", "fetch ", what, " failed: ", err)
	c.dispatch(session.FetchFailed{Err: msg})
	return err
}

func (c *Controller) loadBankName(ctx context.Context) error {
	name, err := c.bank.BankName(ctx)
	if err != nil {
		return c.fetchFailed("bank name", err)
	}
	c.dispatch(session.BankNameLoaded{Name: name})
	return nil
}

func (c *Controller) loadOwner(ctx context.Context) error {
	owner, err := c.bank.Owner(ctx)
	if err != nil {
		return c.fetchFailed("owner", err)
	}
	c.dispatch(session.OwnerLoaded{Owner: owner})
	return nil
}

func (c *Controller) loadBalance(ctx context.Context) error {
	bal, err := c.bank.BalanceOf(ctx)
	if err != nil {
		return c.fetchFailed("balance", err)
	}
	c.dispatch(session.BalanceLoaded{Balance: bal})
	return nil
}

// ────────────────
// 寫入
// ────────────────

// write 執行一筆交易並在確認後重新讀取相依的值。
// 旗標在重新讀取完成後才清除；重新讀取失敗只記錄在 LastError。
func (c *Controller) write(ctx context.Context, op session.Op, send func(session.State) (*types.Receipt, error), reload func(context.Context) error) (err error) {
	st, err := c.begin(op)
	if err != nil {
		return err
	}
	started := time.Now()
	defer func() { recordOperation(op, started, err) }()

	rcpt, err := send(st)
	if err != nil {
		return c.fail(op, err)
	}
	recordConfirmed(op)
	tx := summary(op, rcpt)
	logx.Info("CONTROLLER", op, " confirmed: ", tx.Hash.Hex(), " block ", tx.Block)

	_ = reload(ctx)
	c.dispatch(session.OperationFinished{Op: op, Tx: tx})
	return nil
}

// SetBankName 以 Inputs.BankName 設定銀行名稱，成功後重新讀取名稱。
func (c *Controller) SetBankName(ctx context.Context) error {
	return c.write(ctx, session.OpSetBankName, func(st session.State) (*types.Receipt, error) {
		return c.bank.SetBankName(ctx, st.Inputs.BankName)
	}, c.loadBankName)
}

// Deposit 存入 Inputs.Deposit，成功後重新讀取餘額。
func (c *Controller) Deposit(ctx context.Context) error {
	return c.write(ctx, session.OpDeposit, func(st session.State) (*types.Receipt, error) {
		return c.bank.Deposit(ctx, st.Inputs.Deposit)
	}, c.loadBalance)
}

// Withdraw 從自己的存款提領 Inputs.Withdraw 到目前帳戶，成功後重新讀取餘額。
func (c *Controller) Withdraw(ctx context.Context) error {
	return c.write(ctx, session.OpWithdraw, func(st session.State) (*types.Receipt, error) {
		if st.Account == nil {
			if _, err := bank.ParseAmount(st.Inputs.Withdraw); err != nil {
				return nil, err
			}
			return nil, chain.ErrNotConnected
		}
		return c.bank.Withdraw(ctx, *st.Account, st.Inputs.Withdraw)
	}, c.loadBalance)
}

// ────────────────
// 本地狀態
// ────────────────

// SetInput 記錄使用者輸入的原始文字。
func (c *Controller) SetInput(field session.Field, value string) error {
	if !field.Valid() {
		return fmt.Errorf("%w: unknown input field %q", bank.ErrInvalidInput, field)
	}
	c.dispatch(session.InputChanged{Field: field, Value: value})
	return nil
}

// DismissError 清除 LastError。
func (c *Controller) DismissError() {
	c.dispatch(session.ErrorDismissed{})
}

func contains(accts []common.Address, a common.Address) bool {
	for _, x := range accts {
		if x == a {
			return true
		}
	}
	return false
}

func summary(op session.Op, rcpt *types.Receipt) *session.TxSummary {
	tx := &session.TxSummary{Op: op}
	if rcpt == nil {
		return tx
	}
	tx.Hash = rcpt.TxHash
	if rcpt.BlockNumber != nil {
		tx.Block = rcpt.BlockNumber.Uint64()
	}
	return tx
}
