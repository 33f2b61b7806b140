// internal/session/state.go

// Package session 定義使用者看到的單一狀態 (State) 以及改變它的事件 (Event)。
// State 為值型別；唯一的寫入者是 controller，透過純函式 Reduce 產生下一個狀態。
// 本套件不做任何 I/O。
package session

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ConnStatus 為錢包連線狀態。
type ConnStatus string

const (
	Disconnected ConnStatus = "disconnected"
	Connecting   ConnStatus = "connecting"
	Connected    ConnStatus = "connected"
)

// Op 標示一個可被重複觸發的使用者操作。
type Op string

const (
	OpConnect     Op = "connect"
	OpRefresh     Op = "refresh"
	OpDeposit     Op = "deposit"
	OpWithdraw    Op = "withdraw"
	OpSetBankName Op = "setBankName"
)

// Field 為使用者輸入欄位。
type Field string

const (
	FieldDeposit  Field = "deposit"
	FieldWithdraw Field = "withdraw"
	FieldBankName Field = "bankName"
)

// Valid 回報 f 是否為已知欄位。
func (f Field) Valid() bool {
	switch f {
	case FieldDeposit, FieldWithdraw, FieldBankName:
		return true
	}
	return false
}

// Inputs 保存使用者輸入的原始文字，只會被 InputChanged 改變。
type Inputs struct {
	Deposit  string `json:"deposit"`
	Withdraw string `json:"withdraw"`
	BankName string `json:"bankName"`
}

// InFlight 記錄各操作是否正在進行。
type InFlight struct {
	Connect     bool `json:"connect"`
	Refresh     bool `json:"refresh"`
	Deposit     bool `json:"deposit"`
	Withdraw    bool `json:"withdraw"`
	SetBankName bool `json:"setBankName"`
}

// Get 回傳 op 的進行中旗標。
func (f InFlight) Get(op Op) bool {
	switch op {
	case OpConnect:
		return f.Connect
	case OpRefresh:
		return f.Refresh
	case OpDeposit:
		return f.Deposit
	case OpWithdraw:
		return f.Withdraw
	case OpSetBankName:
		return f.SetBankName
	}
	return false
}

func (f InFlight) with(op Op, v bool) InFlight {
	switch op {
	case OpConnect:
		f.Connect = v
	case OpRefresh:
		f.Refresh = v
	case OpDeposit:
		f.Deposit = v
	case OpWithdraw:
		f.Withdraw = v
	case OpSetBankName:
		f.SetBankName = v
	}
	return f
}

// ErrorMessage 為可直接顯示給使用者的錯誤。Kind 為穩定代碼。
type ErrorMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// TxSummary 為最後一筆已確認交易。
type TxSummary struct {
	Op    Op          `json:"op"`
	Hash  common.Hash `json:"hash"`
	Block uint64      `json:"block"`
}

// State 為使用者看到的全部內容。
// 指標欄位為 nil 代表「尚未成功讀取過」，與零值區分。
type State struct {
	Status       ConnStatus       `json:"status"`
	Connected    bool             `json:"connected"`
	Account      *common.Address  `json:"account"`
	IsOwner      bool             `json:"isOwner"`
	BankName     *string          `json:"bankName"`
	OwnerAddress *common.Address  `json:"ownerAddress"`
	Balance      *decimal.Decimal `json:"balance"`
	Inputs       Inputs           `json:"inputs"`
	LastError    *ErrorMessage    `json:"lastError"`
	InFlight     InFlight         `json:"inFlight"`
	LastTx       *TxSummary       `json:"lastTx"`

	// Version 每次狀態改變遞增一次，由持有狀態的一方設定；Reduce 不修改它。
	Version uint64 `json:"version"`
}

// New 回傳啟動時的初始狀態。
func New() State {
	return State{Status: Disconnected}
}

// Busy 回報是否有任何操作正在進行。
func (s State) Busy() bool {
	f := s.InFlight
	return f.Connect || f.Refresh || f.Deposit || f.Withdraw || f.SetBankName
}

func ownerOf(account, owner *common.Address) bool {
	return account != nil && owner != nil && *account == *owner
}
