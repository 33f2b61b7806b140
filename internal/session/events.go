// internal/session/events.go

package session

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Event 為所有狀態轉移的輸入。只有本套件能定義新的事件。
type Event interface {
	isEvent()
}

type (
	ConnectStarted   struct{}
	ConnectSucceeded struct{ Account common.Address }
	ConnectFailed    struct{ Err ErrorMessage }

	// AccountsChanged 為錢包送出的最新授權帳戶清單；空清單代表撤銷。
	AccountsChanged struct{ Accounts []common.Address }

	InputChanged struct {
		Field Field
		Value string
	}

	// OperationStarted 設定 Op 的進行中旗標。
	OperationStarted struct{ Op Op }
	// OperationFinished 清除旗標；Tx 非 nil 時記錄為最後一筆交易。
	OperationFinished struct {
		Op Op
		Tx *TxSummary
	}
	// OperationFailed 清除旗標並設定 LastError。
	OperationFailed struct {
		Op  Op
		Err ErrorMessage
	}

	BankNameLoaded struct{ Name string }
	OwnerLoaded    struct{ Owner common.Address }
	BalanceLoaded  struct{ Balance decimal.Decimal }
	// FetchFailed 只設定 LastError，保留先前讀到的值。
	FetchFailed struct{ Err ErrorMessage }

	ErrorDismissed struct{}
)

func (ConnectStarted) isEvent()    {}
func (ConnectSucceeded) isEvent()  {}
func (ConnectFailed) isEvent()     {}
func (AccountsChanged) isEvent()   {}
func (InputChanged) isEvent()      {}
func (OperationStarted) isEvent()  {}
func (OperationFinished) isEvent() {}
func (OperationFailed) isEvent()   {}
func (BankNameLoaded) isEvent()    {}
func (OwnerLoaded) isEvent()       {}
func (BalanceLoaded) isEvent()     {}
func (FetchFailed) isEvent()       {}
func (ErrorDismissed) isEvent()    {}
