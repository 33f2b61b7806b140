// internal/chain/errors.go
//
// 本檔集中定義 Chain Gateway 對外的錯誤分類。
// 上層 (controller) 以 errors.Is 判斷類別，再轉為使用者可讀訊息。

package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletUnavailable 代表沒有任何錢包提供者（未設定 keystore / 私鑰，或錢包內沒有帳戶）。
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrUserRejected 代表使用者拒絕授權、拒絕簽章或密碼錯誤。
	ErrUserRejected = errors.New("user rejected request")

	// ErrNotConnected 代表在 Connect 成功之前就要求簽章者。
	ErrNotConnected = errors.New("wallet not connected")

	// ErrTransactionReverted 代表交易在鏈上（或預估 gas 時）被 revert。
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrChainCallFailed 代表 RPC / 網路層失敗。
	ErrChainCallFailed = errors.New("chain call failed")
)

// RevertError 攜帶 revert 原因，errors.Is(err, ErrTransactionReverted) 為真。
type RevertError struct {
	Reason string
	TxHash string // 已上鏈才有值
}

func (e *RevertError) Error() string {
	msg := ErrTransactionReverted.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.TxHash != "" {
		msg += fmt.Sprintf(" (tx %s)", e.TxHash)
	}
	return msg
}

func (e *RevertError) Is(target error) bool {
	return target == ErrTransactionReverted
}
