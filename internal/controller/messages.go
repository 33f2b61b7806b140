// internal/controller/messages.go
//
// 錯誤分類 → 使用者訊息。Kind 為穩定代碼，供 HTTP 層決定狀態碼、供前端決定呈現方式。

package controller

import (
	"errors"
	"strings"

	"dappbank/internal/bank"
	"dappbank/internal/chain"
	"dappbank/internal/session"
)

// 錯誤代碼。
const (
	KindWalletUnavailable   = "wallet_unavailable"
	KindUserRejected        = "user_rejected"
	KindNotConnected        = "not_connected"
	KindInvalidInput        = "invalid_input"
	KindTransactionReverted = "transaction_reverted"
	KindChainCallFailed     = "chain_call_failed"
	KindInFlight            = "in_flight"
	KindInternal            = "internal_error"
)

const (
	MsgWalletUnavailable   = "Please install a MetaMask wallet to use our bank."
	MsgUserRejected        = "The request was rejected in your wallet."
	MsgNotConnected        = "Connect your wallet first."
	MsgInvalidInput        = "Input is invalid"
	MsgTransactionReverted = "The transaction was reverted by the bank contract"
	MsgChainCallFailed     = "Could not reach the blockchain node. Please try again."
	MsgInFlight            = "That action is already in progress."
	MsgInternal            = "Something went wrong."
)

// Describe 把任何錯誤轉成單一可讀訊息。nil 回傳零值。
func Describe(err error) session.ErrorMessage {
	var rev *chain.RevertError
	switch {
	case err == nil:
		return session.ErrorMessage{}
	case errors.Is(err, ErrInFlight):
		return session.ErrorMessage{Kind: KindInFlight, Message: MsgInFlight}
	case errors.Is(err, bank.ErrInvalidInput):
		return session.ErrorMessage{Kind: KindInvalidInput, Message: MsgInvalidInput + detail(err, bank.ErrInvalidInput)}
	case errors.Is(err, chain.ErrWalletUnavailable):
		return session.ErrorMessage{Kind: KindWalletUnavailable, Message: MsgWalletUnavailable}
	case errors.Is(err, chain.ErrUserRejected):
		return session.ErrorMessage{Kind: KindUserRejected, Message: MsgUserRejected}
	case errors.Is(err, chain.ErrNotConnected):
		return session.ErrorMessage{Kind: KindNotConnected, Message: MsgNotConnected}
	case errors.As(err, &rev):
		msg := MsgTransactionReverted
		if rev.Reason != "" {
			msg += ": " + rev.Reason
		}
		return session.ErrorMessage{Kind: KindTransactionReverted, Message: msg}
	case errors.Is(err, chain.ErrTransactionReverted):
		return session.ErrorMessage{Kind: KindTransactionReverted, Message: MsgTransactionReverted}
	case errors.Is(err, chain.ErrChainCallFailed):
		return session.ErrorMessage{Kind: KindChainCallFailed, Message: MsgChainCallFailed}
	}
	return session.ErrorMessage{Kind: KindInternal, Message: MsgInternal}
}

// detail 取出 sentinel 之後的說明文字，例如 "invalid input: amount is empty" → ": amount is empty"。
func detail(err, sentinel error) string {
	s := err.Error()
	i := strings.Index(s, sentinel.Error())
	if i < 0 {
		return ""
	}
	return s[i+len(sentinel.Error()):]
}
