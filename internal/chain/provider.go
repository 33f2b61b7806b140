// internal/chain/provider.go
//
// 錢包提供者邊界 (wallet provider boundary)。
// 瀏覽器中的錢包擴充套件在這裡對應到 Provider 介面；
// 使用者的授權對話框則對應到 Approver。

package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Provider 是單一錢包的抽象。實作必須可被多個 goroutine 同時呼叫。
type Provider interface {
	// RequestAccounts 請求使用者授權並回傳可用帳戶，第一個為目前帳戶。
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Transactor 回傳綁定 account 的簽章器。
	Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)

	// ApproveTransaction 在簽章前詢問使用者；回傳 nil 代表同意。
	ApproveTransaction(ctx context.Context, from common.Address, tx *types.Transaction) error

	// SubscribeAccounts 在錢包帳戶清單變動時送出新清單。
	SubscribeAccounts(ch chan<- []common.Address) event.Subscription
}

// Approver 代表「彈出授權視窗」的那個人。
type Approver interface {
	ApproveConnect(ctx context.Context, accounts []common.Address) (bool, error)
	Passphrase(ctx context.Context, account common.Address) (string, error)
	ApproveTransaction(ctx context.Context, from common.Address, tx *types.Transaction) (bool, error)
}

// AutoApprover 同意所有請求，並回傳固定密碼。用於非互動模式。
type AutoApprover struct {
	Secret string
}

func (a AutoApprover) ApproveConnect(context.Context, []common.Address) (bool, error) {
	return true, nil
}

func (a AutoApprover) Passphrase(context.Context, common.Address) (string, error) {
	return a.Secret, nil
}

func (a AutoApprover) ApproveTransaction(context.Context, common.Address, *types.Transaction) (bool, error) {
	return true, nil
}

func askTransaction(ctx context.Context, approver Approver, from common.Address, tx *types.Transaction) error {
	ok, err := approver.ApproveTransaction(ctx, from, tx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserRejected
	}
	return nil
}

func askConnect(ctx context.Context, approver Approver, accounts []common.Address) error {
	ok, err := approver.ApproveConnect(ctx, accounts)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserRejected
	}
	return nil
}
