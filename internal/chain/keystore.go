// internal/chain/keystore.go

package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// KeystoreProvider 以 go-ethereum 的加密 keystore 目錄作為錢包。
// 帳戶檔案被新增或刪除時，SubscribeAccounts 會收到新的帳戶清單。
type KeystoreProvider struct {
	ks       *keystore.KeyStore
	approver Approver
}

func NewKeystoreProvider(dir string, approver Approver) *KeystoreProvider {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	return &KeystoreProvider{ks: ks, approver: approver}
}

// newKeystoreProvider 供測試使用較輕的 scrypt 參數。
func newKeystoreProvider(ks *keystore.KeyStore, approver Approver) *KeystoreProvider {
	return &KeystoreProvider{ks: ks, approver: approver}
}

func (p *KeystoreProvider) addresses() []common.Address {
	accs := p.ks.Accounts()
	out := make([]common.Address, len(accs))
	for i, a := range accs {
		out[i] = a.Address
	}
	return out
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	addrs := p.addresses()
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: keystore has no accounts", ErrWalletUnavailable)
	}
	if err := askConnect(ctx, p.approver, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (p *KeystoreProvider) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acc := accounts.Account{Address: account}
	pass, err := p.approver.Passphrase(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := p.ks.Unlock(acc, pass); err != nil {
		if errors.Is(err, keystore.ErrNoMatch) {
			return nil, fmt.Errorf("%w: %w", ErrWalletUnavailable, err)
		}
		return nil, err
	}
	return bind.NewKeyStoreTransactorWithChainID(p.ks, acc, chainID)
}

func (p *KeystoreProvider) ApproveTransaction(ctx context.Context, from common.Address, tx *types.Transaction) error {
	return askTransaction(ctx, p.approver, from, tx)
}

func (p *KeystoreProvider) SubscribeAccounts(ch chan<- []common.Address) event.Subscription {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		events := make(chan accounts.WalletEvent, 8)
		sub := p.ks.Subscribe(events)
		defer sub.Unsubscribe()
		for {
			select {
			case <-events:
				select {
				case ch <- p.addresses():
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	})
}
