// internal/chain/keyed.go

package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
)

// KeyedProvider 以單一明文私鑰作為錢包，只適合 anvil / hardhat 等開發鏈。
type KeyedProvider struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	approver Approver
}

func NewKeyedProvider(hexkey string, approver Approver) (*KeyedProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexkey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyedProvider{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		approver: approver,
	}, nil
}

func (p *KeyedProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	addrs := []common.Address{p.address}
	if err := askConnect(ctx, p.approver, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (p *KeyedProvider) Transactor(_ context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != p.address {
		return nil, fmt.Errorf("%w: no key for %s", ErrWalletUnavailable, account.Hex())
	}
	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}

func (p *KeyedProvider) ApproveTransaction(ctx context.Context, from common.Address, tx *types.Transaction) error {
	return askTransaction(ctx, p.approver, from, tx)
}

// SubscribeAccounts 永遠不會送出事件：單一私鑰的帳戶不會變動。
func (p *KeyedProvider) SubscribeAccounts(chan<- []common.Address) event.Subscription {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	})
}
