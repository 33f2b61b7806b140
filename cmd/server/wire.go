// cmd/server/wire.go

package main

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"dappbank/internal/bank"
	"dappbank/internal/chain"
	"dappbank/internal/config"
	"dappbank/internal/controller"
	"dappbank/internal/logx"
	"dappbank/internal/prompt"
	"dappbank/internal/simbank"
)

// simAccount 為模擬模式下錢包內唯一的帳戶，同時是合約擁有者。
var simAccount = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

// app 為組裝完成的模組。
type app struct {
	ctrl  *controller.Controller
	proxy *bank.Proxy
	close func()
	sim   *simbank.Bank // 僅模擬模式
}

func approverFor(cfg config.Config) chain.Approver {
	if cfg.Wallet.AutoApprove {
		return chain.AutoApprover{Secret: cfg.Wallet.Passphrase}
	}
	return prompt.NewTerminal()
}

// providerFor 依設定選擇錢包；都沒設定時回傳 nil（視為未安裝錢包）。
func providerFor(cfg config.Config) (chain.Provider, error) {
	if !cfg.HasWallet() {
		logx.Warn("CMD", "no wallet configured; connect will report the wallet as unavailable")
		return nil, nil
	}
	if cfg.Wallet.Keystore != "" {
		logx.Info("CMD", "using keystore wallet at ", cfg.Wallet.Keystore)
		return chain.NewKeystoreProvider(cfg.Wallet.Keystore, approverFor(cfg)), nil
	}
	logx.Warn("CMD", "using raw private key wallet; for development chains only")
	p, err := chain.NewKeyedProvider(cfg.Wallet.PrivateKey, approverFor(cfg))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// build 依設定組裝 gateway → proxy → controller。
func build(ctx context.Context, cfg config.Config, simulate bool) (*app, error) {
	parsed, err := bank.LoadABI(cfg.Contract.Artifact)
	if err != nil {
		return nil, err
	}
	address := cfg.ContractAddress()

	if simulate {
		sim := simbank.New(simAccount, simAccount)
		proxy := bank.New(sim, address, parsed)
		logx.Info("CMD", "simulated bank at ", address.Hex(), ", wallet account ", simAccount.Hex())
		return &app{
			ctrl:  controller.New(sim, proxy),
			proxy: proxy,
			close: func() {},
			sim:   sim,
		}, nil
	}

	client, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.Chain.RPCURL)
	}
	provider, err := providerFor(cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	var gwOpts []chain.Option
	if cfg.Chain.ChainID > 0 {
		gwOpts = append(gwOpts, chain.WithChainID(big.NewInt(cfg.Chain.ChainID)))
	}
	if cfg.Chain.ConfirmTimeout > 0 {
		gwOpts = append(gwOpts, chain.WithConfirmTimeout(cfg.Chain.ConfirmTimeout))
	}
	gw := chain.NewGateway(client, provider, gwOpts...)
	proxy := bank.New(gw, address, parsed)
	logx.Info("CMD", "bank contract ", address.Hex(), " via ", cfg.Chain.RPCURL)

	return &app{
		ctrl:  controller.New(gw, proxy),
		proxy: proxy,
		close: client.Close,
	}, nil
}
