// internal/bank/bank.go

// Package bank 是 Bank 合約的 Contract Proxy：
// 把 Chain Gateway 綁定到固定的合約位址與 ABI，
// 提供型別化的操作，並處理 bytes32 名稱與 base units 金額的轉換。
// 所有輸入驗證都在呼叫 Gateway 之前完成；Gateway 的錯誤原樣往上傳。
package bank

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"dappbank/internal/chain"
	"dappbank/internal/logx"
)

// Gateway 為 Proxy 需要的 Chain Gateway 能力；*chain.Gateway 滿足此介面。
type Gateway interface {
	Read(ctx context.Context, contract common.Address, parsed *abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	Write(ctx context.Context, contract common.Address, parsed *abi.ABI, method string, value *big.Int, args ...interface{}) (*types.Receipt, error)
	Signer() (*chain.Signer, error)
}

type Proxy struct {
	gw      Gateway
	address common.Address
	abi     abi.ABI
}

func New(gw Gateway, address common.Address, parsed abi.ABI) *Proxy {
	return &Proxy{gw: gw, address: address, abi: parsed}
}

// Address 回傳綁定的合約位址。
func (p *Proxy) Address() common.Address {
	return p.address
}

func (p *Proxy) read(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	out, err := p.gw.Read(ctx, p.address, &p.abi, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s returned no values", chain.ErrChainCallFailed, method)
	}
	return out[0], nil
}

// BankName 讀取並解碼 bytes32 銀行名稱；尚未設定時為空字串。
func (p *Proxy) BankName(ctx context.Context) (string, error) {
	v, err := p.read(ctx, MethodBankName)
	if err != nil {
		return "", err
	}
	raw := *abi.ConvertType(v, new([32]byte)).(*[32]byte)
	return DecodeBytes32(raw), nil
}

// SetBankName 驗證並送出新名稱，等待確認後回傳收據。
func (p *Proxy) SetBankName(ctx context.Context, name string) (*types.Receipt, error) {
	encoded, err := EncodeBytes32(name)
	if err != nil {
		return nil, err
	}
	logx.Debug("BANK", "setBankName ", name)
	return p.gw.Write(ctx, p.address, &p.abi, MethodSetBankName, nil, encoded)
}

// Owner 讀取銀行擁有者位址。
func (p *Proxy) Owner(ctx context.Context) (common.Address, error) {
	v, err := p.read(ctx, MethodBankOwner)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(v, new(common.Address)).(*common.Address), nil
}

// BalanceOf 讀取目前簽章者（msg.sender）的存款餘額，單位為整數 ETH。
func (p *Proxy) BalanceOf(ctx context.Context) (decimal.Decimal, error) {
	if _, err := p.gw.Signer(); err != nil {
		return decimal.Decimal{}, err
	}
	v, err := p.read(ctx, MethodBalance)
	if err != nil {
		return decimal.Decimal{}, err
	}
	wei := *abi.ConvertType(v, new(*big.Int)).(**big.Int)
	return FromBaseUnits(wei), nil
}

// Deposit 以 payable 呼叫 depositMoney，金額附在交易 value 上。
func (p *Proxy) Deposit(ctx context.Context, amountWhole string) (*types.Receipt, error) {
	wei, err := ParseAmount(amountWhole)
	if err != nil {
		return nil, err
	}
	logx.Debug("BANK", "depositMoney ", wei.String(), " wei")
	return p.gw.Write(ctx, p.address, &p.abi, MethodDeposit, wei)
}

// Withdraw 從自己的存款提領 amountWhole 到 to。
func (p *Proxy) Withdraw(ctx context.Context, to common.Address, amountWhole string) (*types.Receipt, error) {
	if to == (common.Address{}) {
		return nil, invalid("withdraw recipient is the zero address")
	}
	wei, err := ParseAmount(amountWhole)
	if err != nil {
		return nil, err
	}
	logx.Debug("BANK", "withdrawMoney ", wei.String(), " wei to ", to.Hex())
	return p.gw.Write(ctx, p.address, &p.abi, MethodWithdraw, nil, to, wei)
}
