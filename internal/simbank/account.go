// internal/simbank/account.go
//
// 本檔定義模擬合約中的 Account 與交易 Log 結構，不含任何 RPC 細節。

package simbank

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account represents one depositor inside the simulated contract.
type Account struct {
	Address common.Address `json:"address"`
	Balance *big.Int       `json:"balance"` // wei
	Logs    []Log          `json:"-"`
}

// Log represents a transaction record.
type Log struct {
	Time         time.Time      `json:"time"`
	Amount       *big.Int       `json:"amount"`
	Direction    string         `json:"direction"`
	Counterparty common.Address `json:"counterparty"`
	Note         string         `json:"note"`
	TxHash       common.Hash    `json:"tx_hash"`
}
