// internal/bank/abi.go

package bank

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"dappbank/internal/storage"
)

// Bank 合約方法名稱。
const (
	MethodBankName    = "bankName"
	MethodSetBankName = "setBankName"
	MethodBankOwner   = "bankOwner"
	MethodBalance     = "getCustomerBalance"
	MethodDeposit     = "depositMoney"
	MethodWithdraw    = "withdrawMoney"
)

//go:embed Bank.abi.json
var bankABI []byte

// RawABI 回傳內建 ABI 的 JSON 內容。
func RawABI() []byte {
	return append([]byte(nil), bankABI...)
}

// DefaultABI 解析內建 ABI；內容固定，解析失敗屬於程式錯誤。
func DefaultABI() abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(bankABI))
	if err != nil {
		panic(fmt.Sprintf("embedded bank abi: %v", err))
	}
	return parsed
}

// LoadABI 從產物檔載入 ABI；path 為空時使用內建 ABI。
// 載入的 ABI 必須包含全部六個方法。
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return DefaultABI(), nil
	}
	art, err := storage.LoadArtifact(path)
	if err != nil {
		return abi.ABI{}, err
	}
	parsed, err := abi.JSON(bytes.NewReader(art.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi in %s: %w", path, err)
	}
	if err := checkABI(parsed); err != nil {
		return abi.ABI{}, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}

func checkABI(parsed abi.ABI) error {
	for _, m := range []string{MethodBankName, MethodSetBankName, MethodBankOwner, MethodBalance, MethodDeposit, MethodWithdraw} {
		if _, ok := parsed.Methods[m]; !ok {
			return fmt.Errorf("abi is missing method %s", m)
		}
	}
	if !parsed.Methods[MethodDeposit].IsPayable() {
		return fmt.Errorf("abi method %s is not payable", MethodDeposit)
	}
	return nil
}
