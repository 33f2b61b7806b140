// internal/bank/units.go

package bank

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals 為鏈上原生貨幣的小數位數：1 ETH = 10^18 wei。
const Decimals = 18

// maxDigits 為 uint256 最大值的十進位位數。
const maxDigits = 78

// ParseAmount 將使用者輸入的整數單位字串（例如 "1.5"）轉為 base units。
// 金額必須為正、最多 18 位小數，且能放進 uint256。
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, invalid("amount %q is not a number", s)
	}
	if !d.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	return ToBaseUnits(d)
}

// ToBaseUnits 將整數單位精確轉為 base units。
// 超過 18 位小數或超出 uint256 時回傳 ErrInvalidInput。
// 指數在放大前先檢查範圍，"1e999999999" 之類的輸入會立即被拒絕。
func ToBaseUnits(whole decimal.Decimal) (*big.Int, error) {
	switch whole.Sign() {
	case 0:
		return new(big.Int), nil
	case -1:
		return nil, invalid("amount must not be negative")
	}
	coeff := whole.Coefficient()
	exp := int64(whole.Exponent())

	// 去掉係數尾端的 0，直到小數位數不超過 Decimals；次數受係數位數限制。
	ten := big.NewInt(10)
	for exp < -Decimals {
		q, r := new(big.Int).QuoRem(coeff, ten, new(big.Int))
		if r.Sign() != 0 {
			return nil, invalid("amount has more than %d decimal places", Decimals)
		}
		coeff, exp = q, exp+1
	}

	shift := exp + Decimals
	if int64(len(coeff.String()))+shift > maxDigits {
		return nil, invalid("amount is too large")
	}
	out := new(big.Int).Mul(coeff, new(big.Int).Exp(ten, big.NewInt(shift), nil))
	if _, overflow := uint256.FromBig(out); overflow {
		return nil, invalid("amount is too large")
	}
	return out, nil
}

// FromBaseUnits 將 base units 轉為整數單位。
func FromBaseUnits(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -Decimals)
}
