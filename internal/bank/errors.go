// internal/bank/errors.go
//
// 本檔定義 Contract Proxy 的本地驗證錯誤。
// 驗證一定發生在任何鏈上呼叫之前，避免浪費一筆需要使用者簽章的交易。

package bank

import (
	"errors"
	"fmt"
)

// ErrInvalidInput 代表輸入未通過本地驗證（非數字、<= 0、名稱超過 32 bytes 等）。
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
