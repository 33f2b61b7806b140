// internal/bank/bytes32.go

package bank

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// MaxBankNameLen 為 bytes32 欄位可容納的最大位元組數。
const MaxBankNameLen = 32

// EncodeBytes32 將銀行名稱編碼為右側補零的 bytes32。
// 名稱不得為空、不得含 NUL、必須是合法 UTF-8，且最多 32 bytes。
func EncodeBytes32(name string) ([32]byte, error) {
	var out [32]byte
	if name == "" {
		return out, invalid("bank name is empty")
	}
	if !utf8.ValidString(name) {
		return out, invalid("bank name is not valid UTF-8")
	}
	if strings.ContainsRune(name, 0) {
		return out, invalid("bank name contains a NUL byte")
	}
	if len(name) > MaxBankNameLen {
		return out, invalid("bank name is %d bytes, limit is %d", len(name), MaxBankNameLen)
	}
	copy(out[:], name)
	return out, nil
}

// DecodeBytes32 取第一個 NUL 之前的內容；全零回傳空字串。
func DecodeBytes32(b [32]byte) string {
	n := bytes.IndexByte(b[:], 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}
