// internal/chain/classify.go
//
// classify 把 go-ethereum / RPC / keystore 回傳的各式錯誤歸入本套件的分類。

package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const revertMarker = "execution reverted"

func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrWalletUnavailable,
		ErrUserRejected,
		ErrNotConnected,
		ErrTransactionReverted,
		ErrChainCallFailed,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, keystore.ErrDecrypt) || errors.Is(err, keystore.ErrLocked) {
		return fmt.Errorf("%w: %w", ErrUserRejected, err)
	}
	if reason, ok := revertReason(err); ok {
		return &RevertError{Reason: reason}
	}
	return fmt.Errorf("%w: %w", ErrChainCallFailed, err)
}

// revertReason 優先解碼 RPC error data 中的 Error(string)，其次解析訊息文字。
func revertReason(err error) (string, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, derr := hexutil.Decode(s); derr == nil {
				if reason, uerr := abi.UnpackRevert(data); uerr == nil {
					return reason, true
				}
			}
		}
	}
	msg := err.Error()
	i := strings.Index(msg, revertMarker)
	if i < 0 {
		return "", false
	}
	reason := strings.TrimPrefix(msg[i+len(revertMarker):], ":")
	return strings.TrimSpace(reason), true
}
