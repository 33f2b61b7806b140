// internal/session/reducer.go

package session

import "github.com/ethereum/go-ethereum/common"

// Reduce 回傳套用 ev 之後的新狀態。
// 不修改 s 或其任何指標所指的值；新的值一律配置新的指標。
// IsOwner 每次都重新計算。
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case ConnectStarted:
		s.Status = Connecting
		s.InFlight = s.InFlight.with(OpConnect, true)

	case ConnectSucceeded:
		acct := e.Account
		s.Account = &acct
		s.Status = Connected
		s.InFlight = s.InFlight.with(OpConnect, false)

	case ConnectFailed:
		s.Status = statusOf(s.Account)
		s.InFlight = s.InFlight.with(OpConnect, false)
		s.LastError = errPtr(e.Err)

	case AccountsChanged:
		if s.Account == nil || offered(*s.Account, e.Accounts) {
			break
		}
		s.Account = nil
		s.Balance = nil
		s.Status = Disconnected

	case InputChanged:
		switch e.Field {
		case FieldDeposit:
			s.Inputs.Deposit = e.Value
		case FieldWithdraw:
			s.Inputs.Withdraw = e.Value
		case FieldBankName:
			s.Inputs.BankName = e.Value
		}

	case OperationStarted:
		s.InFlight = s.InFlight.with(e.Op, true)

	case OperationFinished:
		s.InFlight = s.InFlight.with(e.Op, false)
		if e.Tx != nil {
			tx := *e.Tx
			s.LastTx = &tx
		}

	case OperationFailed:
		s.InFlight = s.InFlight.with(e.Op, false)
		s.LastError = errPtr(e.Err)

	case BankNameLoaded:
		name := e.Name
		s.BankName = &name

	case OwnerLoaded:
		owner := e.Owner
		s.OwnerAddress = &owner

	case BalanceLoaded:
		bal := e.Balance
		s.Balance = &bal

	case FetchFailed:
		s.LastError = errPtr(e.Err)

	case ErrorDismissed:
		s.LastError = nil
	}

	s.Connected = s.Status == Connected
	s.IsOwner = ownerOf(s.Account, s.OwnerAddress)
	return s
}

func statusOf(account *common.Address) ConnStatus {
	if account != nil {
		return Connected
	}
	return Disconnected
}

func offered(account common.Address, accounts []common.Address) bool {
	for _, a := range accounts {
		if a == account {
			return true
		}
	}
	return false
}

func errPtr(m ErrorMessage) *ErrorMessage {
	return &m
}
