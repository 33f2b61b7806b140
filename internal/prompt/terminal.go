// internal/prompt/terminal.go

// Package prompt 在終端機上扮演錢包擴充套件的授權視窗：
// 詢問是否連線、輸入 keystore 密碼、確認每筆交易。
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/peterh/liner"
	"github.com/shopspring/decimal"

	"dappbank/internal/chain"
)

type prompter interface {
	Prompt(p string) (string, error)
	PasswordPrompt(p string) (string, error)
	Close() error
}

// dumbterm 用於不支援 raw mode 的終端機（例如被導向的 stdin）。
type dumbterm struct {
	r   *bufio.Reader
	out io.Writer
}

func (d dumbterm) Prompt(p string) (string, error) {
	fmt.Fprint(d.out, p)
	line, err := d.r.ReadString('\n')
	return strings.TrimSpace(line), err
}

func (d dumbterm) PasswordPrompt(p string) (string, error) {
	fmt.Fprintln(d.out, "!! Unsupported terminal, password will echo.")
	return d.Prompt(p)
}

func (d dumbterm) Close() error { return nil }

// Terminal 實作 chain.Approver。同一時間只會出現一個提示。
type Terminal struct {
	mu   sync.Mutex
	open func() prompter
	out  io.Writer
}

var _ chain.Approver = (*Terminal)(nil)

func NewTerminal() *Terminal {
	stdin := bufio.NewReader(os.Stdin)
	return &Terminal{
		out: os.Stdout,
		open: func() prompter {
			if !liner.TerminalSupported() {
				return dumbterm{r: stdin, out: os.Stdout}
			}
			lr := liner.NewLiner()
			lr.SetCtrlCAborts(true)
			return lr
		},
	}
}

func (t *Terminal) ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.open()
	defer p.Close()

	answer, err := p.Prompt(question + " [y/N] ")
	if errors.Is(err, liner.ErrPromptAborted) {
		return false, nil
	}
	if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (t *Terminal) ApproveConnect(ctx context.Context, accounts []common.Address) (bool, error) {
	fmt.Fprintf(t.out, "dappbank requests access to your account %s\n", accounts[0].Hex())
	return t.ask(ctx, "Connect?")
}

func (t *Terminal) Passphrase(ctx context.Context, account common.Address) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.open()
	defer p.Close()

	pass, err := p.PasswordPrompt(fmt.Sprintf("Passphrase for %s: ", account.Hex()))
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", chain.ErrUserRejected
	}
	return pass, err
}

func (t *Terminal) ApproveTransaction(ctx context.Context, from common.Address, tx *types.Transaction) (bool, error) {
	fmt.Fprintln(t.out, Describe(from, tx))
	return t.ask(ctx, "Sign and send?")
}

// Describe 以人類可讀格式描述待簽交易。
func Describe(from common.Address, tx *types.Transaction) string {
	to := "(contract creation)"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	value := decimal.NewFromBigInt(tx.Value(), -18)
	return fmt.Sprintf("Transaction request\n  from:  %s\n  to:    %s\n  value: %s ETH\n  gas:   %d\n  nonce: %d",
		from.Hex(), to, value.String(), tx.Gas(), tx.Nonce())
}
