package prompt

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappbank/internal/chain"
)

type scripted struct {
	answers []string
	err     error
}

func (s *scripted) next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Prompt(string) (string, error)         { return s.next() }
func (s *scripted) PasswordPrompt(string) (string, error) { return s.next() }
func (s *scripted) Close() error                          { return nil }

func newTestTerminal(s *scripted) (*Terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return &Terminal{out: &out, open: func() prompter { return s }}, &out
}

var alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

func TestApproveConnect(t *testing.T) {
	term, out := newTestTerminal(&scripted{answers: []string{"y", "no", ""}})
	ctx := context.Background()

	ok, err := term.ApproveConnect(ctx, []common.Address{alice})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), alice.Hex())

	ok, err = term.ApproveConnect(ctx, []common.Address{alice})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = term.ApproveConnect(ctx, []common.Address{alice})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAbortedPromptIsRejection(t *testing.T) {
	term, _ := newTestTerminal(&scripted{err: liner.ErrPromptAborted})
	ok, err := term.ApproveConnect(context.Background(), []common.Address{alice})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = term.Passphrase(context.Background(), alice)
	require.ErrorIs(t, err, chain.ErrUserRejected)
}

func TestCanceledContext(t *testing.T) {
	term, _ := newTestTerminal(&scripted{answers: []string{"y"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := term.ApproveConnect(ctx, []common.Address{alice})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPassphraseAndTransaction(t *testing.T) {
	term, out := newTestTerminal(&scripted{answers: []string{"hunter2", "YES"}})
	pass, err := term.Passphrase(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pass)

	to := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	tx := types.NewTx(&types.LegacyTx{
		Nonce: 3, To: &to, Gas: 50000, GasPrice: big.NewInt(1),
		Value: new(big.Int).Mul(big.NewInt(25), big.NewInt(1e17)),
	})
	ok, err := term.ApproveTransaction(context.Background(), alice, tx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "value: 2.5 ETH")
	assert.Contains(t, out.String(), "nonce: 3")
}
