package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testABI = `[
 {"type":"function","name":"bankName","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
 {"type":"function","name":"depositMoney","stateMutability":"payable","inputs":[],"outputs":[]}
]`

var contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000b4")

// fakeBackend 實作 Backend；所有回傳值由測試設定。
type fakeBackend struct {
	mu            sync.Mutex
	chainID       *big.Int
	callOut       []byte
	callErr       error
	lastCall      ethereum.CallMsg
	estimateErr   error
	sendErr       error
	sent          []*types.Transaction
	receiptStatus uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{chainID: big.NewInt(31337), receiptStatus: types.ReceiptStatusSuccessful}
}

func (b *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCall = msg
	return b.callOut, b.callErr
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (b *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 50_000, b.estimateErr
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: b.receiptStatus, TxHash: hash, BlockNumber: big.NewInt(7)}, nil
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return b.chainID, nil
}

// stubApprover 可分別控制三種授權結果。
type stubApprover struct {
	denyConnect bool
	denyTx      bool
	secret      string
}

func (a stubApprover) ApproveConnect(context.Context, []common.Address) (bool, error) {
	return !a.denyConnect, nil
}

func (a stubApprover) Passphrase(context.Context, common.Address) (string, error) {
	return a.secret, nil
}

func (a stubApprover) ApproveTransaction(context.Context, common.Address, *types.Transaction) (bool, error) {
	return !a.denyTx, nil
}

func parsedABI(t *testing.T) *abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(testABI))
	require.NoError(t, err)
	return &parsed
}

func keyedGateway(t *testing.T, approver Approver) (*Gateway, *fakeBackend, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	p, err := NewKeyedProvider(hexutil.Encode(crypto.FromECDSA(key)), approver)
	require.NoError(t, err)
	b := newFakeBackend()
	return NewGateway(b, p), b, crypto.PubkeyToAddress(key.PublicKey)
}

func TestConnectWithoutProvider(t *testing.T) {
	g := NewGateway(newFakeBackend(), nil)
	_, err := g.Connect(context.Background())
	require.ErrorIs(t, err, ErrWalletUnavailable)

	_, err = g.Signer()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectRejected(t *testing.T) {
	g, _, _ := keyedGateway(t, stubApprover{denyConnect: true})
	_, err := g.Connect(context.Background())
	require.ErrorIs(t, err, ErrUserRejected)
	_, err = g.Signer()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectAndDisconnect(t *testing.T) {
	g, _, addr := keyedGateway(t, AutoApprover{})
	got, err := g.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	s, err := g.Signer()
	require.NoError(t, err)
	assert.Equal(t, addr, s.Address)
	assert.Equal(t, int64(31337), s.ChainID.Int64())

	g.Disconnect()
	_, err = g.Signer()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestFixedChainID(t *testing.T) {
	key, _ := crypto.GenerateKey()
	p, err := NewKeyedProvider(hexutil.Encode(crypto.FromECDSA(key)), AutoApprover{})
	require.NoError(t, err)
	g := NewGateway(newFakeBackend(), p, WithChainID(big.NewInt(5)))
	_, err = g.Connect(context.Background())
	require.NoError(t, err)
	s, _ := g.Signer()
	assert.Equal(t, int64(5), s.ChainID.Int64())
}

func TestReadDecodesAndUsesSigner(t *testing.T) {
	g, b, addr := keyedGateway(t, AutoApprover{})
	parsed := parsedABI(t)

	var name [32]byte
	copy(name[:], "Acme")
	out, err := parsed.Methods["bankName"].Outputs.Pack(name)
	require.NoError(t, err)
	b.callOut = out

	res, err := g.Read(context.Background(), contractAddr, parsed, "bankName")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, name, res[0].([32]byte))
	assert.Equal(t, common.Address{}, b.lastCall.From)

	_, err = g.Connect(context.Background())
	require.NoError(t, err)
	_, err = g.Read(context.Background(), contractAddr, parsed, "bankName")
	require.NoError(t, err)
	assert.Equal(t, addr, b.lastCall.From)
	assert.Equal(t, contractAddr, *b.lastCall.To)
}

func TestReadErrors(t *testing.T) {
	g, b, _ := keyedGateway(t, AutoApprover{})
	parsed := parsedABI(t)

	b.callErr = errors.New("dial tcp: connection refused")
	_, err := g.Read(context.Background(), contractAddr, parsed, "bankName")
	require.ErrorIs(t, err, ErrChainCallFailed)

	// 唯讀呼叫被 revert 屬於呼叫失敗，不是交易失敗。
	b.callErr = errors.New("execution reverted: paused")
	_, err = g.Read(context.Background(), contractAddr, parsed, "bankName")
	require.ErrorIs(t, err, ErrChainCallFailed)
	assert.NotErrorIs(t, err, ErrTransactionReverted)
	var rev *RevertError
	assert.False(t, errors.As(err, &rev))
	assert.Contains(t, err.Error(), "paused")
}

func TestWriteRequiresConnect(t *testing.T) {
	g, b, _ := keyedGateway(t, AutoApprover{})
	_, err := g.Write(context.Background(), contractAddr, parsedABI(t), "depositMoney", big.NewInt(1))
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, b.sent)
}

func TestWriteConfirmed(t *testing.T) {
	g, b, addr := keyedGateway(t, AutoApprover{})
	_, err := g.Connect(context.Background())
	require.NoError(t, err)

	value := big.NewInt(1_500_000_000_000_000_000)
	receipt, err := g.Write(context.Background(), contractAddr, parsedABI(t), "depositMoney", value)
	require.NoError(t, err)
	assert.Equal(t, int64(7), receipt.BlockNumber.Int64())

	require.Len(t, b.sent, 1)
	tx := b.sent[0]
	assert.Equal(t, value, tx.Value())
	assert.Equal(t, contractAddr, *tx.To())
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), tx)
	require.NoError(t, err)
	assert.Equal(t, addr, from)
	assert.Equal(t, tx.Hash(), receipt.TxHash)
}

func TestWriteDeclined(t *testing.T) {
	g, b, _ := keyedGateway(t, stubApprover{denyTx: true})
	_, err := g.Connect(context.Background())
	require.NoError(t, err)

	_, err = g.Write(context.Background(), contractAddr, parsedABI(t), "depositMoney", big.NewInt(1))
	require.ErrorIs(t, err, ErrUserRejected)
	assert.Empty(t, b.sent)
}

func TestWriteRevertedAtEstimate(t *testing.T) {
	g, b, _ := keyedGateway(t, AutoApprover{})
	_, err := g.Connect(context.Background())
	require.NoError(t, err)

	b.estimateErr = errors.New("execution reverted: insufficient balance")
	_, err = g.Write(context.Background(), contractAddr, parsedABI(t), "depositMoney", big.NewInt(1))
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	assert.Equal(t, "insufficient balance", rev.Reason)
	assert.Empty(t, b.sent)
}

func TestWriteRevertedOnChain(t *testing.T) {
	g, b, _ := keyedGateway(t, AutoApprover{})
	_, err := g.Connect(context.Background())
	require.NoError(t, err)

	b.receiptStatus = types.ReceiptStatusFailed
	receipt, err := g.Write(context.Background(), contractAddr, parsedABI(t), "depositMoney", big.NewInt(1))
	require.ErrorIs(t, err, ErrTransactionReverted)
	require.NotNil(t, receipt)
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	assert.Equal(t, b.sent[0].Hash().Hex(), rev.TxHash)
}

func TestWriteBroadcastFailure(t *testing.T) {
	g, b, _ := keyedGateway(t, AutoApprover{})
	_, err := g.Connect(context.Background())
	require.NoError(t, err)

	b.sendErr = errors.New("connection reset by peer")
	_, err = g.Write(context.Background(), contractAddr, parsedABI(t), "depositMoney", big.NewInt(1))
	require.ErrorIs(t, err, ErrChainCallFailed)
}

func TestKeystoreProvider(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)

	empty := NewGateway(newFakeBackend(), newKeystoreProvider(ks, AutoApprover{Secret: "pw"}))
	_, err := empty.Connect(context.Background())
	require.ErrorIs(t, err, ErrWalletUnavailable)

	acc, err := ks.NewAccount("pw")
	require.NoError(t, err)

	wrong := NewGateway(newFakeBackend(), newKeystoreProvider(ks, AutoApprover{Secret: "nope"}))
	_, err = wrong.Connect(context.Background())
	require.ErrorIs(t, err, ErrUserRejected)

	ok := NewGateway(newFakeBackend(), newKeystoreProvider(ks, AutoApprover{Secret: "pw"}))
	got, err := ok.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, acc.Address, got)
}

type dataErr struct {
	msg  string
	data interface{}
}

func (e dataErr) Error() string          { return e.msg }
func (e dataErr) ErrorData() interface{} { return e.data }

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(keystore.ErrDecrypt), ErrUserRejected)
	assert.ErrorIs(t, classify(ErrNotConnected), ErrNotConnected)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), ErrChainCallFailed)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), context.DeadlineExceeded)

	strTyp, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strTyp}}.Pack("owner only")
	require.NoError(t, err)
	data := append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)

	err = classify(dataErr{msg: "execution reverted", data: hexutil.Encode(data)})
	var rev *RevertError
	require.ErrorAs(t, err, &rev)
	assert.Equal(t, "owner only", rev.Reason)
	assert.Contains(t, rev.Error(), "owner only")
}
