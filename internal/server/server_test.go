// internal/server/server_test.go
//
// 本檔為 server 層的整合測試 (Integration Test)。
// 以 httptest.Server + 模擬合約跑完整 HTTP 流程，驗證：
//  1. 連線、輸入、存提款、設定名稱的端對端行為。
//  2. 錯誤分類 → HTTP 狀態碼的對應。
//  3. /api/v1 掛載、/metrics 與 WebSocket 狀態推送。
package server

import (
	"bytes"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappbank/internal/bank"
	"dappbank/internal/controller"
	"dappbank/internal/session"
	"dappbank/internal/simbank"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	customer = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	contract = common.HexToAddress("0x00000000000000000000000000000000000000b4")
)

// doJSON 為測試輔助函式：
// 封裝 HTTP JSON 請求邏輯並自動驗證回傳狀態碼。
// 若 out 非 nil，則自動解析 JSON 回應。
func doJSON(t *testing.T, c *http.Client, method, url string, body any, wantCode int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantCode, resp.StatusCode, "%s %s", method, url)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func newTestServer(t *testing.T, wallet ...common.Address) (*httptest.Server, *simbank.Bank) {
	t.Helper()
	sim := simbank.New(owner, wallet...)
	ctrl := controller.New(sim, bank.New(sim, contract, bank.DefaultABI()))
	ts := httptest.NewServer(NewServer(ctrl).Router())
	t.Cleanup(ts.Close)
	return ts, sim
}

// TestHTTPFlow 驗證整個 HTTP API 流程：連線、存款、提款、設定名稱。
func TestHTTPFlow(t *testing.T) {
	ts, sim := newTestServer(t, owner)
	cli := ts.Client()
	sim.Credit(owner, big.NewInt(1e18))

	// 1️⃣ 初始狀態
	var st session.State
	doJSON(t, cli, "GET", ts.URL+"/state", nil, 200, &st)
	assert.Equal(t, session.Disconnected, st.Status)

	// 2️⃣ 連線
	doJSON(t, cli, "POST", ts.URL+"/connect", nil, 200, &st)
	assert.True(t, st.Connected)
	assert.True(t, st.IsOwner)
	require.NotNil(t, st.Balance)
	assert.Equal(t, "1", st.Balance.String())

	// 3️⃣ 存款（先 PUT 輸入，再觸發）
	doJSON(t, cli, "PUT", ts.URL+"/inputs/deposit", map[string]any{"value": "2.5"}, 200, &st)
	assert.Equal(t, "2.5", st.Inputs.Deposit)
	doJSON(t, cli, "POST", ts.URL+"/deposit", nil, 200, &st)
	assert.Equal(t, "3.5", st.Balance.String())
	require.NotNil(t, st.LastTx)

	// 4️⃣ 提款（body 直接帶值）
	doJSON(t, cli, "POST", ts.URL+"/api/v1/withdraw", map[string]any{"value": "0.5"}, 200, &st)
	assert.Equal(t, "3", st.Balance.String())
	assert.Equal(t, "0.5", st.Inputs.Withdraw)

	// 5️⃣ 設定名稱
	doJSON(t, cli, "POST", ts.URL+"/bank-name", map[string]any{"value": "Harbor Bank"}, 200, &st)
	require.NotNil(t, st.BankName)
	assert.Equal(t, "Harbor Bank", *st.BankName)
}

// TestErrorStatusCodes 驗證錯誤分類對應的 HTTP 狀態碼，以及錯誤回應中附帶的狀態。
func TestErrorStatusCodes(t *testing.T) {
	ts, sim := newTestServer(t, customer)
	cli := ts.Client()

	// 未連線就提款 → 409
	var eb errorBody
	doJSON(t, cli, "POST", ts.URL+"/withdraw", map[string]any{"value": "1"}, 409, &eb)
	assert.Equal(t, controller.KindNotConnected, eb.Error.Kind)
	require.NotNil(t, eb.State)
	assert.Equal(t, controller.KindNotConnected, eb.State.LastError.Kind)

	doJSON(t, cli, "POST", ts.URL+"/connect", nil, 200, nil)

	// 非法金額 → 400
	doJSON(t, cli, "POST", ts.URL+"/deposit", map[string]any{"value": "-3"}, 400, &eb)
	assert.Equal(t, controller.KindInvalidInput, eb.Error.Kind)

	// 餘額不足 → 422
	doJSON(t, cli, "POST", ts.URL+"/withdraw", map[string]any{"value": "10"}, 422, &eb)
	assert.Equal(t, controller.KindTransactionReverted, eb.Error.Kind)

	// 非擁有者設定名稱 → 403，且不送出交易
	calls := sim.Calls(bank.MethodSetBankName)
	doJSON(t, cli, "POST", ts.URL+"/bank-name", map[string]any{"value": "Mine"}, 403, &eb)
	assert.Equal(t, "not_owner", eb.Error.Kind)
	assert.Equal(t, calls, sim.Calls(bank.MethodSetBankName))

	// 清除錯誤
	var st session.State
	doJSON(t, cli, "DELETE", ts.URL+"/error", nil, 200, &st)
	assert.Nil(t, st.LastError)
}

func TestConnectWithoutWallet(t *testing.T) {
	ts, _ := newTestServer(t)
	var eb errorBody
	doJSON(t, ts.Client(), "POST", ts.URL+"/connect", nil, 503, &eb)
	assert.Equal(t, controller.KindWalletUnavailable, eb.Error.Kind)
	assert.False(t, eb.State.Connected)
}

// TestBadRequests 驗證錯誤方法、未知欄位與壞 JSON。
func TestBadRequests(t *testing.T) {
	ts, _ := newTestServer(t, customer)
	cli := ts.Client()

	doJSON(t, cli, "GET", ts.URL+"/deposit", nil, 405, nil)
	doJSON(t, cli, "POST", ts.URL+"/state", nil, 405, nil)
	doJSON(t, cli, "PUT", ts.URL+"/inputs/amount", map[string]any{"value": "1"}, 404, nil)
	doJSON(t, cli, "PUT", ts.URL+"/inputs/deposit", nil, 400, nil)

	req, _ := http.NewRequest("POST", ts.URL+"/deposit", strings.NewReader("{bad json}"))
	resp, err := cli.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, customer)
	cli := ts.Client()

	var h map[string]string
	doJSON(t, cli, "GET", ts.URL+"/api/v1/health", nil, 200, &h)
	assert.Equal(t, "ok", h["status"])

	doJSON(t, cli, "POST", ts.URL+"/connect", nil, 200, nil)
	resp, err := cli.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, buf.String(), "dappbank_operations_total")
}

// TestWebSocketPushesState 驗證連線後立即收到狀態，且之後的變更會被推送。
func TestWebSocketPushesState(t *testing.T) {
	ts, _ := newTestServer(t, customer)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var st session.State
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, session.Disconnected, st.Status)

	doJSON(t, ts.Client(), "PUT", ts.URL+"/inputs/bankName", map[string]any{"value": "Pier"}, 200, nil)
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, "Pier", st.Inputs.BankName)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	ts, _ := newTestServer(t, customer)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	hdr := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
