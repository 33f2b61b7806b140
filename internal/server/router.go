// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊，與 handler.go 分離：
//   - handler.go 定義「如何處理請求」
//   - router.go 定義「請求如何被導向」
//   - cmd/server 組裝整體應用（注入 controller）
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dappbank/internal/logx"
	"dappbank/internal/session"
)

// Router 建立並回傳整個 HTTP 處理鏈。
// 採明確路由註冊（非反射式），確保高可讀性與低魔法性。
func (s *Server) Router() http.Handler {
	v1 := http.NewServeMux()

	// ────────────────
	// API v1 路由定義
	// ────────────────

	v1.HandleFunc("/health", s.health)

	// 狀態：
	//   - GET /state  → 目前狀態
	//   - GET /ws     → 狀態推送
	v1.HandleFunc("/state", s.state)
	v1.HandleFunc("/ws", s.stream)

	// 錢包與讀取：
	//   - POST /connect
	//   - POST /refresh
	v1.HandleFunc("/connect", s.connect)
	v1.HandleFunc("/refresh", s.refresh)

	// 輸入欄位：
	//   - PUT /inputs/{deposit|withdraw|bankName}
	v1.HandleFunc("/inputs/", s.inputs)

	// 交易：
	//   - POST /deposit
	//   - POST /withdraw
	//   - POST /bank-name（僅擁有者）
	v1.HandleFunc("/deposit", s.action(session.FieldDeposit, s.Ctrl.Deposit))
	v1.HandleFunc("/withdraw", s.action(session.FieldWithdraw, s.Ctrl.Withdraw))
	v1.HandleFunc("/bank-name", s.bankName())

	//   - DELETE /error
	v1.HandleFunc("/error", s.dismiss)

	v1.Handle("/metrics", promhttp.Handler())

	// ────────────────
	// API Version Mounting
	// ────────────────
	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", v1))
	root.Handle("/", v1)

	return logRequests(root)
}

// logRequests 在除錯模式下記錄每個請求。
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logx.Debug("HTTP", r.Method, " ", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
