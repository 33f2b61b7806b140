// internal/server/response.go
//
// 本檔負責統一 HTTP 回應格式。
// 成功回應一律為 JSON；錯誤回應為 {"error": {"kind", "message"}, "state": ...}，
// 讓前端在同一個回應中同時拿到錯誤與最新狀態。
package server

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"dappbank/internal/bank"
	"dappbank/internal/chain"
	"dappbank/internal/controller"
	"dappbank/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errorBody 為錯誤回應的內容。
type errorBody struct {
	Error session.ErrorMessage `json:"error"`
	State *session.State       `json:"state,omitempty"`
}

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 以錯誤分類決定狀態碼，並附上目前狀態（可為 nil）。
func writeErr(w http.ResponseWriter, err error, st *session.State) {
	writeJSON(w, statusFor(err), errorBody{Error: controller.Describe(err), State: st})
}

// writeMsg 輸出不屬於錯誤分類的錯誤（壞 JSON、權限不足等）。
func writeMsg(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorBody{Error: session.ErrorMessage{Kind: kind, Message: message}})
}

// statusFor 將錯誤分類對應到 HTTP 狀態碼。
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrInFlight), errors.Is(err, chain.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, chain.ErrUserRejected):
		return http.StatusForbidden
	case errors.Is(err, chain.ErrWalletUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, chain.ErrTransactionReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chain.ErrChainCallFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
