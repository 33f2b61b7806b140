// internal/server/handler.go
//
// Package server
// ─────────────────────────────────────────────
// 提供 HTTP 介面，作為 View Layer。
// 每個 handler 僅負責：
//  1. 接收與驗證 HTTP 請求
//  2. 把使用者意圖交給 controller
//  3. 回傳最新的 session.State（或錯誤 + 狀態）
//
// 本層不保存任何狀態，也不直接接觸鏈上資料；
// 所有狀態變更都經過 controller，畫面內容完全由 State 決定。
package server

import (
	"context"
	"io"
	"net/http"
	"strings"

	"dappbank/internal/controller"
	"dappbank/internal/logx"
	"dappbank/internal/session"
)

// Server 為 HTTP 層核心結構，只持有 controller。
type Server struct {
	Ctrl *controller.Controller
}

// NewServer 建立新的 HTTP 伺服器。
func NewServer(ctrl *controller.Controller) *Server {
	return &Server{Ctrl: ctrl}
}

// valueRequest 為輸入欄位與操作的請求內容；Value 為使用者輸入的原始文字。
type valueRequest struct {
	Value *string `json:"value"`
}

// decodeValue 讀取可省略的 {"value": "..."}。空 body 視為未提供。
func decodeValue(r *http.Request) (*string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var req valueRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return req.Value, nil
}

// respond 依操作結果回傳最新狀態或錯誤。
func (s *Server) respond(w http.ResponseWriter, err error) {
	st := s.Ctrl.State()
	if err != nil {
		writeErr(w, err, &st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// state 處理：GET /state → 目前的 session.State。
func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Ctrl.State())
}

// connect 處理：POST /connect → 請求錢包授權並載入資料。
func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.respond(w, s.Ctrl.Connect(r.Context()))
}

// refresh 處理：POST /refresh → 重新讀取名稱、擁有者與餘額。
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.respond(w, s.Ctrl.Refresh(r.Context()))
}

// inputs 處理子路徑：
//
//	PUT /inputs/deposit
//	PUT /inputs/withdraw
//	PUT /inputs/bankName
func (s *Server) inputs(w http.ResponseWriter, r *http.Request) {
	field := session.Field(strings.Trim(strings.TrimPrefix(r.URL.Path, "/inputs/"), "/"))
	if !field.Valid() {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v, err := decodeValue(r)
	if err != nil || v == nil {
		writeMsg(w, http.StatusBadRequest, controller.KindInvalidInput, `body must be {"value": "..."}`)
		return
	}
	s.respond(w, s.Ctrl.SetInput(field, *v))
}

// action 產生寫入操作的 handler。
// body 可帶 {"value": "..."}，等同先 PUT 對應的輸入欄位再觸發操作。
func (s *Server) action(field session.Field, run func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		v, err := decodeValue(r)
		if err != nil {
			writeMsg(w, http.StatusBadRequest, controller.KindInvalidInput, "request body is not valid JSON")
			return
		}
		if v != nil {
			if err := s.Ctrl.SetInput(field, *v); err != nil {
				s.respond(w, err)
				return
			}
		}
		s.respond(w, run(r.Context()))
	}
}

// bankName 處理：POST /bank-name。
// 只有擁有者看得到這個表單；非擁有者直接回 403，不送出交易。
func (s *Server) bankName() http.HandlerFunc {
	run := s.action(session.FieldBankName, s.Ctrl.SetBankName)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.Ctrl.State().IsOwner {
			logx.Warn("HTTP", "set bank name refused: caller is not the bank owner")
			writeMsg(w, http.StatusForbidden, "not_owner", "Only the bank owner can change the bank name.")
			return
		}
		run(w, r)
	}
}

// dismiss 處理：DELETE /error → 清除 LastError。
func (s *Server) dismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Ctrl.DismissError()
	s.respond(w, nil)
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
