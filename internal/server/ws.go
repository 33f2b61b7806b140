// internal/server/ws.go
//
// GET /ws：連線後先推送一次完整狀態，之後每次狀態改變都推送。
// 以 State.Version 略過比已推送者舊的狀態。
// 用戶端送來的訊息一律忽略，只用來偵測連線關閉。

package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"dappbank/internal/logx"
	"dappbank/internal/session"
)

const (
	wsReadBuffer     = 1024
	wsWriteBuffer    = 4096
	wsWriteTimeout   = 5 * time.Second
	wsPingInterval   = 30 * time.Second
	wsStateQueueSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsReadBuffer,
	WriteBufferSize: wsWriteBuffer,
	CheckOrigin:     sameOrigin,
}

// sameOrigin 只接受沒有 Origin（非瀏覽器）或與 Host 相同的連線。
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Debug("HTTP", "websocket upgrade failed: ", err)
		return
	}
	defer conn.Close()

	states := make(chan session.State, wsStateQueueSize)
	sub := s.Ctrl.Subscribe(states)
	defer sub.Unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(st session.State) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(st)
	}
	initial := s.Ctrl.State()
	if err := write(initial); err != nil {
		return
	}
	last := initial.Version

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-sub.Err():
			return
		case st := <-states:
			if st.Version <= last {
				continue
			}
			last = st.Version
			if err := write(st); err != nil {
				logx.Debug("HTTP", "websocket write failed: ", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
