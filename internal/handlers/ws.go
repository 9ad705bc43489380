package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

const wsWriteTimeout = 10 * time.Second

// wsSubscriber adapts a gorilla connection to the hub's Subscriber interface.
// The mutex serializes writes (broadcasts race with nothing else today, but the
// gorilla conn forbids concurrent writers) and the deadline bounds how long one
// stuck client can hold up a broadcast sweep.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSubscriber) Close() error {
	return s.conn.Close()
}

// LiveUpdates upgrades the request and registers the connection for insert-event
// broadcasts. Clients only listen; anything they send besides pings is ignored.
func (a *API) LiveUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := &wsSubscriber{conn: conn}
	a.hub.Connect(sub)
	defer func() {
		a.hub.Disconnect(sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
