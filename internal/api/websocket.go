package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Number of recent events replayed on connection
	recentEventsCount = 50

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamEvents replays recent events, then forwards live ones until the peer
// goes away. ?group= restricts the stream to one group.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	group := r.URL.Query().Get("group")
	sub := s.bus.Subscribe()

	write := func(v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	for _, e := range s.bus.Recent(recentEventsCount, group) {
		if err := write(e); err != nil {
			s.bus.Unsubscribe(sub)
			return
		}
	}

	// The reader handles pongs and notices when the peer closes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.bus.Unsubscribe(sub)
			return

		case e, ok := <-sub:
			if !ok {
				return
			}
			if group != "" && e.GroupID != group {
				continue
			}
			if err := write(e); err != nil {
				s.logger.Debug("Websocket write failed", "err", err)
				s.bus.Unsubscribe(sub)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.bus.Unsubscribe(sub)
				return
			}
		}
	}
}
