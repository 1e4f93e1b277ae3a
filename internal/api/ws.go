package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The engine does not authenticate callers; the realtime stream is as
	// open as the rest of the API.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsSubscriber adapts a websocket connection to the broker's Subscriber
// interface. Writes are serialized since the broker may publish from
// multiple goroutines.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	subscriber := &wsSubscriber{conn: conn}
	s.broker.Attach(subscriber)
	s.logger.Info("realtime subscriber connected", zap.String("remote", r.RemoteAddr))

	// Reads are discarded; the loop exists to detect disconnects.
	go func() {
		defer func() {
			s.broker.Detach(subscriber)
			conn.Close()
			s.logger.Info("realtime subscriber disconnected", zap.String("remote", r.RemoteAddr))
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
