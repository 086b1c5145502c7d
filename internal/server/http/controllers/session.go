package controllers

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// session is one live websocket connection. It implements
// docsvc.Subscriber: Send enqueues without blocking, and a session whose
// queue stays full is dropped rather than allowed to stall the dispatcher.
type session struct {
	id     string
	conn   *websocket.Conn
	logger logpkg.Logger

	out  chan outEnvelope
	done chan struct{}

	pingInterval time.Duration
	writeTimeout time.Duration

	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn, logger logpkg.Logger, sendBuffer int, pingInterval, writeTimeout time.Duration) *session {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &session{
		id:           id,
		conn:         conn,
		logger:       logger,
		out:          make(chan outEnvelope, sendBuffer),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
	}
}

// ID returns the session identity.
func (s *session) ID() string { return s.id }

// Send enqueues a named event for delivery. Never blocks: when the queue
// is full the session is dropped, because a client that cannot keep up
// would otherwise hold back every room it is in.
func (s *session) Send(event string, payload any) {
	env := outEnvelope{Type: event, Data: payload}
	select {
	case s.out <- env:
	case <-s.done:
	default:
		s.logger.Warn("session send queue full, dropping connection", logpkg.Str("session", s.id))
		s.close()
	}
}

// close tears down the underlying connection once. The read loop observes
// the closed connection and runs the registry cleanup.
func (s *session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// writePump serializes all writes to the connection: queued events and
// keepalive pings. Exits when the connection dies or the read loop closes
// done.
func (s *session) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	defer s.close()
	for {
		select {
		case env := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
