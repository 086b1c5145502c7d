package controllers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/runtime"
	docsvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/documents"
	presencesvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/presence"
	idpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/id"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// RealtimeController owns the websocket gateway: connection lifecycle,
// event dispatch into the documents and presence services, and the
// emit-to-all primitive presence broadcasts rely on.
type RealtimeController struct {
	rt     *runtime.Runtime
	docs   *docsvc.Service
	pres   *presencesvc.Service
	logger logpkg.Logger
	ids    *idpkg.Generator

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRealtimeController creates the gateway controller.
func NewRealtimeController(rt *runtime.Runtime, docs *docsvc.Service, pres *presencesvc.Service, logger logpkg.Logger) *RealtimeController {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &RealtimeController{
		rt:     rt,
		docs:   docs,
		pres:   pres,
		logger: logger.WithComponent("realtime"),
		ids:    idpkg.NewGenerator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are the CORS layer's concern; the gateway
			// accepts any origin like the original Socket.IO server did.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// RegisterRoutes registers the gateway route with the given mux.
func (c *RealtimeController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/realtime", c.handleRealtime)
}

// handleRealtime upgrades the connection and runs the session's read loop
// until the client goes away.
func (c *RealtimeController) handleRealtime(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Debug("upgrade failed", logpkg.Err(err))
		return
	}
	cfg := c.rt.Config().Realtime
	sess := newSession(
		c.ids.Next().String(),
		conn,
		c.logger,
		cfg.SendBuffer,
		time.Duration(cfg.PingIntervalMs)*time.Millisecond,
		time.Duration(cfg.WriteTimeoutMs)*time.Millisecond,
	)
	c.register(sess)
	c.logger.Debug("session connected", logpkg.Str("session", sess.id))

	go sess.writePump()
	c.readLoop(sess, cfg.MaxMessageBytes)
}

func (c *RealtimeController) register(sess *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sess.id] = sess
}

// readLoop consumes envelopes until the connection errors, then tears the
// session down: room membership, presence, and the hub entry.
func (c *RealtimeController) readLoop(sess *session, maxMessageBytes int64) {
	defer func() {
		c.mu.Lock()
		delete(c.sessions, sess.id)
		c.mu.Unlock()
		close(sess.done)
		sess.close()

		c.docs.Disconnect(sess.id)
		if agg, changed := c.pres.Disconnect(sess.id); changed {
			c.emitAll(presencesvc.EventUpdate, agg)
		}
		c.logger.Debug("session disconnected", logpkg.Str("session", sess.id))
	}()

	if maxMessageBytes > 0 {
		sess.conn.SetReadLimit(maxMessageBytes)
	}
	pongWait := 2 * sess.pingInterval
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Debug("malformed envelope", logpkg.Str("session", sess.id), logpkg.Err(err))
			continue
		}
		c.dispatch(sess, env)
	}
}

// dispatch routes one inbound event. Malformed payloads and unknown event
// names are dropped without an error echo.
func (c *RealtimeController) dispatch(sess *session, env envelope) {
	switch env.Type {
	case evtJoin:
		c.docs.Join(sess, slugFromData(env.Data))
	case evtUpdate:
		var m updateMsg
		if err := json.Unmarshal(env.Data, &m); err != nil {
			c.logger.Debug("malformed update", logpkg.Str("session", sess.id), logpkg.Err(err))
			return
		}
		c.docs.Mutate(sess, m.Slug, m.Patch)
	case evtPresenceEnter:
		if agg, changed := c.pres.Enter(sess.id, slugFromData(env.Data)); changed {
			c.emitAll(presencesvc.EventUpdate, agg)
		}
	case evtPresenceLeave:
		if agg, changed := c.pres.Leave(sess.id); changed {
			c.emitAll(presencesvc.EventUpdate, agg)
		}
	case evtPresenceSnapshot:
		sess.Send(presencesvc.EventUpdate, c.pres.Snapshot())
	default:
		c.logger.Debug("unknown event", logpkg.Str("session", sess.id), logpkg.Str("type", env.Type))
	}
}

// emitAll delivers an event to every connected session, not just one
// room. Presence is a global signal.
func (c *RealtimeController) emitAll(event string, payload any) {
	c.mu.Lock()
	targets := make([]*session, 0, len(c.sessions))
	for _, sess := range c.sessions {
		targets = append(targets, sess)
	}
	c.mu.Unlock()
	for _, sess := range targets {
		sess.Send(event, payload)
	}
}

// CloseSessions drops every live session. Used on shutdown.
func (c *RealtimeController) CloseSessions() {
	c.mu.Lock()
	targets := make([]*session, 0, len(c.sessions))
	for _, sess := range c.sessions {
		targets = append(targets, sess)
	}
	c.mu.Unlock()
	for _, sess := range targets {
		sess.close()
	}
}
