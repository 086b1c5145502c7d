package controllers

import (
	"encoding/json"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/document"
)

// Client-to-server event names carried in envelopes.
const (
	evtJoin             = "character:join"
	evtUpdate           = "character:update"
	evtPresenceEnter    = "presence:enter"
	evtPresenceLeave    = "presence:leave"
	evtPresenceSnapshot = "presence:snapshot"
)

// envelope is the framing for every websocket message, inbound and
// outbound: a named event plus a JSON payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// outEnvelope is the outbound counterpart with an encodable payload.
type outEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// updateMsg is the body of a character:update event.
type updateMsg struct {
	Slug  string            `json:"slug"`
	Patch document.Document `json:"patch"`
}

// slugMsg is the object form of slug-bearing events.
type slugMsg struct {
	Slug string `json:"slug"`
}

// slugFromData extracts a slug from either the object form {"slug":...}
// or a bare JSON string, which is what the original client sends for
// character:join.
func slugFromData(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var m slugMsg
	if err := json.Unmarshal(data, &m); err == nil && m.Slug != "" {
		return m.Slug
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return ""
}
