package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	cfgpkg "github.com/LuigiLanza93/cronache-trama-e-fato/internal/config"
	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/document"
	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/runtime"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

func newServerForTest(t *testing.T) (*Server, *runtime.Runtime) {
	t.Helper()
	logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NewNullOutput()))
	cfg := cfgpkg.Default()
	cfg.Persist.DebounceMs = 30
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt, logger), rt
}

func TestHealthHandler(t *testing.T) {
	s, _ := newServerForTest(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestGetCharacterNotFound(t *testing.T) {
	s, _ := newServerForTest(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/characters/ghost", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "character not found") {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestGetCharacter(t *testing.T) {
	s, rt := newServerForTest(t)
	if err := rt.Store().Write("hero", document.Document{"name": "Lyra"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/characters/hero", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var doc document.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["name"] != "Lyra" {
		t.Fatalf("doc: %v", doc)
	}
}

func TestListCharacters(t *testing.T) {
	s, rt := newServerForTest(t)
	for _, slug := range []string{"zelda", "aric"} {
		if err := rt.Store().Write(slug, document.Document{}); err != nil {
			t.Fatalf("seed %s: %v", slug, err)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/characters", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var resp struct {
		Characters []string `json:"characters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Characters) != 2 || resp.Characters[0] != "aric" {
		t.Fatalf("characters: %v", resp.Characters)
	}
}

// wsClient is a minimal websocket test client speaking the envelope
// protocol.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	msgs chan []byte
	errs chan error
}

func dialWS(t *testing.T, httpURL string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(httpURL, "http") + "/v1/realtime"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	c := &wsClient{t: t, conn: conn, msgs: make(chan []byte, 16), errs: make(chan error, 1)}
	// Reads happen on one goroutine: a gorilla connection caches the first
	// read error (including a deadline we set ourselves), so polling with
	// deadlines would poison later reads.
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.errs <- err
				return
			}
			c.msgs <- data
		}
	}()
	return c
}

func (c *wsClient) send(event string, data any) {
	c.t.Helper()
	b, err := json.Marshal(map[string]any{"type": event, "data": data})
	if err != nil {
		c.t.Fatalf("marshal: %v", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// expect reads the next message and asserts its event name, returning the
// decoded payload.
func (c *wsClient) expect(event string) json.RawMessage {
	c.t.Helper()
	var data []byte
	select {
	case data = <-c.msgs:
	case err := <-c.errs:
		c.t.Fatalf("read waiting for %q: %v", event, err)
	case <-time.After(2 * time.Second):
		c.t.Fatalf("read waiting for %q: timeout", event)
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		c.t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != event {
		c.t.Fatalf("want event %q, got %q (%s)", event, env.Type, data)
	}
	return env.Data
}

// expectNone asserts no message arrives within d.
func (c *wsClient) expectNone(d time.Duration) {
	c.t.Helper()
	select {
	case data := <-c.msgs:
		c.t.Fatalf("unexpected message: %s", data)
	case <-time.After(d):
	}
}

func TestRealtimeMutateRoundTrip(t *testing.T) {
	s, rt := newServerForTest(t)
	seed := document.Document{
		"name": "Lyra",
		"hp":   map[string]any{"current": float64(12), "max": float64(20)},
	}
	if err := rt.Store().Write("hero", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c1 := dialWS(t, ts.URL)
	c2 := dialWS(t, ts.URL)

	c1.send("character:join", map[string]any{"slug": "hero"})
	c1.expect("character:state")
	// The original client sends join as a bare slug string.
	c2.send("character:join", "hero")
	c2.expect("character:state")

	c1.send("character:update", map[string]any{
		"slug":  "hero",
		"patch": map[string]any{"hp": map[string]any{"current": 7}},
	})

	// Sender gets the authoritative full document.
	var state document.Document
	if err := json.Unmarshal(c1.expect("character:state"), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	hp := state["hp"].(map[string]any)
	if hp["current"] != float64(7) || hp["max"] != float64(20) || state["name"] != "Lyra" {
		t.Fatalf("state: %v", state)
	}

	// Peer gets exactly the raw patch.
	var pp struct {
		Slug  string            `json:"slug"`
		Patch document.Document `json:"patch"`
	}
	if err := json.Unmarshal(c2.expect("character:patch"), &pp); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	if pp.Slug != "hero" {
		t.Fatalf("patch slug: %s", pp.Slug)
	}
	if cur := pp.Patch["hp"].(map[string]any)["current"]; cur != float64(7) {
		t.Fatalf("patch: %v", pp.Patch)
	}
	if _, extra := pp.Patch["name"]; extra {
		t.Fatalf("patch carries unrelated fields: %v", pp.Patch)
	}

	// After the quiet period the merged document is on disk.
	deadline := time.Now().Add(2 * time.Second)
	for {
		doc, err := rt.Store().Read("hero")
		if err == nil {
			if hp, ok := doc["hp"].(map[string]any); ok && hp["current"] == float64(7) {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced write never landed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRealtimeJoinUnknownSlugIsSilent(t *testing.T) {
	s, _ := newServerForTest(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c := dialWS(t, ts.URL)
	c.send("character:join", "ghost")
	c.expectNone(150 * time.Millisecond)

	resp, err := http.Get(ts.URL + "/v1/characters/ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestRealtimeRoomIsolation(t *testing.T) {
	s, rt := newServerForTest(t)
	for _, slug := range []string{"hero", "villain"} {
		if err := rt.Store().Write(slug, document.Document{"hp": float64(10)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c1 := dialWS(t, ts.URL)
	c2 := dialWS(t, ts.URL)
	c1.send("character:join", "hero")
	c1.expect("character:state")
	c2.send("character:join", "villain")
	c2.expect("character:state")

	c1.send("character:update", map[string]any{"slug": "hero", "patch": map[string]any{"hp": 1}})
	c1.expect("character:state")
	c2.expectNone(150 * time.Millisecond)
}

func TestRealtimePresenceFlow(t *testing.T) {
	s, _ := newServerForTest(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c1 := dialWS(t, ts.URL)
	c2 := dialWS(t, ts.URL)

	c1.send("presence:enter", map[string]any{"slug": "hero"})
	// Presence is global: both sessions see the update.
	for _, c := range []*wsClient{c1, c2} {
		var agg []struct {
			Slug  string `json:"slug"`
			Count int    `json:"count"`
		}
		if err := json.Unmarshal(c.expect("presence:update"), &agg); err != nil {
			t.Fatalf("decode agg: %v", err)
		}
		if len(agg) != 1 || agg[0].Slug != "hero" || agg[0].Count != 1 {
			t.Fatalf("agg: %+v", agg)
		}
	}

	// Snapshot is a unicast reply and mutates nothing.
	c2.send("presence:snapshot", nil)
	var snap []struct {
		Slug  string `json:"slug"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(c2.expect("presence:update"), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap) != 1 || snap[0].Count != 1 {
		t.Fatalf("snapshot: %+v", snap)
	}
	c1.expectNone(100 * time.Millisecond)

	// Last viewer leaving drops the slug from the aggregate entirely.
	c1.send("presence:leave", nil)
	for _, c := range []*wsClient{c1, c2} {
		var agg []any
		if err := json.Unmarshal(c.expect("presence:update"), &agg); err != nil {
			t.Fatalf("decode agg: %v", err)
		}
		if len(agg) != 0 {
			t.Fatalf("zero-count slug kept: %v", agg)
		}
	}
}

func TestRealtimeDisconnectBroadcastsPresence(t *testing.T) {
	s, _ := newServerForTest(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c1 := dialWS(t, ts.URL)
	c2 := dialWS(t, ts.URL)

	c1.send("presence:enter", map[string]any{"slug": "hero"})
	c1.expect("presence:update")
	c2.expect("presence:update")

	_ = c1.conn.Close()
	var agg []any
	if err := json.Unmarshal(c2.expect("presence:update"), &agg); err != nil {
		t.Fatalf("decode agg: %v", err)
	}
	if len(agg) != 0 {
		t.Fatalf("disconnect left presence: %v", agg)
	}
}

func TestRealtimeMalformedMessagesIgnored(t *testing.T) {
	s, rt := newServerForTest(t)
	if err := rt.Store().Write("hero", document.Document{"hp": float64(10)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	c := dialWS(t, ts.URL)
	// Not JSON, unknown event, update without slug, update without patch.
	_ = c.conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	c.send("character:levitate", map[string]any{"slug": "hero"})
	c.send("character:update", map[string]any{"patch": map[string]any{"hp": 1}})
	c.send("character:update", map[string]any{"slug": "hero"})
	c.expectNone(150 * time.Millisecond)

	// The connection is still healthy afterwards.
	c.send("character:join", "hero")
	c.expect("character:state")
}
