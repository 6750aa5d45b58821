package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matt-g-everett/ledkey/stream"
)

type chanHandler struct {
	cmds chan stream.Command
}

func (h *chanHandler) Handle(cmd stream.Command) error {
	h.cmds <- cmd
	return nil
}

func newTestServer(t *testing.T, static string) (*Server, *chanHandler, *httptest.Server) {
	t.Helper()
	handler := &chanHandler{cmds: make(chan stream.Command, 4)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(stream.HttpConfig{Static: static}, handler, log)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(s.Close)
	return s, handler, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func TestWebsocketSnapshotAndBroadcast(t *testing.T) {
	s, _, ts := newTestServer(t, t.TempDir())
	s.OnKeyframes(stream.DefaultKeyframes())
	s.OnTick(25, 175)

	conn := dial(t, ts)

	msg := readMessage(t, conn)
	if msg["type"] != "keyframes" {
		t.Fatalf("expected keyframes snapshot first, got %v", msg)
	}
	if kfs, ok := msg["keyframes"].([]interface{}); !ok || len(kfs) != 3 {
		t.Fatalf("expected 3 keyframes, got %v", msg["keyframes"])
	}

	msg = readMessage(t, conn)
	if msg["type"] != "tick" || msg["frame"] != 25.0 || msg["position"] != 175.0 {
		t.Fatalf("expected tick snapshot, got %v", msg)
	}

	s.OnTick(26, 180)
	msg = readMessage(t, conn)
	if msg["frame"] != 26.0 || msg["position"] != 180.0 {
		t.Fatalf("expected broadcast tick, got %v", msg)
	}
}

func TestBroadcastDoesNotBlockCaller(t *testing.T) {
	s, _, ts := newTestServer(t, t.TempDir())
	conn := dial(t, ts)
	readDeadline := time.Now().Add(2 * time.Second)

	// Ticks arrive faster than the pump writes them; past the queue they
	// are dropped rather than waited on.
	start := time.Now()
	for i := 0; i < 5*outboxSize; i++ {
		s.OnTick(i, float64(i))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("OnTick blocked for %s", elapsed)
	}

	conn.SetReadDeadline(readDeadline)
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("expected the client to still receive ticks: %v", err)
	}
}

func TestWebsocketCommands(t *testing.T) {
	_, handler, ts := newTestServer(t, t.TempDir())
	conn := dial(t, ts)

	messages := []string{`{"type":"play"}`, `garbage`, `{"type":"add","position":99}`}
	for _, m := range messages {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	want := []string{stream.CommandPlay, stream.CommandAdd}
	for _, typ := range want {
		select {
		case cmd := <-handler.cmds:
			if cmd.Type != typ {
				t.Fatalf("expected %s, got %s", typ, cmd.Type)
			}
			if typ == stream.CommandAdd && (cmd.Position == nil || *cmd.Position != 99) {
				t.Fatalf("expected position 99, got %v", cmd.Position)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestServesStaticClient(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>timeline</h1>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	_, _, ts := newTestServer(t, dir)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "timeline") {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}
