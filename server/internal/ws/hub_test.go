package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsHub "github.com/reliabilitypro/reliabilitypro/server/internal/ws"
)

const testInterval = 20 * time.Millisecond

type board struct {
	Assets []string `json:"assets"`
}

// source serves a mutable board to the hub.
type source struct {
	mu     sync.Mutex
	assets []string
}

func (s *source) set(assets ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = assets
}

func (s *source) get() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return board{Assets: append([]string{}, s.assets...)}
}

type gauge struct{ n atomic.Int64 }

func (g *gauge) SetClients(n int) { g.n.Store(int64(n)) }

func startHub(t *testing.T, src *source, g *gauge) (string, *wsHub.Hub, context.CancelFunc) {
	t.Helper()
	var cg wsHub.ClientGauge
	if g != nil {
		cg = g
	}
	hub := wsHub.New(src.get, testInterval, cg)
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(hub)
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub, cancel
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) (string, board) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg struct {
		Event string `json:"event"`
		Data  board  `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return msg.Event, msg.Data
}

// eventually polls cond for up to a second.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error(msg)
}

func TestHub_ConnectReceivesBoard(t *testing.T) {
	src := &source{}
	src.set("P-101", "P-102")
	url, _, _ := startHub(t, src, nil)

	event, b := read(t, dial(t, url))
	if event != wsHub.EventBoard {
		t.Errorf("event = %q, want %q", event, wsHub.EventBoard)
	}
	if len(b.Assets) != 2 {
		t.Errorf("assets = %v, want 2", b.Assets)
	}
}

func TestHub_BroadcastOnTick(t *testing.T) {
	src := &source{}
	url, _, _ := startHub(t, src, nil)
	conn := dial(t, url)
	if _, b := read(t, conn); len(b.Assets) != 0 {
		t.Fatalf("initial assets = %v, want none", b.Assets)
	}

	src.set("P-104")
	// A tick may already be in flight with the old board.
	for i := 0; i < 3; i++ {
		if _, b := read(t, conn); len(b.Assets) == 1 && b.Assets[0] == "P-104" {
			return
		}
	}
	t.Error("board update never broadcast")
}

func TestHub_ClientCountAndGauge(t *testing.T) {
	g := &gauge{}
	url, hub, _ := startHub(t, &source{}, g)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, url)
		read(t, conns[i])
	}
	eventually(t, func() bool { return hub.Count() == 3 && g.n.Load() == 3 }, "want 3 clients")

	conns[0].Close()
	eventually(t, func() bool { return hub.Count() == 2 && g.n.Load() == 2 }, "want 2 clients after disconnect")
}

func TestHub_CancelClosesConnections(t *testing.T) {
	g := &gauge{}
	url, hub, cancel := startHub(t, &source{}, g)
	conn := dial(t, url)
	read(t, conn)
	eventually(t, func() bool { return hub.Count() == 1 }, "client never registered")

	cancel()
	eventually(t, func() bool { return hub.Count() == 0 && g.n.Load() == 0 }, "clients remain after cancel")
}

func TestHub_PlainHTTPRejected(t *testing.T) {
	hub := wsHub.New((&source{}).get, testInterval, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
