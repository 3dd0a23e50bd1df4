package feed

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func dialClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		NewClient(hub, conn, quietLogger()).Start()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub, _ := startHub(t)

	conn := dialClient(t, hub)
	waitForClients(t, hub, 1)

	hub.Broadcast(MessageTypePostUpdate, map[string]interface{}{"postId": "p1"})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != MessageTypePostUpdate {
		t.Fatalf("message type = %q, want %q", msg.Type, MessageTypePostUpdate)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["postId"] != "p1" {
		t.Fatalf("unexpected payload: %+v", msg.Data)
	}
}

func TestHubFanOut(t *testing.T) {
	hub, _ := startHub(t)

	connA := dialClient(t, hub)
	connB := dialClient(t, hub)
	waitForClients(t, hub, 2)

	hub.Broadcast(MessageTypePostUpdate, map[string]interface{}{"postId": "p2"})

	for _, conn := range []*websocket.Conn{connA, connB} {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read broadcast: %v", err)
		}
		if msg.Type != MessageTypePostUpdate {
			t.Fatalf("message type = %q", msg.Type)
		}
	}
}

func TestHubDisconnect(t *testing.T) {
	hub, _ := startHub(t)

	conn := dialClient(t, hub)
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	conn := dialClient(t, hub)
	waitForClients(t, hub, 1)

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
