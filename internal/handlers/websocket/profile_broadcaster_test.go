package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Afonso017/fraud-detector/internal/app/dto"
	"github.com/Afonso017/fraud-detector/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (b *ProfileBroadcaster) clientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func dialTestServer(t *testing.T, b *ProfileBroadcaster) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(b.Handler()))
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial failed: %v", err)
	}
	waitFor(t, func() bool { return b.clientCount() == 1 })
	return ts, conn
}

func TestBroadcastDeliversToConnectedClient(t *testing.T) {
	b := NewProfileBroadcaster(testLogger())
	ts, conn := dialTestServer(t, b)
	defer ts.Close()
	defer conn.Close()

	b.BroadcastProfile(&model.UserProfile{
		UserID:           "u1",
		TransactionCount: 3,
		AverageAmount:    120.5,
		LastKnownCountry: "BRA",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var profile dto.UserProfileDTO
	if err := json.Unmarshal(payload, &profile); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if profile.UserID != "u1" || profile.TransactionCount != 3 || profile.AverageAmount != 120.5 {
		t.Fatalf("unexpected profile payload: %+v", profile)
	}
}

func TestBroadcastNeverBlocksOnSlowClient(t *testing.T) {
	b := NewProfileBroadcaster(testLogger())

	// A client whose queue is tiny and never drained.
	slow := &client{send: make(chan []byte, 1)}
	b.clients[slow] = struct{}{}

	profile := &model.UserProfile{UserID: "u1", TransactionCount: 1, AverageAmount: 100}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.BroadcastProfile(profile)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	if got := len(slow.send); got != 1 {
		t.Fatalf("expected 1 queued update, got %d", got)
	}
}

func TestDisconnectUnregistersClient(t *testing.T) {
	b := NewProfileBroadcaster(testLogger())
	ts, conn := dialTestServer(t, b)
	defer ts.Close()

	conn.Close()
	waitFor(t, func() bool { return b.clientCount() == 0 })

	// Broadcasting to an empty client set is a no-op.
	b.BroadcastProfile(&model.UserProfile{UserID: "u1"})
}
