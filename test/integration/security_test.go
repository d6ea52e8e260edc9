package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/test/testhelpers"
)

// TestOversizedLineDisconnects verifies that a line longer than the
// configured maximum drops the sender without affecting the room.
func TestOversizedLineDisconnects(t *testing.T) {
	ts := testhelpers.StartServer(t, func(cfg *server.Config) {
		cfg.MaxLineSize = 128
	})

	stay := dialAndGreet(t, ts)
	flood := dialAndGreet(t, ts)
	joinRoom(t, stay, "lobby", "stay")
	joinRoom(t, flood, "lobby", "flood", stay)

	_ = flood.Send(strings.Repeat("x", 1024))
	testhelpers.Expect(t, stay, "[INFO] flood has left the room")

	for {
		if _, err := flood.ReadLine(); err != nil {
			break
		}
	}
}

func TestOversizedWebSocketFrameDisconnects(t *testing.T) {
	ts := testhelpers.StartServer(t, func(cfg *server.Config) {
		cfg.MaxLineSize = 128
	})

	stay := dialAndGreet(t, ts)
	joinRoom(t, stay, "lobby", "stay")
	ws := testhelpers.DialWebSocket(t, ts.WebSocketURL())
	testhelpers.Expect(t, ws, welcomeLine)
	joinRoom(t, ws, "lobby", "flood", stay)

	_ = ws.Send(strings.Repeat("x", 1024))
	testhelpers.Expect(t, stay, "[INFO] flood has left the room")
}

func TestRateLimitDiscardsExcessLines(t *testing.T) {
	ts := testhelpers.StartServer(t, func(cfg *server.Config) {
		cfg.RateLimit.Burst = 3
		cfg.RateLimit.RefillInterval = time.Hour
	})

	sender := dialAndGreet(t, ts)
	listener := dialAndGreet(t, ts)
	joinRoom(t, listener, "lobby", "listener")
	joinRoom(t, sender, "lobby", "sender", listener)

	// The join used one token.
	for _, line := range []string{"one", "two", "three"} {
		if err := sender.Send(line); err != nil {
			t.Fatalf("Failed to send: %v", err)
		}
	}

	testhelpers.Expect(t, listener, "sender: one")
	testhelpers.Expect(t, listener, "sender: two")
	testhelpers.Expect(t, sender, "[ERROR] Rate limit exceeded; message discarded.")

	if err := sender.Send("/quit"); err != nil {
		t.Fatalf("Failed to send quit: %v", err)
	}
	testhelpers.Expect(t, listener, "[INFO] sender has left the room")
}
