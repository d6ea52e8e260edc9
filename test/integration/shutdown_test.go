package integration

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/test/testhelpers"
)

const shutdownLine = "[INFO] Server is shutting down."

// TestGracefulShutdownWithClients verifies that every client hears the
// shutdown notice before its connection is closed.
func TestGracefulShutdownWithClients(t *testing.T) {
	ts := testhelpers.StartServer(t, nil)

	tcp := dialAndGreet(t, ts)
	joinRoom(t, tcp, "lobby", "alice")
	idle := dialAndGreet(t, ts)
	ws := testhelpers.DialWebSocket(t, ts.WebSocketURL())
	testhelpers.Expect(t, ws, welcomeLine)

	done := make(chan error, 1)
	go func() {
		done <- ts.Hub.Shutdown(5 * time.Second)
	}()

	for _, c := range []testhelpers.LineClient{tcp, idle, ws} {
		testhelpers.Expect(t, c, shutdownLine)
		if line, err := c.ReadLine(); err == nil {
			t.Errorf("Expected connection to close, read %q", line)
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Hub shutdown failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Shutdown timeout exceeded")
	}
}

func TestShutdownStopsAccepting(t *testing.T) {
	ts := testhelpers.StartServer(t, nil)

	if err := ts.Hub.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Hub shutdown failed: %v", err)
	}

	conn, err := net.DialTimeout("tcp", ts.Addr, time.Second)
	if err != nil {
		return
	}
	defer conn.Close()

	// A connection accepted in the instant before the listener closed gets
	// dropped without a welcome.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 256)
	n, _ := conn.Read(buf)
	if strings.HasPrefix(string(buf[:n]), "[INFO] Welcome") {
		t.Error("Connection was welcomed after shutdown")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	ts := testhelpers.StartServer(t, nil)

	for i := 0; i < 2; i++ {
		if err := ts.Hub.Shutdown(5 * time.Second); err != nil {
			t.Fatalf("Shutdown #%d failed: %v", i+1, err)
		}
	}
}
