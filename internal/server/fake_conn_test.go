package server

import (
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

const testTimeout = 2 * time.Second

// fakeConn is an in-memory lineConn. Tests push lines into in and read the
// frames the write pump produced from out.
type fakeConn struct {
	addr      string
	in        chan string
	out       chan string
	closed    chan struct{}
	closeOnce sync.Once
	failWrite atomic.Bool
}

func newFakeConn(addr string) *fakeConn {
	return &fakeConn{
		addr:   addr,
		in:     make(chan string, 16),
		out:    make(chan string, 512),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadLine() (string, error) {
	select {
	case line := <-f.in:
		return line, nil
	case <-f.closed:
		return "", net.ErrClosed
	}
}

func (f *fakeConn) WriteFrame(payload []byte) error {
	if f.failWrite.Load() {
		return errors.New("write: broken pipe")
	}
	select {
	case f.out <- string(payload):
		return nil
	case <-f.closed:
		return net.ErrClosed
	}
}

func (f *fakeConn) Ping() error {
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) RemoteAddr() string {
	return f.addr
}

func (f *fakeConn) send(lines ...string) {
	for _, line := range lines {
		f.in <- line
	}
}

// nextFrame returns the next frame without its final newline.
func (f *fakeConn) nextFrame(t *testing.T) string {
	t.Helper()
	select {
	case frame := <-f.out:
		return strings.TrimSuffix(frame, "\n")
	case <-time.After(testTimeout):
		t.Fatalf("%s: timed out waiting for a frame", f.addr)
		return ""
	}
}

// next returns the next frame that is not a /rooms announcement.
func (f *fakeConn) next(t *testing.T) string {
	t.Helper()
	for {
		frame := f.nextFrame(t)
		if !strings.HasPrefix(frame, protocol.RoomsPrefix) {
			return frame
		}
	}
}

func (f *fakeConn) expect(t *testing.T, want string) {
	t.Helper()
	if got := f.next(t); got != want {
		t.Fatalf("%s: got %q, want %q", f.addr, got, want)
	}
}

// expectNothing fails if a non-announcement frame arrives within d.
func (f *fakeConn) expectNothing(t *testing.T, d time.Duration) {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case frame := <-f.out:
			if !strings.HasPrefix(frame, protocol.RoomsPrefix) {
				t.Fatalf("%s: expected no message, got %q", f.addr, frame)
			}
		case <-deadline:
			return
		}
	}
}

func (f *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(testTimeout):
		t.Fatalf("%s: connection was not closed", f.addr)
	}
}

func newTestHub(t *testing.T, customize func(cfg *Config)) *Hub {
	t.Helper()
	cfg := NewConfig()
	cfg.AnnounceInterval = time.Hour
	if customize != nil {
		customize(cfg)
	}
	h := NewHub(cfg)
	go h.Run()
	t.Cleanup(func() {
		_ = h.Shutdown(testTimeout)
	})
	return h
}

func connectFake(t *testing.T, h *Hub, addr string) (*Client, *fakeConn) {
	t.Helper()
	f := newFakeConn(addr)
	c, err := h.register(f)
	if err != nil {
		t.Fatalf("register %s: %v", addr, err)
	}
	f.expect(t, protocol.Welcome())
	return c, f
}

// eventually polls cond until it holds or the test timeout passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
