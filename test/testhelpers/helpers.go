// Package testhelpers provides common utilities and helper functions for testing the roomchat server.
//
// It starts a complete server on loopback addresses (hub, TCP listener, and
// HTTP routes) and offers line clients for both the raw TCP protocol and the
// WebSocket bridge, so integration tests read like a terminal session.
package testhelpers

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/gorilla/websocket"
)

// TestOrigin is the Origin header WebSocket clients send by default.
const TestOrigin = "http://localhost:8080"

// Timeout bounds every blocking read a helper performs.
const Timeout = 3 * time.Second

// TestServer is a running hub with both transports attached.
type TestServer struct {
	Hub      *server.Hub
	Addr     string
	HTTP     *httptest.Server
	listener net.Listener
}

// StartServer starts a hub, a TCP listener on an ephemeral port, and an HTTP
// test server. The periodic announcer is slowed down unless customize changes
// it. Everything is torn down when the test ends.
func StartServer(t *testing.T, customize func(cfg *server.Config)) *TestServer {
	t.Helper()

	cfg := server.NewConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.AnnounceInterval = time.Hour
	if customize != nil {
		customize(cfg)
	}

	hub := server.NewHub(cfg)
	go hub.Run()

	ln, err := server.Listen(cfg.ListenAddr)
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		if err := hub.Serve(ln); err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	}()

	ts := &TestServer{
		Hub:      hub,
		Addr:     ln.Addr().String(),
		HTTP:     httptest.NewServer(server.SetupRoutes(hub)),
		listener: ln,
	}
	t.Cleanup(func() {
		ts.HTTP.Close()
		_ = hub.Shutdown(5 * time.Second)
		_ = ln.Close()
	})
	return ts
}

// WebSocketURL returns the ws:// address of the bridge endpoint.
func (ts *TestServer) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(ts.HTTP.URL, "http") + "/ws"
}

// LineClient is one side of a chat session, regardless of transport.
type LineClient interface {
	Send(line string) error
	ReadLine() (string, error)
	Close() error
}

// TCPClient speaks the raw line protocol.
type TCPClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

// DialTCP connects to the chat listener.
func DialTCP(t *testing.T, addr string) *TCPClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, Timeout)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", addr, err)
	}
	c := &TCPClient{conn: conn, reader: bufio.NewReader(conn)}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Send writes line followed by a newline.
func (c *TCPClient) Send(line string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(Timeout))
	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

// SendRaw writes data as-is.
func (c *TCPClient) SendRaw(data string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(Timeout))
	_, err := c.conn.Write([]byte(data))
	return err
}

// ReadLine returns the next line without its terminator.
func (c *TCPClient) ReadLine() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(Timeout))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// ReadLineWithin is ReadLine with a custom deadline.
func (c *TCPClient) ReadLineWithin(d time.Duration) (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(d))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Close closes the connection.
func (c *TCPClient) Close() error {
	return c.conn.Close()
}

// WSClient speaks the line protocol over the WebSocket bridge. Each frame
// carries one line with no trailing newline.
type WSClient struct {
	conn *websocket.Conn
}

// ConnectWebSocket creates a WebSocket connection to the specified URL using
// the given Origin header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// DialWebSocket connects to the bridge endpoint with TestOrigin.
func DialWebSocket(t *testing.T, url string) *WSClient {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, TestOrigin)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket %s: %v", url, err)
	}
	c := &WSClient{conn: conn}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Send writes line as a single text frame.
func (c *WSClient) Send(line string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(Timeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// ReadLine returns the payload of the next frame.
func (c *WSClient) ReadLine() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(Timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close sends a close frame and closes the connection.
func (c *WSClient) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// NextMessage returns the next line that is not a /rooms announcement.
func NextMessage(t *testing.T, c LineClient) string {
	t.Helper()
	for {
		line, err := c.ReadLine()
		if err != nil {
			t.Fatalf("Failed to read line: %v", err)
		}
		if !strings.HasPrefix(line, "/rooms ") {
			return line
		}
	}
}

// Expect fails the test unless the next non-announcement line equals want.
func Expect(t *testing.T, c LineClient, want string) {
	t.Helper()
	if got := NextMessage(t, c); got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

// ExpectRooms reads until the next /rooms announcement and returns it.
func ExpectRooms(t *testing.T, c LineClient) string {
	t.Helper()
	for {
		line, err := c.ReadLine()
		if err != nil {
			t.Fatalf("Failed to read /rooms line: %v", err)
		}
		if strings.HasPrefix(line, "/rooms ") {
			return line
		}
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}
