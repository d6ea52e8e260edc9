package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var errLineTooLong = errors.New("line exceeds maximum size")

// lineConn is the transport under a Client. ReadLine is called only by the
// read pump; WriteFrame and Ping only by the write pump. Close may be called
// from anywhere.
type lineConn interface {
	ReadLine() (string, error)
	WriteFrame(payload []byte) error
	Ping() error
	Close() error
	RemoteAddr() string
}

// tcpConn speaks the protocol over a raw stream: one line per '\n'.
type tcpConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newTCPConn(conn net.Conn, maxLineSize int64) *tcpConn {
	initial := 4096
	if int64(initial) > maxLineSize {
		initial = int(maxLineSize)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, initial), int(maxLineSize))
	return &tcpConn{conn: conn, scanner: scanner}
}

func (t *tcpConn) ReadLine() (string, error) {
	if t.scanner.Scan() {
		return t.scanner.Text(), nil
	}
	err := t.scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return "", errLineTooLong
	}
	if err == nil {
		err = io.EOF
	}
	return "", err
}

func (t *tcpConn) WriteFrame(payload []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	_, err := t.conn.Write(payload)
	return err
}

// Ping is a no-op: a dead TCP peer is detected by the next read or write.
func (t *tcpConn) Ping() error {
	return nil
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// wsConn speaks the protocol over WebSocket text frames. Every line of an
// inbound frame is a protocol line; every outbound payload is one frame
// without its final newline.
type wsConn struct {
	conn    *websocket.Conn
	addr    string
	pending []string
}

func newWSConn(conn *websocket.Conn, addr string, maxLineSize int64) *wsConn {
	conn.SetReadLimit(maxLineSize)
	w := &wsConn{conn: conn, addr: addr}
	w.setupReadConnection()
	return w
}

// setupReadConnection configures read deadlines and the pong handler.
func (w *wsConn) setupReadConnection() {
	if err := w.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", w.addr, err)
	}
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (w *wsConn) ReadLine() (string, error) {
	for len(w.pending) == 0 {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return "", errLineTooLong
			}
			return "", err
		}
		w.pending = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}
	line := w.pending[0]
	w.pending = w.pending[1:]
	return line, nil
}

func (w *wsConn) WriteFrame(payload []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, bytes.TrimSuffix(payload, []byte{'\n'}))
}

func (w *wsConn) Ping() error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close sends a close frame before closing the socket.
func (w *wsConn) Close() error {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := w.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error writing close message to %s: %v", w.addr, err)
	}
	return w.conn.Close()
}

func (w *wsConn) RemoteAddr() string {
	return w.addr
}
