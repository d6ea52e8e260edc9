package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

// Listen opens the TCP listener for the line protocol.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve accepts connections from ln and registers each with the hub until
// the listener is closed or the hub shuts down. It returns nil on a clean stop.
func (h *Hub) Serve(ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-h.ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	fmt.Printf("Chat server listening on %s\n", ln.Addr())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				backoff = nextBackoff(backoff)
				log.Printf("Accept error: %v; retrying in %s", err, backoff)
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		if _, err := h.ServeConn(conn); err != nil {
			log.Printf("Rejected connection from %s: %v", conn.RemoteAddr(), err)
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
