// Package server coordinates client registration, room delivery, periodic
// room announcements, and connection cleanup via the Hub type.
package server

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// Hub is the connection lifecycle manager. It registers connections and
// starts their pumps, unregisters them exactly once, runs the periodic room
// announcer, and coordinates shutdown. All shared state lives in its
// Directory.
type Hub struct {
	cfg      Config
	dir      *Directory
	origins  originPolicy
	upgrader websocket.Upgrader

	mu      sync.Mutex
	running bool
	closing bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub for the given configuration. A nil cfg uses defaults.
// The returned Hub accepts connections immediately; Run starts the announcer.
func NewHub(cfg *Config) *Hub {
	if cfg == nil {
		cfg = NewConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cfg:    sanitizeConfig(*cfg),
		dir:    newDirectory(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.origins = newOriginPolicy(h.cfg.AllowedOrigins)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.checkOrigin,
	}
	return h
}

// Directory returns the hub's room directory.
func (h *Hub) Directory() *Directory {
	return h.dir
}

// Config returns the sanitized configuration the hub runs with.
func (h *Hub) Config() Config {
	cfg := h.cfg
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// ServeConn registers a raw stream connection, such as one accepted from a
// TCP listener, and starts its pumps.
func (h *Hub) ServeConn(conn net.Conn) (*Client, error) {
	return h.register(newTCPConn(conn, h.cfg.MaxLineSize))
}

func (h *Hub) register(conn lineConn) (*Client, error) {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		h.rejectConn(conn)
		return nil, ErrHubClosed
	}
	h.wg.Add(2)
	h.mu.Unlock()

	client := newClient(conn, h)
	total, err := h.dir.add(client)
	if err != nil {
		h.wg.Add(-2)
		h.rejectConn(conn)
		return nil, err
	}
	log.Printf("Client registered from %s. Total clients: %d", client.addr, total)

	h.sendTo(client, protocol.Welcome())

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	return client, nil
}

func (h *Hub) rejectConn(conn lineConn) {
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing rejected connection from %s: %v", conn.RemoteAddr(), err)
	}
}

// Unregister removes c from the directory, closes its outbound queue, and
// tells its former room that it left. Calls after the first are no-ops.
// It reports the room the client was in.
func (h *Hub) Unregister(c *Client) (string, bool) {
	name, room, remaining, ok := h.dir.remove(c)
	if !ok {
		return "", false
	}

	// The write pump flushes what is queued, then closes the transport.
	close(c.send)
	log.Printf("Client unregistered from %s. Total clients: %d", c.addr, remaining)

	if room != "" {
		h.broadcastToRoom(room, protocol.Left(name), nil)
	}
	return room, true
}

// Run starts the hub's main loop, which drives the periodic room announcer
// until Shutdown is called. It should be called in a separate goroutine.
func (h *Hub) Run() {
	h.mu.Lock()
	if h.running || h.closing {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	defer close(h.done)

	ticker := time.NewTicker(h.cfg.AnnounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return
		case <-ticker.C:
			h.announceRooms()
		}
	}
}

// shutdownClients tells every client the server is going away and closes
// their queues so each write pump flushes and closes its connection.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	clients := h.dir.drain(protocol.Frame(protocol.Info("Server is shutting down.")))
	for _, c := range clients {
		close(c.send)
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.mu.Lock()
	h.closing = true
	running := h.running
	h.mu.Unlock()

	h.cancel()

	if running {
		<-h.done
	} else {
		h.shutdownClients()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// Done is closed when the hub's context is cancelled.
func (h *Hub) Done() <-chan struct{} {
	return h.ctx.Done()
}
