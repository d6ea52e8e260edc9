// Package server manages individual chat connections, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// Client represents one connection in the chat system. It owns the transport,
// the outbound queue drained by its write pump, and its rate limiter.
//
// name, room and closed are guarded by the hub directory's lock.
type Client struct {
	id          string
	conn        lineConn
	send        chan []byte
	hub         *Hub
	addr        string
	rateLimiter *rateLimiter
	rateLimit   RateLimitConfig

	name   string
	room   string
	closed bool
}

func newClient(conn lineConn, hub *Hub) *Client {
	return &Client{
		id:          uuid.Must(uuid.NewV4()).String(),
		conn:        conn,
		send:        make(chan []byte, hub.cfg.SendBufferSize),
		hub:         hub,
		addr:        conn.RemoteAddr(),
		rateLimiter: newClientRateLimiter(hub.cfg.RateLimit),
		rateLimit:   hub.cfg.RateLimit,
	}
}

func newClientRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.Burst <= 0 {
		return nil
	}
	return newRateLimiter(cfg)
}

// ID returns the server-assigned connection id.
func (c *Client) ID() string {
	return c.id
}

// Addr returns the remote host:port of the connection.
func (c *Client) Addr() string {
	return c.addr
}

// label is the display name, or host:port before one is assigned.
// Callers must hold the directory lock.
func (c *Client) label() string {
	if c.name != "" {
		return c.name
	}
	return c.addr
}

// trySend queues payload without blocking. Callers must hold the directory
// lock, which orders it against closing the send channel.
func (c *Client) trySend(payload []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in trySend for %s: %v", c.addr, r)
			ok = false
		}
	}()

	if c.closed {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// handleReadError logs the reason the read loop is ending.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, errLineTooLong):
		log.Printf("Line from %s exceeded maximum size of %d bytes", c.addr, c.hub.cfg.MaxLineSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	default:
		log.Printf("Read error from %s: %v", c.addr, err)
	}
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the line should be processed. Clients without a
// limiter are never throttled.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		log.Printf("Rate limit exceeded for %s (%d lines per %s); discarding line", c.addr, c.rateLimit.Burst, c.rateLimit.RefillInterval)
		return false
	}
	return true
}

func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			c.handleReadError(err)
			return
		}

		line = protocol.TrimLine(line)
		if line == "" {
			log.Printf("Client %s sent an empty line; treating as end of stream", c.addr)
			return
		}

		if !c.hub.handleLine(c, line) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing. A closed send channel means the client was
// unregistered; everything queued before that has already been written.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		if !ok {
			return false
		}
		return c.writeMessage(message)
	case <-ticker.C:
		return c.handlePing()
	}
}

func (c *Client) writeMessage(message []byte) bool {
	if err := c.conn.WriteFrame(message); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing message to %s: %v", c.addr, err)
		}
		return false
	}
	return true
}

// handlePing keeps transports with a keepalive alive.
func (c *Client) handlePing() bool {
	if err := c.conn.Ping(); err != nil {
		log.Printf("Error writing ping message to %s: %v", c.addr, err)
		return false
	}
	return true
}

// closeConnection closes the transport; the blocked read pump then fails and
// runs the unregister path if it has not run already.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection for %s: %v", c.addr, err)
		}
	}
}
