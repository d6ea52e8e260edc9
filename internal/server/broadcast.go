package server

import (
	"log"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// broadcastToRoom queues msg for every member of room except exclude and
// returns how many members accepted it. Members whose queue is full are
// unregistered once the directory lock has been released.
func (h *Hub) broadcastToRoom(room, msg string, exclude *Client) int {
	delivered, failed := h.dir.deliverRoom(room, protocol.Frame(msg), exclude)
	h.removeFailedClients(failed)
	return delivered
}

// broadcastAll queues msg for every registered client.
func (h *Hub) broadcastAll(msg string) int {
	delivered, failed := h.dir.deliverAll(protocol.Frame(msg))
	h.removeFailedClients(failed)
	return delivered
}

// sendPrivate delivers a direct message to the client registered as
// recipient. It reports false when no such client exists or its connection
// has already failed.
func (h *Hub) sendPrivate(sender, recipient, text string) bool {
	target, ok := h.dir.deliverName(recipient, protocol.Frame(protocol.PrivateMessage(sender, text)))
	if target == nil {
		return false
	}
	if !ok {
		h.removeFailedClients([]*Client{target})
		return false
	}
	return true
}

// sendTo queues a reply for a single client.
func (h *Hub) sendTo(c *Client, msg string) bool {
	if h.dir.deliverTo(c, protocol.Frame(msg)) {
		return true
	}
	h.removeFailedClients([]*Client{c})
	return false
}

// removeFailedClients unregisters clients that could not take a message.
// It must not be called with the directory lock held.
func (h *Hub) removeFailedClients(clients []*Client) {
	for _, c := range clients {
		if _, ok := h.Unregister(c); ok {
			log.Printf("Client from %s removed due to full send buffer", c.addr)
		}
	}
}
