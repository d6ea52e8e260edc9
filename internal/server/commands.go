package server

import (
	"errors"
	"log"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// handleLine parses and executes one inbound line for c. It returns false
// when the session should end.
func (h *Hub) handleLine(c *Client, line string) bool {
	cmd, err := protocol.Parse(line)
	if err != nil {
		var usageErr *protocol.UsageError
		if errors.As(err, &usageErr) {
			h.sendTo(c, protocol.Error("Usage: %s", usageErr.Usage))
		} else {
			log.Printf("Invalid line from %s: %v", c.addr, err)
		}
		return true
	}

	if _, quit := cmd.(protocol.Quit); !quit && !c.checkRateLimit() {
		h.sendTo(c, protocol.Error("Rate limit exceeded; message discarded."))
		return true
	}

	switch cmd := cmd.(type) {
	case protocol.Join:
		h.handleJoin(c, cmd)
	case protocol.Quit:
		log.Printf("Client %s quit", c.addr)
		return false
	case protocol.Private:
		h.handlePrivate(c, cmd)
	case protocol.Help:
		h.sendTo(c, protocol.HelpText)
	case protocol.ListRooms:
		h.sendTo(c, protocol.RoomListing(h.dir.Snapshot()))
	case protocol.Chat:
		h.handleChat(c, cmd)
	default:
		log.Printf("Unhandled command %T from %s", cmd, c.addr)
	}
	return true
}

func (h *Hub) handleJoin(c *Client, cmd protocol.Join) {
	res, err := h.dir.join(c, cmd.Room, cmd.Name)
	switch {
	case errors.Is(err, ErrNameTaken):
		h.sendTo(c, protocol.Error("Name '%s' is already taken.", res.name))
		return
	case err != nil:
		log.Printf("Join from %s rejected: %v", c.addr, err)
		return
	}

	if res.previous != "" && res.previous != cmd.Room {
		h.broadcastToRoom(res.previous, protocol.Left(res.oldName), nil)
	}

	log.Printf("Client %s joined room %s as %s", c.addr, cmd.Room, res.name)
	h.broadcastToRoom(cmd.Room, protocol.Joined(res.name, cmd.Room), nil)
	h.sendTo(c, protocol.RoomsLine(h.dir.Snapshot()))
}

func (h *Hub) handlePrivate(c *Client, cmd protocol.Private) {
	sender, _ := h.dir.identity(c)
	if !h.sendPrivate(sender, cmd.Recipient, cmd.Text) {
		h.sendTo(c, protocol.UserNotFound(cmd.Recipient))
	}
}

func (h *Hub) handleChat(c *Client, cmd protocol.Chat) {
	name, room := h.dir.identity(c)
	if room == "" {
		h.sendTo(c, protocol.Error("You are not in a room. Use /join <room> [name] first."))
		return
	}
	h.broadcastToRoom(room, protocol.ChatMessage(name, cmd.Text), c)
}
