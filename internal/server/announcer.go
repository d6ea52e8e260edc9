package server

import "github.com/Tyrowin/roomchat/internal/protocol"

// announceRooms pushes the current room occupancy to every client. Clients
// that cannot take the line are unregistered; the sweep continues.
func (h *Hub) announceRooms() int {
	return h.broadcastAll(protocol.RoomsLine(h.dir.Snapshot()))
}
