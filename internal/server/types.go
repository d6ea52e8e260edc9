// Package server defines shared payload types and utility helpers that are
// reused across client, hub and handler logic.
package server

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// RoomSummary is one room in the JSON snapshot served over HTTP.
type RoomSummary struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Count   int      `json:"count"`
}

// RoomsResponse is the body of GET /rooms.
type RoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

func newRoomsResponse(rooms []protocol.RoomInfo) RoomsResponse {
	resp := RoomsResponse{Rooms: make([]RoomSummary, 0, len(rooms))}
	for _, r := range rooms {
		resp.Rooms = append(resp.Rooms, RoomSummary{
			Name:    r.Name,
			Members: r.Members,
			Count:   len(r.Members),
		})
	}
	return resp
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
