// Package server wires HTTP handlers into a ServeMux for the chat
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// It sets up handlers for health check, the WebSocket bridge into hub, the
// JSON room snapshot, and the test page.
func SetupRoutes(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", h.WebSocketHandler)
	mux.HandleFunc("/rooms", h.RoomsHandler)
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
