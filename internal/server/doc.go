// Package server implements the multi-room chat server: the room directory,
// connection lifecycle, broadcast delivery, the periodic room announcer, and
// the TCP and HTTP/WebSocket front doors.
//
// The implementation is organized into specialized files for configuration,
// directory state, hub lifecycle, clients and transports, command dispatch,
// and HTTP handlers.
package server
