// Package server exposes HTTP handlers, including the WebSocket bridge into
// the line protocol, health checks, the room snapshot, and the test page.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// WebSocketHandler upgrades the request and registers the connection with
// the hub. Each text frame the client sends is handled as protocol lines.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	if _, err := h.register(newWSConn(conn, r.RemoteAddr, h.cfg.MaxLineSize)); err != nil {
		log.Printf("Rejected WebSocket connection from %s: %v", r.RemoteAddr, err)
	}
}

// RoomsHandler serves the current directory snapshot as JSON.
func (h *Hub) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newRoomsResponse(h.dir.Snapshot())); err != nil {
		log.Printf("Error writing rooms response: %v", err)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomchat server is running!")
}

// TestPageHandler serves an HTML page that speaks the line protocol over the
// WebSocket endpoint.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>roomchat</title>
    <style>
        body { font-family: monospace; margin: 20px; }
        #messages { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; white-space: pre-wrap; }
        #rooms { color: #555; }
        input[type="text"] { width: 400px; padding: 5px; }
    </style>
</head>
<body>
    <h1>roomchat</h1>
    <div id="rooms">/rooms</div>
    <div id="messages"></div>
    <input type="text" id="line" placeholder="/join lobby alice" disabled>
    <button id="connect" onclick="toggle()">Connect</button>

    <script>
        let ws = null;
        const messages = document.getElementById('messages');
        const rooms = document.getElementById('rooms');
        const line = document.getElementById('line');
        const button = document.getElementById('connect');

        function show(text) {
            const el = document.createElement('div');
            el.textContent = text;
            messages.appendChild(el);
            messages.scrollTop = messages.scrollHeight;
        }

        function toggle() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
                return;
            }
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { line.disabled = false; button.textContent = 'Disconnect'; };
            ws.onmessage = function(event) {
                if (event.data.startsWith('/rooms ')) {
                    rooms.textContent = event.data;
                } else {
                    show(event.data);
                }
            };
            ws.onclose = function() { show('Connection lost'); line.disabled = true; button.textContent = 'Connect'; ws = null; };
        }

        line.addEventListener('keypress', function(e) {
            if (e.key === 'Enter' && line.value.trim() && ws) {
                ws.send(line.value);
                show('> ' + line.value);
                line.value = '';
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
