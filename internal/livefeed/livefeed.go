// Package livefeed republishes decode events over WebSocket connections,
// grounded on the teacher's websocket.go connection-registry pattern. It
// never blocks the Pipeline: a slow client's send is dropped rather than
// allowed to stall the decode path.
package livefeed

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the JSON envelope broadcast to connected clients, one per
// Pipeline callback invocation.
type Event struct {
	Kind      string `json:"kind"` // "mode_detected" | "line_decoded" | "image_complete"
	Mode      string `json:"mode,omitempty"`
	LineIndex int    `json:"line_index,omitempty"`
	Pixels    []byte `json:"pixels,omitempty"` // flattened R,G,B triples
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Broadcaster fans Events out to every connected client.
type Broadcaster struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]chan []byte
}

// NewBroadcaster creates an empty connection registry.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{conns: make(map[*websocket.Conn]chan []byte)}
}

// ServeHTTP upgrades the connection and registers it for broadcasts
// until the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	out := make(chan []byte, 32)
	b.mu.Lock()
	b.conns[conn] = out
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	for msg := range out {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Publish serializes and fans an Event out to every connected client.
// A client whose outbound buffer is full is dropped for this message
// rather than blocking the caller.
func (b *Broadcaster) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.conns {
		select {
		case ch <- data:
		default:
		}
	}
}
