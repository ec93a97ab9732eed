package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/homestack/toolhub/internal/metrics"
)

// ExecutionEvent is streamed to watch clients after every tool
// invocation.
type ExecutionEvent struct {
	Type       string `json:"type"`
	Seq        int64  `json:"seq"`
	Tool       string `json:"tool"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	Source     string `json:"source"`
	Timestamp  int64  `json:"timestamp"`
}

type watchClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *watchClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Broadcaster fans execution events out to connected watch clients.
// Slow or dead clients are dropped, never waited on.
type Broadcaster struct {
	clients map[string]*watchClient
	mu      sync.RWMutex
	seq     uint64
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(logger zerolog.Logger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*watchClient),
		logger:  logger,
		metrics: m,
	}
}

// BroadcastExecution sends an event to all connected clients.
func (b *Broadcaster) BroadcastExecution(event ExecutionEvent) {
	event.Type = "execution"
	event.Seq = int64(atomic.AddUint64(&b.seq, 1))
	event.Timestamp = time.Now().UnixMilli()

	b.mu.RLock()
	clients := make([]*watchClient, 0, len(b.clients))
	for _, client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(event); err != nil {
			b.logger.Warn().
				Err(err).
				Str("client_id", client.id).
				Str("tool", event.Tool).
				Msg("Failed to broadcast to client, dropping")
			b.remove(client.id)
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// CloseAll disconnects every client.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, client := range b.clients {
		client.conn.Close()
		delete(b.clients, id)
	}
	if b.metrics != nil {
		b.metrics.WatchClientsActive.Set(0)
	}
}

func (b *Broadcaster) add(client *watchClient) {
	b.mu.Lock()
	b.clients[client.id] = client
	count := len(b.clients)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.WatchClientsActive.Set(float64(count))
	}
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	if client, ok := b.clients[id]; ok {
		client.conn.Close()
		delete(b.clients, id)
	}
	count := len(b.clients)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.WatchClientsActive.Set(float64(count))
	}
}

var watchUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWatch upgrades the connection and streams execution events until
// the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade watch connection")
		return
	}

	clientID, err := gonanoid.New()
	if err != nil {
		clientID = r.RemoteAddr
	}

	client := &watchClient{id: clientID, conn: conn}
	s.broadcaster.add(client)

	s.logger.Info().
		Str("client_id", clientID).
		Str("ip", r.RemoteAddr).
		Msg("Watch client connected")

	// The feed is one-way; reads only surface client disconnects.
	go func() {
		defer func() {
			s.broadcaster.remove(clientID)
			s.logger.Info().Str("client_id", clientID).Msg("Watch client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
