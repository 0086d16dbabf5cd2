package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/infrastructure"
	"github.com/smperez989-stack/IWA-SMDashboard/pkg/contracts/events"
)

// Event types pushed to dashboards.
const (
	TypeConnection      = events.TypeConnection
	TypeDatasetReplaced = events.TypeDatasetReplaced
)

// broadcastBuffer bounds pending broadcasts; overflow is dropped and logged.
const broadcastBuffer = 64

// Message is the JSON envelope of every event.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub fans events out to connected clients. The client set is owned by the
// Run goroutine; everything else talks to it through channels.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	quit     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	count   atomic.Int64
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewHub creates a hub. metrics may be nil.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start runs the hub loop in a new goroutine. Later calls do nothing.
func (h *Hub) Start() {
	if h.started.CompareAndSwap(false, true) {
		go h.run()
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))

			ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if msg, err := encode(TypeConnection, events.Connection{
				ClientID: client.id,
				Protocol: events.ProtocolName,
				Version:  events.ProtocolVersion,
			}, client.traceID); err == nil {
				select {
				case client.send <- msg:
				default:
				}
			}

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.Info("Client unregistered",
					slog.Int("total_clients", len(h.clients)),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			sent := 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sent++
				default:
					h.logger.Warn("Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
					h.drop(client)
				}
			}
			h.logger.Debug("Broadcast delivered",
				slog.Int("clients", sent),
				slog.Int("message_size", len(message)))
		}
	}
}

// drop removes client and closes its send channel, which ends its write pump.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	prev := h.count.Swap(int64(n))
	if h.metrics != nil && prev != int64(n) {
		h.metrics.WebSocketClients.Add(context.Background(), int64(n)-prev)
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends an event to every connected client. It never blocks;
// events are dropped when the hub is stopped or backlogged.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	h.BroadcastWithTrace(eventType, data, "")
}

// BroadcastWithTrace is Broadcast with a trace ID on the envelope.
func (h *Hub) BroadcastWithTrace(eventType string, data interface{}, traceID string) {
	msg, err := encode(eventType, data, traceID)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", eventType))
		return
	}

	select {
	case <-h.quit:
		return
	default:
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Broadcast queue full, dropping event",
			slog.String("message_type", eventType))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Stop closes every client and stops the loop. It waits for the loop to
// exit when the hub was started.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
	if h.started.Load() {
		<-h.done
	}
}

func encode(eventType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
	})
}
