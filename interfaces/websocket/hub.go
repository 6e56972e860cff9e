package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"flowbuilder/application/ports"
	"flowbuilder/domain/events"
)

// Message types pushed to clients besides flow event types
const (
	TypeConnectionEstablished = "connection.established"
	TypeNotificationPublished = "notification.published"
	TypeNotificationCleared   = "notification.cleared"
)

// ErrHubStopped is returned when broadcasting after Stop
var ErrHubStopped = errors.New("websocket hub stopped")

// Message is the envelope every client receives
type Message struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// HubMetrics counts hub activity
type HubMetrics struct {
	ActiveConnections int64 `json:"activeConnections"`
	MessagesSent      int64 `json:"messagesSent"`
	MessagesDropped   int64 `json:"messagesDropped"`
}

// Hub fans flow events and notifications out to every connected editor
type Hub struct {
	clients map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	sent    atomic.Int64
	dropped atomic.Int64

	now    func() time.Time
	logger *zap.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		now:        time.Now,
		logger:     logger,
	}
}

// Run serves the hub until ctx ends or Stop is called
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.Stop()
		h.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case data := <-h.broadcast:
			h.fanOut(data)
		}
	}
}

// Stop ends Run and closes every connection
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues a message for every client. It never blocks on slow
// clients; a full queue drops the message.
func (h *Hub) Broadcast(msgType string, data interface{}) error {
	payload, err := h.encode(msgType, data)
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrHubStopped
	case h.broadcast <- payload:
		return nil
	default:
		h.dropped.Add(1)
		return fmt.Errorf("broadcast queue full, %s dropped", msgType)
	}
}

// Handle pushes a flow event to clients
func (h *Hub) Handle(ctx context.Context, event events.DomainEvent) error {
	return h.Broadcast(event.GetEventType(), event)
}

// CanHandle accepts every flow event
func (h *Hub) CanHandle(eventType string) bool {
	return true
}

// NotificationPublished pushes the new notification to clients
func (h *Hub) NotificationPublished(ctx context.Context, n ports.Notification) {
	if err := h.Broadcast(TypeNotificationPublished, n); err != nil {
		h.logger.Warn("Failed to push notification", zap.Error(err))
	}
}

// NotificationCleared tells clients the notification is gone
func (h *Hub) NotificationCleared(ctx context.Context) {
	if err := h.Broadcast(TypeNotificationCleared, struct{}{}); err != nil {
		h.logger.Warn("Failed to push notification clear", zap.Error(err))
	}
}

// ConnectionCount returns the number of registered clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Metrics returns a snapshot of the hub counters
func (h *Hub) Metrics() HubMetrics {
	return HubMetrics{
		ActiveConnections: int64(h.ConnectionCount()),
		MessagesSent:      h.sent.Load(),
		MessagesDropped:   h.dropped.Load(),
	}
}

func (h *Hub) encode(msgType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}
	return json.Marshal(Message{Type: msgType, Timestamp: h.now().UnixMilli(), Data: raw})
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	// registration is complete once the client sees this
	if hello, err := h.encode(TypeConnectionEstablished, map[string]string{
		"connectionId": client.id,
		"userId":       client.userID,
	}); err == nil {
		client.enqueue(hello)
	}

	h.logger.Info("Client registered",
		zap.String("connectionID", client.id),
		zap.String("userID", client.userID),
		zap.Int("connections", count),
	)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("Client unregistered",
			zap.String("connectionID", client.id),
			zap.Int("connections", count),
		)
	}
}

func (h *Hub) fanOut(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.enqueue(data) {
			h.sent.Add(1)
		} else {
			h.dropped.Add(1)
			h.logger.Warn("Client send buffer full, message dropped", zap.String("connectionID", client.id))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.logger.Info("Hub shut down")
}
