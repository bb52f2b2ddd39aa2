package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/homeride/backend/pkg/logger"
)

// Message types pushed to clients
const (
	TypeNotification = "notification"
	TypeChatMessage  = "chat_message"
	TypePong         = "pong"
	TypeError        = "error"
)

// Message is the JSON envelope for every frame sent to a client
type Message struct {
	Type   string      `json:"type"`
	RideID string      `json:"ride_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// SubscribeGuard decides whether a user may follow a ride's channel.
type SubscribeGuard func(ctx context.Context, email, rideID string) bool

// Hub maintains active client connections. Clients are addressed by the
// employee email they authenticated with and by the rides they subscribe to.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logger.Logger

	guard     SubscribeGuard
	onChanged func(active int)
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// SetSubscribeGuard installs the check run before a client joins a ride channel.
// Without a guard every subscription is allowed.
func (h *Hub) SetSubscribeGuard(g SubscribeGuard) {
	h.mu.Lock()
	h.guard = g
	h.mu.Unlock()
}

// OnConnectionsChanged registers a callback fed the client count after each
// register or unregister.
func (h *Hub) OnConnectionsChanged(fn func(active int)) {
	h.mu.Lock()
	h.onChanged = fn
	h.mu.Unlock()
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			active, fn := len(h.clients), h.onChanged
			h.mu.Unlock()

			h.logger.Info("Client registered",
				logger.String("client_id", client.ID),
				logger.Email(client.UserEmail),
			)
			if fn != nil {
				fn(active)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.Send)
			}
			active, fn := len(h.clients), h.onChanged
			h.mu.Unlock()

			if ok {
				h.logger.Info("Client unregistered", logger.String("client_id", client.ID))
				if fn != nil {
					fn(active)
				}
			}
		}
	}
}

// Register registers a new client. After Run has stopped it is a no-op.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser delivers msg to every connection of the user and returns how
// many received it. Email matching is case-insensitive.
func (h *Hub) SendToUser(email string, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", logger.Err(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if !client.isUser(email) {
			continue
		}
		select {
		case client.Send <- data:
			sent++
		default:
			h.logger.Warn("Failed to send message to client",
				logger.Email(email),
				logger.String("client_id", client.ID),
			)
		}
	}

	if sent == 0 {
		h.logger.Debug("No client found for user", logger.Email(email))
	}
	return sent
}

// BroadcastToRide sends msg to every client subscribed to the ride, skipping
// the connections of except (which may be empty).
func (h *Hub) BroadcastToRide(rideID string, msg Message, except string) int {
	msg.RideID = rideID
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal ride message", logger.Err(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if !client.IsSubscribedToRide(rideID) || (except != "" && client.isUser(except)) {
			continue
		}
		select {
		case client.Send <- data:
			sent++
		default:
			h.logger.Warn("Failed to send ride message to client",
				logger.RideID(rideID),
				logger.String("client_id", client.ID),
			)
		}
	}
	return sent
}

// ActiveConnections returns the number of active connections
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) allowSubscribe(ctx context.Context, email, rideID string) bool {
	h.mu.RLock()
	g := h.guard
	h.mu.RUnlock()
	return g == nil || g(ctx, email, rideID)
}
