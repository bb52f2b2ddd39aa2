package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/homeride/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
	handlerTimeout = 10 * time.Second
)

// ChatHandler receives chat lines typed into an open connection.
type ChatHandler func(ctx context.Context, email, rideID, content string) error

// Client represents a WebSocket client connection
type Client struct {
	ID            string
	UserEmail     string
	Hub           *Hub
	Conn          *websocket.Conn
	Send          chan []byte
	subscriptions map[string]bool
	mu            sync.RWMutex
	onChat        ChatHandler
	logger        *logger.Logger
}

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type     string `json:"type"`
	EntityID string `json:"entity_id,omitempty"`
	Content  string `json:"content,omitempty"`
}

// NewClient creates a new WebSocket client for an authenticated employee
func NewClient(hub *Hub, conn *websocket.Conn, email string, onChat ChatHandler, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		ID:            uuid.NewString(),
		UserEmail:     email,
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[string]bool),
		onChat:        onChat,
		logger:        log,
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error",
					logger.Err(err),
					logger.String("client_id", c.ID),
				)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one JSON envelope per frame so browsers can parse each event
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Client) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Warn("Failed to unmarshal client message",
			logger.Err(err),
			logger.String("client_id", c.ID),
		)
		c.SendMessage(Message{Type: TypeError, Data: "malformed message"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch msg.Type {
	case "subscribe":
		if !c.Hub.allowSubscribe(ctx, c.UserEmail, msg.EntityID) {
			c.SendMessage(Message{Type: TypeError, RideID: msg.EntityID, Data: "not a member of this ride"})
			return
		}
		c.Subscribe(msg.EntityID)
	case "unsubscribe":
		c.Unsubscribe(msg.EntityID)
	case "chat":
		if c.onChat == nil {
			return
		}
		if err := c.onChat(ctx, c.UserEmail, msg.EntityID, msg.Content); err != nil {
			c.SendMessage(Message{Type: TypeError, RideID: msg.EntityID, Data: err.Error()})
		}
	case "ping":
		c.SendMessage(Message{Type: TypePong})
	default:
		c.logger.Warn("Unknown message type",
			logger.String("type", msg.Type),
			logger.String("client_id", c.ID),
		)
	}
}

// Subscribe subscribes the client to a ride
func (c *Client) Subscribe(rideID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[rideID] = true
	c.logger.Debug("Client subscribed to ride",
		logger.String("client_id", c.ID),
		logger.RideID(rideID),
	)
}

// Unsubscribe unsubscribes the client from a ride
func (c *Client) Unsubscribe(rideID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, rideID)
}

// IsSubscribedToRide checks if client is subscribed to a ride
func (c *Client) IsSubscribedToRide(rideID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[rideID]
}

// SendMessage queues a message for this connection only
func (c *Client) SendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message",
			logger.Err(err),
			logger.String("client_id", c.ID),
		)
		return
	}

	select {
	case c.Send <- data:
	default:
		c.logger.Warn("Client send buffer full", logger.String("client_id", c.ID))
	}
}

func (c *Client) isUser(email string) bool {
	return strings.EqualFold(strings.TrimSpace(c.UserEmail), strings.TrimSpace(email))
}
