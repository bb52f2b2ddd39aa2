package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// register adds a connectionless client; only its Send channel is used.
func register(t *testing.T, hub *Hub, email string) *Client {
	t.Helper()
	before := hub.ActiveConnections()
	c := NewClient(hub, nil, email, nil, nil)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ActiveConnections() == before+1 }, time.Second, 5*time.Millisecond)
	return c
}

func decode(t *testing.T, raw []byte) Message {
	t.Helper()
	var m Message
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestHub_SendToUser(t *testing.T) {
	hub := runHub(t)
	phone := register(t, hub, "asha@corp.example")
	laptop := register(t, hub, "ASHA@corp.example")
	other := register(t, hub, "ravi@corp.example")

	n := hub.SendToUser("asha@corp.example", Message{Type: TypeNotification, Data: "hi"})
	assert.Equal(t, 2, n)

	assert.Equal(t, TypeNotification, decode(t, <-phone.Send).Type)
	assert.Equal(t, TypeNotification, decode(t, <-laptop.Send).Type)
	assert.Empty(t, other.Send)

	assert.Zero(t, hub.SendToUser("nobody@corp.example", Message{Type: TypeNotification}))
}

func TestHub_BroadcastToRide(t *testing.T) {
	hub := runHub(t)
	driver := register(t, hub, "ravi@corp.example")
	rider := register(t, hub, "asha@corp.example")
	stranger := register(t, hub, "kumar@corp.example")

	driver.Subscribe("ride-1")
	rider.Subscribe("ride-1")
	stranger.Subscribe("ride-2")

	n := hub.BroadcastToRide("ride-1", Message{Type: TypeChatMessage, Data: "leaving at 6"}, "ravi@corp.example")
	assert.Equal(t, 1, n)

	got := decode(t, <-rider.Send)
	assert.Equal(t, "ride-1", got.RideID)
	assert.Empty(t, driver.Send)
	assert.Empty(t, stranger.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	var last atomic.Int64
	hub := NewHub(nil)
	hub.OnConnectionsChanged(func(active int) { last.Store(int64(active)) })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := register(t, hub, "asha@corp.example")
	assert.Eventually(t, func() bool { return last.Load() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.ActiveConnections() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
	assert.Eventually(t, func() bool { return last.Load() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClient_FullBufferDropsMessage(t *testing.T) {
	hub := runHub(t)
	c := register(t, hub, "asha@corp.example")
	for i := 0; i < sendBuffer; i++ {
		c.Send <- []byte("{}")
	}

	assert.Zero(t, hub.SendToUser("asha@corp.example", Message{Type: TypeNotification}))
}

// TestClient_OverConnection drives a real connection through subscribe,
// guarded subscribe, chat and ping.
func TestClient_OverConnection(t *testing.T) {
	hub := runHub(t)
	hub.SetSubscribeGuard(func(_ context.Context, _, rideID string) bool { return rideID != "forbidden" })

	chats := make(chan string, 1)
	onChat := func(_ context.Context, email, rideID, content string) error {
		if content == "" {
			return errors.New("message content is required")
		}
		chats <- email + "|" + rideID + "|" + content
		return nil
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(hub, conn, "asha@corp.example", onChat, nil)
		hub.Register(c)
		go c.WritePump()
		go c.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, TypePong, read().Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "subscribe", EntityID: "forbidden"}))
	assert.Equal(t, TypeError, read().Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "subscribe", EntityID: "ride-1"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "chat", EntityID: "ride-1", Content: "on my way"}))
	select {
	case got := <-chats:
		assert.Equal(t, "asha@corp.example|ride-1|on my way", got)
	case <-time.After(2 * time.Second):
		t.Fatal("chat handler not called")
	}

	// the subscribe was handled before the chat line, so the channel is live
	assert.Equal(t, 1, hub.BroadcastToRide("ride-1", Message{Type: TypeChatMessage}, ""))
	assert.Equal(t, TypeChatMessage, read().Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "chat", EntityID: "ride-1"}))
	assert.Equal(t, TypeError, read().Type)
}
