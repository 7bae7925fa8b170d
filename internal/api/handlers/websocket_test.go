package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "github.com/nft-rental-marketplace/backend/internal/websocket"
)

func dialTestHub(t *testing.T) (*ws.Hub, *websocket.Conn) {
	t.Helper()

	hub := ws.NewHub()
	go hub.Run()

	srv := httptest.NewServer(WebSocketUpgrade(hub))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

// readReply reads frames until a message of the wanted type arrives, skipping
// interleaved broadcast events.
func readReply(t *testing.T, conn *websocket.Conn, want ws.MessageType) ws.Message {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		msg, err := ws.DecodeMessage(data)
		require.NoError(t, err)
		if msg.Type == want {
			return msg
		}
	}
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType ws.MessageType) {
	t.Helper()
	data, err := ws.NewMessage(msgType, nil).JSON()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestWebSocketClientMessages(t *testing.T) {
	hub, conn := dialTestHub(t)

	// Keep the hub broadcasting the whole time so client replies and event
	// fan-out share the connection concurrently.
	broadcaster := ws.NewEventBroadcaster(hub)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				broadcaster.BroadcastNotification("info", "tick", "still here")
				time.Sleep(time.Millisecond)
			}
		}
	}()

	sendMessage(t, conn, ws.TypeSubscribe)
	readReply(t, conn, ws.TypeSubscribeAck)

	sendMessage(t, conn, ws.TypePing)
	readReply(t, conn, ws.TypePong)

	// Unsubscribe is accepted silently; a ping afterwards still answers.
	sendMessage(t, conn, ws.TypeUnsubscribe)
	sendMessage(t, conn, ws.TypePing)
	readReply(t, conn, ws.TypePong)

	sendMessage(t, conn, ws.MessageType("bogus"))
	msg := readReply(t, conn, ws.TypeError)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "unknown_type", payload["code"])
	assert.Equal(t, "bogus", payload["original_type"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readReply(t, conn, ws.TypeError)
	payload, ok = msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bad_message", payload["code"])
}

func TestWebSocketDisconnectUnregisters(t *testing.T) {
	hub, conn := dialTestHub(t)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}
