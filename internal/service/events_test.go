package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas_api/internal/models"
	"facturas_api/pkg/logger"
)

func newHubServer(t *testing.T, hub *EventHub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.HandleConnection(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// 連線的 goroutine 可能在測試結束後才退出，所以不用 logger.Test
func TestEventHub_PublishReachesClients(t *testing.T) {
	hub := NewEventHub(logger.Nop())
	srv := newHubServer(t, hub)

	first := dialHub(t, srv)
	second := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	factura := &models.Factura{ID: 3, Titulo: "Factura Cliente C"}
	hub.Publish(models.NewEvent(models.EventFacturaCreada, factura.ID, factura))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var event models.Event
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, models.EventFacturaCreada, event.Type)
		assert.Equal(t, uint(3), event.FacturaID)
		require.NotNil(t, event.Factura)
		assert.Equal(t, "Factura Cliente C", event.Factura.Titulo)
	}
}

func TestEventHub_ClientDisconnect(t *testing.T) {
	hub := NewEventHub(logger.Nop())
	srv := newHubServer(t, hub)

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// 沒有客戶端時廣播不應阻塞
	hub.Publish(models.NewEvent(models.EventFacturaEliminada, 1, nil))
}

func TestEventHub_SlowClientDropped(t *testing.T) {
	hub := NewEventHub(logger.Test(t))
	client := &Client{SendChan: make(chan models.Event, 1)}
	hub.addClient(client)

	hub.Publish(models.NewEvent(models.EventFacturaCreada, 1, nil))
	assert.Equal(t, 1, hub.ClientCount())

	// 佇列已滿
	hub.Publish(models.NewEvent(models.EventFacturaCreada, 2, nil))
	assert.Equal(t, 0, hub.ClientCount())

	// 通道已關閉，且重複移除不會 panic
	_, ok := <-client.SendChan
	assert.True(t, ok)
	_, ok = <-client.SendChan
	assert.False(t, ok)
	hub.removeClient(client)
}
