package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"facturas_api/internal/models"
	"facturas_api/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBufferSize = 256
)

// Client 代表一個訂閱發票事件的 WebSocket 連線
type Client struct {
	Conn     *websocket.Conn
	SendChan chan models.Event // 消息發送通道，用於異步傳送事件
}

// EventHub 管理所有 WebSocket 連線並廣播發票變更
type EventHub struct {
	clients    map[*Client]bool
	clientsMux sync.RWMutex
	lggr       logger.Logger
}

// NewEventHub 創建並初始化事件中心
func NewEventHub(lggr logger.Logger) *EventHub {
	return &EventHub{
		clients: make(map[*Client]bool),
		lggr:    lggr.Named("events"),
	}
}

// HandleConnection 註冊連線並阻塞直到連線結束
func (h *EventHub) HandleConnection(conn *websocket.Conn) {
	client := &Client{
		Conn:     conn,
		SendChan: make(chan models.Event, sendBufferSize),
	}
	h.addClient(client)

	go h.writePump(client)
	h.readPump(client)

	// readPump 結束代表客戶端已離開
	h.removeClient(client)
}

// readPump 只處理 pong 與關閉，客戶端送來的內容會被忽略
func (h *EventHub) readPump(client *Client) {
	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.lggr.Warnw("websocket unexpected close", "error", err)
			}
			return
		}
	}
}

// writePump 把事件寫到連線，並定期送出心跳
func (h *EventHub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.SendChan:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				h.lggr.Errorw("event encoding error", "error", err)
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Publish 向所有客戶端廣播事件，佇列已滿的客戶端會被斷開
func (h *EventHub) Publish(event models.Event) {
	h.clientsMux.RLock()
	var slow []*Client
	for client := range h.clients {
		select {
		case client.SendChan <- event:
		default:
			slow = append(slow, client)
		}
	}
	h.clientsMux.RUnlock()

	for _, client := range slow {
		h.lggr.Warn("dropping slow websocket client")
		h.removeClient(client)
	}
}

func (h *EventHub) addClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	h.clients[client] = true
}

// removeClient 移除客戶端並關閉其發送通道，可重複呼叫
func (h *EventHub) removeClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.SendChan)
	}
}

// ClientCount 回傳目前在線的客戶端數量
func (h *EventHub) ClientCount() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}
