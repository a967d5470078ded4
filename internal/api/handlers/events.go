package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"facturas_api/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 事件只包含公開的發票資料
	},
}

// EventsHandler 處理事件訂閱的 WebSocket 連線
type EventsHandler struct {
	hub *service.EventHub
}

func NewEventsHandler(hub *service.EventHub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// HandleWebSocket 升級連線並持續推送發票事件，直到客戶端離開
func (h *EventsHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失敗時已回寫 HTTP 錯誤
		return
	}

	h.hub.HandleConnection(conn)
}
