package models

import (
	"time"
)

// EventType 定義發票變更事件的類型
type EventType string

const (
	EventFacturaCreada      EventType = "factura_creada"
	EventFacturaActualizada EventType = "factura_actualizada"
	EventFacturaEliminada   EventType = "factura_eliminada"
)

// Event 代表透過 WebSocket 推送給客戶端的發票變更
type Event struct {
	Type      EventType `json:"type"`
	FacturaID uint      `json:"factura_id"`
	Factura   *Factura  `json:"factura,omitempty"` // 刪除事件不帶內容
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent 創建一個新的發票事件
func NewEvent(eventType EventType, id uint, factura *Factura) Event {
	return Event{
		Type:      eventType,
		FacturaID: id,
		Factura:   factura,
		Timestamp: time.Now().UTC(),
	}
}
