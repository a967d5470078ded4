package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 檢查依賴的服務是否可用
type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemHandler struct {
	db Pinger
}

func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db}
}

// Index 回傳服務名稱
func (h *SystemHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Facturas API - Gin + GORM"})
}

// Health 基本的健康檢查，資料庫無法連線時回傳 503
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"database":  "up",
	}
	if err := h.db.Ping(ctx); err != nil {
		body["status"] = "DEGRADED"
		body["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
