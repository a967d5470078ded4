package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"facturas_api/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID 沿用客戶端傳入的請求 ID，沒有時產生一個新的
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger 以結構化日誌記錄每個請求
func Logger(lggr logger.Logger) gin.HandlerFunc {
	lggr = lggr.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("requestID"),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			lggr.Errorw("request failed", fields...)
		case status >= 400:
			lggr.Warnw("request rejected", fields...)
		default:
			lggr.Infow("request handled", fields...)
		}
	}
}
