package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"facturas_api/internal/scraper"
	"facturas_api/internal/service"
)

// respondError 把服務層錯誤轉成 HTTP 狀態碼：驗證錯誤 400、找不到 404、其他 500
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidationError(err),
		errors.Is(err, scraper.ErrURLRequerida),
		errors.Is(err, scraper.ErrURLInvalida):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrFacturaNoEncontrada):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrCredencialesInvalidas):
		status = http.StatusUnauthorized
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseID 解析路徑中的發票 ID
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de factura inválido"})
		return 0, false
	}
	return uint(id), true
}
