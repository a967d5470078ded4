package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"facturas_api/internal/scraper"
	"facturas_api/internal/service"
)

// ScrapeHandler 處理從外部頁面擷取發票的請求
type ScrapeHandler struct {
	scrapeService *service.ScrapeService
}

func NewScrapeHandler(scrapeService *service.ScrapeService) *ScrapeHandler {
	return &ScrapeHandler{scrapeService: scrapeService}
}

type scrapeRequest struct {
	URL     string `json:"url"`
	Guardar bool   `json:"guardar"`
}

type scrapeResponse struct {
	*scraper.Extraction
	FacturaID uint `json:"factura_id,omitempty"`
}

// ScrapeFactura 抓取 url 並回傳擷取到的欄位，guardar 為 true 時同時保存
func (h *ScrapeHandler) ScrapeFactura(c *gin.Context) {
	var input scrapeRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	extraction, factura, err := h.scrapeService.ScrapeFactura(c.Request.Context(), input.URL, input.Guardar)
	if err != nil {
		respondError(c, err)
		return
	}

	if factura != nil {
		c.JSON(http.StatusCreated, scrapeResponse{Extraction: extraction, FacturaID: factura.ID})
		return
	}
	c.JSON(http.StatusOK, scrapeResponse{Extraction: extraction})
}
