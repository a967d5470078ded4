package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"facturas_api/internal/service"
)

// FacturaHandler 處理發票的 CRUD 請求
type FacturaHandler struct {
	facturaService *service.FacturaService
}

// NewFacturaHandler 創建一個新的 FacturaHandler 實例
func NewFacturaHandler(facturaService *service.FacturaService) *FacturaHandler {
	return &FacturaHandler{facturaService: facturaService}
}

// nullableString 區分請求體中「沒有這個欄位」與「值為 null」
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// null 代表要清空欄位
func (n nullableString) isNull() bool {
	return n.Set && n.Value == nil
}

// FacturaInput 定義建立與更新發票的請求結構
type FacturaInput struct {
	Titulo      string         `json:"titulo"`
	Descripcion nullableString `json:"descripcion"`
	URL         nullableString `json:"url"`
}

// bindFacturaInput 解析請求體，空的請求體視為沒有任何欄位
func bindFacturaInput(c *gin.Context) (service.FacturaInput, bool) {
	var input FacturaInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.FacturaInput{}, false
	}
	return service.FacturaInput{
		Titulo:           input.Titulo,
		Descripcion:      input.Descripcion.Value,
		URL:              input.URL.Value,
		ClearDescripcion: input.Descripcion.isNull(),
		ClearURL:         input.URL.isNull(),
	}, true
}

// ListFacturas 處理獲取發票列表的請求
func (h *FacturaHandler) ListFacturas(c *gin.Context) {
	facturas, err := h.facturaService.ListFacturas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, facturas)
}

// CreateFactura 處理建立發票的請求
func (h *FacturaHandler) CreateFactura(c *gin.Context) {
	input, ok := bindFacturaInput(c)
	if !ok {
		return
	}

	factura, err := h.facturaService.CreateFactura(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Factura creada", "id": factura.ID})
}

// GetFactura 處理獲取單一發票的請求
func (h *FacturaHandler) GetFactura(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	factura, err := h.facturaService.GetFactura(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, factura)
}

// UpdateFactura 處理更新發票的請求
func (h *FacturaHandler) UpdateFactura(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	input, ok := bindFacturaInput(c)
	if !ok {
		return
	}

	if _, err := h.facturaService.UpdateFactura(c.Request.Context(), id, input); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Factura actualizada correctamente"})
}

// DeleteFactura 處理刪除發票的請求
func (h *FacturaHandler) DeleteFactura(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.facturaService.DeleteFactura(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Factura eliminada correctamente"})
}
