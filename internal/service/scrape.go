package service

import (
	"context"
	"fmt"
	"strings"

	"facturas_api/internal/models"
	"facturas_api/internal/scraper"
)

// Scraper 抓取並擷取單一頁面
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Extraction, error)
}

type ScrapeService struct {
	scraper  Scraper
	facturas *FacturaService
}

func NewScrapeService(s Scraper, facturas *FacturaService) *ScrapeService {
	return &ScrapeService{scraper: s, facturas: facturas}
}

// ScrapeFactura 擷取頁面資料；save 為 true 時同時建立一筆發票
func (s *ScrapeService) ScrapeFactura(ctx context.Context, url string, save bool) (*scraper.Extraction, *models.Factura, error) {
	extraction, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	if !save {
		return extraction, nil, nil
	}

	factura, err := s.facturas.CreateFactura(ctx, FacturaInputFromExtraction(extraction))
	if err != nil {
		return nil, nil, err
	}
	return extraction, factura, nil
}

// FacturaInputFromExtraction 把擷取結果轉成可保存的發票
func FacturaInputFromExtraction(e *scraper.Extraction) FacturaInput {
	titulo := e.Titulo
	switch {
	case e.Numero != "" && e.Emisor.Nombre != "":
		titulo = fmt.Sprintf("Factura %s - %s", e.Numero, e.Emisor.Nombre)
	case e.Numero != "":
		titulo = "Factura " + e.Numero
	}
	if strings.TrimSpace(titulo) == "" {
		titulo = e.URL
	}
	titulo = truncate(titulo, models.TituloMaxLen)

	var parts []string
	if e.Emisor.Nombre != "" {
		parts = append(parts, "Emisor: "+e.Emisor.Nombre)
	}
	if e.Fecha != "" {
		parts = append(parts, "Fecha: "+e.Fecha)
	}
	parts = append(parts, fmt.Sprintf("Líneas: %d", len(e.Items)))
	if e.Total != nil {
		total := "Total: " + e.Total.StringFixed(2)
		if e.Moneda != "" {
			total += " " + e.Moneda
		}
		parts = append(parts, total)
	}
	descripcion := strings.Join(parts, " | ")

	input := FacturaInput{
		Titulo:      titulo,
		Descripcion: &descripcion,
	}
	if e.URL != "" {
		url := truncate(e.URL, models.URLMaxLen)
		input.URL = &url
	}
	return input
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
