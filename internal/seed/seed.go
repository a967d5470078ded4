package seed

import (
	"context"
	"fmt"

	"facturas_api/internal/models"
	"facturas_api/internal/repository"
	"facturas_api/pkg/logger"
)

func strPtr(s string) *string { return &s }

// SampleFacturas 是本地開發與展示用的範例發票
var SampleFacturas = []models.Factura{
	{
		Titulo:      "Factura Cliente A",
		Descripcion: strPtr("Servicios de consultoría tecnológica para el trimestre Q1"),
		URL:         strPtr("https://example.com/facturas/factura-001.pdf"),
	},
	{
		Titulo:      "Factura Cliente B",
		Descripcion: strPtr("Desarrollo de aplicación móvil y mantenimiento"),
		URL:         strPtr("https://example.com/facturas/factura-002.pdf"),
	},
	{
		Titulo:      "Factura Cliente C",
		Descripcion: strPtr("Hosting y servicios en la nube - mensualidad"),
		URL:         strPtr("https://example.com/facturas/factura-003.pdf"),
	},
	{
		Titulo:      "Factura Cliente D",
		Descripcion: strPtr("Diseño gráfico y branding corporativo"),
		URL:         strPtr("https://example.com/facturas/factura-004.pdf"),
	},
	{
		Titulo:      "Factura Cliente E",
		Descripcion: strPtr("Soporte técnico y actualización de sistemas"),
		URL:         strPtr("https://example.com/facturas/factura-005.pdf"),
	},
}

// Run 依序插入範例發票，回傳插入的筆數
func Run(ctx context.Context, repo repository.FacturaRepository, lggr logger.Logger) (int, error) {
	lggr = lggr.Named("seed")
	lggr.Info("inserting sample facturas")

	for i := range SampleFacturas {
		// 複製一份，避免把 ID 寫回共用的範例資料
		factura := SampleFacturas[i]
		if err := repo.Create(ctx, &factura); err != nil {
			return i, fmt.Errorf("failed to insert %q: %w", factura.Titulo, err)
		}
		lggr.Infow("inserted", "id", factura.ID, "titulo", factura.Titulo)
	}

	lggr.Infow("database seeded", "total", len(SampleFacturas))
	return len(SampleFacturas), nil
}
