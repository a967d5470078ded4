package service

import (
	"facturas_api/internal/repository"
	"facturas_api/pkg/config"
	"facturas_api/pkg/logger"
)

type Services struct {
	Factura  *FacturaService
	Scrape   *ScrapeService
	Auth     *AuthService // auth 未啟用時為 nil
	EventHub *EventHub
}

func NewServices(repos *repository.Repositories, scraper Scraper, cfg *config.Config, lggr logger.Logger) *Services {
	eventHub := NewEventHub(lggr)

	facturaService := NewFacturaService(repos.Factura, eventHub, lggr)
	scrapeService := NewScrapeService(scraper, facturaService)

	var authService *AuthService
	if cfg.Auth.Enabled {
		authService = NewAuthService(cfg.Auth)
	}

	return &Services{
		Factura:  facturaService,
		Scrape:   scrapeService,
		Auth:     authService,
		EventHub: eventHub,
	}
}
