package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facturas_api/internal/api/handlers"
	"facturas_api/internal/middleware"
	"facturas_api/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, db handlers.Pinger) {
	// 初始化 handlers
	systemHandler := handlers.NewSystemHandler(db)
	facturaHandler := handlers.NewFacturaHandler(services.Factura)
	scrapeHandler := handlers.NewScrapeHandler(services.Scrape)
	eventsHandler := handlers.NewEventsHandler(services.EventHub)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Ruta no encontrada",
		})
	})

	r.GET("/", systemHandler.Index)

	// API 路由群組
	api := r.Group("/api")

	// 公開路由
	{
		api.GET("/health", systemHandler.Health)
		api.GET("/facturas", facturaHandler.ListFacturas)
		api.GET("/facturas/:id", facturaHandler.GetFactura)
		api.GET("/eventos/ws", eventsHandler.HandleWebSocket)
	}

	// 寫入操作，auth 啟用時需要驗證
	writes := api.Group("")
	if services.Auth != nil {
		authHandler := handlers.NewAuthHandler(services.Auth)
		api.POST("/login", authHandler.Login)
		writes.Use(middleware.AuthMiddleware(services.Auth.Tokens()))
	}
	{
		writes.POST("/facturas", facturaHandler.CreateFactura)
		writes.PUT("/facturas/:id", facturaHandler.UpdateFactura)
		writes.DELETE("/facturas/:id", facturaHandler.DeleteFactura)
		writes.POST("/scrape-factura", scrapeHandler.ScrapeFactura)
	}
}

// NewRouter 建立帶有共用中間件的 Gin 引擎
func NewRouter(services *service.Services, db handlers.Pinger, mws ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(mws...)
	r.Use(gin.Recovery())
	SetupRoutes(r, services, db)
	return r
}
