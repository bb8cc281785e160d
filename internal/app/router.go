package app

import (
	"net/http"

	"ledgerdesk/internal/handler"
	"ledgerdesk/internal/middleware"
	"ledgerdesk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter mounts the HTTP surface: health, swagger, the websocket feed and /api.
func (a *App) NewRouter(hub *websocket.Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.Config.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "storage": a.Config.StorageDriver})
	})

	auth := middleware.RequireToken([]byte(a.Config.APITokenSecret))
	router.GET("/ws", auth, hub.ServeWs)

	api := router.Group("/api", auth)
	handler.NewInventoryHandler(a.Inventory, hub).RegisterRoutes(api)
	handler.NewInvoiceHandler(a.Builder, hub).RegisterRoutes(api)
	handler.NewTaxHandler(a.Tax, hub).RegisterRoutes(api)
	handler.NewReportHandler(a.Reports).RegisterRoutes(api)

	return router
}
