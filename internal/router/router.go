package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/handlers"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/middleware"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/services"
)

// Setup configura todas las rutas de la aplicación
func Setup(container *services.Container) *gin.Engine {
	cfg := container.Config

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())

	// CORS: solo orígenes de la lista blanca
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(corsConfig))

	// Límite general y límite estricto para endpoints que escriben
	general := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	strict := middleware.NewRateLimiter(cfg.RateLimitStrictMax, cfg.RateLimitWindow)
	r.Use(general.Middleware())

	// Handlers
	leadsHandler := handlers.NewLeadsHandler(container.DB, cfg.IsDevelopment())
	statsHandler := handlers.NewStatsHandler(container.DB, container.StatsCache, cfg.IsDevelopment())
	healthHandler := handlers.NewHealthHandler(container.DB, cfg)
	webhooksHandler := handlers.NewWebhooksHandler(container.Webhooks, cfg.N8N)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Check)

		leads := api.Group("/leads")
		{
			leads.GET("", leadsHandler.List)
			leads.POST("", strict.Middleware(), leadsHandler.Create)
			leads.GET("/:id", leadsHandler.Get)
			leads.PATCH("/:id", strict.Middleware(), leadsHandler.Update)
			leads.DELETE("/:id", strict.Middleware(), leadsHandler.Delete)
			leads.GET("/:id/history", leadsHandler.History)
			leads.GET("/:id/calls", leadsHandler.Calls)
			leads.GET("/:id/whatsapp", leadsHandler.WhatsApp)
			leads.GET("/:id/notes", leadsHandler.ListNotes)
			leads.POST("/:id/notes", strict.Middleware(), leadsHandler.CreateNote)
			leads.GET("/:id/timeline", leadsHandler.Timeline)
		}

		stats := api.Group("/stats")
		{
			stats.GET("/overview", statsHandler.Overview)
			stats.GET("/by-marca", statsHandler.ByMarca)
			stats.GET("/advanced", statsHandler.Advanced)
			stats.GET("/ranking", statsHandler.Ranking)
			stats.GET("/timeline", statsHandler.Timeline)
		}

		webhooks := api.Group("/config/webhooks")
		{
			webhooks.GET("", webhooksHandler.Get)
			webhooks.PUT("/:slot", strict.Middleware(), webhooksHandler.UpdateSlot)
			webhooks.POST("/reset", strict.Middleware(), webhooksHandler.Reset)
		}
	}

	return r
}
