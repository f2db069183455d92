package services

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
)

// Container contiene las dependencias compartidas de la aplicación
type Container struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config

	StatsCache *StatsCache
	Webhooks   *config.WebhookSettings
}

// NewContainer crea el contenedor de dependencias
func NewContainer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Container {
	container := &Container{
		DB:     db,
		Redis:  redisClient,
		Config: cfg,
	}

	container.StatsCache = NewStatsCache(redisClient)

	container.Webhooks = config.NewWebhookSettings("webhooks.json", cfg.N8N)
	if err := container.Webhooks.Load(); err != nil {
		// un fichero corrupto no tumba el arranque, pero deja rastro
		log.Printf("[CONFIG] Error al cargar ajustes de webhooks: %v", err)
	}

	return container
}
