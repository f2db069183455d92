package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache cachea respuestas de estadísticas en Redis con un TTL corto.
// Si Redis no está configurado todas las operaciones son no-ops y cada
// petición va directa a Postgres.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client, ttl: 60 * time.Second}
}

// Get recupera y deserializa una entrada; false si no hay cache o no existe
func (s *StatsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.client == nil {
		return false
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("[STATS] Entrada de cache corrupta en %s: %v", key, err)
		return false
	}
	return true
}

// Set serializa y guarda una entrada. Los fallos solo se registran: el
// cache nunca tumba una petición.
func (s *StatsCache) Set(ctx context.Context, key string, value interface{}) {
	if s.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		log.Printf("[STATS] Error al escribir cache en %s: %v", key, err)
	}
}
