package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
)

// Connect abre el pool de conexiones a PostgreSQL con los límites configurados
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d statement_timeout=%d",
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPassword, cfg.DBSSLMode,
		int(cfg.DBConnectTimeout.Seconds()), cfg.DBQueryTimeout.Milliseconds(),
	)

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}

	// Configurar pool de conexiones
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxIdleTime(cfg.DBIdleTimeout)

	log.Printf("[DATABASE] Pool abierto contra %s:%d/%s (max %d conexiones)",
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxConns)
	return db, nil
}

// TestConnection hace un round-trip trivial y, si falla, clasifica el error
// con una pista de diagnóstico para no perder tiempo mirando logs de Postgres.
func TestConnection(db *gorm.DB) error {
	var now time.Time
	if err := db.Raw("SELECT NOW()").Scan(&now).Error; err != nil {
		return fmt.Errorf("%v\n  Pista: %s", err, troubleshootingHint(err))
	}
	log.Printf("[DATABASE] Conexión verificada, hora del servidor: %s", now.Format(time.RFC3339))
	return nil
}

// troubleshootingHint devuelve una pista según la clase de error de conexión
func troubleshootingHint(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "name resolution"):
		return "el host no resuelve; revisa DB_HOST y el DNS"
	case strings.Contains(msg, "connection refused"):
		return "conexión rechazada; ¿está Postgres escuchando en DB_PORT y permite este origen en pg_hba.conf?"
	case strings.Contains(msg, "password authentication failed") || strings.Contains(msg, "28p01"):
		return "credenciales incorrectas; revisa DB_USER y DB_PASSWORD"
	case strings.Contains(msg, "database") && strings.Contains(msg, "does not exist"):
		return "la base de datos no existe; revisa DB_NAME"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "i/o timeout") || strings.Contains(msg, "deadline"):
		return "timeout de conexión; revisa el firewall o sube DB_CONNECT_TIMEOUT"
	default:
		return "error no clasificado; revisa los logs del servidor de Postgres"
	}
}

// Close drena el pool: deja de aceptar conexiones nuevas y espera a las en vuelo
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("[DATABASE] Error al cerrar el pool: %v", err)
		return
	}
	log.Printf("[DATABASE] Pool cerrado")
}

// ConnectRedis conecta a Redis para el cache de estadísticas (opcional)
func ConnectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("[REDIS] REDIS_URL no configurada, continuando sin cache")
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[REDIS] URL inválida: %v, continuando sin cache", err)
		return nil
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("[REDIS] Error al conectar: %v, continuando sin cache", err)
		return nil
	}

	log.Println("[REDIS] Conectado")
	return client
}
