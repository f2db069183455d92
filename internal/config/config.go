package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Base de datos
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Pool de conexiones
	DBMaxConns       int
	DBMaxIdleConns   int
	DBIdleTimeout    time.Duration
	DBConnectTimeout time.Duration
	DBQueryTimeout   time.Duration

	// Redis (opcional, cache de estadísticas)
	RedisURL string

	// Servidor
	Port        string
	Environment string

	// CORS
	FrontendURL string

	// Rate limiting
	RateLimitWindow    time.Duration
	RateLimitMax       int
	RateLimitStrictMax int

	// n8n (sistema externo que escribe los datos)
	N8N N8NConfig
}

// N8NConfig agrupa la configuración del motor de workflows externo.
// Solo se expone al frontend; este backend nunca llama a n8n.
type N8NConfig struct {
	BaseURL     string
	APIKey      string
	ProjectID   string
	FolderID    string
	WebhookURLs [12]string
}

// valores que delatan un .env copiado de la plantilla sin rellenar
var placeholders = map[string]bool{
	"your-password":    true,
	"your-db-password": true,
	"changeme":         true,
	"change-me":        true,
	"tu-password":      true,
	"tu-password-aqui": true,
	"xxx":              true,
	"<password>":       true,
}

func Load() *Config {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getInt("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", ""),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		DBMaxConns:       getInt("DB_MAX_CONNECTIONS", 20),
		DBMaxIdleConns:   getInt("DB_MAX_IDLE_CONNECTIONS", 10),
		DBIdleTimeout:    getDuration("DB_IDLE_TIMEOUT", 30*time.Second),
		DBConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
		DBQueryTimeout:   getDuration("DB_QUERY_TIMEOUT", 30*time.Second),

		RedisURL: getEnv("REDIS_URL", ""),

		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("NODE_ENV", "development"),

		FrontendURL: getEnv("FRONTEND_URL", ""),

		RateLimitWindow:    getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:       getInt("RATE_LIMIT_MAX", 100),
		RateLimitStrictMax: getInt("RATE_LIMIT_STRICT_MAX", 20),
	}

	cfg.N8N = N8NConfig{
		BaseURL:   getEnv("N8N_BASE_URL", ""),
		APIKey:    getEnv("N8N_API_KEY", ""),
		ProjectID: getEnv("N8N_PROJECT_ID", ""),
		FolderID:  getEnv("N8N_FOLDER_ID", ""),
	}
	for i := range cfg.N8N.WebhookURLs {
		cfg.N8N.WebhookURLs[i] = getEnv(fmt.Sprintf("N8N_WEBHOOK_URL_%d", i+1), "")
	}

	return cfg
}

// Validate comprueba la configuración obligatoria antes de abrir el pool.
// Devuelve un único error con todas las variables que faltan, no solo la primera.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DB_HOST", c.DBHost},
		{"DB_NAME", c.DBName},
		{"DB_USER", c.DBUser},
		{"DB_PASSWORD", c.DBPassword},
	}

	var missing []string
	for _, v := range required {
		if strings.TrimSpace(v.value) == "" {
			missing = append(missing, v.name+" (vacía)")
		} else if placeholders[strings.ToLower(strings.TrimSpace(v.value))] {
			missing = append(missing, v.name+" (valor de plantilla sin rellenar)")
		}
	}

	if c.DBPort <= 0 || c.DBPort > 65535 {
		missing = append(missing, "DB_PORT (debe estar entre 1 y 65535)")
	}
	if c.DBMaxConns < 1 {
		missing = append(missing, "DB_MAX_CONNECTIONS (debe ser al menos 1)")
	}
	if c.RateLimitMax < 1 {
		missing = append(missing, "RATE_LIMIT_MAX (debe ser al menos 1)")
	}
	if c.RateLimitStrictMax < 1 {
		missing = append(missing, "RATE_LIMIT_STRICT_MAX (debe ser al menos 1)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("configuración incompleta:\n  - %s",
			strings.Join(missing, "\n  - "))
	}
	return nil
}

// IsDevelopment indica si se pueden exponer detalles de error en las respuestas
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins devuelve la lista blanca de orígenes para CORS
func (c *Config) AllowedOrigins() []string {
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt cae al valor por defecto si la variable no es un entero válido;
// un valor explícito fuera de rango lo rechaza Validate.
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
