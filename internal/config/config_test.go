package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBHost:             "db.example.com",
		DBPort:             5432,
		DBName:             "crm",
		DBUser:             "crm_ro",
		DBPassword:         "s3creta",
		DBMaxConns:         20,
		RateLimitMax:       100,
		RateLimitStrictMax: 20,
	}
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateListaTodasLasFaltantes(t *testing.T) {
	cfg := &Config{DBPort: 5432}

	err := cfg.Validate()
	require.Error(t, err)

	// el error enumera cada variable, no solo la primera
	for _, v := range []string{"DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD"} {
		assert.Contains(t, err.Error(), v)
	}
}

func TestValidateDetectaPlaceholders(t *testing.T) {
	cfg := validConfig()
	cfg.DBPassword = "changeme"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "plantilla")
}

func TestValidatePuertoFueraDeRango(t *testing.T) {
	cfg := validConfig()
	cfg.DBPort = 70000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
}

func TestValidateRechazaLimitesACero(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimitMax = 0
	cfg.RateLimitStrictMax = 0
	cfg.DBMaxConns = 0

	err := cfg.Validate()
	require.Error(t, err)
	// cada límite inválido se enumera; ninguno llega a abrir pool ni limitador
	assert.Contains(t, err.Error(), "RATE_LIMIT_MAX")
	assert.Contains(t, err.Error(), "RATE_LIMIT_STRICT_MAX")
	assert.Contains(t, err.Error(), "DB_MAX_CONNECTIONS")
}

func TestLoadValoresNoNumericosCaenAlDefault(t *testing.T) {
	t.Setenv("DB_MAX_CONNECTIONS", "garbage")
	t.Setenv("RATE_LIMIT_MAX", "muchas")
	t.Setenv("DB_PORT", "")

	cfg := Load()

	// un valor no numérico no puede colarse como 0
	assert.Equal(t, 20, cfg.DBMaxConns)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 5432, cfg.DBPort)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := validConfig()
	assert.NotContains(t, cfg.AllowedOrigins(), "")

	cfg.FrontendURL = "https://crm.example.com"
	origins := cfg.AllowedOrigins()
	assert.Contains(t, origins, "https://crm.example.com")
	assert.Contains(t, origins, "http://localhost:3000")
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "development"
	assert.True(t, cfg.IsDevelopment())

	cfg.Environment = "production"
	assert.False(t, cfg.IsDevelopment())
}
