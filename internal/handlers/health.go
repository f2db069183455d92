package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
)

// HealthHandler reporta la vitalidad del proceso y de la base de datos
type HealthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	startTime time.Time
}

func NewHealthHandler(db *gorm.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, cfg: cfg, startTime: time.Now()}
}

// Check hace un round-trip trivial a Postgres. Si falla responde degradado
// pero nunca tumba el proceso.
// GET /api/health
func (h *HealthHandler) Check(c *gin.Context) {
	var serverTime time.Time
	if err := h.db.Raw("SELECT NOW()").Scan(&serverTime).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"database": gin.H{
				"connected": false,
				"error":     err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"database": gin.H{
			"connected":  true,
			"serverTime": serverTime,
		},
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
		"environment": h.cfg.Environment,
	})
}
