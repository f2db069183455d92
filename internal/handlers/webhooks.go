package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
)

// WebhooksHandler expone la tabla de webhooks de n8n que consume el
// frontend. Sustituye al localStorage del navegador: el estado vive en el
// servidor con Load/Save/Reset explícitos.
type WebhooksHandler struct {
	settings *config.WebhookSettings
	defaults config.N8NConfig
}

func NewWebhooksHandler(settings *config.WebhookSettings, defaults config.N8NConfig) *WebhooksHandler {
	return &WebhooksHandler{settings: settings, defaults: defaults}
}

// Get devuelve la configuración actual. La API key nunca viaja completa.
// GET /api/config/webhooks
func (h *WebhooksHandler) Get(c *gin.Context) {
	urls := make([]gin.H, 0, 12)
	for slot := 1; slot <= 12; slot++ {
		urls = append(urls, gin.H{"slot": slot, "url": h.settings.WebhookURL(slot)})
	}
	c.JSON(http.StatusOK, gin.H{
		"base_url":     h.settings.BaseURL,
		"project_id":   h.settings.ProjectID,
		"folder_id":    h.settings.FolderID,
		"api_key_set":  h.settings.APIKey != "",
		"webhook_urls": urls,
	})
}

// UpdateSlot sobreescribe la URL de un slot y persiste
// PUT /api/config/webhooks/:slot
func (h *WebhooksHandler) UpdateSlot(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slot < 1 || slot > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "slot debe estar entre 1 y 12"})
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "Cuerpo JSON inválido"})
		return
	}

	if err := h.settings.SetWebhookURL(slot, req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	if err := h.settings.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "No se pudo guardar la configuración"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"slot": slot, "url": req.URL})
}

// Reset descarta los overrides y vuelve a los valores del entorno
// POST /api/config/webhooks/reset
func (h *WebhooksHandler) Reset(c *gin.Context) {
	if err := h.settings.Reset(h.defaults); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "No se pudo restablecer la configuración"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Configuración restablecida"})
}
