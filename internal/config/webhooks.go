package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// WebhookSettings es la tabla editable de URLs de webhook de n8n que antes
// vivía en el localStorage del navegador. Ahora se persiste en un fichero
// JSON con un ciclo de vida explícito: Load / Save / Reset.
type WebhookSettings struct {
	mu   sync.RWMutex
	path string

	BaseURL     string     `json:"base_url"`
	APIKey      string     `json:"api_key"`
	ProjectID   string     `json:"project_id"`
	FolderID    string     `json:"folder_id"`
	WebhookURLs [12]string `json:"webhook_urls"`
}

// NewWebhookSettings crea la tabla con los valores del entorno como defaults.
func NewWebhookSettings(path string, defaults N8NConfig) *WebhookSettings {
	return &WebhookSettings{
		path:        path,
		BaseURL:     defaults.BaseURL,
		APIKey:      defaults.APIKey,
		ProjectID:   defaults.ProjectID,
		FolderID:    defaults.FolderID,
		WebhookURLs: defaults.WebhookURLs,
	}
}

// Load carga los ajustes guardados. Si el fichero no existe se mantienen
// los defaults del entorno, no es un error.
func (w *WebhookSettings) Load() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error al leer ajustes de webhooks: %w", err)
	}
	if err := json.Unmarshal(data, w); err != nil {
		return fmt.Errorf("ajustes de webhooks corruptos: %w", err)
	}
	return nil
}

// Save escribe los ajustes actuales a disco
func (w *WebhookSettings) Save() error {
	w.mu.RLock()
	data, err := json.MarshalIndent(w, "", "  ")
	w.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(w.path, data, 0o600)
}

// Reset descarta los ajustes guardados y vuelve a los defaults del entorno
func (w *WebhookSettings) Reset(defaults N8NConfig) error {
	w.mu.Lock()
	w.BaseURL = defaults.BaseURL
	w.APIKey = defaults.APIKey
	w.ProjectID = defaults.ProjectID
	w.FolderID = defaults.FolderID
	w.WebhookURLs = defaults.WebhookURLs
	w.mu.Unlock()

	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WebhookURL devuelve la URL del slot indicado (1..12), o cadena vacía
func (w *WebhookSettings) WebhookURL(slot int) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if slot < 1 || slot > len(w.WebhookURLs) {
		return ""
	}
	return w.WebhookURLs[slot-1]
}

// SetWebhookURL actualiza un slot (1..12) en memoria; Save persiste
func (w *WebhookSettings) SetWebhookURL(slot int, url string) error {
	if slot < 1 || slot > len(w.WebhookURLs) {
		return fmt.Errorf("slot de webhook fuera de rango: %d", slot)
	}
	w.mu.Lock()
	w.WebhookURLs[slot-1] = url
	w.mu.Unlock()
	return nil
}
