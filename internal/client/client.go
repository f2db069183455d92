// Package client es el cliente de datos que consume el frontend del
// dashboard. Si no hay URL de backend configurada sirve un dataset de
// demostración en local: el modo demo/offline es un modo de operación
// válido, no un error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/handlers"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

// reintentos solo para lecturas; las escrituras nunca se reintentan
const getRetries = 2

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New crea el cliente. Con baseURL vacía todas las lecturas se sirven
// del dataset de demostración y las escrituras fallan con ErrModoDemo.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Demo indica si el cliente opera sin backend
func (c *Client) Demo() bool {
	return c.baseURL == ""
}

// ErrModoDemo se devuelve al intentar escribir sin backend configurado
var ErrModoDemo = fmt.Errorf("modo demo: no hay backend configurado")

// LeadPage es la respuesta paginada del listado
type LeadPage struct {
	Data       []models.LeadConIntentos `json:"data"`
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

// ListLeadsParams son los filtros del listado
type ListLeadsParams struct {
	Limit  int
	Offset int
	Status string
	Search string
}

// ListLeads lista leads con filtros y paginación
func (c *Client) ListLeads(ctx context.Context, p ListLeadsParams) (*LeadPage, error) {
	if c.Demo() {
		return mockLeadPage(p), nil
	}

	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprint(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", fmt.Sprint(p.Offset))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}

	var page LeadPage
	if err := c.getJSON(ctx, "/api/leads", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetLead devuelve el agregado completo de un lead
func (c *Client) GetLead(ctx context.Context, id string) (*models.LeadConIntentos, error) {
	if c.Demo() {
		return mockLead(id)
	}
	var lead models.LeadConIntentos
	if err := c.getJSON(ctx, "/api/leads/"+url.PathEscape(id), nil, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetTimeline devuelve la línea temporal unificada de un lead
func (c *Client) GetTimeline(ctx context.Context, id string) ([]handlers.TimelineEvent, error) {
	if c.Demo() {
		return mockTimeline(id)
	}
	var events []handlers.TimelineEvent
	if err := c.getJSON(ctx, "/api/leads/"+url.PathEscape(id)+"/timeline", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetOverview devuelve los KPIs globales
func (c *Client) GetOverview(ctx context.Context) (*handlers.OverviewStats, error) {
	if c.Demo() {
		return mockOverview(), nil
	}
	var stats handlers.OverviewStats
	if err := c.getJSON(ctx, "/api/stats/overview", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetStatsByMarca devuelve los KPIs por marca
func (c *Client) GetStatsByMarca(ctx context.Context) ([]handlers.MarcaStats, error) {
	if c.Demo() {
		return mockStatsByMarca(), nil
	}
	var stats []handlers.MarcaStats
	if err := c.getJSON(ctx, "/api/stats/by-marca", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// CreateLead da de alta un lead. No disponible en modo demo.
func (c *Client) CreateLead(ctx context.Context, req handlers.CreateLeadRequest) (*models.LeadConIntentos, error) {
	if c.Demo() {
		return nil, ErrModoDemo
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/leads", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var lead models.LeadConIntentos
	if err := json.NewDecoder(resp.Body).Decode(&lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// getJSON hace un GET con reintentos y decodifica la respuesta
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= getRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			err = json.NewDecoder(resp.Body).Decode(dest)
			resp.Body.Close()
			return err
		}

		lastErr = apiError(resp)
		resp.Body.Close()
		// los errores de cliente no se reintentan
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}

// APIError es un error devuelto por el backend
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Kind, e.Message)
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &payload)
	return &APIError{StatusCode: resp.StatusCode, Kind: payload.Error, Message: payload.Message}
}
