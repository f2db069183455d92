package client

import (
	"strings"
	"time"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/handlers"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

// Dataset de demostración para el modo sin backend. Los UUIDs son fijos
// para que la navegación entre listado y detalle sea coherente.

var mockBase = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func mockLeads() []models.LeadConIntentos {
	renault := "Renault"
	central := "Automóviles Central Madrid"

	return []models.LeadConIntentos{
		{
			Lead: models.Lead{
				BaseModel: models.BaseModel{
					ID:        "1d4f2a9c-0001-4c61-9a7e-3f5b8e2d71aa",
					CreatedAt: mockBase,
					UpdatedAt: mockBase,
				},
				Nombre:       "María",
				Apellidos:    "González López",
				Email:        ptr("maria.gonzalez@example.com"),
				Telefono:     ptr("600 111 222"),
				EstadoActual: models.EstadoLeadEnSeguimiento,
				Activo:       true,
			},
			IntentosCompra: []models.IntentoCompra{
				{
					ID:            "2e5a3b8d-0001-4f72-8b1c-9d0e6f4a82bb",
					Marca:         renault,
					Concesionario: central,
					EstadoLead:    string(models.EstadoLCMEnSeguimiento),
					ModeloInteres: ptr("Clio"),
					FechaEntrada:  mockBase.AddDate(0, 0, -3),
				},
			},
		},
		{
			Lead: models.Lead{
				BaseModel: models.BaseModel{
					ID:        "1d4f2a9c-0002-4c61-9a7e-3f5b8e2d71aa",
					CreatedAt: mockBase.AddDate(0, 0, -10),
					UpdatedAt: mockBase.AddDate(0, 0, -10),
				},
				Nombre:       "Carlos",
				Apellidos:    "Fernández Ruiz",
				Email:        ptr("carlos.fernandez@example.com"),
				Telefono:     ptr("600 333 444"),
				EstadoActual: models.EstadoLeadNuevo,
				Activo:       true,
			},
			IntentosCompra: []models.IntentoCompra{},
		},
	}
}

func mockLeadPage(p ListLeadsParams) *LeadPage {
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}

	var filtered []models.LeadConIntentos
	for _, lead := range mockLeads() {
		if p.Status != "" && string(lead.EstadoActual) != p.Status {
			continue
		}
		if p.Search != "" && !mockMatches(&lead.Lead, p.Search) {
			continue
		}
		filtered = append(filtered, lead)
	}
	if filtered == nil {
		filtered = []models.LeadConIntentos{}
	}

	page := &LeadPage{Data: filtered}
	page.Pagination.Limit = limit
	page.Pagination.Offset = p.Offset
	page.Pagination.Total = len(filtered)
	return page
}

func mockMatches(lead *models.Lead, search string) bool {
	s := strings.ToLower(search)
	if strings.Contains(strings.ToLower(lead.Nombre), s) ||
		strings.Contains(strings.ToLower(lead.Apellidos), s) {
		return true
	}
	if lead.Email != nil && strings.Contains(strings.ToLower(*lead.Email), s) {
		return true
	}
	if lead.Telefono != nil && strings.Contains(*lead.Telefono, s) {
		return true
	}
	return false
}

func mockLead(id string) (*models.LeadConIntentos, error) {
	for _, lead := range mockLeads() {
		if lead.ID == id {
			return &lead, nil
		}
	}
	return nil, &APIError{StatusCode: 404, Kind: "not_found", Message: "Lead no encontrado"}
}

func mockTimeline(id string) ([]handlers.TimelineEvent, error) {
	lead, err := mockLead(id)
	if err != nil {
		return nil, err
	}

	events := []handlers.TimelineEvent{
		{
			ID:          lead.ID,
			Tipo:        "creacion",
			Fecha:       lead.CreatedAt,
			Descripcion: "✨ Lead creado: " + lead.Nombre + " " + lead.Apellidos,
		},
	}
	for _, ic := range lead.IntentosCompra {
		events = append(events, handlers.TimelineEvent{
			ID:            ic.ID,
			Tipo:          "asignacion",
			Fecha:         ic.FechaEntrada,
			Descripcion:   "🚗 Interés en " + ic.Marca + " (" + ic.Concesionario + ")",
			Marca:         &ic.Marca,
			Concesionario: &ic.Concesionario,
		})
	}
	return handlers.MergeTimeline(events), nil
}

func mockOverview() *handlers.OverviewStats {
	return &handlers.OverviewStats{
		TotalLeads:      2,
		TotalLlamadas:   3,
		LeadsExitosos:   1,
		PorcentajeExito: ptr(50.0),
		SinRespuesta:    1,
		DuracionMedia:   ptr(48.5),
		IntentosPorLead: ptr(1.5),
	}
}

func mockStatsByMarca() []handlers.MarcaStats {
	return []handlers.MarcaStats{
		{
			MarcaID:         "3f6b4c9e-0001-4a83-9c2d-0e1f7a5b93cc",
			Marca:           "Renault",
			TotalLeads:      2,
			TotalLlamadas:   3,
			LeadsExitosos:   1,
			PorcentajeExito: ptr(50.0),
			DuracionMedia:   ptr(48.5),
		},
	}
}
