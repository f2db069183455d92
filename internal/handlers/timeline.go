package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

// TimelineEvent es el sobre común al que se normalizan los cuatro flujos
// de eventos de un lead antes de mezclarlos
type TimelineEvent struct {
	ID            string                 `json:"id"`
	Tipo          string                 `json:"tipo"`
	Fecha         time.Time              `json:"fecha"`
	Descripcion   string                 `json:"descripcion"`
	Marca         *string                `json:"marca,omitempty"`
	Concesionario *string                `json:"concesionario,omitempty"`
	Agente        *string                `json:"agente,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

const (
	eventoLlamada    = "llamada"
	eventoWhatsApp   = "whatsapp"
	eventoAsignacion = "asignacion"
	eventoCreacion   = "creacion"
)

// Timeline devuelve la línea temporal unificada del lead: llamadas,
// mensajes de WhatsApp, asignaciones a concesionario/marca y el alta.
// Los cuatro orígenes tienen formas distintas, así que no hay un UNION
// razonable: se consulta cada uno por separado, se normaliza al sobre
// común, se concatena y se ordena por fecha descendente.
// GET /api/leads/:id/timeline
func (h *LeadsHandler) Timeline(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	var lead models.Lead
	if err := h.db.Raw("SELECT * FROM leads WHERE id = ?", id).Scan(&lead).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}
	if lead.ID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Lead no encontrado"})
		return
	}

	var events []TimelineEvent

	llamadas, err := h.timelineLlamadas(id)
	if err != nil {
		translateDBError(c, h.development, err)
		return
	}
	events = append(events, llamadas...)

	mensajes, err := h.timelineMensajes(id)
	if err != nil {
		translateDBError(c, h.development, err)
		return
	}
	events = append(events, mensajes...)

	asignaciones, err := h.timelineAsignaciones(id)
	if err != nil {
		translateDBError(c, h.development, err)
		return
	}
	events = append(events, asignaciones...)

	events = append(events, eventoCreacionLead(&lead))

	c.JSON(http.StatusOK, MergeTimeline(events))
}

// MergeTimeline ordena los eventos ya normalizados por fecha descendente.
// La ordenación es estable: eventos con la misma marca de tiempo conservan
// el orden de llegada (llamadas, mensajes, asignaciones, creación).
func MergeTimeline(events []TimelineEvent) []TimelineEvent {
	if events == nil {
		return []TimelineEvent{}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Fecha.After(events[j].Fecha)
	})
	return events
}

func (h *LeadsHandler) timelineLlamadas(leadID string) ([]TimelineEvent, error) {
	query := `
		SELECT ll.*, m.nombre AS marca, co.nombre AS concesionario
		FROM llamadas ll
		LEFT JOIN lead_concesionario_marca lcm ON lcm.id = ll.lcm_id
		LEFT JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
		LEFT JOIN marcas m ON m.id = cm.marca_id
		LEFT JOIN concesionarios co ON co.id = cm.concesionario_id
		WHERE ll.lead_id = ?
	`
	var rows []models.LlamadaConRelacion
	if err := h.db.Raw(query, leadID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]TimelineEvent, 0, len(rows))
	for i := range rows {
		ll := &rows[i]
		desc := "📞 Llamada " + descripcionLlamada(ll.EstadoLlamada)
		if ll.DuracionSegundos != nil && *ll.DuracionSegundos > 0 {
			desc += fmt.Sprintf(" (%ds)", *ll.DuracionSegundos)
		}
		meta := map[string]interface{}{"estado_llamada": string(ll.EstadoLlamada)}
		if ll.GrabacionURL != nil {
			meta["grabacion_url"] = *ll.GrabacionURL
		}
		events = append(events, TimelineEvent{
			ID:            ll.ID,
			Tipo:          eventoLlamada,
			Fecha:         ll.FechaLlamada,
			Descripcion:   desc,
			Marca:         ll.Marca,
			Concesionario: ll.Concesionario,
			Metadata:      meta,
		})
	}
	return events, nil
}

func descripcionLlamada(estado models.EstadoLlamada) string {
	switch estado {
	case models.EstadoLlamadaExitosa:
		return "contestada"
	case models.EstadoLlamadaSinResp:
		return "sin respuesta"
	case models.EstadoLlamadaOcupado:
		return "con línea ocupada"
	case models.EstadoLlamadaRechazada:
		return "rechazada"
	default:
		return "fallida"
	}
}

func (h *LeadsHandler) timelineMensajes(leadID string) ([]TimelineEvent, error) {
	query := `
		SELECT lm.*, m.nombre AS marca, co.nombre AS concesionario
		FROM lead_messages lm
		LEFT JOIN lead_concesionario_marca lcm ON lcm.id = lm.lcm_id
		LEFT JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
		LEFT JOIN marcas m ON m.id = cm.marca_id
		LEFT JOIN concesionarios co ON co.id = cm.concesionario_id
		WHERE lm.lead_id = ? AND lm.tipo = 'whatsapp'
	`
	var rows []models.MensajeConRelacion
	if err := h.db.Raw(query, leadID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]TimelineEvent, 0, len(rows))
	for i := range rows {
		lm := &rows[i]
		var desc string
		var agente *string
		switch lm.SenderType {
		case models.SenderLead:
			desc = "💬 WhatsApp recibido del lead"
		case models.SenderAgent:
			desc = "💬 WhatsApp enviado por el agente"
			agente = senderAgente(lm.Metadata)
		default:
			desc = "🤖 WhatsApp automático del sistema"
		}

		var meta map[string]interface{}
		if len(lm.Metadata) > 0 {
			// metadata es jsonb libre; si no parsea se omite sin romper la timeline
			_ = json.Unmarshal(lm.Metadata, &meta)
		}

		events = append(events, TimelineEvent{
			ID:            lm.ID,
			Tipo:          eventoWhatsApp,
			Fecha:         lm.FechaMensaje,
			Descripcion:   desc,
			Marca:         lm.Marca,
			Concesionario: lm.Concesionario,
			Agente:        agente,
			Metadata:      meta,
		})
	}
	return events, nil
}

// senderAgente extrae el nombre del agente de la metadata, si viene
func senderAgente(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var meta struct {
		Agente string `json:"agente"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil || meta.Agente == "" {
		return nil
	}
	return &meta.Agente
}

func (h *LeadsHandler) timelineAsignaciones(leadID string) ([]TimelineEvent, error) {
	query := `
		SELECT lcm.id, lcm.estado_lead, lcm.modelo_interes, lcm.fecha_entrada,
		       m.nombre AS marca, co.nombre AS concesionario
		FROM lead_concesionario_marca lcm
		JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
		JOIN marcas m ON m.id = cm.marca_id
		JOIN concesionarios co ON co.id = cm.concesionario_id
		WHERE lcm.lead_id = ?
	`
	type asignacionRow struct {
		ID            string
		EstadoLead    string
		ModeloInteres *string
		FechaEntrada  time.Time
		Marca         string
		Concesionario string
	}
	var rows []asignacionRow
	if err := h.db.Raw(query, leadID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]TimelineEvent, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		desc := fmt.Sprintf("🚗 Interés en %s (%s)", r.Marca, r.Concesionario)
		if r.ModeloInteres != nil && *r.ModeloInteres != "" {
			desc = fmt.Sprintf("🚗 Interés en %s %s (%s)", r.Marca, *r.ModeloInteres, r.Concesionario)
		}
		events = append(events, TimelineEvent{
			ID:            r.ID,
			Tipo:          eventoAsignacion,
			Fecha:         r.FechaEntrada,
			Descripcion:   desc,
			Marca:         &r.Marca,
			Concesionario: &r.Concesionario,
			Metadata:      map[string]interface{}{"estado_lead": r.EstadoLead},
		})
	}
	return events, nil
}

func eventoCreacionLead(lead *models.Lead) TimelineEvent {
	meta := map[string]interface{}{}
	if lead.Source != nil {
		meta["source"] = *lead.Source
	}
	if lead.Campana != nil {
		meta["campana"] = *lead.Campana
	}
	return TimelineEvent{
		ID:          lead.ID,
		Tipo:        eventoCreacion,
		Fecha:       lead.CreatedAt,
		Descripcion: fmt.Sprintf("✨ Lead creado: %s %s", lead.Nombre, lead.Apellidos),
		Metadata:    meta,
	}
}
