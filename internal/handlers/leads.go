package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

// LeadsHandler expone el CRUD de leads y sus históricos
type LeadsHandler struct {
	db          *gorm.DB
	development bool
}

func NewLeadsHandler(db *gorm.DB, development bool) *LeadsHandler {
	return &LeadsHandler{db: db, development: development}
}

// subconsulta que agrega los intereses de compra de cada lead como jsonb,
// ordenados por fecha de entrada descendente. COALESCE garantiza [] y no null.
const intentosSubquery = `
	SELECT lcm.lead_id,
	       jsonb_agg(jsonb_build_object(
	           'id', lcm.id,
	           'marca', m.nombre,
	           'concesionario', co.nombre,
	           'estado_lead', lcm.estado_lead,
	           'modelo_interes', lcm.modelo_interes,
	           'presupuesto_min', lcm.presupuesto_min,
	           'presupuesto_max', lcm.presupuesto_max,
	           'fecha_entrada', lcm.fecha_entrada,
	           'fecha_cierre', lcm.fecha_cierre,
	           'motivo_perdida', lcm.motivo_perdida
	       ) ORDER BY lcm.fecha_entrada DESC) AS intentos
	FROM lead_concesionario_marca lcm
	JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
	JOIN marcas m ON m.id = cm.marca_id
	JOIN concesionarios co ON co.id = cm.concesionario_id
	GROUP BY lcm.lead_id
`

type leadRow struct {
	models.Lead
	IntentosJSON string `gorm:"column:intentos_compra" json:"-"`
}

// toAggregate deserializa la columna jsonb al agregado de la API.
// omitirMotivo quita motivo_perdida, que solo viaja en la vista de detalle.
func (r *leadRow) toAggregate(omitirMotivo bool) (models.LeadConIntentos, error) {
	out := models.LeadConIntentos{Lead: r.Lead, IntentosCompra: []models.IntentoCompra{}}
	if r.IntentosJSON == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.IntentosJSON), &out.IntentosCompra); err != nil {
		return out, err
	}
	if out.IntentosCompra == nil {
		out.IntentosCompra = []models.IntentoCompra{}
	}
	if omitirMotivo {
		for i := range out.IntentosCompra {
			out.IntentosCompra[i].MotivoPerdida = nil
		}
	}
	return out, nil
}

// List lista leads activos con filtros de estado, búsqueda y paginación.
// GET /api/leads?limit&offset&status&search
func (h *LeadsHandler) List(c *gin.Context) {
	limit := parseIntParam(c.Query("limit"), 100)
	if limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "limit debe estar entre 1 y 1000"})
		return
	}
	offset := parseIntParam(c.Query("offset"), 0)
	if offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "offset no puede ser negativo"})
		return
	}

	query := `
		SELECT l.id, l.nombre, l.apellidos, l.email, l.telefono, l.telefono_e164,
		       l.estado_actual, l.activo, l.opt_out, l.source, l.campana,
		       l.ciudad, l.codigo_postal, l.provincia,
		       l.created_at, l.updated_at, l.last_contact_at,
		       COALESCE(ic.intentos, '[]'::jsonb)::text AS intentos_compra
		FROM leads l
		LEFT JOIN (` + intentosSubquery + `) ic ON ic.lead_id = l.id
		WHERE l.activo = TRUE AND l.opt_out = FALSE
	`
	var args []interface{}

	if status := c.Query("status"); status != "" {
		if !models.EstadoLeadValido(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "status no es un estado de lead válido"})
			return
		}
		query += " AND l.estado_actual = ?"
		args = append(args, status)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query += ` AND (l.nombre ILIKE ? OR l.apellidos ILIKE ? OR l.email ILIKE ? OR l.telefono ILIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query += " ORDER BY l.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []leadRow
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	leads := make([]models.LeadConIntentos, 0, len(rows))
	for i := range rows {
		lead, err := rows[i].toAggregate(true)
		if err != nil {
			translateDBError(c, h.development, err)
			return
		}
		leads = append(leads, lead)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": leads,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
			"total":  len(leads),
		},
	})
}

// Get devuelve un lead con su historial de intereses completo
// GET /api/leads/:id
func (h *LeadsHandler) Get(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	lead, err := h.fetchLead(id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Lead no encontrado"})
			return
		}
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, lead)
}

// fetchLead carga el agregado completo de un lead, motivo_perdida incluido
func (h *LeadsHandler) fetchLead(id string) (models.LeadConIntentos, error) {
	query := `
		SELECT l.*, COALESCE(ic.intentos, '[]'::jsonb)::text AS intentos_compra
		FROM leads l
		LEFT JOIN (` + intentosSubquery + `) ic ON ic.lead_id = l.id
		WHERE l.id = ?
	`
	var rows []leadRow
	if err := h.db.Raw(query, id).Scan(&rows).Error; err != nil {
		return models.LeadConIntentos{}, err
	}
	if len(rows) == 0 {
		return models.LeadConIntentos{}, gorm.ErrRecordNotFound
	}
	return rows[0].toAggregate(false)
}

// Create da de alta un lead manualmente
// POST /api/leads
func (h *LeadsHandler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "Cuerpo JSON inválido"})
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "messages": validationMessages(err)})
		return
	}

	lead := models.Lead{
		Nombre:       strings.TrimSpace(req.Nombre),
		Apellidos:    strings.TrimSpace(req.Apellidos),
		Email:        req.Email,
		Telefono:     req.Telefono,
		TelefonoE164: req.TelefonoE164,
		EstadoActual: models.EstadoLeadNuevo,
		Activo:       true,
		Source:       req.Source,
		Campana:      req.Campana,
		Ciudad:       req.Ciudad,
		CodigoPostal: req.CodigoPostal,
		Provincia:    req.Provincia,
	}
	if req.Estado != nil {
		lead.EstadoActual = models.EstadoLead(*req.Estado)
	}

	if err := h.db.Create(&lead).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusCreated, models.LeadConIntentos{Lead: lead, IntentosCompra: []models.IntentoCompra{}})
}

// columnas parcheables. La SET se construye solo desde esta lista, nunca
// desde los nombres de campo que mande el cliente.
var updatableColumns = []struct {
	jsonKey string
	column  string
}{
	{"nombre", "nombre"},
	{"apellidos", "apellidos"},
	{"email", "email"},
	{"telefono", "telefono"},
	{"telefono_e164", "telefono_e164"},
	{"estado_actual", "estado_actual"},
	{"source", "source"},
	{"campana", "campana"},
	{"ciudad", "ciudad"},
	{"codigo_postal", "codigo_postal"},
	{"provincia", "provincia"},
	{"opt_out", "opt_out"},
	{"last_contact_at", "last_contact_at"},
}

// Update parchea los campos indicados de un lead
// PATCH /api/leads/:id
func (h *LeadsHandler) Update(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "Cuerpo JSON inválido"})
		return
	}

	var setClauses []string
	var args []interface{}
	for _, col := range updatableColumns {
		value, present := body[col.jsonKey]
		if !present {
			continue
		}
		if msg := validatePatchValue(col.jsonKey, value); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": msg})
			return
		}
		setClauses = append(setClauses, col.column+" = ?")
		args = append(args, value)
	}

	if len(setClauses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_fields", "message": "No hay campos que actualizar"})
		return
	}

	query := "UPDATE leads SET " + strings.Join(setClauses, ", ") + ", updated_at = NOW() WHERE id = ?"
	args = append(args, id)

	result := h.db.Exec(query, args...)
	if result.Error != nil {
		translateDBError(c, h.development, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Lead no encontrado"})
		return
	}

	lead, err := h.fetchLead(id)
	if err != nil {
		translateDBError(c, h.development, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// validatePatchValue aplica las mismas reglas de campo que el alta
func validatePatchValue(field string, value interface{}) string {
	switch field {
	case "nombre", "apellidos":
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return field + " no puede estar vacío"
		}
		if len(s) > 100 {
			return field + " supera la longitud máxima de 100"
		}
	case "estado_actual":
		s, ok := value.(string)
		if !ok || !models.EstadoLeadValido(s) {
			return "estado_actual no es un estado de lead válido"
		}
	case "email":
		if s, ok := value.(string); ok && s != "" {
			if err := validate.Var(s, "email"); err != nil {
				return "email no es un email válido"
			}
		}
	case "telefono", "telefono_e164":
		if s, ok := value.(string); ok && s != "" && !telefonoRegexp.MatchString(s) {
			return field + " no es un teléfono válido"
		}
	case "opt_out":
		if _, ok := value.(bool); !ok {
			return "opt_out debe ser booleano"
		}
	}
	return ""
}

// Delete hace soft-delete. Solo empareja leads con activo=TRUE; repetir el
// borrado sobre un lead ya desactivado devuelve 404.
// DELETE /api/leads/:id
func (h *LeadsHandler) Delete(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	result := h.db.Exec(
		"UPDATE leads SET activo = FALSE, updated_at = NOW() WHERE id = ? AND activo = TRUE", id)
	if result.Error != nil {
		translateDBError(c, h.development, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Lead no encontrado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead desactivado", "lead_id": id})
}

// History devuelve todos los intereses de compra del lead con los nombres
// de marca y concesionario resueltos
// GET /api/leads/:id/history
func (h *LeadsHandler) History(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}
	if !h.leadExists(c, id) {
		return
	}

	query := `
		SELECT lcm.id, lcm.lead_id, lcm.concesionario_marca_id, lcm.estado_lead,
		       lcm.modelo_interes, lcm.presupuesto_min, lcm.presupuesto_max,
		       lcm.fecha_entrada, lcm.fecha_cierre, lcm.motivo_perdida,
		       lcm.created_at, lcm.updated_at,
		       m.nombre AS marca, co.nombre AS concesionario
		FROM lead_concesionario_marca lcm
		JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
		JOIN marcas m ON m.id = cm.marca_id
		JOIN concesionarios co ON co.id = cm.concesionario_id
		WHERE lcm.lead_id = ?
		ORDER BY lcm.fecha_entrada DESC
	`

	type historyRow struct {
		models.LeadConcesionarioMarca
		Marca         string `json:"marca"`
		Concesionario string `json:"concesionario"`
	}

	rows := []historyRow{}
	if err := h.db.Raw(query, id).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// Calls devuelve las llamadas del lead, opcionalmente filtradas por
// relación concesionario/marca, más recientes primero
// GET /api/leads/:id/calls?brand_dealership_id?
func (h *LeadsHandler) Calls(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}
	if !h.leadExists(c, id) {
		return
	}

	query := `
		SELECT ll.*, m.nombre AS marca, co.nombre AS concesionario
		FROM llamadas ll
		LEFT JOIN lead_concesionario_marca lcm ON lcm.id = ll.lcm_id
		LEFT JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
		LEFT JOIN marcas m ON m.id = cm.marca_id
		LEFT JOIN concesionarios co ON co.id = cm.concesionario_id
		WHERE ll.lead_id = ?
	`
	args := []interface{}{id}

	if lcmID := c.Query("brand_dealership_id"); lcmID != "" {
		if _, err := uuid.Parse(lcmID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "brand_dealership_id no es un UUID válido"})
			return
		}
		query += " AND ll.lcm_id = ?"
		args = append(args, lcmID)
	}

	query += " ORDER BY ll.fecha_llamada DESC"

	rows := []models.LlamadaConRelacion{}
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// WhatsApp devuelve la conversación de WhatsApp del lead en orden
// cronológico ascendente (se lee de arriba abajo, al revés que las llamadas)
// GET /api/leads/:id/whatsapp?brand_dealership_id?
func (h *LeadsHandler) WhatsApp(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}
	if !h.leadExists(c, id) {
		return
	}

	query := `
		SELECT lm.*, m.nombre AS marca, co.nombre AS concesionario
		FROM lead_messages lm
		LEFT JOIN lead_concesionario_marca lcm ON lcm.id = lm.lcm_id
		LEFT JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id
		LEFT JOIN marcas m ON m.id = cm.marca_id
		LEFT JOIN concesionarios co ON co.id = cm.concesionario_id
		WHERE lm.lead_id = ? AND lm.tipo = 'whatsapp'
	`
	args := []interface{}{id}

	if lcmID := c.Query("brand_dealership_id"); lcmID != "" {
		if _, err := uuid.Parse(lcmID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "brand_dealership_id no es un UUID válido"})
			return
		}
		query += " AND lm.lcm_id = ?"
		args = append(args, lcmID)
	}

	query += " ORDER BY lm.fecha_mensaje ASC"

	rows := []models.MensajeConRelacion{}
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ListNotes y CreateNote son stubs: no existe tabla de notas todavía.
// Devolvemos lista vacía / eco sintético en lugar de persistir en silencio
// algo que n8n no conoce.
// GET /api/leads/:id/notes
func (h *LeadsHandler) ListNotes(c *gin.Context) {
	if _, ok := requireUUID(c); !ok {
		return
	}
	c.JSON(http.StatusOK, []gin.H{})
}

// POST /api/leads/:id/notes
func (h *LeadsHandler) CreateNote(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	var req struct {
		Nota string `json:"nota" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "nota es obligatoria"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         uuid.New().String(),
		"lead_id":    id,
		"nota":       req.Nota,
		"created_at": time.Now().UTC(),
		"persisted":  false,
	})
}

// leadExists corta con 404 si el lead no existe. Escribe la respuesta.
func (h *LeadsHandler) leadExists(c *gin.Context, id string) bool {
	var count int64
	if err := h.db.Raw("SELECT COUNT(*) FROM leads WHERE id = ?", id).Scan(&count).Error; err != nil {
		translateDBError(c, h.development, err)
		return false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Lead no encontrado"})
		return false
	}
	return true
}

// requireUUID valida el parámetro :id. Escribe el 400 si no es un UUID.
func requireUUID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "id no es un UUID válido"})
		return "", false
	}
	return id, true
}

func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}
