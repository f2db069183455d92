package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/services"
)

// Umbral del label de evaluación. Es un placeholder de negocio heredado
// del dashboard; vive aquí como constante con nombre para cambiarlo en un
// único sitio cuando haya umbrales reales.
const evaluacionUmbralExito = 10.0

// StatsHandler expone las estadísticas agregadas del dashboard.
//
// Convención de todos los porcentajes: ROUND(n * 100.0 / NULLIF(d, 0), 1).
// El NULLIF es obligatorio: un denominador a cero produce NULL, nunca un
// error de división ni un 0 engañoso.
//
// Política de joins: todas las agrupaciones por marca parten de marcas y
// bajan con LEFT JOIN hasta leads/llamadas, con HAVING COUNT(DISTINCT l.id) > 0.
// Las marcas sin leads no aparecen nunca; las tasas dentro de un grupo sí
// pueden ser NULL.
type StatsHandler struct {
	db          *gorm.DB
	cache       *services.StatsCache
	development bool
}

func NewStatsHandler(db *gorm.DB, cache *services.StatsCache, development bool) *StatsHandler {
	return &StatsHandler{db: db, cache: cache, development: development}
}

// OverviewStats son los KPIs globales del dashboard
type OverviewStats struct {
	TotalLeads       int64    `json:"total_leads"`
	TotalLlamadas    int64    `json:"total_llamadas"`
	LeadsExitosos    int64    `json:"leads_exitosos"`
	PorcentajeExito  *float64 `json:"porcentaje_exito"`
	NoInteresados    int64    `json:"no_interesados"`
	SinRespuesta     int64    `json:"sin_respuesta"`
	BuzonOcupado     int64    `json:"buzon_ocupado"`
	LlamadasFallidas int64    `json:"llamadas_fallidas"`
	DuracionMedia    *float64 `json:"duracion_media"`
	IntentosPorLead  *float64 `json:"intentos_por_lead"`
}

// Overview devuelve los KPIs globales, opcionalmente acotados por fechas
// GET /api/stats/overview?start_date&end_date
func (h *StatsHandler) Overview(c *gin.Context) {
	desde, hasta, ok := parseDateRange(c)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("stats:overview:%s:%s", fmtDate(desde), fmtDate(hasta))
	var cached OverviewStats
	if h.cache.Get(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := `
		SELECT COUNT(DISTINCT l.id) AS total_leads,
		       COUNT(ll.id) AS total_llamadas,
		       COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) AS leads_exitosos,
		       ROUND(COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) * 100.0
		             / NULLIF(COUNT(DISTINCT l.id), 0), 1) AS porcentaje_exito,
		       COUNT(CASE WHEN ll.estado_llamada = 'rejected' THEN 1 END) AS no_interesados,
		       COUNT(CASE WHEN ll.estado_llamada = 'no_answer' THEN 1 END) AS sin_respuesta,
		       COUNT(CASE WHEN ll.estado_llamada = 'busy' THEN 1 END) AS buzon_ocupado,
		       COUNT(CASE WHEN ll.estado_llamada = 'failed' THEN 1 END) AS llamadas_fallidas,
		       ROUND(AVG(ll.duracion_segundos), 1) AS duracion_media,
		       ROUND(COUNT(ll.id) * 1.0 / NULLIF(COUNT(DISTINCT l.id), 0), 1) AS intentos_por_lead
		FROM leads l
		LEFT JOIN llamadas ll ON ll.lead_id = l.id
	`
	args := []interface{}{}
	query, args = appendCallDateRange(query, args, desde, hasta)
	query += " WHERE l.activo = TRUE AND l.opt_out = FALSE"

	var stats OverviewStats
	if err := h.db.Raw(query, args...).Scan(&stats).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	h.cache.Set(c.Request.Context(), cacheKey, stats)
	c.JSON(http.StatusOK, stats)
}

// MarcaStats son los KPIs de una marca
type MarcaStats struct {
	MarcaID          string   `json:"marca_id"`
	Marca            string   `json:"marca"`
	TotalLeads       int64    `json:"total_leads"`
	TotalLlamadas    int64    `json:"total_llamadas"`
	LeadsExitosos    int64    `json:"leads_exitosos"`
	PorcentajeExito  *float64 `json:"porcentaje_exito"`
	NoInteresados    int64    `json:"no_interesados"`
	SinRespuesta     int64    `json:"sin_respuesta"`
	BuzonOcupado     int64    `json:"buzon_ocupado"`
	LlamadasFallidas int64    `json:"llamadas_fallidas"`
	DuracionMedia    *float64 `json:"duracion_media"`
}

// fragmento compartido por by-marca, advanced y ranking: de marcas hacia
// abajo con LEFT JOIN; los leads inactivos o con opt-out quedan fuera en
// la condición del join, no en el WHERE, para no convertirlo en INNER.
const marcaJoins = `
	FROM marcas m
	LEFT JOIN concesionarios_marcas cm ON cm.marca_id = m.id
	LEFT JOIN lead_concesionario_marca lcm ON lcm.concesionario_marca_id = cm.id
	LEFT JOIN leads l ON l.id = lcm.lead_id AND l.activo = TRUE AND l.opt_out = FALSE
	LEFT JOIN llamadas ll ON ll.lead_id = l.id
`

// ByMarca devuelve los mismos KPIs agrupados por marca
// GET /api/stats/by-marca?start_date&end_date&marca_id&concesionario_id
func (h *StatsHandler) ByMarca(c *gin.Context) {
	desde, hasta, ok := parseDateRange(c)
	if !ok {
		return
	}

	query := `
		SELECT m.id AS marca_id, m.nombre AS marca,
		       COUNT(DISTINCT l.id) AS total_leads,
		       COUNT(ll.id) AS total_llamadas,
		       COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) AS leads_exitosos,
		       ROUND(COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) * 100.0
		             / NULLIF(COUNT(DISTINCT l.id), 0), 1) AS porcentaje_exito,
		       COUNT(CASE WHEN ll.estado_llamada = 'rejected' THEN 1 END) AS no_interesados,
		       COUNT(CASE WHEN ll.estado_llamada = 'no_answer' THEN 1 END) AS sin_respuesta,
		       COUNT(CASE WHEN ll.estado_llamada = 'busy' THEN 1 END) AS buzon_ocupado,
		       COUNT(CASE WHEN ll.estado_llamada = 'failed' THEN 1 END) AS llamadas_fallidas,
		       ROUND(AVG(ll.duracion_segundos), 1) AS duracion_media
	` + marcaJoins
	args := []interface{}{}
	query, args = appendCallDateRange(query, args, desde, hasta)

	query, args, ok = appendMarcaFilters(c, query, args)
	if !ok {
		return
	}

	query += `
		GROUP BY m.id, m.nombre
		HAVING COUNT(DISTINCT l.id) > 0
		ORDER BY porcentaje_exito DESC NULLS LAST, total_leads DESC
	`

	rows := []MarcaStats{}
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// AdvancedStats son las tasas derivadas por marca
type AdvancedStats struct {
	MarcaID             string   `json:"marca_id"`
	Marca               string   `json:"marca"`
	TotalLeads          int64    `json:"total_leads"`
	TotalLlamadas       int64    `json:"total_llamadas"`
	LeadsExitosos       int64    `json:"leads_exitosos"`
	TasaExito           *float64 `json:"tasa_exito"`
	TasaRechazo         *float64 `json:"tasa_rechazo"`
	TasaContacto        *float64 `json:"tasa_contacto"`
	EficienciaLlamadas  *float64 `json:"eficiencia_llamadas"`
	LlamadasPorLead     *float64 `json:"llamadas_por_lead"`
	TasaSinRespuesta    *float64 `json:"tasa_sin_respuesta"`
	TasaBuzon           *float64 `json:"tasa_buzon"`
	TotalIncontactables int64    `json:"total_incontactables"`
	Evaluacion          string   `json:"evaluacion"`
	PrioridadRecontacto string   `json:"prioridad_recontacto"`
}

// Advanced devuelve tasas derivadas y labels de evaluación por marca
// GET /api/stats/advanced?start_date&end_date&marca_id&concesionario_id
func (h *StatsHandler) Advanced(c *gin.Context) {
	desde, hasta, ok := parseDateRange(c)
	if !ok {
		return
	}

	query := `
		SELECT m.id AS marca_id, m.nombre AS marca,
		       COUNT(DISTINCT l.id) AS total_leads,
		       COUNT(ll.id) AS total_llamadas,
		       COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) AS leads_exitosos,
		       ROUND(COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) * 100.0
		             / NULLIF(COUNT(DISTINCT l.id), 0), 1) AS tasa_exito,
		       ROUND(COUNT(CASE WHEN ll.estado_llamada = 'rejected' THEN 1 END) * 100.0
		             / NULLIF(COUNT(ll.id), 0), 1) AS tasa_rechazo,
		       ROUND((COUNT(CASE WHEN ll.estado_llamada = 'successful' THEN 1 END)
		              - COUNT(CASE WHEN ll.estado_llamada = 'no_answer' THEN 1 END)) * 100.0
		             / NULLIF(COUNT(ll.id), 0), 1) AS tasa_contacto,
		       ROUND(COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) * 100.0
		             / NULLIF(COUNT(ll.id), 0), 1) AS eficiencia_llamadas,
		       ROUND(COUNT(ll.id) * 1.0 / NULLIF(COUNT(DISTINCT l.id), 0), 1) AS llamadas_por_lead,
		       ROUND(COUNT(CASE WHEN ll.estado_llamada = 'no_answer' THEN 1 END) * 100.0
		             / NULLIF(COUNT(ll.id), 0), 1) AS tasa_sin_respuesta,
		       ROUND(COUNT(CASE WHEN ll.estado_llamada = 'busy' THEN 1 END) * 100.0
		             / NULLIF(COUNT(ll.id), 0), 1) AS tasa_buzon,
		       COUNT(DISTINCT CASE WHEN ll.estado_llamada IN ('no_answer', 'busy') THEN l.id END) AS total_incontactables
	` + marcaJoins
	args := []interface{}{}
	query, args = appendCallDateRange(query, args, desde, hasta)

	query, args, ok = appendMarcaFilters(c, query, args)
	if !ok {
		return
	}

	query += `
		GROUP BY m.id, m.nombre
		HAVING COUNT(DISTINCT l.id) > 0
		ORDER BY tasa_exito DESC NULLS LAST, total_leads DESC
	`

	rows := []AdvancedStats{}
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	for i := range rows {
		rows[i].Evaluacion = evaluarMarca(rows[i].TasaExito)
		rows[i].PrioridadRecontacto = prioridadRecontacto(rows[i].TotalIncontactables, rows[i].TotalLeads)
	}

	c.JSON(http.StatusOK, rows)
}

// evaluarMarca aplica el umbral binario del dashboard
func evaluarMarca(tasaExito *float64) string {
	if tasaExito != nil && *tasaExito >= evaluacionUmbralExito {
		return "buena"
	}
	return "mejorable"
}

// prioridadRecontacto es alta cuando más de la mitad de los leads de la
// marca resultaron incontactables
func prioridadRecontacto(incontactables, totalLeads int64) string {
	if totalLeads > 0 && incontactables*2 > totalLeads {
		return "alta"
	}
	return "normal"
}

// RankingEntry es una posición del ranking de marcas
type RankingEntry struct {
	Posicion      int64    `json:"posicion"`
	MarcaID       string   `json:"marca_id"`
	Marca         string   `json:"marca"`
	TotalLeads    int64    `json:"total_leads"`
	LeadsExitosos int64    `json:"leads_exitosos"`
	TasaExito     *float64 `json:"tasa_exito"`
}

// Ranking devuelve las mejores marcas por tasa de éxito. Desempate por
// número absoluto de leads exitosos; solo marcas con al menos un lead.
// GET /api/stats/ranking?start_date&end_date&limit
func (h *StatsHandler) Ranking(c *gin.Context) {
	desde, hasta, ok := parseDateRange(c)
	if !ok {
		return
	}
	limit := parseIntParam(c.Query("limit"), 10)
	if limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "limit debe estar entre 1 y 100"})
		return
	}

	query := `
		SELECT ROW_NUMBER() OVER (
		           ORDER BY ROUND(COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) * 100.0
		                          / NULLIF(COUNT(DISTINCT l.id), 0), 1) DESC NULLS LAST,
		                    COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) DESC
		       ) AS posicion,
		       m.id AS marca_id, m.nombre AS marca,
		       COUNT(DISTINCT l.id) AS total_leads,
		       COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) AS leads_exitosos,
		       ROUND(COUNT(DISTINCT CASE WHEN ll.estado_llamada = 'successful' THEN l.id END) * 100.0
		             / NULLIF(COUNT(DISTINCT l.id), 0), 1) AS tasa_exito
	` + marcaJoins
	args := []interface{}{}
	query, args = appendCallDateRange(query, args, desde, hasta)

	query += `
		GROUP BY m.id, m.nombre
		HAVING COUNT(DISTINCT l.id) > 0
		ORDER BY posicion
		LIMIT ?
	`
	args = append(args, limit)

	rows := []RankingEntry{}
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// TimelineBucket es un periodo de la serie temporal
type TimelineBucket struct {
	Periodo  time.Time `json:"periodo"`
	Leads    int64     `json:"leads"`
	Llamadas int64     `json:"llamadas"`
	Exitos   int64     `json:"exitos"`
}

// Timeline devuelve la serie temporal de llamadas truncada al grano pedido,
// máximo 30 periodos, el más reciente primero
// GET /api/stats/timeline?start_date&end_date&interval&marca_id
func (h *StatsHandler) Timeline(c *gin.Context) {
	desde, hasta, ok := parseDateRange(c)
	if !ok {
		return
	}

	// valores desconocidos caen a 'day' en lugar de fallar
	interval := c.DefaultQuery("interval", "day")
	if interval != "day" && interval != "week" && interval != "month" {
		interval = "day"
	}

	query := `
		SELECT date_trunc(?, ll.fecha_llamada) AS periodo,
		       COUNT(DISTINCT ll.lead_id) AS leads,
		       COUNT(ll.id) AS llamadas,
		       COUNT(CASE WHEN ll.estado_llamada = 'successful' THEN 1 END) AS exitos
		FROM llamadas ll
	`
	args := []interface{}{interval}

	if marcaID := c.Query("marca_id"); marcaID != "" {
		if _, err := uuid.Parse(marcaID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "marca_id no es un UUID válido"})
			return
		}
		query += `
		JOIN lead_concesionario_marca lcm ON lcm.id = ll.lcm_id
		JOIN concesionarios_marcas cm ON cm.id = lcm.concesionario_marca_id AND cm.marca_id = ?
		`
		args = append(args, marcaID)
	}

	query += " WHERE 1=1"
	if desde != nil {
		query += " AND ll.fecha_llamada >= ?"
		args = append(args, *desde)
	}
	if hasta != nil {
		query += " AND ll.fecha_llamada < ?"
		args = append(args, *hasta)
	}

	query += `
		GROUP BY periodo
		ORDER BY periodo DESC
		LIMIT 30
	`

	rows := []TimelineBucket{}
	if err := h.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		translateDBError(c, h.development, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// parseDateRange lee start_date/end_date (YYYY-MM-DD). end_date es
// inclusivo: se convierte en un límite exclusivo al día siguiente.
// Escribe el 400 y devuelve ok=false si el formato no es válido.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var desde, hasta *time.Time

	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "start_date debe tener formato YYYY-MM-DD"})
			return nil, nil, false
		}
		desde = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "end_date debe tener formato YYYY-MM-DD"})
			return nil, nil, false
		}
		exclusivo := t.AddDate(0, 0, 1)
		hasta = &exclusivo
	}
	return desde, hasta, true
}

// appendCallDateRange acota las llamadas dentro de la condición del LEFT
// JOIN, no en el WHERE: así los leads sin llamadas en el rango siguen
// contando como leads.
func appendCallDateRange(query string, args []interface{}, desde, hasta *time.Time) (string, []interface{}) {
	if desde != nil {
		query += " AND ll.fecha_llamada >= ?"
		args = append(args, *desde)
	}
	if hasta != nil {
		query += " AND ll.fecha_llamada < ?"
		args = append(args, *hasta)
	}
	return query, args
}

// appendMarcaFilters añade los filtros opcionales marca_id/concesionario_id
func appendMarcaFilters(c *gin.Context, query string, args []interface{}) (string, []interface{}, bool) {
	where := " WHERE 1=1"

	if marcaID := c.Query("marca_id"); marcaID != "" {
		if _, err := uuid.Parse(marcaID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "marca_id no es un UUID válido"})
			return "", nil, false
		}
		where += " AND m.id = ?"
		args = append(args, marcaID)
	}
	if concID := c.Query("concesionario_id"); concID != "" {
		if _, err := uuid.Parse(concID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "concesionario_id no es un UUID válido"})
			return "", nil, false
		}
		where += " AND cm.concesionario_id = ?"
		args = append(args, concID)
	}

	return query + where, args, true
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
