package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/services"
)

func newStatsRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStatsHandler(db, services.NewStatsCache(nil), true)
	r := gin.New()
	r.GET("/api/stats/overview", h.Overview)
	r.GET("/api/stats/by-marca", h.ByMarca)
	r.GET("/api/stats/advanced", h.Advanced)
	r.GET("/api/stats/ranking", h.Ranking)
	r.GET("/api/stats/timeline", h.Timeline)
	return r
}

func TestOverviewConDenominadorCero(t *testing.T) {
	db, mock := newMockDB(t)

	// sin leads ni llamadas: los porcentajes llegan NULL desde NULLIF
	rows := sqlmock.NewRows([]string{
		"total_leads", "total_llamadas", "leads_exitosos", "porcentaje_exito",
		"no_interesados", "sin_respuesta", "buzon_ocupado", "llamadas_fallidas",
		"duracion_media", "intentos_por_lead",
	}).AddRow(0, 0, 0, nil, 0, 0, 0, 0, nil, nil)
	mock.ExpectQuery("FROM leads l").WillReturnRows(rows)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/overview", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// NULL, nunca NaN ni infinito ni error de división
	assert.Nil(t, resp["porcentaje_exito"])
	assert.Nil(t, resp["duracion_media"])
	assert.Nil(t, resp["intentos_por_lead"])
	assert.EqualValues(t, 0, resp["total_leads"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByMarcaPorcentaje(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{
		"marca_id", "marca", "total_leads", "total_llamadas", "leads_exitosos",
		"porcentaje_exito", "no_interesados", "sin_respuesta", "buzon_ocupado",
		"llamadas_fallidas", "duracion_media",
	}).AddRow("m-1", "Renault", 10, 25, 4, 40.0, 2, 5, 1, 0, 52.3)
	mock.ExpectQuery("FROM marcas m").WillReturnRows(rows)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/by-marca", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []MarcaStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// la marca sin leads no aparece: la agregación lleva HAVING COUNT > 0
	require.Len(t, resp, 1)
	assert.Equal(t, "Renault", resp[0].Marca)
	require.NotNil(t, resp[0].PorcentajeExito)
	assert.InDelta(t, 40.0, *resp[0].PorcentajeExito, 0.001)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByMarcaFechaInvalida(t *testing.T) {
	db, _ := newMockDB(t)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/by-marca?start_date=01-06-2025", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "start_date")
}

func TestAdvancedEtiquetas(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{
		"marca_id", "marca", "total_leads", "total_llamadas", "leads_exitosos",
		"tasa_exito", "tasa_rechazo", "tasa_contacto", "eficiencia_llamadas",
		"llamadas_por_lead", "tasa_sin_respuesta", "tasa_buzon", "total_incontactables",
	}).
		AddRow("m-1", "Renault", 10, 30, 4, 40.0, 10.0, 20.0, 13.3, 3.0, 16.7, 3.3, 2).
		AddRow("m-2", "Dacia", 8, 20, 0, 0.0, 25.0, -10.0, 0.0, 2.5, 50.0, 10.0, 6)
	mock.ExpectQuery("FROM marcas m").WillReturnRows(rows)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/advanced", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []AdvancedStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)

	assert.Equal(t, "buena", resp[0].Evaluacion)
	assert.Equal(t, "normal", resp[0].PrioridadRecontacto)

	assert.Equal(t, "mejorable", resp[1].Evaluacion)
	// 6 incontactables de 8 leads: más de la mitad
	assert.Equal(t, "alta", resp[1].PrioridadRecontacto)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluarMarca(t *testing.T) {
	alta := 15.0
	justa := 10.0
	baja := 9.9

	assert.Equal(t, "buena", evaluarMarca(&alta))
	assert.Equal(t, "buena", evaluarMarca(&justa))
	assert.Equal(t, "mejorable", evaluarMarca(&baja))
	// tasa NULL (sin denominador) no puede ser buena
	assert.Equal(t, "mejorable", evaluarMarca(nil))
}

func TestPrioridadRecontacto(t *testing.T) {
	assert.Equal(t, "normal", prioridadRecontacto(0, 0))
	assert.Equal(t, "normal", prioridadRecontacto(5, 10))
	assert.Equal(t, "alta", prioridadRecontacto(6, 10))
}

func TestRankingLimit(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"posicion", "marca_id", "marca", "total_leads", "leads_exitosos", "tasa_exito"}).
		AddRow(1, "m-1", "Renault", 10, 4, 40.0).
		AddRow(2, "m-2", "Dacia", 10, 4, 40.0)
	mock.ExpectQuery("ROW_NUMBER").WillReturnRows(rows)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/ranking?limit=2", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []RankingEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.EqualValues(t, 1, resp[0].Posicion)
	assert.EqualValues(t, 2, resp[1].Posicion)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRankingLimitInvalido(t *testing.T) {
	db, _ := newMockDB(t)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/ranking?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimelineIntervaloDesconocidoCaeADia(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("date_trunc").
		WithArgs("day").
		WillReturnRows(sqlmock.NewRows([]string{"periodo", "leads", "llamadas", "exitos"}))

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/timeline?interval=hora", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimelineMarcaInvalida(t *testing.T) {
	db, _ := newMockDB(t)

	w := performRequest(newStatsRouter(db), http.MethodGet, "/api/stats/timeline?marca_id=123", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
