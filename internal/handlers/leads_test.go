package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const leadID = "a3cbb2aa-9a40-4a84-bf77-0c5a10e8b111"

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func performRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newLeadsRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLeadsHandler(db, true)
	r := gin.New()
	r.GET("/api/leads", h.List)
	r.GET("/api/leads/:id", h.Get)
	r.POST("/api/leads", h.Create)
	r.PATCH("/api/leads/:id", h.Update)
	r.DELETE("/api/leads/:id", h.Delete)
	r.GET("/api/leads/:id/notes", h.ListNotes)
	r.POST("/api/leads/:id/notes", h.CreateNote)
	r.GET("/api/leads/:id/history", h.History)
	r.GET("/api/leads/:id/calls", h.Calls)
	r.GET("/api/leads/:id/whatsapp", h.WhatsApp)
	return r
}

func TestListLeadsPaginacionYAgregado(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "nombre", "apellidos", "estado_actual", "activo", "intentos_compra"}).
		AddRow(leadID, "María", "González", "nuevo", true, "[]")
	// el listado excluye siempre desactivados y opt-out
	mock.ExpectQuery(`l\.activo = TRUE AND l\.opt_out = FALSE`).WillReturnRows(rows)

	w := performRequest(newLeadsRouter(db), http.MethodGet, "/api/leads?limit=10&offset=0", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			ID             string            `json:"id"`
			IntentosCompra []json.RawMessage `json:"intentos_compra"`
		} `json:"data"`
		Pagination struct {
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Data, 1)
	assert.Equal(t, leadID, resp.Data[0].ID)
	// intentos_compra es [], nunca null
	assert.NotNil(t, resp.Data[0].IntentosCompra)
	assert.Equal(t, 10, resp.Pagination.Limit)
	assert.Equal(t, 0, resp.Pagination.Offset)
	assert.Equal(t, 1, resp.Pagination.Total)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLeadsLimitesInvalidos(t *testing.T) {
	db, _ := newMockDB(t)
	r := newLeadsRouter(db)

	for _, path := range []string{
		"/api/leads?limit=0",
		"/api/leads?limit=1001",
		"/api/leads?offset=-1",
		"/api/leads?status=inventado",
	} {
		w := performRequest(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGetLeadUUIDInvalido(t *testing.T) {
	db, _ := newMockDB(t)

	w := performRequest(newLeadsRouter(db), http.MethodGet, "/api/leads/no-es-un-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestGetLeadNoEncontrado(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM leads l").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := performRequest(newLeadsRouter(db), http.MethodGet, "/api/leads/"+leadID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestUpdateLeadSinCampos(t *testing.T) {
	db, mock := newMockDB(t)

	w := performRequest(newLeadsRouter(db), http.MethodPatch, "/api/leads/"+leadID, []byte(`{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no_fields")
	// un parche vacío no toca la base de datos
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLeadIgnoraColumnasDesconocidas(t *testing.T) {
	db, mock := newMockDB(t)

	// "activo" y "malicioso" no están en la lista blanca: si fueran los
	// únicos campos el parche cuenta como vacío
	body := []byte(`{"activo": false, "malicioso; DROP TABLE leads": 1}`)
	w := performRequest(newLeadsRouter(db), http.MethodPatch, "/api/leads/"+leadID, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no_fields")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLeadEstadoInvalido(t *testing.T) {
	db, _ := newMockDB(t)

	body := []byte(`{"estado_actual": "volando"}`)
	w := performRequest(newLeadsRouter(db), http.MethodPatch, "/api/leads/"+leadID, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "estado_actual")
}

func TestDeleteLeadNoEncontrado(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE leads SET activo = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := performRequest(newLeadsRouter(db), http.MethodDelete, "/api/leads/"+leadID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLead(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE leads SET activo = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := performRequest(newLeadsRouter(db), http.MethodDelete, "/api/leads/"+leadID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), leadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLeadValidacion(t *testing.T) {
	db, mock := newMockDB(t)
	r := newLeadsRouter(db)

	cases := []struct {
		name string
		body string
	}{
		{"sin nombre", `{"apellidos": "González"}`},
		{"sin apellidos", `{"nombre": "María"}`},
		{"email inválido", `{"nombre": "María", "apellidos": "González", "email": "no-es-email"}`},
		{"teléfono inválido", `{"nombre": "María", "apellidos": "González", "telefono": "abc"}`},
		{"estado inválido", `{"nombre": "María", "apellidos": "González", "estado_actual": "volando"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(r, http.MethodPost, "/api/leads", []byte(tc.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// ninguna validación fallida llega a la base de datos
	assert.NoError(t, mock.ExpectationsWereMet())
}

const lcmID = "b7de41cc-2f51-4b95-8a66-1d6b21f9c222"

func expectLeadExiste(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
}

func TestHistoryOrdenaPorFechaEntrada(t *testing.T) {
	db, mock := newMockDB(t)
	expectLeadExiste(mock)

	rows := sqlmock.NewRows([]string{"id", "lead_id", "estado_lead", "fecha_entrada", "marca", "concesionario"}).
		AddRow(lcmID, leadID, "en_seguimiento", time.Now(), "Renault", "Central")
	mock.ExpectQuery(`ORDER BY lcm\.fecha_entrada DESC`).WillReturnRows(rows)

	w := performRequest(newLeadsRouter(db), http.MethodGet, "/api/leads/"+leadID+"/history", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Renault")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallsOrdenDescendente(t *testing.T) {
	db, mock := newMockDB(t)
	expectLeadExiste(mock)

	rows := sqlmock.NewRows([]string{"id", "lead_id", "estado_llamada", "fecha_llamada", "marca", "concesionario"}).
		AddRow("ll-1", leadID, "successful", time.Now(), "Renault", "Central")
	// las llamadas salen de más reciente a más antigua
	mock.ExpectQuery(`ORDER BY ll\.fecha_llamada DESC`).
		WithArgs(leadID).
		WillReturnRows(rows)

	w := performRequest(newLeadsRouter(db), http.MethodGet, "/api/leads/"+leadID+"/calls", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallsFiltraPorRelacion(t *testing.T) {
	db, mock := newMockDB(t)
	expectLeadExiste(mock)

	mock.ExpectQuery(`AND ll\.lcm_id = (.+) ORDER BY ll\.fecha_llamada DESC`).
		WithArgs(leadID, lcmID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := performRequest(newLeadsRouter(db), http.MethodGet,
		"/api/leads/"+leadID+"/calls?brand_dealership_id="+lcmID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCallsFiltroInvalido(t *testing.T) {
	db, mock := newMockDB(t)
	expectLeadExiste(mock)

	w := performRequest(newLeadsRouter(db), http.MethodGet,
		"/api/leads/"+leadID+"/calls?brand_dealership_id=no-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhatsAppOrdenAscendente(t *testing.T) {
	db, mock := newMockDB(t)
	expectLeadExiste(mock)

	rows := sqlmock.NewRows([]string{"id", "lead_id", "tipo", "mensaje", "sender_type", "fecha_mensaje"}).
		AddRow("lm-1", leadID, "whatsapp", "hola", "lead", time.Now())
	// la conversación se lee de arriba abajo: solo whatsapp, ascendente
	mock.ExpectQuery(`lm\.tipo = 'whatsapp'(.+)ORDER BY lm\.fecha_mensaje ASC`).
		WithArgs(leadID).
		WillReturnRows(rows)

	w := performRequest(newLeadsRouter(db), http.MethodGet, "/api/leads/"+leadID+"/whatsapp", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesStub(t *testing.T) {
	db, mock := newMockDB(t)
	r := newLeadsRouter(db)

	w := performRequest(r, http.MethodGet, "/api/leads/"+leadID+"/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = performRequest(r, http.MethodPost, "/api/leads/"+leadID+"/notes", []byte(`{"nota":"llamar el lunes"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["persisted"])
	assert.Equal(t, leadID, resp["lead_id"])

	// el stub nunca persiste
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToAggregateOmiteMotivo(t *testing.T) {
	row := leadRow{IntentosJSON: `[{"id":"x","marca":"Renault","concesionario":"Central","estado_lead":"perdido","fecha_entrada":"2025-06-01T00:00:00Z","motivo_perdida":"precio"}]`}

	conMotivo, err := row.toAggregate(false)
	require.NoError(t, err)
	require.Len(t, conMotivo.IntentosCompra, 1)
	require.NotNil(t, conMotivo.IntentosCompra[0].MotivoPerdida)
	assert.Equal(t, "precio", *conMotivo.IntentosCompra[0].MotivoPerdida)

	sinMotivo, err := row.toAggregate(true)
	require.NoError(t, err)
	assert.Nil(t, sinMotivo.IntentosCompra[0].MotivoPerdida)
}

func TestToAggregateVacio(t *testing.T) {
	for _, raw := range []string{"", "[]"} {
		row := leadRow{IntentosJSON: raw}
		out, err := row.toAggregate(false)
		require.NoError(t, err)
		require.NotNil(t, out.IntentosCompra)
		assert.Empty(t, out.IntentosCompra)
	}
}
