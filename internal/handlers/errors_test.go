package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func runTranslate(development bool, err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	translateDBError(c, development, err)
	return w
}

func TestTranslateDBErrorDuplicado(t *testing.T) {
	w := runTranslate(false, &pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate_entry")
	// el texto crudo del driver no se filtra
	assert.NotContains(t, w.Body.String(), "duplicate key value")
}

func TestTranslateDBErrorReferenciaInvalida(t *testing.T) {
	w := runTranslate(false, &pgconn.PgError{Code: "23503", Message: "violates foreign key"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_reference")
}

func TestTranslateDBErrorNoDisponible(t *testing.T) {
	w := runTranslate(false, errors.New("dial tcp: connection refused"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "service_unavailable")
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestTranslateDBErrorInterno(t *testing.T) {
	w := runTranslate(false, errors.New("algo muy raro"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "algo muy raro")
}

func TestTranslateDBErrorDetalleEnDesarrollo(t *testing.T) {
	w := runTranslate(true, errors.New("algo muy raro"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "algo muy raro")
}
