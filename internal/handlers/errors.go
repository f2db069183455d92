package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Códigos SQLSTATE que traducimos a respuestas estables. El texto crudo del
// driver solo se expone en desarrollo.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateDBError convierte errores del driver en la taxonomía de la API:
// duplicate-entry, invalid-reference, availability o internal.
func translateDBError(c *gin.Context, development bool, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			c.JSON(http.StatusConflict, gin.H{
				"error":   "duplicate_entry",
				"message": "Ya existe un registro con esos datos",
			})
			return
		case pgForeignKeyViolation:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_reference",
				"message": "La referencia indicada no existe",
			})
			return
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "too many clients") {
		payload := gin.H{"error": "service_unavailable", "message": "Base de datos no disponible"}
		if development {
			payload["detail"] = err.Error()
		}
		c.JSON(http.StatusServiceUnavailable, payload)
		return
	}

	payload := gin.H{"error": "internal_error", "message": "Error interno"}
	if development {
		payload["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, payload)
}

// isNotFound cubre tanto el error de gorm como el scan vacío
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
